package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"account-ledger-api/internal/model"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health        *HealthHandler
	Accounts      *AccountHandler
	Transactions  *TransactionHandler
	Notifications *NotificationHandler
}

// RouterConfig carries the cross-cutting settings of the router
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP routes and middleware chain
func NewRouter(h Handlers, cfg RouterConfig, logger *logrus.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Origin", "Accept", "Idempotency-Key"},
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "Route not found", model.ErrCodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", model.ErrCodeInvalidInput)
	})

	r.Get("/", Welcome)
	r.Method(http.MethodGet, "/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", h.Accounts.ListUsers)
		r.Delete("/users", h.Accounts.DeleteUsers)
		r.Post("/register", h.Accounts.Register)
		r.Post("/login", h.Accounts.Login)
		r.Get("/balance", h.Accounts.GetBalance)
		r.Get("/verify-name", h.Accounts.VerifyName)

		r.Post("/transfer", h.Transactions.CreateTransfer)
		r.Get("/transactions", h.Transactions.ListTransactions)

		r.Get("/notifications", h.Notifications.ListUnread)
		r.Post("/notifications/mark-read", h.Notifications.MarkAllRead)
	})

	return r
}
