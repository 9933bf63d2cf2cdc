package handler

import (
	"context"
	"net/http"
	"time"

	"account-ledger-api/internal/model"
)

// HealthChecker reports storage reachability
type HealthChecker interface {
	CheckHealth(ctx context.Context) model.DatabaseHealth
}

// HealthHandler reports service and storage health on GET /healthz
type HealthHandler struct {
	checker HealthChecker
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		version: version,
	}
}

// ServeHTTP writes the health report, with 503 when storage is unhealthy
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Database:  h.checker.CheckHealth(r.Context()),
	}

	statusCode := http.StatusOK
	if response.Database.Status != "healthy" {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, statusCode, response)
}

// Welcome handles GET /
func Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Welcome to the account ledger API"))
}
