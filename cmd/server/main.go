package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"account-ledger-api/internal/config"
	"account-ledger-api/internal/credential"
	"account-ledger-api/internal/events"
	"account-ledger-api/internal/handler"
	"account-ledger-api/internal/jobs"
	"account-ledger-api/internal/repository"
	"account-ledger-api/internal/service"
)

const version = "1.0.0"

// storage bundles the repositories of whichever driver is configured
type storage struct {
	accounts      service.AccountStore
	transfers     service.TransferStore
	transactions  service.TransactionStore
	notifications service.NotificationStore
	idempotency   interface {
		handler.IdempotencyStore
		jobs.IdempotencyCleaner
	}
	health handler.HealthChecker
	close  func() error
}

// eventPublisher is satisfied by both the broker and the log-only publisher
type eventPublisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	// Amounts are written as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := initLogger(cfg.Logger)
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize storage
	store, err := initStorage(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.close()

	passwords, err := credential.NewBcryptVerifier(cfg.Security.BcryptCost)
	if err != nil {
		logger.Fatalf("Failed to initialize credential verifier: %v", err)
	}

	publisher := initPublisher(cfg.Events, logger)
	defer publisher.Close()

	// Initialize services
	accountService := service.NewAccountService(store.accounts, passwords, logger)
	notificationService := service.NewNotificationService(store.notifications, logger)
	transactionService := service.NewTransactionService(store.transfers, store.transactions, notificationService, publisher, logger)

	// Initialize handlers
	handlers := handler.Handlers{
		Health:        handler.NewHealthHandler(store.health, version),
		Accounts:      handler.NewAccountHandler(accountService),
		Transactions:  handler.NewTransactionHandler(transactionService, store.idempotency, logger),
		Notifications: handler.NewNotificationHandler(notificationService),
	}

	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.ScheduleIdempotencyCleanup(cfg.Jobs.IdempotencyCleanupSchedule, store.idempotency); err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: handler.NewRouter(handlers, handler.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
		}, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"storage": cfg.Database.Driver,
			"version": version,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		logger.Warn("Timed out waiting for scheduled jobs")
	}

	logger.Info("Server exited")
}

func initLogger(cfg config.LoggerConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

func initStorage(cfg config.DatabaseConfig, logger *logrus.Logger) (*storage, error) {
	if cfg.Driver == config.DriverMemory {
		mem := repository.NewMemoryStore()
		logger.Warn("Using in-memory storage; data is lost on restart")
		return &storage{
			accounts:      mem.Accounts(),
			transfers:     mem.Transfers(),
			transactions:  mem.Transactions(),
			notifications: mem.Notifications(),
			idempotency:   mem.Idempotency(),
			health:        mem,
			close:         func() error { return nil },
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := repository.OpenPostgres(ctx, cfg.DSN(), repository.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, err
	}

	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	logger.Info("Database connection established")

	db := pg.DB()
	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)

	return &storage{
		accounts:      accounts,
		transfers:     repository.NewTransferRepository(db, accounts, transactions),
		transactions:  transactions,
		notifications: repository.NewNotificationRepository(db),
		idempotency:   repository.NewIdempotencyRepository(db),
		health:        pg,
		close:         pg.Close,
	}, nil
}

func initPublisher(cfg config.EventsConfig, logger *logrus.Logger) eventPublisher {
	if cfg.RabbitMQURL == "" {
		return events.NewLogPublisher(logger)
	}

	publisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.Exchange, logger)
	if err != nil {
		logger.WithError(err).Warn("RabbitMQ unavailable; transfer events will only be logged")
		return events.NewLogPublisher(logger)
	}

	logger.WithField("exchange", cfg.Exchange).Info("Publishing transfer events to RabbitMQ")
	return publisher
}
