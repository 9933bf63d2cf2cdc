package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"account-ledger-api/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is recorded in schema_migrations once schema.sql has been applied
const schemaVersion = "20250101000000_initial"

// PoolConfig tunes the database/sql connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Postgres owns the database handle shared by the repositories
type Postgres struct {
	db *sql.DB
}

// OpenPostgres opens and verifies a connection pool for the given DSN
func OpenPostgres(ctx context.Context, dsn string, pool PoolConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// DB exposes the underlying handle to the repository constructors
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	query := `
		INSERT INTO schema_migrations (version, applied_at)
		VALUES ($1, NOW())
		ON CONFLICT (version) DO NOTHING
	`
	if _, err := p.db.ExecContext(ctx, query, schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// Close releases the connection pool
func (p *Postgres) Close() error {
	return p.db.Close()
}

// CheckHealth pings the database and reports pool statistics
func (p *Postgres) CheckHealth(ctx context.Context) model.DatabaseHealth {
	dbHealth := model.DatabaseHealth{
		Driver: "postgres",
		Status: "unhealthy",
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.db.PingContext(ctx); err != nil {
		return dbHealth
	}

	stats := p.db.Stats()
	dbHealth.ConnectionPool = fmt.Sprintf("open: %d, idle: %d, in_use: %d",
		stats.OpenConnections, stats.Idle, stats.InUse)

	var version sql.NullString
	query := `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`
	if err := p.db.QueryRowContext(ctx, query).Scan(&version); err == nil && version.Valid {
		dbHealth.Migration = version.String
	}

	dbHealth.Status = "healthy"
	return dbHealth
}
