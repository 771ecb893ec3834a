package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxConnections = 10
	connMaxLifetime       = 5 * time.Minute
	connectTimeout        = 10 * time.Second
)

// OpenPostgres connects to PostgreSQL and applies migrations.
func OpenPostgres(ctx context.Context, url string, maxConnections int) (*SQLStore, error) {
	if url == "" {
		return nil, errors.New("database URL is required for the postgres driver")
	}
	if maxConnections <= 0 {
		maxConnections = defaultMaxConnections
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConnections)
	db.SetMaxIdleConns(maxConnections / 2)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLStore{
		db: db,
		dialect: dialect{
			name:     DriverPostgres,
			numbered: true,
			timeArg: func(t time.Time) any {
				return t.UTC()
			},
			retry: noRetry,
		},
		now: time.Now,
	}
	if err := store.applyMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
