package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the two record tables if missing. Transaction and
// order rows always share the same id (the gateway reference).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			amount BIGINT NOT NULL,
			transaction_date TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			reference TEXT NOT NULL,
			channel TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			fees NUMERIC(20,2) NOT NULL DEFAULT 0,
			gateway_response TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			order_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			transaction_ref TEXT NOT NULL,
			status TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			order_date TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL,
			draft JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
	}
	for _, q := range stmts {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
