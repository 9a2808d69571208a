package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

// ConnectAttempts bounds how long a command waits for Postgres to come up.
const ConnectAttempts = 5

func retryOptions(ctx context.Context, what string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(ConnectAttempts),
		retry.Delay(500 * time.Millisecond),
		retry.MaxDelay(5 * time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("postgres not ready", slog.String("pool", what), slog.Uint64("attempt", uint64(n+1)), slog.Any("error", err))
		}),
	}
}

// New opens a database/sql handle on the lib/pq driver and pings it.
func New(ctx context.Context, url string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	err = retry.Do(func() error {
		return conn.PingContext(ctx)
	}, retryOptions(ctx, "sql")...)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return conn, nil
}

// NewPool opens a pgx connection pool and pings it.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	err = retry.Do(func() error {
		return pool.Ping(ctx)
	}, retryOptions(ctx, "pgx")...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}
