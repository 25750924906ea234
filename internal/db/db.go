package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectTimeout  = 5 * time.Second
	maxConnLifetime = 30 * time.Minute
)

type poolPinger interface {
	Ping(ctx context.Context) error
	Close()
}

var (
	parseConfig = pgxpool.ParseConfig
	newPool     = pgxpool.NewWithConfig
	pingPool    = func(ctx context.Context, pool poolPinger) error {
		return pool.Ping(ctx)
	}
	closePool = func(pool poolPinger) {
		pool.Close()
	}
)

// NewPool crea un pool de conexiones a PostgreSQL.
// Se usa un timeout corto para evitar que el arranque quede colgado si la DB no responde.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := parseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConnLifetime = maxConnLifetime

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := newPool(ctx, config)
	if err != nil {
		return nil, err
	}

	// Validación temprana: asegura que la app no arranca "a medias".
	if err := pingPool(ctx, pool); err != nil {
		closePool(pool)
		return nil, err
	}

	return pool, nil
}
