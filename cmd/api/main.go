package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/Lelo88/inventory-pricing-api/internal/cart"
	"github.com/Lelo88/inventory-pricing-api/internal/config"
	"github.com/Lelo88/inventory-pricing-api/internal/db"
	"github.com/Lelo88/inventory-pricing-api/internal/docs"
	"github.com/Lelo88/inventory-pricing-api/internal/health"
	"github.com/Lelo88/inventory-pricing-api/internal/httpx"
	"github.com/Lelo88/inventory-pricing-api/internal/items"
	"github.com/Lelo88/inventory-pricing-api/internal/logger"
	"github.com/Lelo88/inventory-pricing-api/internal/metrics"
	"github.com/Lelo88/inventory-pricing-api/internal/migrations"
	"github.com/Lelo88/inventory-pricing-api/internal/pricing"
)

const serviceName = "inventory-pricing-api"

// appPool es lo que main necesita del pool: health, repositorio y cierre.
type appPool interface {
	Ping(ctx context.Context) error
	Close()
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type appDeps struct {
	loadConfig     func() (config.Config, error)
	newPool        func(ctx context.Context, url string) (appPool, error)
	listenAndServe func(addr string, handler http.Handler) error
	logf           func(format string, args ...any)
}

// routerDeps agrupa lo que se arma a partir de la config.
type routerDeps struct {
	logger     *logger.Logger
	registry   *prometheus.Registry
	engine     *pricing.Engine
	cartStore  cart.Store
	cache      health.Pinger
	undoWindow time.Duration
}

var (
	loadConfigFn = config.Load
	newPoolFn    = func(ctx context.Context, url string) (appPool, error) {
		return db.NewPool(ctx, url)
	}
	listenAndServeFn = http.ListenAndServe
	logfFn           = zlog.Printf
	fatalf           = func(args ...any) {
		zlog.Fatal().Msg(fmt.Sprint(args...))
	}
	newRedisFn = db.NewRedis
)

func main() {
	deps := appDeps{
		loadConfig:     loadConfigFn,
		newPool:        newPoolFn,
		listenAndServe: listenAndServeFn,
		logf:           logfFn,
	}

	if err := run(context.Background(), deps); err != nil {
		fatalf(err)
	}
}

func run(ctx context.Context, deps appDeps) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	location, err := loadLocation(cfg)
	if err != nil {
		return err
	}
	rules := pricing.DefaultRules()
	if cfg.PricingRulesFile != "" {
		rules, err = pricing.LoadRulesFile(cfg.PricingRulesFile)
		if err != nil {
			return err
		}
		logg.Event(ctx, zerolog.InfoLevel).Str("file", cfg.PricingRulesFile).Msg("pricing rules loaded")
	}

	pool, err := deps.newPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := migratePool(ctx, pool); err != nil {
			return err
		}
		logg.Info(ctx, "migrations applied")
	}

	router := routerDeps{
		logger:     logg,
		registry:   newRegistry(),
		engine:     pricing.NewEngine(rules, location),
		cartStore:  cart.NewMemoryStore(cfg.CartTTL),
		undoWindow: cfg.UndoWindow,
	}

	if cfg.RedisURL != "" {
		client, err := newRedisFn(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		router.cartStore = cart.NewRedisStore(client, cfg.CartTTL)
		router.cache = redisPinger(client)
		logg.Info(ctx, "carts stored in redis")
	} else {
		logg.Warn(ctx, "REDIS_URL not set, carts stored in memory")
	}

	addr := ":" + cfg.Port
	deps.logf("listening on %s", addr)
	return deps.listenAndServe(addr, newRouter(pool, router))
}

// buildRouter arma el router con dependencias en memoria.
func buildRouter(pool appPool) http.Handler {
	return newRouter(pool, routerDeps{})
}

func newRouter(pool appPool, deps routerDeps) http.Handler {
	if deps.logger == nil {
		deps.logger = logger.Nop()
	}
	if deps.registry == nil {
		deps.registry = prometheus.NewRegistry()
	}
	if deps.engine == nil {
		deps.engine = pricing.NewEngine(pricing.DefaultRules(), time.UTC)
	}
	if deps.cartStore == nil {
		deps.cartStore = cart.NewMemoryStore(24 * time.Hour)
	}

	collector := metrics.New(deps.registry)

	itemService := items.NewService(items.NewRepository(pool), items.WithUndoWindow(deps.undoWindow))
	cartService := cart.NewService(deps.cartStore, itemService, deps.engine,
		cart.WithMetrics(collector),
		cart.WithLogger(deps.logger),
	)

	r := chi.NewRouter()

	// Middlewares base para trazabilidad y estabilidad.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.RequestLogger(deps.logger))
	r.Use(collector.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	// Errores de routing se manejan a nivel router.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	var healthOpts []health.Option
	if deps.cache != nil {
		healthOpts = append(healthOpts, health.WithCache(deps.cache))
	}
	healthHandler := health.New(pool, healthOpts...)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.registry))

	docs.RegisterRoutes(r)
	items.RegisterRoutes(r, items.NewHandler(itemService, deps.logger))
	cart.RegisterRoutes(r, cart.NewHandler(cartService, deps.logger))

	return r
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func loadLocation(cfg config.Config) (*time.Location, error) {
	if cfg.StoreTimezone == "" {
		return time.UTC, nil
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEZONE: %w", err)
	}
	return location, nil
}

// migratePool corre goose sobre el mismo pool; solo aplica a un pgxpool real.
func migratePool(ctx context.Context, pool appPool) error {
	pgPool, ok := pool.(*pgxpool.Pool)
	if !ok {
		return errors.New("auto migrate requires a postgres pool")
	}
	sqlDB := stdlib.OpenDBFromPool(pgPool)
	defer func() { _ = sqlDB.Close() }()

	return migrations.Up(ctx, sqlDB)
}

func redisPinger(client *redis.Client) health.Pinger {
	return health.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
