package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/foodcart-backend/api/controllers"
	"github.com/angelmondragon/foodcart-backend/api/routes"
	"github.com/angelmondragon/foodcart-backend/internal/checkout"
	"github.com/angelmondragon/foodcart-backend/internal/cron"
	"github.com/angelmondragon/foodcart-backend/internal/orders"
	"github.com/angelmondragon/foodcart-backend/internal/pricing"
	"github.com/angelmondragon/foodcart-backend/internal/sessions"
	"github.com/angelmondragon/foodcart-backend/pkg/config"
	"github.com/angelmondragon/foodcart-backend/pkg/db"
	"github.com/angelmondragon/foodcart-backend/pkg/logger"
	"github.com/angelmondragon/foodcart-backend/pkg/metrics"
	"github.com/angelmondragon/foodcart-backend/pkg/migrate"
	"github.com/angelmondragon/foodcart-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		Format:      logger.ParseFormat(cfg.App.LogFormat),
		WarnStack:   cfg.App.LogWarnStack,
	})

	rules, err := pricing.RulesFromConfig(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "invalid pricing rules", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{"db": dbClient, "redis": nil}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness["redis"] = redisClient
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(reg)

	sessionParams := sessions.Params{
		IdleTTL: cfg.Session.IdleTTL,
		Logger:  logg,
		Metrics: cartMetrics,
	}
	if cfg.FeatureFlags.PersistCarts {
		if redisClient == nil {
			logg.Error(context.Background(), "cart persistence requires redis", errors.New("FOODCART_REDIS_URL or FOODCART_REDIS_ADDR not set"))
			os.Exit(1)
		}
		store, err := sessions.NewRedisSnapshotStore(redisClient, cfg.Session.SnapshotTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cart snapshot store", err)
			os.Exit(1)
		}
		sessionParams.Store = store
	}
	carts := sessions.NewRegistry(sessionParams)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:   carts,
		Orders:  orders.NewRepository(dbClient.DB()),
		Rules:   rules,
		Logger:  logg,
		Metrics: cartMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	sweeper, err := newIdleCartSweeper(cfg, logg, carts, reg)
	if err != nil {
		logg.Error(context.Background(), "failed to create idle cart sweeper", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"persist_carts": cfg.FeatureFlags.PersistCarts,
	})

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "idle cart sweeper stopped unexpectedly", err)
		}
	}()

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, checkoutService, redisClient, reg, readiness),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}

	<-sweepDone
	if cfg.FeatureFlags.PersistCarts {
		// flush every cart in memory so a restart can restore it.
		if _, err := carts.EvictIdle(context.Background(), time.Now().Add(cfg.Session.IdleTTL+time.Minute)); err != nil {
			logg.Error(context.Background(), "failed to flush carts on shutdown", err)
		}
	}
	logg.Info(context.Background(), "api server stopped")
}

// newIdleCartSweeper runs the idle cart job in-process. Carts live in this
// process's memory, so a local lock is enough.
func newIdleCartSweeper(cfg *config.Config, logg *logger.Logger, carts *sessions.Registry, reg prometheus.Registerer) (*cron.Service, error) {
	job, err := cron.NewIdleCartJob(cron.IdleCartJobParams{Logger: logg, Sessions: carts})
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Name:     "idle-carts",
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     &cron.LocalLock{},
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Session.SweepInterval,
	})
}
