package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/drjagan/e-logbook/internal/api"
	"github.com/drjagan/e-logbook/internal/auth"
	"github.com/drjagan/e-logbook/internal/cache"
	"github.com/drjagan/e-logbook/internal/config"
	"github.com/drjagan/e-logbook/internal/domain"
	"github.com/drjagan/e-logbook/internal/logging"
	"github.com/drjagan/e-logbook/internal/outbox"
	"github.com/drjagan/e-logbook/internal/persistence/memory"
	persistence "github.com/drjagan/e-logbook/internal/persistence/postgres"
	httptransport "github.com/drjagan/e-logbook/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "elogbook-api")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo       domain.ActivityRepository
		dispatcher *outbox.Dispatcher
	)
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		repo = persistence.NewRepository(pool)

		if cfg.OutboxEnabled {
			producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
			defer producer.Close()
			dispatcher = outbox.NewDispatcher(outbox.NewPostgresStore(pool), producer, logger.Named("outbox"), cfg.OutboxPollInterval, cfg.OutboxBatchSize)
			go dispatcher.Start(ctx)
		}
	} else {
		logger.Warn("POSTGRES_URL not set, keeping activities in memory")
		repo = memory.NewRepository()
	}

	opts := []domain.Option{domain.WithLogger(logger.Named("domain"))}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, stats cache errors will be logged", zap.Error(err))
		}
		opts = append(opts, domain.WithStatsCache(cache.NewRedisStatsCache(rdb, cfg.StatsCacheTTL)))
	}
	service := domain.NewService(repo, opts...)

	router := chi.NewRouter()
	router.Use(httptransport.RequestLogger(logger.Named("http")))
	router.Use(httptransport.CORS(cfg.CORSOrigin))
	router.Use(auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, auth.PublicPaths).Wrap)
	router.Handle("/metrics", promhttp.Handler())
	api.NewHandler(service, logger.Named("api")).RegisterRoutes(router)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, router)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("elogbook api listening", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
