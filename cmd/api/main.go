package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/job-queue/pkg/broker"
	"github.com/abdul-hamid-achik/job-queue/pkg/job"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/slidecast/slidecast/internal/api"
	"github.com/slidecast/slidecast/internal/config"
	"github.com/slidecast/slidecast/internal/converter"
	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/logger"
	"github.com/slidecast/slidecast/internal/metrics"
	"github.com/slidecast/slidecast/internal/quota"
	"github.com/slidecast/slidecast/internal/storage"
	"github.com/slidecast/slidecast/internal/thumbnail"
	"github.com/slidecast/slidecast/internal/tracing"
)

type brokerAdapter struct {
	broker *broker.RedisStreamsBroker
}

func (a *brokerAdapter) Enqueue(jobType string, payload interface{}) (string, error) {
	j, err := job.New(jobType, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	if err := a.broker.Enqueue(context.Background(), j); err != nil {
		return "", err
	}
	return j.ID, nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Default()

	log.Info("configuration loaded")

	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdownTracing, err := tracing.Init(ctx, &tracing.Config{
			ServiceName:    "api",
			ServiceVersion: "1.0.0",
			Environment:    cfg.Environment,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			Enabled:        true,
			SampleRate:     cfg.TraceSampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() { _ = shutdownTracing(ctx) }()
		log.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint, "sample_rate", cfg.TraceSampleRate)
	}

	log.Info("connecting to database")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("database connected")

	log.Info("connecting to object storage")
	store, err := storage.NewMinIOStorage(&storage.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
		Region:    cfg.MinIORegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}
	log.Info("object storage connected")

	log.Info("connecting to redis")
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpt)
	defer func() { _ = redisClient.Close() }()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	b := broker.NewRedisStreamsBroker(redisClient)
	log.Info("broker initialized")

	queries := db.New(pool)

	metrics.SetAppInfo("1.0.0", cfg.Environment, "api")

	instrumentedStore := metrics.NewInstrumentedStorage(store)

	convertClient := converter.NewClient(cfg.ConvertAPIURL, cfg.ConvertAPIKey)
	ledger := quota.NewLedger(queries)
	failures := thumbnail.NewRecorder(queries)

	submitter := thumbnail.NewSubmitter(thumbnail.SubmitterConfig{
		Store:        queries,
		Ledger:       ledger,
		Signer:       instrumentedStore,
		Converter:    convertClient,
		Failures:     failures,
		CallbackURL:  cfg.BaseURL + "/v1/callbacks/convert",
		SignedURLTTL: cfg.SignedURLTTL,
	})

	processor := thumbnail.NewProcessor(thumbnail.ProcessorConfig{
		Store:     queries,
		Storage:   instrumentedStore,
		Converter: convertClient,
		Failures:  failures,
		Secret:    cfg.ConvertCallbackSecret,
	})

	log.Info("setting up routes")
	handler := api.NewRouter(&api.Config{
		Pool:        pool,
		RedisClient: redisClient,
		Storage:     instrumentedStore,
		Broker:      &brokerAdapter{broker: b},
		Thumbnails: &api.ThumbnailsConfig{
			Submitter:    submitter,
			Queries:      queries,
			Signer:       instrumentedStore,
			SignedURLTTL: cfg.SignedURLTTL,
		},
		Tenants:  &api.TenantsConfig{Ledger: ledger, Queries: queries},
		Callback: &api.CallbackConfig{Processor: processor},
	})

	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "api")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			_ = server.Close()
			return fmt.Errorf("forced shutdown: %w", err)
		}
	}

	log.Info("server stopped gracefully")
	return nil
}
