package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slidecast/slidecast/internal/config"
	"github.com/slidecast/slidecast/internal/converter"
	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/logger"
	"github.com/slidecast/slidecast/internal/quota"
	"github.com/slidecast/slidecast/internal/storage"
	"github.com/slidecast/slidecast/internal/thumbnail"
)

type runtime struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	queries   *db.Queries
	store     *storage.MinIOStorage
	ledger    *quota.Ledger
	submitter *thumbnail.Submitter
}

func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if configFile != "" {
		overrides, err := loadOverrides(configFile)
		if err != nil {
			return nil, err
		}
		if err := overrides.apply(cfg); err != nil {
			return nil, err
		}
	}

	logger.Init(cfg.LogLevel)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store, err := storage.NewMinIOStorage(&storage.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
		Region:    cfg.MinIORegion,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to storage: %w", err)
	}

	queries := db.New(pool)
	ledger := quota.NewLedger(queries)
	failures := thumbnail.NewRecorder(queries)

	submitter := thumbnail.NewSubmitter(thumbnail.SubmitterConfig{
		Store:        queries,
		Ledger:       ledger,
		Signer:       store,
		Converter:    converter.NewClient(cfg.ConvertAPIURL, cfg.ConvertAPIKey),
		Failures:     failures,
		CallbackURL:  cfg.BaseURL + "/v1/callbacks/convert",
		SignedURLTTL: cfg.SignedURLTTL,
	})

	return &runtime{
		cfg:       cfg,
		pool:      pool,
		queries:   queries,
		store:     store,
		ledger:    ledger,
		submitter: submitter,
	}, nil
}

func (rt *runtime) Close() {
	rt.pool.Close()
}
