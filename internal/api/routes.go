// Package api exposes the HTTP surface: thumbnail submission and status,
// the conversion callback, tenant quota, sweep triggers, and the health
// and metrics endpoints.
package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/slidecast/slidecast/internal/health"
	"github.com/slidecast/slidecast/internal/storage"
)

type Config struct {
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	Storage     storage.Storage
	Broker      Broker

	Thumbnails *ThumbnailsConfig
	Tenants    *TenantsConfig
	Callback   *CallbackConfig
}

func NewRouter(cfg *Config) http.Handler {
	mux := http.NewServeMux()

	checker := health.NewChecker(cfg.Pool, cfg.RedisClient)
	if cfg.Storage != nil {
		checker = checker.WithStorage(cfg.Storage)
	}
	mux.HandleFunc("GET /health", health.HealthHandler(checker))
	mux.HandleFunc("GET /health/live", health.LivenessHandler())
	mux.HandleFunc("GET /health/ready", health.ReadinessHandler(checker))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/slides/{id}/thumbnail", SubmitThumbnailHandler(cfg.Thumbnails))
	mux.HandleFunc("POST /v1/slides/{id}/thumbnail/retry", RetryThumbnailHandler(cfg.Thumbnails))
	mux.HandleFunc("GET /v1/slides/{id}/thumbnail", GetThumbnailHandler(cfg.Thumbnails))

	mux.HandleFunc("POST /v1/tenants", ProvisionTenantHandler(cfg.Tenants))
	mux.HandleFunc("GET /v1/tenants/{id}/quota", TenantQuotaHandler(cfg.Tenants))

	mux.HandleFunc("POST /v1/callbacks/convert", ConvertCallbackHandler(cfg.Callback))

	sweeps := &SweepsConfig{Broker: cfg.Broker}
	mux.HandleFunc("POST /v1/sweeps/retroactive", EnqueueRetroSweepHandler(sweeps))
	mux.HandleFunc("POST /v1/sweeps/retention", EnqueueRetentionSweepHandler(sweeps))

	var handler http.Handler = mux
	handler = Metrics(handler)
	handler = Recovery(handler)
	handler = RequestLogger(handler)
	handler = RequestID(handler)
	return handler
}
