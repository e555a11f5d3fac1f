// Package worker wires the sweep jobs into the queue consumer. Each
// handler builds a sweeper from the shared base config, runs it once, and
// reports the summary through logs and metrics.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/job-queue/pkg/job"
	"github.com/abdul-hamid-achik/job-queue/pkg/middleware"

	"github.com/slidecast/slidecast/internal/logger"
	"github.com/slidecast/slidecast/internal/metrics"
	"github.com/slidecast/slidecast/internal/thumbnail"
)

type Dependencies struct {
	RetroConfig     thumbnail.RetroSweeperConfig
	RetentionConfig thumbnail.RetentionSweeperConfig
}

func RetroSweepHandler(deps *Dependencies) func(context.Context, *job.Job) error {
	return func(ctx context.Context, j *job.Job) error {
		log := logger.FromContext(ctx).With("job_id", j.ID, "job_type", JobTypeRetroSweep)
		log.Info("job started")
		start := time.Now()

		var payload RetroSweepPayload
		if err := j.UnmarshalPayload(&payload); err != nil {
			log.Error("invalid payload", "error", err)
			return middleware.Permanent(fmt.Errorf("invalid payload: %w", err))
		}

		cfg := deps.RetroConfig
		if payload.PerTenantCap > 0 {
			cfg.PerTenantCap = payload.PerTenantCap
		}
		if payload.GlobalCap > 0 {
			cfg.GlobalCap = payload.GlobalCap
		}

		summary, err := thumbnail.NewRetroSweeper(cfg).Run(ctx)
		if err != nil {
			metrics.RecordSweepRun("retro", "error")
			log.Error("retroactive sweep failed", "error", err)
			return fmt.Errorf("retroactive sweep: %w", err)
		}

		metrics.RecordSweepRun("retro", "success")
		metrics.RecordSweepItems("retro", "processed", summary.Processed)
		metrics.RecordSweepItems("retro", "skipped", summary.Skipped)
		metrics.RecordSweepItems("retro", "failed", summary.Failed)
		metrics.RecordSweepItems("retro", "quota_exhausted", summary.QuotaExhausted)

		log.Info("job completed",
			"duration_ms", time.Since(start).Milliseconds(),
			"total", summary.Total,
			"processed", summary.Processed,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
		)
		return nil
	}
}

func RetentionSweepHandler(deps *Dependencies) func(context.Context, *job.Job) error {
	return func(ctx context.Context, j *job.Job) error {
		log := logger.FromContext(ctx).With("job_id", j.ID, "job_type", JobTypeRetentionSweep)
		log.Info("job started")
		start := time.Now()

		var payload RetentionSweepPayload
		if err := j.UnmarshalPayload(&payload); err != nil {
			log.Error("invalid payload", "error", err)
			return middleware.Permanent(fmt.Errorf("invalid payload: %w", err))
		}

		summary, err := thumbnail.NewRetentionSweeper(deps.RetentionConfig).Run(ctx)
		if err != nil {
			metrics.RecordSweepRun("retention", "error")
			log.Error("retention sweep failed", "error", err)
			return fmt.Errorf("retention sweep: %w", err)
		}

		metrics.RecordSweepRun("retention", "success")
		metrics.RecordSweepItems("retention", "deleted", summary.DeletedCount)
		metrics.RecordSweepItems("retention", "failed", len(summary.Errors))

		log.Info("job completed",
			"duration_ms", time.Since(start).Milliseconds(),
			"processed", summary.ProcessedCount,
			"deleted", summary.DeletedCount,
			"errors", len(summary.Errors),
		)
		return nil
	}
}
