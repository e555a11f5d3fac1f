package thumbnail

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/logger"
)

// Retro sweep defaults. The per-tenant cap keeps one large tenant from
// starving the rest of a run; the global cap bounds run duration.
const (
	DefaultPerTenantCap = 10
	DefaultGlobalCap    = 50
	DefaultLookback     = 30 * 24 * time.Hour
	DefaultPacing       = 2 * time.Second
)

type SweepStore interface {
	ListThumbnailBacklog(ctx context.Context, arg db.ListThumbnailBacklogParams) ([]db.Slide, error)
}

// SlideSubmitter is the submission entry point the sweeper drives.
type SlideSubmitter interface {
	Submit(ctx context.Context, slideID pgtype.UUID) (*SubmitResult, error)
}

type RetroSweepSummary struct {
	Total          int      `json:"total"`
	Processed      int      `json:"processed"`
	Skipped        int      `json:"skipped"`
	Failed         int      `json:"failed"`
	QuotaExhausted int      `json:"quota_exhausted"`
	Errors         []string `json:"errors,omitempty"`
}

type RetroSweeperConfig struct {
	Store     SweepStore
	Submitter SlideSubmitter
	Ledger    QuotaLedger

	PerTenantCap int
	GlobalCap    int
	Lookback     time.Duration
	// Pacing is the delay between submissions, a courtesy to the
	// converter's rate limits. Zero disables it.
	Pacing time.Duration
}

// RetroSweeper picks up eligible slides that never got a thumbnail and
// feeds them through the submitter under per-tenant and global caps.
type RetroSweeper struct {
	cfg RetroSweeperConfig
	now func() time.Time
}

func NewRetroSweeper(cfg RetroSweeperConfig) *RetroSweeper {
	if cfg.PerTenantCap <= 0 {
		cfg.PerTenantCap = DefaultPerTenantCap
	}
	if cfg.GlobalCap <= 0 {
		cfg.GlobalCap = DefaultGlobalCap
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	return &RetroSweeper{cfg: cfg, now: time.Now}
}

// Run executes one sweep. Zero eligible slides is a normal no-op. A
// per-slide failure never aborts the run; it lands in the summary.
func (s *RetroSweeper) Run(ctx context.Context) (*RetroSweepSummary, error) {
	cutoff := s.now().Add(-s.cfg.Lookback)
	slides, err := s.cfg.Store.ListThumbnailBacklog(ctx, db.ListThumbnailBacklogParams{
		UploadedAfter: pgtype.Timestamptz{Time: cutoff, Valid: true},
		MimeTypes:     SupportedMimeTypes(),
	})
	if err != nil {
		return nil, fmt.Errorf("list thumbnail backlog: %w", err)
	}

	summary := &RetroSweepSummary{Total: len(slides)}
	log := logger.FromContext(ctx)

	var tenantOrder []string
	byTenant := make(map[string][]db.Slide)
	for _, slide := range slides {
		key := uuidString(slide.TenantID)
		if _, seen := byTenant[key]; !seen {
			tenantOrder = append(tenantOrder, key)
		}
		byTenant[key] = append(byTenant[key], slide)
	}

	// Both caps bound submission attempts, not successes, so a tenant
	// whose submissions all fail still cannot extend the run.
	attempted := 0
	for _, tenantKey := range tenantOrder {
		tenantSlides := byTenant[tenantKey]

		if attempted >= s.cfg.GlobalCap {
			summary.Skipped += len(tenantSlides)
			continue
		}

		// One cheap read saves up to PerTenantCap doomed submissions
		// for a tenant that is already out of credits.
		snap, err := s.cfg.Ledger.Status(ctx, tenantSlides[0].TenantID)
		if err != nil {
			summary.Failed += len(tenantSlides)
			summary.Errors = append(summary.Errors, fmt.Sprintf("tenant %s: quota status: %v", tenantKey, err))
			continue
		}
		if !snap.Available {
			summary.Skipped += len(tenantSlides)
			continue
		}

		attemptedForTenant := 0
		for i, slide := range tenantSlides {
			if attemptedForTenant >= s.cfg.PerTenantCap || attempted >= s.cfg.GlobalCap {
				summary.Skipped += len(tenantSlides) - i
				break
			}

			if attempted > 0 && s.cfg.Pacing > 0 {
				if err := sleepCtx(ctx, s.cfg.Pacing); err != nil {
					summary.Skipped += len(tenantSlides) - i
					return summary, err
				}
			}
			attempted++
			attemptedForTenant++

			result, err := s.cfg.Submitter.Submit(ctx, slide.ID)
			if err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("slide %s: %v", uuidString(slide.ID), err))
				continue
			}

			switch result.Status {
			case StatusProcessing, StatusCompleted:
				summary.Processed++
			case StatusQuotaExhausted:
				// Out of credits mid-run; the tenant's remaining
				// slides wait for the next run.
				summary.QuotaExhausted++
				summary.Skipped += len(tenantSlides) - i - 1
			default:
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("slide %s: %s", uuidString(slide.ID), result.Message))
			}
			if result.Status == StatusQuotaExhausted {
				break
			}
		}
	}

	log.Info("retroactive sweep finished",
		"total", summary.Total,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"quota_exhausted", summary.QuotaExhausted,
	)
	return summary, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
