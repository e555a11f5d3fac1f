package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/logger"
	"github.com/slidecast/slidecast/internal/storage"
)

const (
	DefaultRetentionWindow = 48 * time.Hour
	DefaultRetentionBatch  = 500
)

type RetentionStore interface {
	ListRetentionExpiredSlides(ctx context.Context, arg db.ListRetentionExpiredSlidesParams) ([]db.Slide, error)
	SoftDeleteSlide(ctx context.Context, id pgtype.UUID) error
}

type RetentionError struct {
	SlideID    string `json:"slide_id"`
	StorageKey string `json:"storage_key"`
	Error      string `json:"error"`
}

type RetentionSweepSummary struct {
	ProcessedCount int              `json:"processed_count"`
	DeletedCount   int              `json:"deleted_count"`
	Errors         []RetentionError `json:"errors,omitempty"`
}

type RetentionSweeperConfig struct {
	Store   RetentionStore
	Storage storage.Storage

	Window    time.Duration
	BatchSize int32
}

// RetentionSweeper removes storage objects for slides past the retention
// window and soft-deletes the rows. Re-runs are idempotent: soft-deleted
// slides never match the query again.
type RetentionSweeper struct {
	cfg RetentionSweeperConfig
	now func() time.Time
}

func NewRetentionSweeper(cfg RetentionSweeperConfig) *RetentionSweeper {
	if cfg.Window <= 0 {
		cfg.Window = DefaultRetentionWindow
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultRetentionBatch
	}
	return &RetentionSweeper{cfg: cfg, now: time.Now}
}

func (s *RetentionSweeper) Run(ctx context.Context) (*RetentionSweepSummary, error) {
	cutoff := s.now().Add(-s.cfg.Window)
	slides, err := s.cfg.Store.ListRetentionExpiredSlides(ctx, db.ListRetentionExpiredSlidesParams{
		UploadedBefore: pgtype.Timestamptz{Time: cutoff, Valid: true},
		Limit:          s.cfg.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list expired slides: %w", err)
	}

	summary := &RetentionSweepSummary{ProcessedCount: len(slides)}
	log := logger.FromContext(ctx)

	for _, slide := range slides {
		slideID := uuidString(slide.ID)

		// An object already gone counts as deleted; a previous run may
		// have removed it and crashed before the soft delete.
		if err := s.cfg.Storage.Delete(ctx, slide.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			summary.Errors = append(summary.Errors, RetentionError{
				SlideID:    slideID,
				StorageKey: slide.StorageKey,
				Error:      err.Error(),
			})
			// Left un-soft-deleted so the next run retries.
			continue
		}

		if slide.ThumbnailKey != nil {
			if err := s.cfg.Storage.Delete(ctx, *slide.ThumbnailKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
				log.Warn("failed to delete thumbnail object during retention",
					"slide_id", slideID, "key", *slide.ThumbnailKey, "error", err)
			}
		}

		if err := s.cfg.Store.SoftDeleteSlide(ctx, slide.ID); err != nil {
			summary.Errors = append(summary.Errors, RetentionError{
				SlideID:    slideID,
				StorageKey: slide.StorageKey,
				Error:      err.Error(),
			})
			continue
		}
		summary.DeletedCount++
	}

	log.Info("retention sweep finished",
		"processed", summary.ProcessedCount,
		"deleted", summary.DeletedCount,
		"errors", len(summary.Errors),
	)
	return summary, nil
}
