// Package thumbnail orchestrates asynchronous thumbnail generation:
// quota-gated submission to the external converter, webhook-driven
// completion, failure accounting, and the periodic sweeps.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/apperror"
	"github.com/slidecast/slidecast/internal/converter"
	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/logger"
	"github.com/slidecast/slidecast/internal/quota"
)

// SubmitStatus is the outcome of one submission attempt.
type SubmitStatus string

const (
	StatusDisabled       SubmitStatus = "disabled"
	StatusFailed         SubmitStatus = "failed"
	StatusCompleted      SubmitStatus = "completed"
	StatusQuotaExhausted SubmitStatus = "quota_exhausted"
	StatusProcessing     SubmitStatus = "processing"
)

type SubmitResult struct {
	Success     bool            `json:"success"`
	Status      SubmitStatus    `json:"status"`
	JobID       string          `json:"job_id,omitempty"`
	Quota       *quota.Snapshot `json:"quota,omitempty"`
	Message     string          `json:"message"`
	UpgradeHint string          `json:"upgrade_hint,omitempty"`
}

type SubmitterStore interface {
	GetSlide(ctx context.Context, id pgtype.UUID) (db.Slide, error)
	GetEvent(ctx context.Context, id pgtype.UUID) (db.Event, error)
	SetSlideThumbnailProcessing(ctx context.Context, id pgtype.UUID) error
	ResetSlideThumbnail(ctx context.Context, id pgtype.UUID) error
	CreateThumbnailJob(ctx context.Context, arg db.CreateThumbnailJobParams) (db.ThumbnailJob, error)
}

// QuotaLedger is the ledger surface the submitter and sweeper need.
type QuotaLedger interface {
	Reserve(ctx context.Context, tenantID pgtype.UUID) (quota.Snapshot, error)
	Rollback(ctx context.Context, tenantID pgtype.UUID) error
	Status(ctx context.Context, tenantID pgtype.UUID) (quota.Snapshot, error)
}

type URLSigner interface {
	SignDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// DefaultSignedURLTTL bounds how long the converter can fetch the source.
const DefaultSignedURLTTL = time.Hour

type SubmitterConfig struct {
	Store     SubmitterStore
	Ledger    QuotaLedger
	Signer    URLSigner
	Converter converter.API
	Failures  *Recorder

	// CallbackURL is the absolute URL of the conversion callback endpoint.
	CallbackURL  string
	SignedURLTTL time.Duration
}

// Submitter runs one end-to-end submission attempt per call. Quota is
// charged before the external call and rolled back only for errors that
// happen before the conversion job exists.
type Submitter struct {
	cfg SubmitterConfig
}

func NewSubmitter(cfg SubmitterConfig) *Submitter {
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = DefaultSignedURLTTL
	}
	return &Submitter{cfg: cfg}
}

func (s *Submitter) Submit(ctx context.Context, slideID pgtype.UUID) (*SubmitResult, error) {
	slide, err := s.cfg.Store.GetSlide(ctx, slideID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Wrap(err, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("load slide: %w", err)
	}

	event, err := s.cfg.Store.GetEvent(ctx, slide.EventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !event.ThumbnailsEnabled {
		return &SubmitResult{
			Status:  StatusDisabled,
			Message: "thumbnail generation is disabled for this event",
		}, nil
	}

	format, ok := FormatFromMime(slide.MimeType)
	if !ok {
		return &SubmitResult{
			Status:  StatusFailed,
			Message: fmt.Sprintf("unsupported file type %q", slide.MimeType),
		}, nil
	}

	// No reservation exists yet at this point, so the early-out is free.
	if slide.ThumbnailStatus == db.ThumbnailStatusCompleted && slide.ThumbnailKey != nil {
		return &SubmitResult{
			Success: true,
			Status:  StatusCompleted,
			Message: "thumbnail already exists",
		}, nil
	}

	snap, err := s.cfg.Ledger.Reserve(ctx, slide.TenantID)
	if err != nil {
		return nil, err
	}
	if !snap.Available {
		return &SubmitResult{
			Status:      StatusQuotaExhausted,
			Quota:       &snap,
			Message:     "thumbnail quota exhausted",
			UpgradeHint: "upgrade your plan to get more thumbnail credits",
		}, nil
	}

	sourceURL, err := s.cfg.Signer.SignDownloadURL(ctx, slide.StorageKey, s.cfg.SignedURLTTL)
	if err != nil {
		s.rollback(ctx, slide.TenantID)
		return nil, fmt.Errorf("sign source url: %w", err)
	}

	idempotencyKey := uuid.NewString()
	resp, err := s.cfg.Converter.Submit(ctx, &converter.SubmitRequest{
		SourceURL:    sourceURL,
		InputFormat:  string(format),
		OutputFormat: "png",
		OutputName:   uuidString(slide.ID) + ".png",
		CallbackURL:  s.callbackURL(slide.ID, idempotencyKey),
	})
	if err != nil {
		s.rollback(ctx, slide.TenantID)
		s.cfg.Failures.Record(ctx, slide.TenantID, slide.EventID, slide.ID, ErrorTypeSubmission, err.Error())
		return nil, apperror.Wrap(err, apperror.ErrConverterUnavailable)
	}

	// The external job exists now. These writes are advisory; if one lags
	// the webhook's lookup by external id reconciles state later. Quota
	// stays charged either way.
	log := logger.FromContext(ctx)
	if err := s.cfg.Store.SetSlideThumbnailProcessing(ctx, slide.ID); err != nil {
		log.Error("failed to mark slide processing after submission",
			"error", err, "slide_id", uuidString(slide.ID), "external_job_id", resp.ExternalJobID)
	}
	_, err = s.cfg.Store.CreateThumbnailJob(ctx, db.CreateThumbnailJobParams{
		TenantID:       slide.TenantID,
		SlideID:        slide.ID,
		ExternalJobID:  resp.ExternalJobID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		log.Error("failed to record conversion job after submission",
			"error", err, "slide_id", uuidString(slide.ID), "external_job_id", resp.ExternalJobID)
	}

	return &SubmitResult{
		Success: true,
		Status:  StatusProcessing,
		JobID:   resp.ExternalJobID,
		Quota:   &snap,
		Message: "thumbnail generation started",
	}, nil
}

// Retry clears a failed thumbnail and runs a fresh attempt. The new
// attempt consumes quota again.
func (s *Submitter) Retry(ctx context.Context, slideID pgtype.UUID) (*SubmitResult, error) {
	slide, err := s.cfg.Store.GetSlide(ctx, slideID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Wrap(err, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("load slide: %w", err)
	}

	if slide.ThumbnailStatus == db.ThumbnailStatusFailed {
		if err := s.cfg.Store.ResetSlideThumbnail(ctx, slideID); err != nil {
			return nil, fmt.Errorf("reset slide status: %w", err)
		}
	}
	return s.Submit(ctx, slideID)
}

func (s *Submitter) rollback(ctx context.Context, tenantID pgtype.UUID) {
	if err := s.cfg.Ledger.Rollback(ctx, tenantID); err != nil {
		logger.FromContext(ctx).Error("quota rollback failed", "error", err)
	}
}

// callbackURL embeds the slide id and idempotency key so the webhook
// handler carries correlation context beyond the external job id.
func (s *Submitter) callbackURL(slideID pgtype.UUID, idempotencyKey string) string {
	q := url.Values{}
	q.Set("slide_id", uuidString(slideID))
	q.Set("key", idempotencyKey)
	return s.cfg.CallbackURL + "?" + q.Encode()
}

// ThumbnailKey is the tenant/event-scoped object key a slide's thumbnail
// is stored under.
func ThumbnailKey(slide db.Slide) string {
	return fmt.Sprintf("tenants/%s/events/%s/thumbnails/%s.png",
		uuidString(slide.TenantID), uuidString(slide.EventID), uuidString(slide.ID))
}

func uuidString(id pgtype.UUID) string {
	return uuid.UUID(id.Bytes).String()
}
