package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/apperror"
	"github.com/slidecast/slidecast/internal/converter"
	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/logger"
	"github.com/slidecast/slidecast/internal/storage"
)

type ProcessorStore interface {
	GetThumbnailJobByExternalID(ctx context.Context, externalJobID string) (db.ThumbnailJob, error)
	MarkThumbnailJobTerminal(ctx context.Context, arg db.MarkThumbnailJobTerminalParams) (bool, error)
	GetSlide(ctx context.Context, id pgtype.UUID) (db.Slide, error)
	CompleteSlideThumbnail(ctx context.Context, arg db.CompleteSlideThumbnailParams) error
	FailSlideThumbnail(ctx context.Context, id pgtype.UUID) error
}

type ProcessorConfig struct {
	Store     ProcessorStore
	Storage   storage.Storage
	Converter converter.API
	Failures  *Recorder

	// Secret signs callback bodies; shared with the conversion service.
	Secret string
}

// WebhookResult reports what a callback delivery did.
type WebhookResult struct {
	Processed       bool               `json:"processed"`
	Duplicate       bool               `json:"duplicate,omitempty"`
	ThumbnailStatus db.ThumbnailStatus `json:"thumbnail_status,omitempty"`
}

// Processor drives a conversion job to its terminal state from a callback
// delivery. The terminal transition happens at most once per job; replays
// and overlapping deliveries resolve as harmless duplicates.
type Processor struct {
	cfg ProcessorConfig
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{cfg: cfg}
}

// Handle authenticates and applies one callback delivery. The signature
// check runs on the raw body before any field is parsed; nothing is
// trusted or written until it passes.
func (p *Processor) Handle(ctx context.Context, rawBody []byte, signatureHeader string) (*WebhookResult, error) {
	if !converter.VerifySignature(rawBody, signatureHeader, p.cfg.Secret) {
		return nil, apperror.ErrInvalidSignature
	}

	var payload converter.CallbackPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrBadRequest)
	}
	if payload.Job.ID == "" {
		return nil, apperror.WrapWithMessage(nil, "bad_request", "callback payload has no job id", 400)
	}

	job, err := p.cfg.Store.GetThumbnailJobByExternalID(ctx, payload.Job.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// An orphaned callback is a bug or a spoof, not recoverable
			// work; no job row is created for it.
			return nil, apperror.Wrap(err, apperror.ErrJobNotFound)
		}
		return nil, fmt.Errorf("look up job %s: %w", payload.Job.ID, err)
	}

	if job.WebhookReceivedAt.Valid {
		return &WebhookResult{Duplicate: true}, nil
	}

	switch payload.Event {
	case converter.EventJobFinished:
		if payload.ResultFileURL() == "" {
			// Finished without a result is a converter-side defect;
			// treat it as a conversion failure so the job terminates.
			return p.fail(ctx, job, "conversion finished without a result file")
		}
		return p.complete(ctx, job, &payload)
	case converter.EventJobFailed:
		return p.fail(ctx, job, payload.ErrorMessage())
	default:
		return nil, apperror.WrapWithMessage(nil, "bad_request",
			fmt.Sprintf("unknown callback event %q", payload.Event), 400)
	}
}

// complete stores the result and finalizes slide and job. The terminal
// flag is set only after the slide write succeeded, so a crashed handler
// leaves the job re-processable and a redelivery finishes the sequence.
func (p *Processor) complete(ctx context.Context, job db.ThumbnailJob, payload *converter.CallbackPayload) (*WebhookResult, error) {
	slide, err := p.cfg.Store.GetSlide(ctx, job.SlideID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p.terminate(ctx, job, db.JobStatusFailed, "source slide no longer exists")
		}
		return nil, fmt.Errorf("load slide for job %s: %w", job.ExternalJobID, err)
	}

	data, err := p.cfg.Converter.DownloadResult(ctx, payload.ResultFileURL())
	if err != nil {
		return nil, fmt.Errorf("download result for job %s: %w", job.ExternalJobID, err)
	}

	key := ThumbnailKey(slide)
	if err := p.cfg.Storage.Upload(ctx, key, bytes.NewReader(data), "image/png", int64(len(data))); err != nil {
		return nil, fmt.Errorf("store thumbnail %s: %w", key, err)
	}

	if err := p.cfg.Store.CompleteSlideThumbnail(ctx, db.CompleteSlideThumbnailParams{
		ID:           slide.ID,
		ThumbnailKey: key,
	}); err != nil {
		return nil, fmt.Errorf("mark slide completed: %w", err)
	}

	applied, err := p.cfg.Store.MarkThumbnailJobTerminal(ctx, db.MarkThumbnailJobTerminalParams{
		ID:     job.ID,
		Status: db.JobStatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("mark job terminal: %w", err)
	}
	if !applied {
		// A concurrent delivery won the terminal transition.
		return &WebhookResult{Duplicate: true}, nil
	}

	return &WebhookResult{Processed: true, ThumbnailStatus: db.ThumbnailStatusCompleted}, nil
}

// fail marks slide and job failed and logs the failure. Quota stays
// charged; the conversion attempt was spent.
func (p *Processor) fail(ctx context.Context, job db.ThumbnailJob, message string) (*WebhookResult, error) {
	slide, err := p.cfg.Store.GetSlide(ctx, job.SlideID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load slide for job %s: %w", job.ExternalJobID, err)
	}
	slideExists := err == nil

	if slideExists {
		if err := p.cfg.Store.FailSlideThumbnail(ctx, job.SlideID); err != nil {
			return nil, fmt.Errorf("mark slide failed: %w", err)
		}
	}

	result, err := p.terminate(ctx, job, db.JobStatusFailed, message)
	if err != nil || result.Duplicate {
		return result, err
	}

	if slideExists {
		p.cfg.Failures.Record(ctx, job.TenantID, slide.EventID, job.SlideID, ErrorTypeConversion, message)
	} else {
		logger.FromContext(ctx).Warn("conversion failed for a deleted slide",
			"external_job_id", job.ExternalJobID, "message", message)
	}
	return result, nil
}

func (p *Processor) terminate(ctx context.Context, job db.ThumbnailJob, status db.JobStatus, message string) (*WebhookResult, error) {
	applied, err := p.cfg.Store.MarkThumbnailJobTerminal(ctx, db.MarkThumbnailJobTerminalParams{
		ID:           job.ID,
		Status:       status,
		ErrorMessage: &message,
	})
	if err != nil {
		return nil, fmt.Errorf("mark job terminal: %w", err)
	}
	if !applied {
		return &WebhookResult{Duplicate: true}, nil
	}
	return &WebhookResult{Processed: true, ThumbnailStatus: db.ThumbnailStatusFailed}, nil
}
