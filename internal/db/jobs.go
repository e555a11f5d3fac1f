package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const jobColumns = `id, tenant_id, slide_id, external_job_id, status, idempotency_key, error_message, started_at, completed_at, webhook_received_at`

func scanJob(row interface{ Scan(...interface{}) error }) (ThumbnailJob, error) {
	var j ThumbnailJob
	err := row.Scan(&j.ID, &j.TenantID, &j.SlideID, &j.ExternalJobID, &j.Status, &j.IdempotencyKey, &j.ErrorMessage, &j.StartedAt, &j.CompletedAt, &j.WebhookReceivedAt)
	return j, err
}

type CreateThumbnailJobParams struct {
	TenantID       pgtype.UUID
	SlideID        pgtype.UUID
	ExternalJobID  string
	IdempotencyKey string
}

// createThumbnailJob upserts on slide_id: a retry replaces the previous
// terminal job record so at most one job is active per slide.
const createThumbnailJob = `
INSERT INTO thumbnail_jobs (tenant_id, slide_id, external_job_id, status, idempotency_key, started_at)
VALUES ($1, $2, $3, 'pending', $4, now())
ON CONFLICT (slide_id) DO UPDATE
SET external_job_id = EXCLUDED.external_job_id,
    status = 'pending',
    idempotency_key = EXCLUDED.idempotency_key,
    error_message = NULL,
    started_at = now(),
    completed_at = NULL,
    webhook_received_at = NULL
RETURNING ` + jobColumns + `
`

func (q *Queries) CreateThumbnailJob(ctx context.Context, arg CreateThumbnailJobParams) (ThumbnailJob, error) {
	return scanJob(q.db.QueryRow(ctx, createThumbnailJob, arg.TenantID, arg.SlideID, arg.ExternalJobID, arg.IdempotencyKey))
}

const getThumbnailJobByExternalID = `
SELECT ` + jobColumns + `
FROM thumbnail_jobs
WHERE external_job_id = $1
`

func (q *Queries) GetThumbnailJobByExternalID(ctx context.Context, externalJobID string) (ThumbnailJob, error) {
	return scanJob(q.db.QueryRow(ctx, getThumbnailJobByExternalID, externalJobID))
}

type MarkThumbnailJobTerminalParams struct {
	ID           pgtype.UUID
	Status       JobStatus
	ErrorMessage *string
}

// markThumbnailJobTerminal sets the terminal fields together, guarded on
// webhook_received_at so a job can reach a terminal state at most once.
// Returns false when the job was already terminal (duplicate delivery).
const markThumbnailJobTerminal = `
UPDATE thumbnail_jobs
SET status = $2, error_message = $3, completed_at = now(), webhook_received_at = now()
WHERE id = $1 AND webhook_received_at IS NULL
`

func (q *Queries) MarkThumbnailJobTerminal(ctx context.Context, arg MarkThumbnailJobTerminalParams) (bool, error) {
	tag, err := q.db.Exec(ctx, markThumbnailJobTerminal, arg.ID, arg.Status, arg.ErrorMessage)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
