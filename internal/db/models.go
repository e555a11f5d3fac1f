package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type TenantPlan string

const (
	TenantPlanStarter    TenantPlan = "starter"
	TenantPlanPro        TenantPlan = "pro"
	TenantPlanEnterprise TenantPlan = "enterprise"
)

type ThumbnailStatus string

const (
	ThumbnailStatusNone       ThumbnailStatus = "none"
	ThumbnailStatusPending    ThumbnailStatus = "pending"
	ThumbnailStatusProcessing ThumbnailStatus = "processing"
	ThumbnailStatusCompleted  ThumbnailStatus = "completed"
	ThumbnailStatusFailed     ThumbnailStatus = "failed"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type Tenant struct {
	ID              pgtype.UUID
	Name            string
	Plan            TenantPlan
	ThumbQuotaUsed  int32
	ThumbQuotaTotal int32
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type Event struct {
	ID                pgtype.UUID
	TenantID          pgtype.UUID
	Name              string
	ThumbnailsEnabled bool
	CreatedAt         pgtype.Timestamptz
}

type Slide struct {
	ID              pgtype.UUID
	TenantID        pgtype.UUID
	EventID         pgtype.UUID
	FileName        string
	MimeType        string
	StorageKey      string
	ThumbnailStatus ThumbnailStatus
	ThumbnailKey    *string
	UploadedAt      pgtype.Timestamptz
	DeletedAt       pgtype.Timestamptz
}

type ThumbnailJob struct {
	ID                pgtype.UUID
	TenantID          pgtype.UUID
	SlideID           pgtype.UUID
	ExternalJobID     string
	Status            JobStatus
	IdempotencyKey    string
	ErrorMessage      *string
	StartedAt         pgtype.Timestamptz
	CompletedAt       pgtype.Timestamptz
	WebhookReceivedAt pgtype.Timestamptz
}

type FailureLogEntry struct {
	ID           pgtype.UUID
	TenantID     pgtype.UUID
	EventID      pgtype.UUID
	SlideID      pgtype.UUID
	ErrorType    string
	ErrorMessage string
	OccurredAt   pgtype.Timestamptz
}

// QuotaRow is the pair of counters returned by every quota mutation.
type QuotaRow struct {
	ThumbQuotaUsed  int32
	ThumbQuotaTotal int32
}
