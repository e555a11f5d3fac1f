package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const slideColumns = `id, tenant_id, event_id, file_name, mime_type, storage_key, thumbnail_status, thumbnail_key, uploaded_at, deleted_at`

func scanSlide(row interface{ Scan(...interface{}) error }) (Slide, error) {
	var s Slide
	err := row.Scan(&s.ID, &s.TenantID, &s.EventID, &s.FileName, &s.MimeType, &s.StorageKey, &s.ThumbnailStatus, &s.ThumbnailKey, &s.UploadedAt, &s.DeletedAt)
	return s, err
}

const getSlide = `
SELECT ` + slideColumns + `
FROM slides
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) GetSlide(ctx context.Context, id pgtype.UUID) (Slide, error) {
	return scanSlide(q.db.QueryRow(ctx, getSlide, id))
}

const setSlideThumbnailProcessing = `
UPDATE slides
SET thumbnail_status = 'processing'
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) SetSlideThumbnailProcessing(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, setSlideThumbnailProcessing, id)
	return err
}

type CompleteSlideThumbnailParams struct {
	ID           pgtype.UUID
	ThumbnailKey string
}

const completeSlideThumbnail = `
UPDATE slides
SET thumbnail_status = 'completed', thumbnail_key = $2
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) CompleteSlideThumbnail(ctx context.Context, arg CompleteSlideThumbnailParams) error {
	_, err := q.db.Exec(ctx, completeSlideThumbnail, arg.ID, arg.ThumbnailKey)
	return err
}

const failSlideThumbnail = `
UPDATE slides
SET thumbnail_status = 'failed', thumbnail_key = NULL
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) FailSlideThumbnail(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, failSlideThumbnail, id)
	return err
}

const resetSlideThumbnail = `
UPDATE slides
SET thumbnail_status = 'none', thumbnail_key = NULL
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) ResetSlideThumbnail(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, resetSlideThumbnail, id)
	return err
}

type ListThumbnailBacklogParams struct {
	UploadedAfter pgtype.Timestamptz
	MimeTypes     []string
}

// listThumbnailBacklog returns slides still owed a thumbnail: not deleted,
// no thumbnail key, never submitted or previously failed, of a supported
// type, whose event has generation enabled, within the look-back window.
const listThumbnailBacklog = `
SELECT s.id, s.tenant_id, s.event_id, s.file_name, s.mime_type, s.storage_key, s.thumbnail_status, s.thumbnail_key, s.uploaded_at, s.deleted_at
FROM slides s
JOIN events e ON e.id = s.event_id
WHERE s.deleted_at IS NULL
  AND s.thumbnail_key IS NULL
  AND s.thumbnail_status IN ('none', 'failed')
  AND s.mime_type = ANY($2)
  AND e.thumbnails_enabled
  AND s.uploaded_at >= $1
ORDER BY s.tenant_id, s.uploaded_at
`

func (q *Queries) ListThumbnailBacklog(ctx context.Context, arg ListThumbnailBacklogParams) ([]Slide, error) {
	rows, err := q.db.Query(ctx, listThumbnailBacklog, arg.UploadedAfter, arg.MimeTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slides []Slide
	for rows.Next() {
		s, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		slides = append(slides, s)
	}
	return slides, rows.Err()
}

type ListRetentionExpiredSlidesParams struct {
	UploadedBefore pgtype.Timestamptz
	Limit          int32
}

const listRetentionExpiredSlides = `
SELECT ` + slideColumns + `
FROM slides
WHERE deleted_at IS NULL
  AND storage_key <> ''
  AND uploaded_at < $1
ORDER BY uploaded_at
LIMIT $2
`

func (q *Queries) ListRetentionExpiredSlides(ctx context.Context, arg ListRetentionExpiredSlidesParams) ([]Slide, error) {
	rows, err := q.db.Query(ctx, listRetentionExpiredSlides, arg.UploadedBefore, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slides []Slide
	for rows.Next() {
		s, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		slides = append(slides, s)
	}
	return slides, rows.Err()
}

const softDeleteSlide = `
UPDATE slides
SET deleted_at = now()
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) SoftDeleteSlide(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, softDeleteSlide, id)
	return err
}
