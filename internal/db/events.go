package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getEvent = `
SELECT id, tenant_id, name, thumbnails_enabled, created_at
FROM events
WHERE id = $1
`

func (q *Queries) GetEvent(ctx context.Context, id pgtype.UUID) (Event, error) {
	row := q.db.QueryRow(ctx, getEvent, id)
	var e Event
	err := row.Scan(&e.ID, &e.TenantID, &e.Name, &e.ThumbnailsEnabled, &e.CreatedAt)
	return e, err
}
