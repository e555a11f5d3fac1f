package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type InsertFailureLogParams struct {
	TenantID     pgtype.UUID
	EventID      pgtype.UUID
	SlideID      pgtype.UUID
	ErrorType    string
	ErrorMessage string
}

const insertFailureLog = `
INSERT INTO failure_log (tenant_id, event_id, slide_id, error_type, error_message, occurred_at)
VALUES ($1, $2, $3, $4, $5, now())
`

func (q *Queries) InsertFailureLog(ctx context.Context, arg InsertFailureLogParams) error {
	_, err := q.db.Exec(ctx, insertFailureLog, arg.TenantID, arg.EventID, arg.SlideID, arg.ErrorType, arg.ErrorMessage)
	return err
}

type CountFailuresSinceParams struct {
	EventID pgtype.UUID
	Since   pgtype.Timestamptz
}

const countFailuresSince = `
SELECT count(*)
FROM failure_log
WHERE event_id = $1 AND occurred_at >= $2
`

func (q *Queries) CountFailuresSince(ctx context.Context, arg CountFailuresSinceParams) (int64, error) {
	row := q.db.QueryRow(ctx, countFailuresSince, arg.EventID, arg.Since)
	var count int64
	err := row.Scan(&count)
	return count, err
}
