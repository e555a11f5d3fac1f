package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateTenantParams struct {
	Name            string
	Plan            TenantPlan
	ThumbQuotaTotal int32
}

const createTenant = `
INSERT INTO tenants (name, plan, thumb_quota_total)
VALUES ($1, $2, $3)
RETURNING id, name, plan, thumb_quota_used, thumb_quota_total, created_at, updated_at
`

func (q *Queries) CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error) {
	row := q.db.QueryRow(ctx, createTenant, arg.Name, arg.Plan, arg.ThumbQuotaTotal)
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Plan, &t.ThumbQuotaUsed, &t.ThumbQuotaTotal, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const getTenant = `
SELECT id, name, plan, thumb_quota_used, thumb_quota_total, created_at, updated_at
FROM tenants
WHERE id = $1
`

func (q *Queries) GetTenant(ctx context.Context, id pgtype.UUID) (Tenant, error) {
	row := q.db.QueryRow(ctx, getTenant, id)
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Plan, &t.ThumbQuotaUsed, &t.ThumbQuotaTotal, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// reserveThumbnailQuota is the atomic check-and-increment. The WHERE clause
// makes the reservation fail (no rows) when the quota is exhausted, so two
// concurrent callers at used = total-1 cannot both succeed.
const reserveThumbnailQuota = `
UPDATE tenants
SET thumb_quota_used = thumb_quota_used + 1, updated_at = now()
WHERE id = $1 AND thumb_quota_used < thumb_quota_total
RETURNING thumb_quota_used, thumb_quota_total
`

func (q *Queries) ReserveThumbnailQuota(ctx context.Context, tenantID pgtype.UUID) (QuotaRow, error) {
	row := q.db.QueryRow(ctx, reserveThumbnailQuota, tenantID)
	var r QuotaRow
	err := row.Scan(&r.ThumbQuotaUsed, &r.ThumbQuotaTotal)
	return r, err
}

const releaseThumbnailQuota = `
UPDATE tenants
SET thumb_quota_used = GREATEST(thumb_quota_used - 1, 0), updated_at = now()
WHERE id = $1
RETURNING thumb_quota_used, thumb_quota_total
`

func (q *Queries) ReleaseThumbnailQuota(ctx context.Context, tenantID pgtype.UUID) (QuotaRow, error) {
	row := q.db.QueryRow(ctx, releaseThumbnailQuota, tenantID)
	var r QuotaRow
	err := row.Scan(&r.ThumbQuotaUsed, &r.ThumbQuotaTotal)
	return r, err
}

const getThumbnailQuota = `
SELECT thumb_quota_used, thumb_quota_total
FROM tenants
WHERE id = $1
`

func (q *Queries) GetThumbnailQuota(ctx context.Context, tenantID pgtype.UUID) (QuotaRow, error) {
	row := q.db.QueryRow(ctx, getThumbnailQuota, tenantID)
	var r QuotaRow
	err := row.Scan(&r.ThumbQuotaUsed, &r.ThumbQuotaTotal)
	return r, err
}
