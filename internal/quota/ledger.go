// Package quota tracks per-tenant thumbnail credits. Reservations are
// resolved by a conditional update in the store, so concurrent callers
// for the same tenant cannot both take the last credit.
package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/db"
)

// Snapshot is the quota state returned to callers after any ledger
// operation. Remaining is derived, never stored.
type Snapshot struct {
	Available bool  `json:"available"`
	Used      int32 `json:"used"`
	Total     int32 `json:"total"`
	Remaining int32 `json:"remaining"`
}

// Store is the subset of queries the ledger needs.
type Store interface {
	ReserveThumbnailQuota(ctx context.Context, tenantID pgtype.UUID) (db.QuotaRow, error)
	ReleaseThumbnailQuota(ctx context.Context, tenantID pgtype.UUID) (db.QuotaRow, error)
	GetThumbnailQuota(ctx context.Context, tenantID pgtype.UUID) (db.QuotaRow, error)
}

type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Reserve takes one credit for the tenant. When the tenant is at its
// limit the store's conditional update matches no row; the ledger then
// reads the current counters so the caller can report them.
func (l *Ledger) Reserve(ctx context.Context, tenantID pgtype.UUID) (Snapshot, error) {
	row, err := l.store.ReserveThumbnailQuota(ctx, tenantID)
	if err == nil {
		return snapshot(true, row), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("reserve quota: %w", err)
	}

	row, err = l.store.GetThumbnailQuota(ctx, tenantID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read quota after exhausted reserve: %w", err)
	}
	return snapshot(false, row), nil
}

// Rollback returns one credit. Only valid for reservations whose unit of
// work never started; spent conversion attempts keep their charge.
func (l *Ledger) Rollback(ctx context.Context, tenantID pgtype.UUID) error {
	if _, err := l.store.ReleaseThumbnailQuota(ctx, tenantID); err != nil {
		return fmt.Errorf("rollback quota: %w", err)
	}
	return nil
}

// Status reads the counters without mutating them.
func (l *Ledger) Status(ctx context.Context, tenantID pgtype.UUID) (Snapshot, error) {
	row, err := l.store.GetThumbnailQuota(ctx, tenantID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read quota: %w", err)
	}
	return snapshot(row.ThumbQuotaUsed < row.ThumbQuotaTotal, row), nil
}

func snapshot(available bool, row db.QuotaRow) Snapshot {
	remaining := row.ThumbQuotaTotal - row.ThumbQuotaUsed
	if remaining < 0 {
		remaining = 0
	}
	return Snapshot{
		Available: available,
		Used:      row.ThumbQuotaUsed,
		Total:     row.ThumbQuotaTotal,
		Remaining: remaining,
	}
}
