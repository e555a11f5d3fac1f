package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/apperror"
	"github.com/slidecast/slidecast/internal/billing"
	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/quota"
)

type QuotaReader interface {
	Status(ctx context.Context, tenantID pgtype.UUID) (quota.Snapshot, error)
}

type TenantCreator interface {
	CreateTenant(ctx context.Context, arg db.CreateTenantParams) (db.Tenant, error)
}

type TenantsConfig struct {
	Ledger  QuotaReader
	Queries TenantCreator
}

func TenantQuotaHandler(cfg *TenantsConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := parseIDParam(r, "id")
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}

		snap, err := cfg.Ledger.Status(r.Context(), tenantID)
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	}
}

type provisionTenantRequest struct {
	Name string        `json:"name"`
	Plan db.TenantPlan `json:"plan"`
}

type provisionTenantResponse struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Plan           db.TenantPlan `json:"plan"`
	ThumbnailQuota int32         `json:"thumbnail_quota"`
}

// ProvisionTenantHandler creates a tenant with the thumbnail quota its
// plan entitles it to.
func ProvisionTenantHandler(cfg *TenantsConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req provisionTenantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrBadRequest))
			return
		}
		if req.Name == "" {
			apperror.WriteJSON(w, r, apperror.WrapWithMessage(nil, "bad_request", "tenant name is required", http.StatusBadRequest))
			return
		}
		if req.Plan == "" {
			req.Plan = db.TenantPlanStarter
		}

		tenant, err := cfg.Queries.CreateTenant(r.Context(), db.CreateTenantParams{
			Name:            req.Name,
			Plan:            req.Plan,
			ThumbQuotaTotal: billing.ThumbnailQuota(req.Plan),
		})
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, provisionTenantResponse{
			ID:             uuidString(tenant.ID),
			Name:           tenant.Name,
			Plan:           tenant.Plan,
			ThumbnailQuota: tenant.ThumbQuotaTotal,
		})
	}
}
