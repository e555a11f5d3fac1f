// Package billing maps tenant plans to their entitlements. Payment and
// subscription lifecycle live in the billing provider, not here.
package billing

import (
	"github.com/slidecast/slidecast/internal/db"
)

const (
	StarterThumbnailQuota    = 50
	ProThumbnailQuota        = 500
	EnterpriseThumbnailQuota = 5000

	StarterMaxUploadSize = 50 * 1024 * 1024  // 50 MB
	ProMaxUploadSize     = 250 * 1024 * 1024 // 250 MB
)

type PlanLimits struct {
	ThumbnailQuota int32
	MaxUploadSize  int64
	PriorityQueue  bool
}

// GetPlanLimits returns the entitlements for a plan. Unknown plans get
// starter limits.
func GetPlanLimits(plan db.TenantPlan) PlanLimits {
	switch plan {
	case db.TenantPlanEnterprise:
		return PlanLimits{
			ThumbnailQuota: EnterpriseThumbnailQuota,
			MaxUploadSize:  ProMaxUploadSize,
			PriorityQueue:  true,
		}
	case db.TenantPlanPro:
		return PlanLimits{
			ThumbnailQuota: ProThumbnailQuota,
			MaxUploadSize:  ProMaxUploadSize,
			PriorityQueue:  true,
		}
	default:
		return PlanLimits{
			ThumbnailQuota: StarterThumbnailQuota,
			MaxUploadSize:  StarterMaxUploadSize,
		}
	}
}

// ThumbnailQuota is the quota_total a tenant on this plan is provisioned
// with.
func ThumbnailQuota(plan db.TenantPlan) int32 {
	return GetPlanLimits(plan).ThumbnailQuota
}
