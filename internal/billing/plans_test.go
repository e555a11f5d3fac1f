package billing

import (
	"testing"

	"github.com/slidecast/slidecast/internal/db"
)

func TestGetPlanLimits(t *testing.T) {
	cases := []struct {
		plan      db.TenantPlan
		wantQuota int32
		priority  bool
	}{
		{db.TenantPlanStarter, StarterThumbnailQuota, false},
		{db.TenantPlanPro, ProThumbnailQuota, true},
		{db.TenantPlanEnterprise, EnterpriseThumbnailQuota, true},
		{db.TenantPlan("unknown"), StarterThumbnailQuota, false},
	}

	for _, tc := range cases {
		limits := GetPlanLimits(tc.plan)
		if limits.ThumbnailQuota != tc.wantQuota {
			t.Errorf("GetPlanLimits(%q).ThumbnailQuota = %d, want %d", tc.plan, limits.ThumbnailQuota, tc.wantQuota)
		}
		if limits.PriorityQueue != tc.priority {
			t.Errorf("GetPlanLimits(%q).PriorityQueue = %v, want %v", tc.plan, limits.PriorityQueue, tc.priority)
		}
	}
}

func TestThumbnailQuota(t *testing.T) {
	if got := ThumbnailQuota(db.TenantPlanPro); got != ProThumbnailQuota {
		t.Errorf("ThumbnailQuota(pro) = %d, want %d", got, ProThumbnailQuota)
	}
}
