package worker

import "time"

const (
	JobTypeRetroSweep     = "retro_sweep"
	JobTypeRetentionSweep = "retention_sweep"
)

// RetroSweepPayload carries optional cap overrides; zero values fall back
// to the sweeper's configured defaults.
type RetroSweepPayload struct {
	RequestedAt  time.Time `json:"requested_at"`
	PerTenantCap int       `json:"per_tenant_cap,omitempty"`
	GlobalCap    int       `json:"global_cap,omitempty"`
}

type RetentionSweepPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

func NewRetroSweepPayload() RetroSweepPayload {
	return RetroSweepPayload{RequestedAt: time.Now().UTC()}
}

func NewRetentionSweepPayload() RetentionSweepPayload {
	return RetentionSweepPayload{RequestedAt: time.Now().UTC()}
}
