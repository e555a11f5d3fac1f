package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slidecast/slidecast/internal/config"
)

// Overrides is the YAML shape accepted by --config. Zero values leave
// the environment-derived setting untouched.
type Overrides struct {
	PerTenantCap    int    `yaml:"per_tenant_cap,omitempty"`
	GlobalCap       int    `yaml:"global_cap,omitempty"`
	Lookback        string `yaml:"lookback,omitempty"`
	Pacing          string `yaml:"pacing,omitempty"`
	RetentionWindow string `yaml:"retention_window,omitempty"`
}

func loadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep config: %w", err)
	}

	o := &Overrides{}
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("parse sweep config: %w", err)
	}
	return o, nil
}

func (o *Overrides) apply(cfg *config.Config) error {
	if o.PerTenantCap > 0 {
		cfg.SweepPerTenantCap = o.PerTenantCap
	}
	if o.GlobalCap > 0 {
		cfg.SweepGlobalCap = o.GlobalCap
	}
	if o.Lookback != "" {
		d, err := time.ParseDuration(o.Lookback)
		if err != nil {
			return fmt.Errorf("invalid lookback %q: %w", o.Lookback, err)
		}
		cfg.SweepLookBack = d
	}
	if o.Pacing != "" {
		d, err := time.ParseDuration(o.Pacing)
		if err != nil {
			return fmt.Errorf("invalid pacing %q: %w", o.Pacing, err)
		}
		cfg.SweepPacing = d
	}
	if o.RetentionWindow != "" {
		d, err := time.ParseDuration(o.RetentionWindow)
		if err != nil {
			return fmt.Errorf("invalid retention window %q: %w", o.RetentionWindow, err)
		}
		cfg.RetentionWindow = d
	}
	return nil
}
