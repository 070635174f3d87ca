package application

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DiscountScopeFull computes discounts over every selected item.
	DiscountScopeFull = "full"
	// DiscountScopeFiltered narrows the discount base by the
	// scholarship's fee type include and exclude lists.
	DiscountScopeFiltered = "filtered"
)

// EngineConfig defines fee engine policy.
type EngineConfig struct {
	DiscountScope        string `yaml:"discount_scope"`
	DefaultDueDays       int    `yaml:"default_due_days"`
	IncludePaidByDefault bool   `yaml:"include_paid_default"`
}

// LoadEngineConfig loads policy from yaml or falls back to defaults.
func LoadEngineConfig() (EngineConfig, error) {
	cfg := EngineConfig{
		DiscountScope:  DiscountScopeFull,
		DefaultDueDays: 30,
	}

	if path := os.Getenv("FEEENGINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DiscountScope != DiscountScopeFiltered {
		cfg.DiscountScope = DiscountScopeFull
	}
	if cfg.DefaultDueDays < 0 {
		cfg.DefaultDueDays = 0
	}
	return cfg, nil
}
