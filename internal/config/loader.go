package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and
// environment variables.  Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if LUNGSURV_CONFIG is set
//  3. env (prefix LUNGSURV_)
func Load(ctx context.Context) (*Config, error) {

	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("LUNGSURV_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: LUNGSURV_PLOT_DIR, LUNGSURV_TIME_POINTS,
	// ...  Underscores are preserved to match the koanf tags on the
	// struct.
	envProvider := env.Provider("LUNGSURV_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "lungsurv_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.PlotDir == "" {
		return errors.New("plot_dir must not be empty")
	}
	if cfg.PlotWidth <= 0 || cfg.PlotHeight <= 0 {
		return errors.New("plot dimensions must be positive")
	}
	if cfg.TimePoints < 2 {
		return errors.New("time_points must be at least 2")
	}
	if cfg.MaxTime < 0 {
		return errors.New("max_time must not be negative")
	}
	if len(cfg.Predictors) == 0 {
		return errors.New("at least one predictor is required")
	}
	for _, pr := range cfg.Profiles {
		if len(pr.Covariates) != len(cfg.Predictors) {
			return errors.New("profile '" + pr.Name + "' does not match the predictor list")
		}
		for _, na := range cfg.Predictors {
			if _, ok := pr.Covariates[na]; !ok {
				return errors.New("profile '" + pr.Name + "' is missing predictor '" + na + "'")
			}
		}
	}
	return nil
}
