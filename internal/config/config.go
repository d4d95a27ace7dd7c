// Package config defines the configuration for the lung cancer
// survival analysis command and its loading hooks.
package config

import "context"

// Profile describes a covariate profile at which fitted survival and
// hazard curves are evaluated.
type Profile struct {
	// Name labels the profile in summaries and plot legends.
	Name string `koanf:"name"`

	// Covariates maps covariate names to the values defining the
	// profile.  The names must match the model's predictors exactly.
	Covariates map[string]float64 `koanf:"covariates"`
}

// Config contains process configuration.
type Config struct {
	// PlotDir is the directory where plots are written.
	PlotDir string `koanf:"plot_dir"`

	// PlotWidth and PlotHeight give the plot dimensions in inches.
	PlotWidth  float64 `koanf:"plot_width"`
	PlotHeight float64 `koanf:"plot_height"`

	// TimePoints is the number of grid points used when evaluating
	// parametric survival and hazard curves.
	TimePoints int `koanf:"time_points"`

	// MaxTime is the upper limit of the curve evaluation grid.  If
	// zero, the largest observed follow-up time is used.
	MaxTime float64 `koanf:"max_time"`

	// Predictors are the covariates entering the regression models.
	Predictors []string `koanf:"predictors"`

	// Profiles are the covariate profiles at which fitted curves are
	// evaluated.
	Profiles []Profile `koanf:"profiles"`
}

// New creates a Config with default settings.  The context is
// accepted to match the package convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		PlotDir:    ".",
		PlotWidth:  5,
		PlotHeight: 4,
		TimePoints: 200,
		Predictors: []string{"age", "sex", "ph.ecog"},
		Profiles: []Profile{
			{
				Name:       "male, 62, ECOG 0",
				Covariates: map[string]float64{"age": 62, "sex": 1, "ph.ecog": 0},
			},
			{
				Name:       "female, 62, ECOG 0",
				Covariates: map[string]float64{"age": 62, "sex": 2, "ph.ecog": 0},
			},
			{
				Name:       "male, 62, ECOG 2",
				Covariates: map[string]float64{"age": 62, "sex": 1, "ph.ecog": 2},
			},
		},
	}
}
