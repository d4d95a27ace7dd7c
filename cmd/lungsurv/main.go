// Command lungsurv fits survival models to the advanced lung cancer
// cohort: a Kaplan-Meier estimate of the survival function, a Cox
// proportional hazards regression, and a Weibull accelerated failure
// time regression.  Fitted survival and hazard curves are evaluated
// at configured covariate profiles and written as plots.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/edefojoshua/survmodel/duration"
	"github.com/edefojoshua/survmodel/internal/config"
	"github.com/edefojoshua/survmodel/internal/lungdata"
	"github.com/edefojoshua/survmodel/statmodel"
)

func main() {

	lg := log.New(os.Stderr, "lungsurv: ", log.LstdFlags)

	cfg, err := config.Load(context.Background())
	if err != nil {
		lg.Fatalf("configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.PlotDir, 0o755); err != nil {
		lg.Fatalf("plot directory: %v", err)
	}

	vars := append([]string{"time", "event"}, cfg.Predictors...)
	data, err := lungdata.LoadComplete(vars...)
	if err != nil {
		lg.Fatalf("loading data: %v", err)
	}
	lg.Printf("loaded %d complete cases", data.NumObs())

	profiles := make([]duration.Profile, len(cfg.Profiles))
	for i, p := range cfg.Profiles {
		profiles[i] = duration.Profile{Name: p.Name, Values: p.Covariates}
	}

	maxtime := kaplanMeier(lg, cfg, data)
	if cfg.MaxTime > 0 {
		maxtime = cfg.MaxTime
	}

	coxPH(lg, cfg, data, profiles)
	weibull(lg, cfg, data, profiles, maxtime)
}

// kaplanMeier fits and plots the marginal survival function, overall
// and by sex, and returns the longest observed follow-up time.
func kaplanMeier(lg *log.Logger, cfg *config.Config, data statmodel.Dataset) float64 {

	sf := duration.NewSurvfuncRight(data, "time", "event").Done()

	fmt.Printf("Kaplan-Meier estimate, all subjects\n")
	fmt.Printf("  Subjects:        %d\n", data.NumObs())
	fmt.Printf("  Events:          %.0f\n", floats.Sum(sf.NumEvents()))
	fmt.Printf("  Median survival: %.0f days\n", sf.Quantile(0.5))
	fmt.Printf("  Lower quartile:  %.0f days\n", sf.Quantile(0.75))
	fmt.Printf("  Upper quartile:  %.0f days\n\n", sf.Quantile(0.25))

	sp := duration.NewSurvfuncRightPlotter().Width(cfg.PlotWidth).Height(cfg.PlotHeight)
	sp.Add(sf, "All subjects")
	sp.Plot()
	sp.Save(filepath.Join(cfg.PlotDir, "km_overall.png"))

	if data.Pos("sex") != -1 {
		male := subset(data, "sex", 1)
		female := subset(data, "sex", 2)
		sfm := duration.NewSurvfuncRight(male, "time", "event").Done()
		sff := duration.NewSurvfuncRight(female, "time", "event").Done()

		fmt.Printf("Median survival by sex\n")
		fmt.Printf("  Male:   %.0f days\n", sfm.Quantile(0.5))
		fmt.Printf("  Female: %.0f days\n\n", sff.Quantile(0.5))

		sp := duration.NewSurvfuncRightPlotter().Width(cfg.PlotWidth).Height(cfg.PlotHeight)
		sp.Add(sfm, "Male")
		sp.Add(sff, "Female")
		sp.Plot()
		sp.Save(filepath.Join(cfg.PlotDir, "km_by_sex.png"))
	}

	lg.Printf("wrote Kaplan-Meier plots to %s", cfg.PlotDir)

	return sf.MaxTime()
}

// coxPH fits the proportional hazards regression, reports the
// concordance of its risk scores, and plots fitted survival curves
// for the configured profiles.
func coxPH(lg *log.Logger, cfg *config.Config, data statmodel.Dataset, profiles []duration.Profile) {

	ph, err := duration.NewPHReg(data, "time", "event", cfg.Predictors, nil)
	if err != nil {
		lg.Fatalf("proportional hazards model: %v", err)
	}

	rslt, err := ph.Fit()
	if err != nil {
		lg.Fatalf("proportional hazards fit: %v", err)
	}

	fmt.Printf("%s\n", rslt.Summary())

	// Concordance of the linear risk scores, truncated near the end
	// of follow-up where the risk sets become small.
	time := data.Column("time")
	scores := make([]float64, data.NumObs())
	for j, na := range cfg.Predictors {
		x := data.Column(na)
		floats.AddScaled(scores, rslt.Params()[j], x)
	}
	cc := duration.NewConcordance(time, data.Column("event"), scores).Done()
	trunc := 0.8 * floats.Max(time)
	fmt.Printf("Concordance (truncated at %.0f days): %.3f\n\n", trunc, cc.Concordance(trunc))

	cp := duration.NewCurvePlotter().Width(cfg.PlotWidth).Height(cfg.PlotHeight)
	cp.XLabel("Days since enrollment")
	cp.YLabel("Survival probability")
	cp.YLimits(0, 1)
	for _, pr := range profiles {
		cv, err := rslt.SurvivalCurve(pr)
		if err != nil {
			lg.Fatalf("profile %s: %v", pr.Name, err)
		}
		cp.Add(cv, pr.Name)
	}
	cp.Plot()
	cp.Save(filepath.Join(cfg.PlotDir, "cox_survival.png"))

	lg.Printf("wrote proportional hazards plots to %s", cfg.PlotDir)
}

// weibull fits the accelerated failure time regression and plots
// parametric survival and hazard curves for the configured profiles.
func weibull(lg *log.Logger, cfg *config.Config, data statmodel.Dataset,
	profiles []duration.Profile, maxtime float64) {

	wr, err := duration.NewWeibullReg(data, "time", "event", cfg.Predictors, nil)
	if err != nil {
		lg.Fatalf("Weibull model: %v", err)
	}

	rslt, err := wr.Fit()
	if err != nil {
		lg.Fatalf("Weibull fit: %v", err)
	}

	fmt.Printf("%s\n", rslt.Summary())
	fmt.Printf("Weibull shape: %.3f  scale (sigma): %.3f\n\n", rslt.Shape(), rslt.Scale())

	sgrid := duration.TimeGrid(0, maxtime, cfg.TimePoints)

	// The Weibull hazard diverges at the origin when the shape is
	// below one, so the hazard grid starts at the first positive
	// grid point.
	hgrid := duration.TimeGrid(maxtime/float64(cfg.TimePoints), maxtime, cfg.TimePoints)

	sp := duration.NewCurvePlotter().Width(cfg.PlotWidth).Height(cfg.PlotHeight)
	sp.XLabel("Days since enrollment")
	sp.YLabel("Survival probability")
	sp.YLimits(0, 1)

	hp := duration.NewCurvePlotter().Width(cfg.PlotWidth).Height(cfg.PlotHeight)
	hp.XLabel("Days since enrollment")
	hp.YLabel("Hazard rate")

	for _, pr := range profiles {
		cv, err := rslt.Curve(pr)
		if err != nil {
			lg.Fatalf("profile %s: %v", pr.Name, err)
		}
		sp.Add(cv.SurvivalCurve(sgrid), pr.Name)
		hp.Add(cv.HazardCurve(hgrid), pr.Name)
	}

	sp.Plot()
	sp.Save(filepath.Join(cfg.PlotDir, "weibull_survival.png"))
	hp.Plot()
	hp.Save(filepath.Join(cfg.PlotDir, "weibull_hazard.png"))

	lg.Printf("wrote Weibull plots to %s", cfg.PlotDir)
}

// subset returns the rows of data where the named variable equals the
// given value.
func subset(data statmodel.Dataset, name string, value float64) statmodel.Dataset {

	col := data.Column(name)
	names := data.Names()

	da := make([][]statmodel.Dtype, len(names))
	for j, src := range data.Data() {
		for i, v := range col {
			if v == value {
				da[j] = append(da[j], src[i])
			}
		}
	}

	return statmodel.NewDataset(da, names)
}
