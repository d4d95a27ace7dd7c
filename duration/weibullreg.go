package duration

import (
	"fmt"
	"log"
	"math"
	"os"

	"gonum.org/v1/gonum/optimize"

	"github.com/edefojoshua/survmodel/statmodel"
)

// WeibullParameter contains a parameter value for a Weibull
// accelerated failure time regression model.  The coefficient vector
// holds the intercept, the covariate coefficients, and the log of the
// scale parameter, in that order.
type WeibullParameter struct {
	coeff []float64
}

// GetCoeff returns the array of model parameters from a parameter value.
func (p *WeibullParameter) GetCoeff() []float64 {
	return p.coeff
}

// SetCoeff sets the array of model parameters for a parameter value.
func (p *WeibullParameter) SetCoeff(x []float64) {
	p.coeff = x
}

// Clone returns a deep copy of the parameter value.
func (p *WeibullParameter) Clone() statmodel.Parameter {
	q := make([]float64, len(p.coeff))
	copy(q, p.coeff)
	return &WeibullParameter{q}
}

// WeibullReg describes a Weibull accelerated failure time regression
// model for right censored data.  The model is
//
//	log(T) = intercept + x'b + sigma*W
//
// where W follows a standard extreme value distribution.  Under this
// parameterization the event time T follows a Weibull distribution
// with shape 1/sigma and scale exp(intercept + x'b).  An intercept is
// always included; the parameter vector is (intercept, b, log(sigma)).
type WeibullReg struct {

	// The names of the variables, in the order of the data columns.
	varnames []string

	// The data to which the model is fit.
	data [][]statmodel.Dtype

	// Positions of the time, status, and weight variables; -1
	// where not present.
	timepos   int
	statuspos int
	weightpos int

	// The positions of the covariates in the data.
	xpos []int

	// Cached log of the time variable.
	logtime []float64

	// Starting values, optional.
	start []float64

	// Optimization settings and method.
	optsettings *optimize.Settings
	optmethod   optimize.Method

	log *log.Logger
}

// WeibullRegConfig defines configuration parameters for a Weibull
// regression.
type WeibullRegConfig struct {

	// A logger to which logging information is written.
	Log *log.Logger

	// Start contains starting values for the parameter estimates,
	// arranged as (intercept, coefficients, log scale).
	Start []float64

	// WeightVar is the name of a variable for frequency-weighting
	// the cases.  If an empty string, all weights are equal to 1.
	WeightVar string

	// OptMethod is the gonum optimization method used to fit the
	// model.
	OptMethod optimize.Method

	// OptSettings configures the gonum optimization routine.
	OptSettings *optimize.Settings
}

// DefaultWeibullRegConfig returns a default configuration struct for
// a Weibull regression.
func DefaultWeibullRegConfig() *WeibullRegConfig {

	return &WeibullRegConfig{
		OptMethod: &optimize.BFGS{
			Linesearcher: &optimize.MoreThuente{},
		},
	}
}

// NewWeibullReg returns a WeibullReg value that can be used to fit a
// Weibull accelerated failure time regression model to the given
// dataset.  All event and censoring times must be strictly positive.
func NewWeibullReg(data statmodel.Dataset, time, status string, predictors []string, config *WeibullRegConfig) (*WeibullReg, error) {

	if config == nil {
		config = DefaultWeibullRegConfig()
	}

	timepos := data.Pos(time)
	if timepos == -1 {
		return nil, fmt.Errorf("time variable '%s' not found in dataset", time)
	}

	statuspos := data.Pos(status)
	if statuspos == -1 {
		return nil, fmt.Errorf("status variable '%s' not found in dataset", status)
	}

	var xpos []int
	for _, xna := range predictors {
		xp := data.Pos(xna)
		if xp == -1 {
			return nil, fmt.Errorf("predictor '%s' not found in dataset", xna)
		}
		xpos = append(xpos, xp)
	}

	weightpos := -1
	if config.WeightVar != "" {
		weightpos = data.Pos(config.WeightVar)
		if weightpos == -1 {
			return nil, fmt.Errorf("variable '%s' not found in dataset", config.WeightVar)
		}
	}

	wr := &WeibullReg{
		data:        data.Data(),
		varnames:    data.Names(),
		timepos:     timepos,
		statuspos:   statuspos,
		weightpos:   weightpos,
		xpos:        xpos,
		start:       config.Start,
		log:         config.Log,
		optsettings: config.OptSettings,
		optmethod:   config.OptMethod,
	}

	tm := wr.data[timepos]
	st := wr.data[statuspos]
	wr.logtime = make([]float64, len(tm))
	for i, t := range tm {
		if t <= 0 {
			return nil, fmt.Errorf("WeibullReg: time of observation %d is not positive", i)
		}
		if st[i] != 0 && st[i] != 1 {
			return nil, fmt.Errorf("WeibullReg: status variable '%s' has values other than 0 and 1",
				wr.varnames[statuspos])
		}
		wr.logtime[i] = math.Log(float64(t))
	}

	return wr, nil
}

// NumObs returns the number of observations in the data set.
func (wr *WeibullReg) NumObs() int {
	return len(wr.data[0])
}

// NumParams returns the number of model parameters: the intercept,
// one coefficient per covariate, and the log scale parameter.
func (wr *WeibullReg) NumParams() int {
	return len(wr.xpos) + 2
}

// Dataset returns the data columns that are used to fit the model.
func (wr *WeibullReg) Dataset() [][]statmodel.Dtype {
	return wr.data
}

// Xpos returns the positions of the covariates in the model's dataset.
func (wr *WeibullReg) Xpos() []int {
	return wr.xpos
}

// XNames returns the names of the covariates in the model, excluding
// the intercept.
func (wr *WeibullReg) XNames() []string {
	var xna []string
	for _, k := range wr.xpos {
		xna = append(xna, wr.varnames[k])
	}
	return xna
}

// paramNames returns the names of all model parameters in the order
// of the parameter vector.
func (wr *WeibullReg) paramNames() []string {
	na := []string{"(Intercept)"}
	na = append(na, wr.XNames()...)
	na = append(na, "log(scale)")
	return na
}

// linpred fills lp with the linear predictors for the given
// parameter vector.
func (wr *WeibullReg) linpred(params []float64, lp []float64) {

	for i := range lp {
		lp[i] = params[0]
	}
	for j, k := range wr.xpos {
		x := wr.data[k]
		for i := range x {
			lp[i] += params[j+1] * float64(x[i])
		}
	}
}

// LogLike returns the log-likelihood at the given parameter value.
// The 'exact' parameter is ignored here.
func (wr *WeibullReg) LogLike(param statmodel.Parameter, exact bool) float64 {

	params := param.GetCoeff()
	p := len(wr.xpos)
	logsig := params[p+1]
	sig := math.Exp(logsig)

	status := wr.data[wr.statuspos]

	var wgt []statmodel.Dtype
	if wr.weightpos != -1 {
		wgt = wr.data[wr.weightpos]
	}

	lp := make([]float64, wr.NumObs())
	wr.linpred(params, lp)

	var ll float64
	for i := range lp {

		w := float64(1)
		if wgt != nil {
			w = float64(wgt[i])
		}

		z := (wr.logtime[i] - lp[i]) / sig
		ez := math.Exp(z)

		if status[i] == 1 {
			ll += w * (-logsig - wr.logtime[i] + z - ez)
		} else {
			ll += w * (-ez)
		}
	}

	return ll
}

// Score computes the score vector of the log-likelihood at the given
// parameter setting.
func (wr *WeibullReg) Score(param statmodel.Parameter, score []float64) {

	params := param.GetCoeff()
	p := len(wr.xpos)
	logsig := params[p+1]
	sig := math.Exp(logsig)

	status := wr.data[wr.statuspos]

	var wgt []statmodel.Dtype
	if wr.weightpos != -1 {
		wgt = wr.data[wr.weightpos]
	}

	lp := make([]float64, wr.NumObs())
	wr.linpred(params, lp)

	zero(score)
	for i := range lp {

		w := float64(1)
		if wgt != nil {
			w = float64(wgt[i])
		}

		z := (wr.logtime[i] - lp[i]) / sig
		ez := math.Exp(z)
		d := float64(status[i])

		// Derivative of the observation log-likelihood with
		// respect to the linear predictor, times sigma.
		u := w * (ez - d) / sig

		score[0] += u
		for j, k := range wr.xpos {
			score[j+1] += u * float64(wr.data[k][i])
		}

		score[p+1] += w * (z*(ez-d) - d)
	}
}

// Hessian computes the Hessian matrix of the log-likelihood at the
// given parameter setting, using central differences of the analytic
// score.  The Hessian type parameter is not used here.
func (wr *WeibullReg) Hessian(param statmodel.Parameter, ht statmodel.HessType, hess []float64) {

	params := param.GetCoeff()
	np := wr.NumParams()

	x := make([]float64, np)
	copy(x, params)

	s1 := make([]float64, np)
	s2 := make([]float64, np)

	const h = 1e-6
	for k := 0; k < np; k++ {

		x[k] = params[k] + h
		wr.Score(&WeibullParameter{x}, s1)

		x[k] = params[k] - h
		wr.Score(&WeibullParameter{x}, s2)

		x[k] = params[k]

		for j := 0; j < np; j++ {
			hess[j*np+k] = (s1[j] - s2[j]) / (2 * h)
		}
	}

	// Symmetrize
	for j := 0; j < np; j++ {
		for k := 0; k < j; k++ {
			v := (hess[j*np+k] + hess[k*np+j]) / 2
			hess[j*np+k] = v
			hess[k*np+j] = v
		}
	}
}

// WeibullResults describes the results of a fitted Weibull
// regression model.
type WeibullResults struct {
	statmodel.BaseResults

	wr *WeibullReg
}

// Fit fits the model to the data using maximum likelihood.
func (wr *WeibullReg) Fit() (*WeibullResults, error) {

	np := wr.NumParams()

	start := wr.start
	if start == nil {
		// Start at the intercept-only exponential model: the
		// intercept is the log mean time, other parameters 0.
		start = make([]float64, np)
		tm := wr.data[wr.timepos]
		var mt float64
		for _, t := range tm {
			mt += float64(t)
		}
		start[0] = math.Log(mt / float64(len(tm)))
	} else if len(start) != np {
		return nil, fmt.Errorf("WeibullReg: %d starting values, expected %d", len(start), np)
	}

	p := optimize.Problem{
		Func: func(x []float64) float64 {
			return -wr.LogLike(&WeibullParameter{x}, false)
		},
		Grad: func(grad, x []float64) {
			wr.Score(&WeibullParameter{x}, grad)
			negative(grad)
		},
	}

	settings := wr.optsettings
	if settings == nil {
		settings = &optimize.Settings{
			GradientThreshold: 1e-5,
		}
	}
	method := wr.optmethod
	if method == nil {
		method = &optimize.BFGS{
			Linesearcher: &optimize.MoreThuente{},
		}
	}

	optrslt, err := optimize.Minimize(p, start, settings, method)
	if err != nil {
		if optrslt == nil {
			return nil, err
		}
		os.Stderr.WriteString("WeibullReg: optimization failed\n")
		for j, na := range wr.paramNames() {
			os.Stderr.WriteString(fmt.Sprintf("%16.8f %16.8f %s\n",
				optrslt.X[j], optrslt.Gradient[j], na))
		}
		rslt := &WeibullResults{
			BaseResults: statmodel.NewBaseResults(wr, -optrslt.F, optrslt.X, wr.paramNames(), nil),
			wr:          wr,
		}
		return rslt, err
	}
	if err = optrslt.Status.Err(); err != nil {
		return nil, err
	}

	param := make([]float64, len(optrslt.X))
	copy(param, optrslt.X)

	ll := -optrslt.F
	vcov, _ := statmodel.GetVcov(wr, &WeibullParameter{param})

	rslt := &WeibullResults{
		BaseResults: statmodel.NewBaseResults(wr, ll, param, wr.paramNames(), vcov),
		wr:          wr,
	}

	if wr.log != nil {
		wr.log.Printf("Weibull fit converged, loglike=%f shape=%f", ll, rslt.Shape())
	}

	return rslt, nil
}

// Scale returns the estimated scale parameter sigma of the extreme
// value error distribution.
func (rslt *WeibullResults) Scale() float64 {
	params := rslt.Params()
	return math.Exp(params[len(params)-1])
}

// Shape returns the estimated Weibull shape parameter, which is the
// reciprocal of the scale parameter.
func (rslt *WeibullResults) Shape() float64 {
	return 1 / rslt.Scale()
}

// Intercept returns the estimated model intercept.
func (rslt *WeibullResults) Intercept() float64 {
	return rslt.Params()[0]
}

// Coeff returns the estimated covariate coefficients keyed by
// covariate name, excluding the intercept and the scale parameter.
func (rslt *WeibullResults) Coeff() map[string]float64 {

	cf := make(map[string]float64)
	for j, na := range rslt.wr.XNames() {
		cf[na] = rslt.Params()[j+1]
	}
	return cf
}

// LinearPredictor returns the linear predictor (intercept included)
// for the given covariate profile, binding the profile's values to
// the model's coefficients by covariate name.
func (rslt *WeibullResults) LinearPredictor(profile Profile) (float64, error) {

	params := rslt.Params()
	xnames := rslt.wr.XNames()
	return profile.bind(xnames, params[1:1+len(xnames)], params[0])
}

// Curve returns a parametric survival/hazard curve evaluator for the
// given covariate profile.
func (rslt *WeibullResults) Curve(profile Profile) (*WeibullCurve, error) {

	lp, err := rslt.LinearPredictor(profile)
	if err != nil {
		return nil, err
	}
	return NewWeibullCurve(rslt.Shape(), lp)
}

// Summary displays a summary table of the model results.
func (rslt *WeibullResults) Summary() *WeibullSummary {
	return &WeibullSummary{
		wr:      rslt.wr,
		results: rslt,
	}
}

// WeibullSummary summarizes a fitted Weibull regression model.
type WeibullSummary struct {
	wr      *WeibullReg
	results *WeibullResults
}

// String returns a string representation of a summary table for the
// model.
func (ws *WeibullSummary) String() string {

	wr := ws.wr
	status := wr.data[wr.statuspos]
	var e int
	for i := range status {
		e += int(status[i])
	}

	sum := &statmodel.SummaryTable{}
	sum.Title = "Weibull regression analysis (accelerated failure time)"

	sum.Top = append(sum.Top, fmt.Sprintf("  Sample size: %10d", wr.NumObs()))
	sum.Top = append(sum.Top, fmt.Sprintf("  Events:      %10d", e))
	sum.Top = append(sum.Top, fmt.Sprintf("  Scale:       %10.4f", ws.results.Scale()))
	sum.Top = append(sum.Top, fmt.Sprintf("  Shape:       %10.4f", ws.results.Shape()))
	sum.Top = append(sum.Top, fmt.Sprintf("  Log-likelihood: %.2f", ws.results.LogLike()))

	fs := func(x interface{}, h string) []string {
		y := x.([]string)
		m := len(h)
		for i := range y {
			if len(y[i]) > m {
				m = len(y[i])
			}
		}
		var z []string
		for i := range y {
			c := fmt.Sprintf("%%-%ds", m)
			z = append(z, fmt.Sprintf(c, y[i]))
		}
		return z
	}

	fn := func(x interface{}, h string) []string {
		y := x.([]float64)
		var s []string
		for i := range y {
			s = append(s, fmt.Sprintf("%10.4f", y[i]))
		}
		return s
	}

	if ws.results.StdErr() != nil {
		sum.ColNames = []string{"Parameter    ", "Estimate", "SE", "Z-score", "P-value"}
		sum.ColFmt = []statmodel.Fmter{fs, fn, fn, fn, fn}
		sum.Cols = []interface{}{ws.results.Names(), ws.results.Params(), ws.results.StdErr(),
			ws.results.ZScores(), ws.results.PValues()}
	} else {
		sum.ColNames = []string{"Parameter    ", "Estimate"}
		sum.ColFmt = []statmodel.Fmter{fs, fn}
		sum.Cols = []interface{}{ws.results.Names(), ws.results.Params()}
	}

	return sum.String()
}
