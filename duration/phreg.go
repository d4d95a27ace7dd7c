package duration

import (
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/edefojoshua/survmodel/statmodel"
)

// PHParameter contains a parameter value for a proportional hazards
// regression model.
type PHParameter struct {
	coeff []float64
}

// GetCoeff returns the array of model coefficients from a parameter value.
func (p *PHParameter) GetCoeff() []float64 {
	return p.coeff
}

// SetCoeff sets the array of model coefficients for a parameter value.
func (p *PHParameter) SetCoeff(x []float64) {
	p.coeff = x
}

// Clone returns a deep copy of the parameter value.
func (p *PHParameter) Clone() statmodel.Parameter {
	q := make([]float64, len(p.coeff))
	copy(q, p.coeff)
	return &PHParameter{q}
}

// PHReg describes a proportional hazards regression model for right
// censored data, fit using the Breslow method to resolve tied event
// times.
type PHReg struct {

	// The names of the variables, in the order of the data columns.
	varnames []string

	// The data to which the model is fit.
	data [][]statmodel.Dtype

	// Starting values, optional.
	start []float64

	// Positions of the time, status, entry and weight variables;
	// -1 where not present.
	timepos   int
	statuspos int
	entrypos  int
	weightpos int

	// The positions of the covariates in the data.
	xpos []int

	// The sorted distinct times at which events occur.
	etimes []float64

	// enter[j] are the row indices that enter the risk set at the
	// j'th distinct event time.
	enter [][]int

	// event[j] are the row indices that have an event at the j'th
	// distinct event time.
	event [][]int

	// exit[j] are the row indices that exit the risk set at the
	// j'th distinct event time.
	exit [][]int

	// The weighted sum of covariates over cases with events.
	sumx []float64

	// If skip[i] is true, case i is omitted since it is censored
	// before the first event.
	skip []bool

	// The number of omitted early-censored cases.
	skipEarlyCensor int

	// Optimization settings and method.
	optsettings *optimize.Settings
	optmethod   optimize.Method

	log *log.Logger

	// Reusable observation-length scratch slices.
	nslices [][]float64
}

// PHRegConfig defines configuration parameters for a proportional
// hazards regression.
type PHRegConfig struct {

	// A logger to which logging information is written.
	Log *log.Logger

	// Start contains starting values for the regression parameter
	// estimates.
	Start []float64

	// WeightVar is the name of a variable for frequency-weighting
	// the cases.  If an empty string, all weights are equal to 1.
	WeightVar string

	// EntryVar is the name of a variable that defines entry (left
	// truncation) times.
	EntryVar string

	// OptMethod is the gonum optimization method used to fit the
	// model.
	OptMethod optimize.Method

	// OptSettings configures the gonum optimization routine.
	OptSettings *optimize.Settings
}

// DefaultPHRegConfig returns a default configuration struct for a
// proportional hazards regression.
func DefaultPHRegConfig() *PHRegConfig {

	return &PHRegConfig{
		OptMethod: &optimize.BFGS{
			Linesearcher: &optimize.MoreThuente{},
		},
	}
}

// NewPHReg returns a PHReg value that can be used to fit a
// proportional hazards regression model to the given dataset.
func NewPHReg(data statmodel.Dataset, time, status string, predictors []string, config *PHRegConfig) (*PHReg, error) {

	if config == nil {
		config = DefaultPHRegConfig()
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

	getpos := func(vn string) (int, error) {
		if vn == "" {
			return -1, nil
		}
		p := data.Pos(vn)
		if p == -1 {
			return -1, fmt.Errorf("variable '%s' not found in dataset", vn)
		}
		return p, nil
	}

	weightpos, err := getpos(config.WeightVar)
	if err != nil {
		return nil, err
	}
	entrypos, err := getpos(config.EntryVar)
	if err != nil {
		return nil, err
	}

	ph := &PHReg{
		data:        data.Data(),
		varnames:    data.Names(),
		timepos:     timepos,
		statuspos:   statuspos,
		xpos:        xpos,
		weightpos:   weightpos,
		entrypos:    entrypos,
		start:       config.Start,
		log:         config.Log,
		optsettings: config.OptSettings,
		optmethod:   config.OptMethod,
	}

	ph.setupTimes()
	ph.setupCovs()

	return ph, nil
}

// NumObs returns the number of observations in the data set.
func (ph *PHReg) NumObs() int {
	return len(ph.data[0])
}

// NumParams returns the number of model parameters (regression
// coefficients).
func (ph *PHReg) NumParams() int {
	return len(ph.xpos)
}

// Dataset returns the data columns that are used to fit the model.
func (ph *PHReg) Dataset() [][]statmodel.Dtype {
	return ph.data
}

// Xpos returns the positions of the covariates in the model's dataset.
func (ph *PHReg) Xpos() []int {
	return ph.xpos
}

// XNames returns the names of the covariates in the model.
func (ph *PHReg) XNames() []string {
	var xna []string
	for _, k := range ph.xpos {
		xna = append(xna, ph.varnames[k])
	}
	return xna
}

func (ph *PHReg) setupTimes() {

	time := ph.data[ph.timepos]
	status := ph.data[ph.statuspos]
	nobs := len(time)

	// Track cases that are omitted since they are censored before
	// the first event.
	ph.skip = make([]bool, nobs)
	ph.skipEarlyCensor = 0

	// Get the sorted distinct times where events occur.
	var et []float64
	for i := 0; i < nobs; i++ {
		if time[i] < 0 {
			panic("PHReg: times cannot be negative")
		}
		switch status[i] {
		case 1:
			et = append(et, float64(time[i]))
		case 0:
			// censored
		default:
			msg := fmt.Sprintf("PHReg: status variable '%s' has values other than 0 and 1",
				ph.varnames[ph.statuspos])
			panic(msg)
		}
	}

	if len(et) > 0 {
		sort.Float64s(et)

		// Deduplicate
		j := 0
		for i := 1; i < len(et); i++ {
			if et[i] != et[j] {
				j++
				et[j] = et[i]
			}
		}
		et = et[0 : j+1]
	}
	ph.etimes = et

	// Indices of cases that enter or exit the risk set, or have
	// an event, at each distinct event time.
	ph.enter = make([][]int, len(et))
	ph.exit = make([][]int, len(et))
	ph.event = make([][]int, len(et))

	if len(et) == 0 {
		return
	}

	// Risk set exit times
	for i := 0; i < nobs; i++ {
		ii := sort.SearchFloat64s(et, float64(time[i]))
		if ii == len(et) {
			// Censored after the last event, never exits
		} else if et[ii] == float64(time[i]) {
			// Event or censored at an event time
			ph.exit[ii] = append(ph.exit[ii], i)
		} else if ii == 0 {
			// Censored before the first event, never enters
			ph.skip[i] = true
			ph.skipEarlyCensor++
		} else {
			// Censored between event times
			ph.exit[ii-1] = append(ph.exit[ii-1], i)
		}
	}

	// Event times
	for i := 0; i < nobs; i++ {
		if status[i] == 0 || ph.skip[i] {
			continue
		}
		ii := sort.SearchFloat64s(et, float64(time[i]))
		ph.event[ii] = append(ph.event[ii], i)
	}

	// Risk set entry times
	if ph.entrypos == -1 {
		// Everyone enters at time 0
		for i := 0; i < nobs; i++ {
			if !ph.skip[i] {
				ph.enter[0] = append(ph.enter[0], i)
			}
		}
	} else {
		entry := ph.data[ph.entrypos]
		for i := 0; i < nobs; i++ {
			if ph.skip[i] {
				continue
			}
			t := entry[i]
			if t > time[i] {
				panic("PHReg: entry times may not occur after event or censoring times")
			}
			if t < 0 {
				panic("PHReg: entry times may not be negative")
			}
			ii := sort.SearchFloat64s(et, float64(t))
			if ii < len(et) {
				// Enter on or between event times; entry
				// after the last event never joins a risk set.
				ph.enter[ii] = append(ph.enter[ii], i)
			}
		}
	}
}

func (ph *PHReg) setupCovs() {

	status := ph.data[ph.statuspos]

	var wgt []statmodel.Dtype
	if ph.weightpos != -1 {
		wgt = ph.data[ph.weightpos]
	}

	// The weighted sum of covariates over cases with the event.
	ph.sumx = make([]float64, len(ph.xpos))
	for j, k := range ph.xpos {
		x := ph.data[k]
		for i := range x {
			if ph.skip[i] || status[i] != 1 {
				continue
			}
			if wgt == nil {
				ph.sumx[j] += float64(x[i])
			} else {
				ph.sumx[j] += float64(wgt[i] * x[i])
			}
		}
	}
}

func (ph *PHReg) putNslice(x []float64) {
	ph.nslices = append(ph.nslices, x)
}

func (ph *PHReg) getNslice() []float64 {

	if len(ph.nslices) == 0 {
		return make([]float64, ph.NumObs())
	}
	q := len(ph.nslices) - 1
	x := ph.nslices[q]
	zero(x)
	ph.nslices = ph.nslices[0:q]

	return x
}

func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}

func negative(x []float64) {
	for i := range x {
		x[i] *= -1
	}
}

// LogLike returns the log partial likelihood at the given parameter
// value.  The 'exact' parameter is ignored here.
func (ph *PHReg) LogLike(param statmodel.Parameter, exact bool) float64 {
	return ph.breslowLogLike(param.GetCoeff())
}

// breslowLogLike returns the log partial likelihood at the given
// parameter values, using the Breslow method to resolve ties.
func (ph *PHReg) breslowLogLike(params []float64) float64 {

	var wgt []statmodel.Dtype
	if ph.weightpos != -1 {
		wgt = ph.data[ph.weightpos]
	}

	lp := ph.getNslice()
	elp := ph.getNslice()

	// Get the linear predictors
	for j, k := range ph.xpos {
		x := ph.data[k]
		for i := range x {
			lp[i] += float64(x[i]) * params[j]
		}
	}

	// We can subtract any constant here due to invariance of the
	// partial likelihood.
	mx := floats.Max(lp)
	for i := range lp {
		lp[i] -= mx
		elp[i] = math.Exp(lp[i])
	}
	if wgt != nil {
		for i := range lp {
			lp[i] *= float64(wgt[i])
			elp[i] *= float64(wgt[i])
		}
	}

	ql := float64(0)
	rlp := float64(0)
	for k := range ph.etimes {

		// Update for new entries
		for _, i := range ph.enter[k] {
			rlp += elp[i]
		}

		for _, i := range ph.event[k] {
			ql += lp[i]
		}

		if wgt != nil {
			var n float64
			for _, i := range ph.event[k] {
				n += float64(wgt[i])
			}
			ql -= n * math.Log(rlp)
		} else {
			ql -= float64(len(ph.event[k])) * math.Log(rlp)
		}

		// Update for new exits
		for _, i := range ph.exit[k] {
			rlp -= elp[i]
		}
	}

	ph.putNslice(lp)
	ph.putNslice(elp)

	return ql
}

// Score computes the score vector of the log partial likelihood at
// the given parameter setting.
func (ph *PHReg) Score(params statmodel.Parameter, score []float64) {
	ph.breslowScore(params.GetCoeff(), score)
}

// breslowScore calculates the score vector at the given parameter
// values, using the Breslow approach to resolving ties.
func (ph *PHReg) breslowScore(params, score []float64) {

	zero(score)

	var wgt []statmodel.Dtype
	if ph.weightpos != -1 {
		wgt = ph.data[ph.weightpos]
	}

	lp := ph.getNslice()

	// Get the linear predictors
	for j, k := range ph.xpos {
		x := ph.data[k]
		for i := range x {
			lp[i] += float64(x[i]) * params[j]
		}
	}

	floats.Add(score, ph.sumx)

	mx := floats.Max(lp)
	for i := range lp {
		lp[i] = math.Exp(lp[i] - mx)
	}
	if wgt != nil {
		for i := range lp {
			lp[i] *= float64(wgt[i])
		}
	}

	rlp := float64(0)
	rlpv := make([]float64, len(ph.xpos))
	for q := range ph.etimes {

		// Update for new entries
		for _, i := range ph.enter[q] {
			rlp += lp[i]
			for j, k := range ph.xpos {
				rlpv[j] += lp[i] * float64(ph.data[k][i])
			}
		}

		d := float64(len(ph.event[q]))
		if wgt != nil {
			d = 0
			for _, i := range ph.event[q] {
				d += float64(wgt[i])
			}
		}
		floats.AddScaledTo(score, score, -d/rlp, rlpv)

		// Update for new exits
		for _, i := range ph.exit[q] {
			rlp -= lp[i]
			for j, k := range ph.xpos {
				rlpv[j] -= lp[i] * float64(ph.data[k][i])
			}
		}
	}

	ph.putNslice(lp)
}

// Hessian computes the Hessian matrix of the log partial likelihood
// evaluated at the given parameter setting.  The Hessian type
// parameter is not used here.
func (ph *PHReg) Hessian(params statmodel.Parameter, ht statmodel.HessType, hess []float64) {
	ph.breslowHess(params.GetCoeff(), hess)
}

// breslowHess calculates the Hessian matrix at the given parameter
// values.
func (ph *PHReg) breslowHess(params []float64, hess []float64) {

	zero(hess)

	var wgt []statmodel.Dtype
	if ph.weightpos != -1 {
		wgt = ph.data[ph.weightpos]
	}

	lp := make([]float64, ph.NumObs())

	// Get the linear predictors
	for j, k := range ph.xpos {
		x := ph.data[k]
		for i := range x {
			lp[i] += float64(x[i]) * params[j]
		}
	}

	mx := floats.Max(lp)
	for i := range lp {
		lp[i] = math.Exp(lp[i] - mx)
	}
	if wgt != nil {
		for i := range lp {
			lp[i] *= float64(wgt[i])
		}
	}

	p := len(ph.xpos)
	d1s := make([]float64, p)
	d2s := make([]float64, p*p)

	rlp := float64(0)
	for k := range ph.etimes {

		// Update for new entries
		for _, i := range ph.enter[k] {

			rlp += lp[i]

			for j1, k1 := range ph.xpos {
				x1 := ph.data[k1]
				d1s[j1] += lp[i] * float64(x1[i])
				for j2 := 0; j2 <= j1; j2++ {
					x2 := ph.data[ph.xpos[j2]]
					u := lp[i] * float64(x1[i]*x2[i])
					d2s[j1*p+j2] += u
					if j2 != j1 {
						d2s[j2*p+j1] += u
					}
				}
			}
		}

		d := float64(len(ph.event[k]))
		if wgt != nil {
			d = 0
			for _, i := range ph.event[k] {
				d += float64(wgt[i])
			}
		}

		jj := 0
		for j1 := 0; j1 < p; j1++ {
			for j2 := 0; j2 < p; j2++ {
				hess[jj] -= d * d2s[j1*p+j2] / rlp
				hess[jj] += d * d1s[j1] * d1s[j2] / (rlp * rlp)
				jj++
			}
		}

		// Update for new exits
		for _, i := range ph.exit[k] {

			rlp -= lp[i]
			for j1, k1 := range ph.xpos {
				x1 := ph.data[k1]
				d1s[j1] -= lp[i] * float64(x1[i])
				for j2 := 0; j2 <= j1; j2++ {
					x2 := ph.data[ph.xpos[j2]]
					u := lp[i] * float64(x1[i]*x2[i])
					d2s[j1*p+j2] -= u
					if j2 != j1 {
						d2s[j2*p+j1] -= u
					}
				}
			}
		}
	}
}

// BaselineCumHaz returns the Breslow estimator of the baseline
// cumulative hazard function, evaluated just before each distinct
// event time.  The returned slices are the event times and the
// cumulative hazard values.
func (ph *PHReg) BaselineCumHaz(params []float64) ([]float64, []float64) {

	lp := make([]float64, ph.NumObs())
	for j, k := range ph.xpos {
		x := ph.data[k]
		for i := range x {
			lp[i] += float64(x[i]) * params[j]
		}
	}

	h0 := make([]float64, len(ph.etimes))
	elp := 0.0
	for k := range ph.etimes {

		// Update for new entries
		for _, i := range ph.enter[k] {
			elp += math.Exp(lp[i])
		}

		h0[k] = float64(len(ph.event[k])) / elp

		// Update for new exits
		for _, i := range ph.exit[k] {
			elp -= math.Exp(lp[i])
		}
	}

	h1 := make([]float64, len(h0))
	for i := 1; i < len(h0); i++ {
		h1[i] = h1[i-1] + h0[i-1]
	}

	return ph.etimes, h1
}

// failMessage prints information that can help diagnose optimization
// failures.
func (ph *PHReg) failMessage(optrslt *optimize.Result) {

	os.Stderr.WriteString("Current point and gradient:\n")
	for j, x := range optrslt.X {
		na := ph.varnames[ph.xpos[j]]
		os.Stderr.WriteString(fmt.Sprintf("%16.8f %16.8f %s\n", x, optrslt.Gradient[j], na))
	}

	time := ph.data[ph.timepos]
	status := ph.data[ph.statuspos]
	nobs := len(time)

	var e, mt float64
	for i := 0; i < nobs; i++ {
		e += float64(status[i])
		mt += float64(time[i])
	}
	mt /= float64(nobs)

	os.Stderr.WriteString(fmt.Sprintf("\n%d observations, %.0f events, mean time %.3f\n",
		nobs, e, mt))

	// Covariate means and standard deviations.
	os.Stderr.WriteString("\nCovariate means and standard deviations:\n")
	for _, k := range ph.xpos {
		x := ph.data[k]
		var mn float64
		for i := range x {
			mn += float64(x[i])
		}
		mn /= float64(nobs)
		var sd float64
		for i := range x {
			u := float64(x[i]) - mn
			sd += u * u
		}
		sd = math.Sqrt(sd / float64(nobs))
		os.Stderr.WriteString(fmt.Sprintf("%16.8f %16.8f %s\n", mn, sd, ph.varnames[k]))
	}
}

// PHResults describes the results of a fitted proportional hazards
// model.
type PHResults struct {
	statmodel.BaseResults

	ph *PHReg
}

// Fit fits the model to the data.
func (ph *PHReg) Fit() (*PHResults, error) {

	nvar := len(ph.xpos)

	if ph.start == nil {
		ph.start = make([]float64, nvar)
	}

	p := optimize.Problem{
		Func: func(x []float64) float64 {
			return -ph.LogLike(&PHParameter{x}, false)
		},
		Grad: func(grad, x []float64) {
			ph.Score(&PHParameter{x}, grad)
			negative(grad)
		},
	}

	if ph.optsettings == nil {
		ph.optsettings = &optimize.Settings{
			GradientThreshold: 1e-5,
		}
	}
	if ph.optmethod == nil {
		ph.optmethod = &optimize.BFGS{
			Linesearcher: &optimize.MoreThuente{},
		}
	}

	xna := ph.XNames()

	optrslt, err := optimize.Minimize(p, ph.start, ph.optsettings, ph.optmethod)
	if err != nil {
		if optrslt == nil {
			return nil, err
		}

		// Return partial results with an error
		results := &PHResults{
			BaseResults: statmodel.NewBaseResults(ph, -optrslt.F, optrslt.X, xna, nil),
			ph:          ph,
		}
		ph.failMessage(optrslt)
		return results, err
	}
	if err = optrslt.Status.Err(); err != nil {
		return nil, err
	}

	param := make([]float64, len(optrslt.X))
	copy(param, optrslt.X)

	ll := -optrslt.F
	vcov, _ := statmodel.GetVcov(ph, &PHParameter{param})

	results := &PHResults{
		BaseResults: statmodel.NewBaseResults(ph, ll, param, xna, vcov),
		ph:          ph,
	}

	if ph.log != nil {
		ph.log.Printf("proportional hazards fit converged, loglike=%f", ll)
	}

	return results, nil
}

// RiskScore returns the linear predictor for the given covariate
// profile, binding the profile's values to the model's coefficients
// by covariate name.
func (rslt *PHResults) RiskScore(profile Profile) (float64, error) {
	return profile.bind(rslt.Names(), rslt.Params(), 0)
}

// SurvivalCurve returns the estimated survival curve for the given
// covariate profile, based on the Breslow baseline cumulative hazard
// estimate.
func (rslt *PHResults) SurvivalCurve(profile Profile) (Curve, error) {

	lp, err := rslt.RiskScore(profile)
	if err != nil {
		return Curve{}, err
	}

	times, cumhaz := rslt.ph.BaselineCumHaz(rslt.Params())

	cv := Curve{
		Times:  make([]float64, len(times)),
		Values: make([]float64, len(times)),
	}
	copy(cv.Times, times)
	for i := range cumhaz {
		cv.Values[i] = math.Exp(-cumhaz[i] * math.Exp(lp))
	}

	return cv, nil
}

func (rslt *PHResults) summaryStats() (int, int) {

	ph := rslt.ph
	status := ph.data[ph.statuspos]

	var e int
	for i := range status {
		e += int(status[i])
	}

	return ph.NumObs(), e
}

// PHSummary summarizes a fitted proportional hazards regression model.
type PHSummary struct {

	// The model
	ph *PHReg

	// The results structure
	results *PHResults

	// Messages that are appended to the table
	messages []string
}

// Summary displays a summary table of the model results.
func (rslt *PHResults) Summary() *PHSummary {

	return &PHSummary{
		ph:      rslt.ph,
		results: rslt,
	}
}

// String returns a string representation of a summary table for the
// model.
func (phs *PHSummary) String() string {

	n, e := phs.results.summaryStats()

	sum := &statmodel.SummaryTable{
		Msg: phs.messages,
	}

	sum.Title = "Proportional hazards regression analysis"

	sum.Top = append(sum.Top, fmt.Sprintf("  Sample size: %10d", n))
	sum.Top = append(sum.Top, fmt.Sprintf("  Events:      %10d", e))
	sum.Top = append(sum.Top, "  Ties:           Breslow")
	sum.Top = append(sum.Top, fmt.Sprintf("  Log-likelihood: %.2f", phs.results.LogLike()))

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

	var hr []float64
	for _, c := range phs.results.Params() {
		hr = append(hr, math.Exp(c))
	}

	if phs.results.StdErr() != nil {
		// Estimate and CI for the hazard ratio
		var lcb, ucb []float64
		for j := range phs.results.Params() {
			lcb = append(lcb, math.Exp(phs.results.Params()[j]-2*phs.results.StdErr()[j]))
			ucb = append(ucb, math.Exp(phs.results.Params()[j]+2*phs.results.StdErr()[j]))
		}
		sum.ColNames = []string{"Variable   ", "Coefficient", "SE", "HR", "LCB", "UCB", "Z-score", "P-value"}
		sum.ColFmt = []statmodel.Fmter{fs, fn, fn, fn, fn, fn, fn, fn}
		sum.Cols = []interface{}{phs.results.Names(), phs.results.Params(), phs.results.StdErr(),
			hr, lcb, ucb, phs.results.ZScores(), phs.results.PValues()}
	} else {
		sum.ColNames = []string{"Variable   ", "Coefficient", "HR"}
		sum.ColFmt = []statmodel.Fmter{fs, fn, fn}
		sum.Cols = []interface{}{phs.results.Names(), phs.results.Params(), hr}
	}

	if phs.ph.skipEarlyCensor > 0 {
		msg := fmt.Sprintf("%d observations dropped for being censored before the first event",
			phs.ph.skipEarlyCensor)
		sum.Msg = append(sum.Msg, msg)
	}

	return sum.String()
}
