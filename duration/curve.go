package duration

import (
	"fmt"
	"math"
	"sort"
)

// Profile is a named covariate profile: a mapping from covariate name
// to value that describes one hypothetical subject.  Profiles are
// bound to fitted models by covariate name, so the order of the
// covariates never matters.
type Profile struct {

	// A label for the profile, used in plot legends and output.
	Name string

	// The covariate values keyed by covariate name.  The keys
	// must be exactly the covariate names of the model that the
	// profile is bound to, excluding the intercept.
	Values map[string]float64
}

// bind computes intercept + sum(coeff * value) over the model's
// covariate names.  The profile must supply a value for every
// covariate and contain no names unknown to the model; either
// violation is an error rather than a silent misalignment.
func (p Profile) bind(xnames []string, coeff []float64, intercept float64) (float64, error) {

	if len(p.Values) != len(xnames) {
		return 0, fmt.Errorf("profile '%s' has covariates %v, model has %v",
			p.Name, p.covariateNames(), xnames)
	}

	lp := intercept
	for j, na := range xnames {
		v, ok := p.Values[na]
		if !ok {
			return 0, fmt.Errorf("profile '%s' is missing covariate '%s'", p.Name, na)
		}
		lp += coeff[j] * v
	}

	return lp, nil
}

// covariateNames returns the profile's covariate names, sorted.
func (p Profile) covariateNames() []string {
	var na []string
	for k := range p.Values {
		na = append(na, k)
	}
	sort.Strings(na)
	return na
}

// Curve is an ordered sequence of (time, value) pairs over a shared
// time grid, e.g. pointwise survival probabilities or hazard rates.
type Curve struct {
	Times  []float64
	Values []float64
}

// WeibullCurve evaluates the survival and hazard functions of a
// fitted Weibull model for one covariate profile.  A WeibullCurve is
// an immutable value: the shape parameter and the profile's linear
// predictor are fixed at construction, so curves for distinct
// profiles never share state.
type WeibullCurve struct {
	shape float64
	lp    float64
}

// NewWeibullCurve returns a curve evaluator for the given shape
// parameter and linear predictor.  A non-positive or non-finite
// shape, or a non-finite linear predictor, is an error: these values
// would make both functions undefined and indicate a problem with the
// upstream fit rather than a condition to clamp away.
func NewWeibullCurve(shape, linpred float64) (*WeibullCurve, error) {

	if !(shape > 0) || math.IsInf(shape, 0) {
		return nil, fmt.Errorf("Weibull shape parameter %v is not a positive finite value", shape)
	}
	if math.IsNaN(linpred) || math.IsInf(linpred, 0) {
		return nil, fmt.Errorf("linear predictor %v is not finite", linpred)
	}

	return &WeibullCurve{shape: shape, lp: linpred}, nil
}

// Shape returns the Weibull shape parameter.
func (c *WeibullCurve) Shape() float64 {
	return c.shape
}

// LinearPredictor returns the linear predictor of the profile that
// the curve was built for.
func (c *WeibullCurve) LinearPredictor() float64 {
	return c.lp
}

// Survival returns the survival probability at time t,
//
//	S(t) = exp(-((t / exp(lp))^shape)).
//
// Survival(0) is 1 and the function is non-increasing in t.
func (c *WeibullCurve) Survival(t float64) float64 {
	return math.Exp(-math.Pow(t/math.Exp(c.lp), c.shape))
}

// Hazard returns the hazard rate at time t,
//
//	h(t) = shape * t^(shape-1) / exp(lp).
//
// The hazard is defined for t > 0; when shape < 1 it diverges as t
// approaches 0, so hazard grids should start above 0.
func (c *WeibullCurve) Hazard(t float64) float64 {
	return c.shape * math.Pow(t, c.shape-1) / math.Exp(c.lp)
}

// SurvivalCurve evaluates the survival function over the given time
// grid.
func (c *WeibullCurve) SurvivalCurve(times []float64) Curve {

	cv := Curve{
		Times:  make([]float64, len(times)),
		Values: make([]float64, len(times)),
	}
	copy(cv.Times, times)
	for i, t := range times {
		cv.Values[i] = c.Survival(t)
	}
	return cv
}

// HazardCurve evaluates the hazard function over the given time grid.
func (c *WeibullCurve) HazardCurve(times []float64) Curve {

	cv := Curve{
		Times:  make([]float64, len(times)),
		Values: make([]float64, len(times)),
	}
	copy(cv.Times, times)
	for i, t := range times {
		cv.Values[i] = c.Hazard(t)
	}
	return cv
}

// TimeGrid returns n equally spaced time points spanning [lo, hi].
func TimeGrid(lo, hi float64, n int) []float64 {

	if n < 2 {
		panic("TimeGrid: need at least two points")
	}
	if hi <= lo {
		panic("TimeGrid: upper limit must exceed lower limit")
	}

	g := make([]float64, n)
	d := (hi - lo) / float64(n-1)
	for i := range g {
		g[i] = lo + float64(i)*d
	}
	g[n-1] = hi

	return g
}
