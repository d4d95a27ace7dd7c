// Package duration supports statistical analysis of duration data
// (survival analysis), including the Kaplan-Meier estimate of the
// survival function, Cox proportional hazards regression, and Weibull
// accelerated failure time regression with parametric survival and
// hazard curves.
package duration

import (
	"fmt"
	"math"
	"sort"

	"github.com/edefojoshua/survmodel/statmodel"
)

// SurvfuncRight uses the method of Kaplan and Meier to estimate the
// survival distribution based on (possibly) right censored data.  The
// time and status variables are named at construction; case weight
// and entry time variables are optional.
type SurvfuncRight struct {

	// The data used to perform the estimation.
	data statmodel.Dataset

	// The name of the variable containing the minimum of the
	// event time and censoring time.
	timeVar string

	// The name of a variable containing the status indicator,
	// which is 1 if the event occurred at the time given by the
	// time variable, and 0 otherwise.
	statusVar string

	// The name of a variable containing case weights, optional.
	weightVar string

	// The name of a variable containing entry times, optional.
	entryVar string

	// Times at which events occur, sorted.
	times []float64

	// Weighted number of events at each time in times.
	nEvents []float64

	// Number of people at risk just before each time in times.
	nRisk []float64

	// The estimated survival function evaluated at each time in
	// times.
	survProb []float64

	// The standard errors for the estimates in survProb.
	survProbSE []float64

	events map[float64]float64
	total  map[float64]float64
	entry  map[float64]float64

	weighted bool
}

// NewSurvfuncRight creates a value for estimating a survival function
// from the given dataset.  Call Done to perform the estimation.
func NewSurvfuncRight(data statmodel.Dataset, timevar, statusvar string) *SurvfuncRight {

	return &SurvfuncRight{
		data:      data,
		timeVar:   timevar,
		statusVar: statusvar,
	}
}

// Weight specifies the name of a case weight variable.
func (sf *SurvfuncRight) Weight(weight string) *SurvfuncRight {
	sf.weightVar = weight
	return sf
}

// Entry specifies the name of an entry time variable.
func (sf *SurvfuncRight) Entry(entry string) *SurvfuncRight {
	sf.entryVar = entry
	return sf
}

// Time returns the times at which the survival function changes.
func (sf *SurvfuncRight) Time() []float64 {
	return sf.times
}

// NumRisk returns the number of people at risk at each time point
// where the survival function changes.
func (sf *SurvfuncRight) NumRisk() []float64 {
	return sf.nRisk
}

// NumEvents returns the weighted number of events at each time point
// where the survival function changes.
func (sf *SurvfuncRight) NumEvents() []float64 {
	return sf.nEvents
}

// SurvProb returns the estimated survival probabilities at the points
// where the survival function changes.
func (sf *SurvfuncRight) SurvProb() []float64 {
	return sf.survProb
}

// SurvProbSE returns the standard errors of the estimated survival
// probabilities at the points where the survival function changes.
func (sf *SurvfuncRight) SurvProbSE() []float64 {
	return sf.survProbSE
}

// Quantile returns the smallest time at which the estimated survival
// probability is less than or equal to p.  If the survival function
// never falls to p, NaN is returned.  Quantile(0.5) is the median
// survival time.
func (sf *SurvfuncRight) Quantile(p float64) float64 {

	for i, pr := range sf.survProb {
		if pr <= p {
			return sf.times[i]
		}
	}
	return math.NaN()
}

// MaxTime returns the largest observed event or censoring time.
func (sf *SurvfuncRight) MaxTime() float64 {
	return sf.times[len(sf.times)-1]
}

func (sf *SurvfuncRight) column(name string) []float64 {
	col := sf.data.Column(name)
	if col == nil {
		msg := fmt.Sprintf("SurvfuncRight: variable '%s' not found in dataset", name)
		panic(msg)
	}
	return col
}

func (sf *SurvfuncRight) scanData() {

	sf.events = make(map[float64]float64)
	sf.total = make(map[float64]float64)
	sf.entry = make(map[float64]float64)

	time := sf.column(sf.timeVar)
	status := sf.column(sf.statusVar)

	var weight []float64
	if sf.weightVar != "" {
		weight = sf.column(sf.weightVar)
		sf.weighted = true
	}

	var entry []float64
	if sf.entryVar != "" {
		entry = sf.column(sf.entryVar)
	}

	for i, t := range time {

		if t < 0 {
			panic("SurvfuncRight: times cannot be negative")
		}

		w := float64(1)
		if weight != nil {
			w = weight[i]
		}

		switch status[i] {
		case 1:
			sf.events[t] += w
		case 0:
			// censored
		default:
			msg := fmt.Sprintf("SurvfuncRight: status variable '%s' has values other than 0 and 1",
				sf.statusVar)
			panic(msg)
		}
		sf.total[t] += w

		if entry != nil {
			if entry[i] >= t {
				msg := fmt.Sprintf("SurvfuncRight: entry time of observation %d is not before its event/censoring time", i)
				panic(msg)
			}
			sf.entry[entry[i]] += w
		}
	}
}

// rollback transforms x in-place into its reverse cumulative sums.
func rollback(x []float64) {
	var z float64
	for i := len(x) - 1; i >= 0; i-- {
		z += x[i]
		x[i] = z
	}
}

func (sf *SurvfuncRight) eventstats() {

	// Get the sorted distinct times (event or censoring).
	sf.times = make([]float64, 0, len(sf.total))
	for t := range sf.total {
		sf.times = append(sf.times, t)
	}
	sort.Float64s(sf.times)

	// Get the weighted event count and risk set size at each time
	// point, in the same order as times.
	sf.nEvents = make([]float64, len(sf.times))
	sf.nRisk = make([]float64, len(sf.times))
	for i, t := range sf.times {
		sf.nEvents[i] = sf.events[t]
		sf.nRisk[i] = sf.total[t]
	}
	rollback(sf.nRisk)

	// Adjust for entry times.
	if sf.entryVar != "" {
		entry := make([]float64, len(sf.times))
		for t, w := range sf.entry {
			ii := sort.SearchFloat64s(sf.times, t)
			if ii == len(sf.times) || t < sf.times[ii] {
				ii--
			}
			if ii >= 0 {
				entry[ii] += w
			}
		}
		rollback(entry)
		for i := range sf.nRisk {
			sf.nRisk[i] -= entry[i]
		}
	}
}

// compress removes times where no events occurred, except for the
// last point, which is retained even if there are no events.
func (sf *SurvfuncRight) compress() {

	var ix []int
	for i := range sf.times {
		if sf.nEvents[i] > 0 || i == len(sf.times)-1 {
			ix = append(ix, i)
		}
	}

	if len(ix) < len(sf.times) {
		for i, j := range ix {
			sf.times[i] = sf.times[j]
			sf.nEvents[i] = sf.nEvents[j]
			sf.nRisk[i] = sf.nRisk[j]
		}
		sf.times = sf.times[0:len(ix)]
		sf.nEvents = sf.nEvents[0:len(ix)]
		sf.nRisk = sf.nRisk[0:len(ix)]
	}
}

func (sf *SurvfuncRight) fit() {

	sf.survProb = make([]float64, len(sf.times))
	x := float64(1)
	for i := range sf.times {
		x *= 1 - sf.nEvents[i]/sf.nRisk[i]
		sf.survProb[i] = x
	}

	// Greenwood standard errors.  With case weights the usual
	// formula does not apply, so a cruder approximation is used.
	sf.survProbSE = make([]float64, len(sf.times))
	x = 0
	if !sf.weighted {
		for i := range sf.times {
			d := sf.nEvents[i]
			n := sf.nRisk[i]
			x += d / (n * (n - d))
			sf.survProbSE[i] = math.Sqrt(x) * sf.survProb[i]
		}
	} else {
		for i := range sf.times {
			d := sf.nEvents[i]
			n := sf.nRisk[i]
			x += d / (n * n)
			sf.survProbSE[i] = math.Sqrt(x)
		}
	}
}

// Done indicates that the survival function has been configured and
// performs the estimation.
func (sf *SurvfuncRight) Done() *SurvfuncRight {
	sf.scanData()
	sf.eventstats()
	sf.compress()
	sf.fit()
	return sf
}
