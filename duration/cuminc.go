package duration

import (
	"fmt"
	"math"
	"sort"

	"github.com/edefojoshua/survmodel/statmodel"
)

// CumincRight estimates the cumulative incidence functions for
// duration data with competing risks.  The status variable is 1, 2,
// ... for the event types, and 0 for a censored outcome.
type CumincRight struct {

	// The data used to perform the estimation.
	data statmodel.Dataset

	// Names of the time, status, weight and entry variables; the
	// latter two are optional.
	timeVar   string
	statusVar string
	weightVar string
	entryVar  string

	// Times at which events occur, sorted.
	Times []float64

	// Events[k] holds the weighted number of occurrences of
	// events with Status==k+1 at each time in Times.
	Events [][]float64

	// Weighted number of events of any type at each time in Times.
	EventsAll []float64

	// Risk set size at each time in Times.
	NRisk []float64

	// The estimated all-cause survival function.
	ProbsAll []float64

	// The cause-specific cumulative incidence rates.  Probs[k]
	// contains the rates for the events with Status==k+1.
	Probs [][]float64

	// The standard errors of the values in Probs.
	ProbsSE [][]float64

	events    []map[float64]float64
	eventsall map[float64]float64
	total     map[float64]float64
	entry     map[float64]float64
}

// NewCumincRight creates a CumincRight value that can be used to
// estimate the cumulative incidence functions from the given data.
func NewCumincRight(data statmodel.Dataset, timevar, statusvar string) *CumincRight {

	return &CumincRight{
		data:      data,
		timeVar:   timevar,
		statusVar: statusvar,
	}
}

// Weights specifies a variable that provides case weights.
func (ci *CumincRight) Weights(weightvar string) *CumincRight {
	ci.weightVar = weightvar
	return ci
}

// Entry specifies a variable that provides entry times.
func (ci *CumincRight) Entry(entryvar string) *CumincRight {
	ci.entryVar = entryvar
	return ci
}

func (ci *CumincRight) column(name string) []float64 {
	col := ci.data.Column(name)
	if col == nil {
		msg := fmt.Sprintf("CumincRight: variable '%s' not found in dataset", name)
		panic(msg)
	}
	return col
}

func (ci *CumincRight) scanData() {

	ci.eventsall = make(map[float64]float64)
	ci.total = make(map[float64]float64)
	ci.entry = make(map[float64]float64)

	time := ci.column(ci.timeVar)
	status := ci.column(ci.statusVar)

	var weight []float64
	if ci.weightVar != "" {
		weight = ci.column(ci.weightVar)
	}

	var entry []float64
	if ci.entryVar != "" {
		entry = ci.column(ci.entryVar)
	}

	for i, t := range time {

		w := float64(1)
		if weight != nil {
			w = weight[i]
		}

		// Make room for an event type we have not yet seen
		k := int(status[i])
		if k < 0 || float64(k) != status[i] {
			msg := fmt.Sprintf("CumincRight: invalid status value %v", status[i])
			panic(msg)
		}
		for k > len(ci.events) {
			ci.events = append(ci.events, make(map[float64]float64))
		}

		if k > 0 {
			ci.events[k-1][t] += w
			ci.eventsall[t] += w
		}
		ci.total[t] += w

		if entry != nil {
			if entry[i] >= t {
				msg := fmt.Sprintf("CumincRight: entry time of observation %d is not before its event/censoring time", i)
				panic(msg)
			}
			ci.entry[entry[i]] += w
		}
	}
}

func (ci *CumincRight) eventstats() {

	// Get the sorted distinct times (event or censoring)
	ci.Times = make([]float64, 0, len(ci.total))
	for t := range ci.total {
		ci.Times = append(ci.Times, t)
	}
	sort.Float64s(ci.Times)

	// Get the weighted event count and risk set size at each time
	// point, in the same order as Times.
	ci.EventsAll = make([]float64, len(ci.Times))
	ci.NRisk = make([]float64, len(ci.Times))
	for i, t := range ci.Times {
		ci.EventsAll[i] = ci.eventsall[t]
		ci.NRisk[i] = ci.total[t]
	}
	rollback(ci.NRisk)

	// Adjust for entry times
	if ci.entryVar != "" {
		entry := make([]float64, len(ci.Times))
		for t, w := range ci.entry {
			ii := sort.SearchFloat64s(ci.Times, t)
			if ii == len(ci.Times) || t < ci.Times[ii] {
				ii--
			}
			if ii >= 0 {
				entry[ii] += w
			}
		}
		rollback(entry)
		for i := range ci.NRisk {
			ci.NRisk[i] -= entry[i]
		}
	}
}

// compress removes times where no events of any type occurred.
func (ci *CumincRight) compress() {

	var ix []int
	for i := range ci.Times {
		if ci.EventsAll[i] > 0 {
			ix = append(ix, i)
		}
	}

	if len(ix) < len(ci.Times) {
		for i, j := range ix {
			ci.Times[i] = ci.Times[j]
			ci.EventsAll[i] = ci.EventsAll[j]
			ci.NRisk[i] = ci.NRisk[j]
		}
		ci.Times = ci.Times[0:len(ix)]
		ci.EventsAll = ci.EventsAll[0:len(ix)]
		ci.NRisk = ci.NRisk[0:len(ix)]
	}
}

func (ci *CumincRight) fitall() {

	ci.ProbsAll = make([]float64, len(ci.Times))

	x := float64(1)
	for i := range ci.Times {
		x *= 1 - ci.EventsAll[i]/ci.NRisk[i]
		ci.ProbsAll[i] = x
	}
}

func (ci *CumincRight) fit() {

	for _, ev := range ci.events {

		// Obtain the number of events of this cause at each time.
		evr := make([]float64, len(ci.Times))
		for t, n := range ev {
			ii := sort.SearchFloat64s(ci.Times, t)
			evr[ii] += n
		}

		cir := make([]float64, len(ci.Times))
		x := float64(0)
		for i, y := range evr {
			v := y / ci.NRisk[i]
			if i > 0 {
				v *= ci.ProbsAll[i-1]
			}
			x += v
			cir[i] = x
		}

		ci.Probs = append(ci.Probs, cir)
		ci.Events = append(ci.Events, evr)
	}
}

func (ci *CumincRight) fitse() {

	for k := range ci.Probs {

		var x1, x2, x3, x4, x5, x6 float64
		se := make([]float64, len(ci.Times))

		for i := range ci.Times {

			q := ci.Probs[k][i]
			da := ci.EventsAll[i]
			d := ci.Events[k][i]
			n := ci.NRisk[i]
			s := float64(1)
			if i > 0 {
				s = ci.ProbsAll[i-1]
			}
			s /= n

			ra := da / (n * (n - da))
			x1 += ra
			x2 += q * ra
			x3 += q * q * ra

			ra = (n - d) * d / n
			x4 += s * s * ra

			ra = s * d / n
			x5 += ra
			x6 += q * ra

			v := q*q*x1 - 2*q*x2 + x3 + x4 - 2*q*x5 + 2*x6
			se[i] = math.Sqrt(v)
		}

		ci.ProbsSE = append(ci.ProbsSE, se)
	}
}

// Done completes construction and computes all results.
func (ci *CumincRight) Done() *CumincRight {
	ci.scanData()
	ci.eventstats()
	ci.compress()
	ci.fitall()
	ci.fit()
	ci.fitse()
	return ci
}
