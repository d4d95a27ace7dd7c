package duration

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/edefojoshua/survmodel/statmodel"
)

// Concordance calculates the survival concordance of Uno et al.
// (https://www.ncbi.nlm.nih.gov/pmc/articles/PMC3079915), which
// weights comparable pairs by the inverse probability of censoring.
type Concordance struct {

	// The risk scores that are being assessed.
	score []float64

	// Event or censoring time.
	time []float64

	// Event status.
	status []float64

	// Number of pairs sampled at random to estimate the
	// concordance.
	npair int

	// The survival function of the censoring distribution.
	censTimes []float64
	censProb  []float64
}

// NewConcordance creates a new Concordance value for the given times,
// status indicators and risk scores.
func NewConcordance(time, status, score []float64) *Concordance {

	return &Concordance{
		time:   time,
		status: status,
		score:  score,
		npair:  10000,
	}
}

// NumPair sets the number of pairs of observations sampled at random
// to estimate the concordance.
func (c *Concordance) NumPair(npair int) *Concordance {
	c.npair = npair
	return c
}

// Done signals that the Concordance value has been configured and
// prepares it for assessment.
func (c *Concordance) Done() *Concordance {

	// Sort everything by time
	n := len(c.time)
	ii := make([]int, n)
	time1 := make([]float64, n)
	statusr := make([]float64, n)
	status1 := make([]float64, n)
	score1 := make([]float64, n)
	copy(time1, c.time)
	floats.Argsort(time1, ii)
	ncens := 0.0
	for i, j := range ii {
		// The survival function is estimated for censoring, so
		// the status indicator is reversed.
		statusr[i] = 1 - c.status[j]
		status1[i] = c.status[j]
		score1[i] = c.score[j]
		ncens += statusr[i]
	}

	if ncens > 0 {
		da := statmodel.NewDataset([][]statmodel.Dtype{time1, statusr},
			[]string{"Time", "Status"})
		sf := NewSurvfuncRight(da, "Time", "Status").Done()
		c.censTimes = sf.Time()
		c.censProb = sf.SurvProb()
	} else {
		// No censoring, use a censoring survival function with
		// P(T>t) = 1 for all t.
		c.censTimes = []float64{0, math.Inf(1)}
		c.censProb = []float64{1, 1}
	}

	c.time = time1
	c.status = status1
	c.score = score1

	return c
}

// Concordance returns the concordance statistic, truncating the
// comparisons at the given time horizon.
func (c *Concordance) Concordance(trunc float64) float64 {

	n := len(c.time)

	jt := sort.SearchFloat64s(c.time, trunc)
	if jt <= 0 {
		panic("Concordance: not enough data below the truncation point")
	}

	time := c.time
	status := c.status
	score := c.score

	var numer, denom float64

	for i := 0; i < c.npair; i++ {

		// Find a comparable pair
		var j1, j2 int
		for {
			j1 = rand.Intn(n)
			if j1 >= jt {
				continue
			}
			j2 = rand.Intn(n)
			if j2 <= j1 {
				continue
			}
			if (time[j1] < time[j2]) && (status[j1] == 1) {
				break
			}
		}

		jj := sort.SearchFloat64s(c.censTimes, time[j1])
		if jj == len(c.censTimes) {
			jj--
		}
		g := c.censProb[jj]

		denom += 1 / (g * g)
		if score[j1] > score[j2] {
			numer += 1 / (g * g)
		}
	}

	return numer / denom
}
