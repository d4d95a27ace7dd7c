package duration

import (
	"testing"

	"github.com/edefojoshua/survmodel/statmodel"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Compare the analytic score vectors to numerical gradients of the
// log-likelihood.

func TestPhregScoreGrad(t *testing.T) {

	data := data1()

	ph, err := NewPHReg(data, "Time", "Status", []string{"X"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	loglike := func(x []float64) float64 {
		return ph.LogLike(&PHParameter{coeff: x}, true)
	}

	for _, beta := range [][]float64{{0}, {0.5}, {-1}, {2}} {

		ngrad := fd.Gradient(nil, loglike, beta,
			&fd.Settings{Formula: fd.Forward, Step: 1e-6})

		score := make([]float64, 1)
		ph.Score(&PHParameter{coeff: beta}, score)

		if !floats.EqualApprox(ngrad, score, 1e-5) {
			t.Errorf("beta=%v: numeric %v analytic %v", beta, ngrad, score)
		}
	}
}

func TestWeibullScoreGrad(t *testing.T) {

	n := 200
	rng := rand.NewSource(8841)
	xd := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	td := distuv.Weibull{K: 1.5, Lambda: 2, Src: rng}

	time := make([]float64, n)
	status := make([]float64, n)
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	for i := 0; i < n; i++ {
		time[i] = td.Rand()
		status[i] = float64(i % 2)
		x1[i] = xd.Rand()
		x2[i] = xd.Rand()
	}

	data := statmodel.NewDataset(
		[][]statmodel.Dtype{time, status, x1, x2},
		[]string{"Time", "Status", "X1", "X2"})

	wr, err := NewWeibullReg(data, "Time", "Status", []string{"X1", "X2"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	loglike := func(x []float64) float64 {
		return wr.LogLike(&WeibullParameter{coeff: x}, true)
	}

	for _, par := range [][]float64{
		{0, 0, 0, 0},
		{0.5, 0.2, -0.3, -0.5},
		{1, -0.5, 0.5, 0.2},
	} {

		ngrad := fd.Gradient(nil, loglike, par,
			&fd.Settings{Formula: fd.Forward, Step: 1e-6})

		score := make([]float64, len(par))
		wr.Score(&WeibullParameter{coeff: par}, score)

		if !floats.EqualApprox(ngrad, score, 1e-4) {
			t.Errorf("par=%v: numeric %v analytic %v", par, ngrad, score)
		}
	}
}
