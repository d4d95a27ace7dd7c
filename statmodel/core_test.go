package statmodel

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func data1() ([]string, [][]Dtype) {
	x := [][]Dtype{
		{0, 1, 3, 2, 1, 1, 0},
		{1, 1, 1, 1, 1, 1, 1},
		{4, 1, -1, 3, 5, -5, 3},
	}
	return []string{"y", "x1", "x2"}, x
}

func data1b() ([]string, [][]Dtype) {
	x := [][]Dtype{
		{0, 1, 3, 2, 1, 1, 0},
		{1, 1, 1, 1, 1, 1, 1},
		{8, 2, -2, 6, 10, -10, 6},
	}
	return []string{"y", "x1", "x2"}, x
}

// A mock model for testing
type Mock struct {
	data [][]Dtype
	xpos []int
}

func (m *Mock) Dataset() [][]Dtype {
	return m.data
}

func (m *Mock) LogLike(params Parameter, exact bool) float64 {
	return 0
}

func (m *Mock) Score(params Parameter, score []float64) {
}

func (m *Mock) Hessian(params Parameter, ht HessType, hess []float64) {
}

func (m *Mock) NumParams() int {
	return len(m.xpos)
}

func (m *Mock) NumObs() int {
	return len(m.data[0])
}

func (m *Mock) Xpos() []int {
	return m.xpos
}

func TestFittedValues(t *testing.T) {

	_, da := data1()
	model := &Mock{
		data: da,
		xpos: []int{1, 2},
	}

	params := []float64{1, 2}
	xnames := []string{"x1", "x2"}
	vcov := []float64{0, 0, 0, 0}

	r := NewBaseResults(model, 0, params, xnames, vcov)

	// Fitted values on the training data.
	fv := []float64{9, 3, -1, 7, 11, -9, 7}
	if !floats.Equal(fv, r.FittedValues(nil)) {
		t.Fail()
	}

	// Fitted values on new data.
	_, da2 := data1b()
	fv = []float64{17, 5, -3, 13, 21, -19, 13}
	if !floats.Equal(fv, r.FittedValues(da2)) {
		t.Fail()
	}
}

func TestInference(t *testing.T) {

	_, da := data1()
	model := &Mock{
		data: da,
		xpos: []int{1, 2},
	}

	params := []float64{2, 1}
	xnames := []string{"x1", "x2"}
	vcov := []float64{1, 0, 0, 0.25}

	r := NewBaseResults(model, 0, params, xnames, vcov)

	se := r.StdErr()
	if !floats.EqualApprox(se, []float64{1, 0.5}, 1e-10) {
		t.Fail()
	}

	zs := r.ZScores()
	if !floats.EqualApprox(zs, []float64{2, 2}, 1e-10) {
		t.Fail()
	}

	// 2 * Phi(-2)
	pv := r.PValues()
	for _, p := range pv {
		if math.Abs(p-0.04550026) > 1e-7 {
			t.Fail()
		}
	}
}

func TestNoVcov(t *testing.T) {

	_, da := data1()
	model := &Mock{
		data: da,
		xpos: []int{1, 2},
	}

	r := NewBaseResults(model, 0, []float64{1, 1}, []string{"x1", "x2"}, nil)

	if r.StdErr() != nil || r.ZScores() != nil || r.PValues() != nil {
		t.Fail()
	}
}

func TestSummaryTable(t *testing.T) {

	fs := func(x interface{}, h string) []string {
		return x.([]string)
	}

	s := &SummaryTable{
		Title:    "Test model",
		Top:      []string{"  Sample size: 7", "  Events: 3"},
		ColNames: []string{"Variable", "Value"},
		ColFmt:   []Fmter{fs, fs},
		Cols: []interface{}{
			[]string{"x1", "x2"},
			[]string{"1.0000", "2.0000"},
		},
		Msg: []string{"1 observation dropped"},
	}

	out := s.String()

	for _, frag := range []string{"Test model", "Sample size: 7", "Variable", "x2", "2.0000", "1 observation dropped"} {
		if !strings.Contains(out, frag) {
			t.Errorf("summary output missing %q", frag)
		}
	}
}
