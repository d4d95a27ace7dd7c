package statmodel

import (
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestDataset(t *testing.T) {

	da := [][]Dtype{
		{1, 2, 3},
		{0, 1, 0},
	}
	names := []string{"Time", "Status"}

	ds := NewDataset(da, names)

	if ds.NumObs() != 3 {
		t.Fail()
	}
	if ds.Pos("Status") != 1 || ds.Pos("Missing") != -1 {
		t.Fail()
	}
	if !floats.Equal(ds.Column("Time"), []float64{1, 2, 3}) {
		t.Fail()
	}
	if ds.Column("Missing") != nil {
		t.Fail()
	}
}

func TestDatasetInvalid(t *testing.T) {

	shouldPanic := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		f()
	}

	shouldPanic("name count", func() {
		NewDataset([][]Dtype{{1, 2}}, []string{"a", "b"})
	})

	shouldPanic("ragged columns", func() {
		NewDataset([][]Dtype{{1, 2}, {1}}, []string{"a", "b"})
	})

	shouldPanic("duplicate names", func() {
		NewDataset([][]Dtype{{1}, {2}}, []string{"a", "a"})
	})

	shouldPanic("empty", func() {
		NewDataset(nil, nil)
	})
}
