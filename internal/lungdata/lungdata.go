// Package lungdata provides the NCCTG advanced lung cancer cohort as
// a modelling dataset.  The data contain survival times for 228
// patients with advanced lung cancer, together with performance
// scores and other baseline covariates.
//
// The status variable in the raw data is coded 1 for censoring and 2
// for death.  The loader adds an "event" variable coded 0/1 that the
// modelling code uses directly.
package lungdata

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kshedden/dstream/dstream"

	"github.com/edefojoshua/survmodel/statmodel"
)

//go:embed lung.csv
var raw string

// Load returns the full cohort.  Missing values are represented as
// NaN, so callers fitting models on covariates with missing entries
// should use LoadComplete instead.
func Load() (statmodel.Dataset, error) {
	return load(nil)
}

// LoadComplete returns the cohort restricted to cases that are
// complete on the given variables.
func LoadComplete(vars ...string) (statmodel.Dataset, error) {
	return load(vars)
}

func load(complete []string) (statmodel.Dataset, error) {

	cols, names, err := parse()
	if err != nil {
		return statmodel.Dataset{}, err
	}

	arrays := make([][]interface{}, len(cols))
	for j, c := range cols {
		arrays[j] = []interface{}{c}
	}

	ds := dstream.NewFromArrays(arrays, names)
	ds = dstream.Generate(ds, "event", recodeStatus, dstream.Float64)

	if len(complete) > 0 {
		ds = dstream.Filter(ds, func(v map[string]interface{}, keep []bool) {
			for _, na := range complete {
				dropNaN(v[na], keep)
			}
		})
	}

	ds = dstream.MemCopy(ds, false)

	return toDataset(ds), nil
}

// recodeStatus converts the 1=censored/2=dead coding to a 0/1 event
// indicator.
func recodeStatus(v map[string]interface{}, x interface{}) {
	st := v["status"].([]float64)
	z := x.([]float64)
	for i := range st {
		if st[i] == 2 {
			z[i] = 1
		} else {
			z[i] = 0
		}
	}
}

func dropNaN(x interface{}, keep []bool) bool {
	z := x.([]float64)
	for i, v := range z {
		if math.IsNaN(v) {
			keep[i] = false
		}
	}
	return true
}

func toDataset(ds dstream.Dstream) statmodel.Dataset {

	names := ds.Names()
	da := make([][]float64, ds.NumVar())

	ds.Reset()
	for ds.Next() {
		for j := 0; j < ds.NumVar(); j++ {
			da[j] = append(da[j], ds.GetPos(j).([]float64)...)
		}
	}

	return statmodel.NewDataset(da, names)
}

func parse() ([][]float64, []string, error) {

	rdr := csv.NewReader(strings.NewReader(raw))

	recs, err := rdr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("lungdata: %v", err)
	}
	if len(recs) < 2 {
		return nil, nil, fmt.Errorf("lungdata: no data rows")
	}

	names := recs[0]
	cols := make([][]float64, len(names))

	for i, rec := range recs[1:] {
		if len(rec) != len(names) {
			return nil, nil, fmt.Errorf("lungdata: row %d has %d fields, expected %d",
				i+1, len(rec), len(names))
		}
		for j, f := range rec {
			if f == "NA" {
				cols[j] = append(cols[j], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("lungdata: row %d, column %s: %v",
					i+1, names[j], err)
			}
			cols[j] = append(cols[j], v)
		}
	}

	return cols, names, nil
}
