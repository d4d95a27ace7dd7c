package statmodel

import "fmt"

// Dataset is a column-oriented rectangular array of data used to fit
// models.  Each column corresponds to one named variable, and all
// columns must have the same length.
type Dataset struct {

	// The data columns.  data[j] holds the values of the variable
	// whose name is names[j].
	data [][]Dtype

	// The names of the variables, in the same order as the
	// columns of data.
	names []string
}

// NewDataset returns a Dataset built from the given columns and
// variable names.  The number of names must equal the number of
// columns, all columns must have equal, nonzero length, and names
// must be distinct.
func NewDataset(data [][]Dtype, names []string) Dataset {

	if len(data) != len(names) {
		msg := fmt.Sprintf("statmodel: %d columns but %d names", len(data), len(names))
		panic(msg)
	}
	if len(data) == 0 || len(data[0]) == 0 {
		panic("statmodel: dataset has no data")
	}

	n := len(data[0])
	for j, col := range data {
		if len(col) != n {
			msg := fmt.Sprintf("statmodel: column '%s' has length %d, expected %d",
				names[j], len(col), n)
			panic(msg)
		}
	}

	seen := make(map[string]bool)
	for _, na := range names {
		if seen[na] {
			msg := fmt.Sprintf("statmodel: duplicate variable name '%s'", na)
			panic(msg)
		}
		seen[na] = true
	}

	return Dataset{data: data, names: names}
}

// Names returns the names of the variables in the dataset.
func (ds Dataset) Names() []string {
	return ds.names
}

// Data returns the data columns of the dataset.
func (ds Dataset) Data() [][]Dtype {
	return ds.data
}

// NumObs returns the number of observations (rows) in the dataset.
func (ds Dataset) NumObs() int {
	return len(ds.data[0])
}

// Pos returns the column position of the named variable, or -1 if the
// variable is not in the dataset.
func (ds Dataset) Pos(name string) int {
	for j, na := range ds.names {
		if na == name {
			return j
		}
	}
	return -1
}

// Column returns the data column for the named variable, or nil if
// the variable is not in the dataset.
func (ds Dataset) Column(name string) []Dtype {
	j := ds.Pos(name)
	if j == -1 {
		return nil
	}
	return ds.data[j]
}
