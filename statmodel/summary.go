package statmodel

import (
	"fmt"
	"strings"
)

// Fmter formats the elements of an array of values for display in a
// summary table column.  The second argument is the column heading.
type Fmter func(interface{}, string) []string

// SummaryTable holds the summary values for a fitted model and
// renders them as a fixed-width text table.
type SummaryTable struct {

	// Title of the table.
	Title string

	// Column names.
	ColNames []string

	// Formatters for the column values.
	ColFmt []Fmter

	// Cols[j] is the j'th column.  Its concrete type should be a
	// slice, e.g. of numbers or strings.
	Cols []interface{}

	// Values shown above the table, arranged in two columns.
	Top []string

	// Messages displayed below the table.
	Msg []string

	// Total width of the table, set during rendering.
	tw int
}

// line returns a horizontal rule filling the width of the table.
func (s *SummaryTable) line(c string) string {
	return strings.Repeat(c, s.tw) + "\n"
}

// padTop pads all fields in the top section to a common width.
func (s *SummaryTable) padTop() {

	w := 0
	for _, x := range s.Top {
		if len(x) > w {
			w = len(x)
		}
	}

	for i, x := range s.Top {
		if len(x) < w {
			s.Top[i] = x + strings.Repeat(" ", w-len(x))
		}
	}
}

// top renders the upper section of the table, which contains summary
// values for the model arranged in two columns separated by gap
// spaces.
func (s *SummaryTable) top(gap int) string {

	w := []int{0, 0}
	for j, x := range s.Top {
		if len(x) > w[j%2] {
			w[j%2] = len(x)
		}
	}

	var b strings.Builder
	for j, x := range s.Top {
		fmt.Fprintf(&b, fmt.Sprintf("%%-%ds", w[j%2]), x)
		if j%2 == 1 {
			b.WriteString("\n")
		} else {
			b.WriteString(strings.Repeat(" ", gap))
		}
	}
	if len(s.Top)%2 == 1 {
		b.WriteString("\n")
	}

	return b.String()
}

// String returns the table as a string.
func (s *SummaryTable) String() string {

	s.padTop()

	// Format the body cells and determine the column widths.
	var tab [][]string
	var wx []int
	for j, c := range s.Cols {
		u := s.ColFmt[j](c, s.ColNames[j])
		tab = append(tab, u)
		w := len(s.ColNames[j])
		if len(u) > 0 && len(u[0]) > w {
			w = len(u[0])
		}
		wx = append(wx, w)
	}

	gap := 10

	s.tw = 0
	for _, w := range wx {
		s.tw += w
	}
	if s.tw < len(s.Title) {
		s.tw = len(s.Title)
	}
	if len(s.Top) > 0 && s.tw < gap+2*len(s.Top[0]) {
		s.tw = gap + 2*len(s.Top[0])
	}

	var b strings.Builder

	// Center the title
	kr := (s.tw - len(s.Title)) / 2
	if kr < 0 {
		kr = 0
	}
	b.WriteString(strings.Repeat(" ", kr))
	b.WriteString(s.Title)
	b.WriteString("\n")

	b.WriteString(s.line("="))
	b.WriteString(s.top(gap))
	b.WriteString(s.line("-"))

	for j, c := range s.ColNames {
		fmt.Fprintf(&b, fmt.Sprintf("%%%ds", wx[j]), c)
	}
	b.WriteString("\n")
	b.WriteString(s.line("-"))

	for i := 0; i < len(tab[0]); i++ {
		for j := 0; j < len(tab); j++ {
			fmt.Fprintf(&b, fmt.Sprintf("%%%ds", wx[j]), tab[j][i])
		}
		b.WriteString("\n")
	}
	b.WriteString(s.line("-"))

	for _, msg := range s.Msg {
		b.WriteString(msg + "\n")
	}

	return b.String()
}
