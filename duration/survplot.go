package duration

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SurvfuncRightPlotter is used to plot one or more estimated survival
// functions as step curves.
type SurvfuncRightPlotter struct {
	plt *plot.Plot

	labels []string
	lines  []*plotter.Line

	width  vg.Length
	height vg.Length
}

// NewSurvfuncRightPlotter returns a default SurvfuncRightPlotter.
func NewSurvfuncRightPlotter() *SurvfuncRightPlotter {

	sp := &SurvfuncRightPlotter{
		width:  4,
		height: 4,
	}

	var err error
	sp.plt, err = plot.New()
	if err != nil {
		panic(err)
	}

	return sp
}

// Width sets the width of the plot, in inches.
func (sp *SurvfuncRightPlotter) Width(w float64) *SurvfuncRightPlotter {
	sp.width = vg.Length(w)
	return sp
}

// Height sets the height of the plot, in inches.
func (sp *SurvfuncRightPlotter) Height(h float64) *SurvfuncRightPlotter {
	sp.height = vg.Length(h)
	return sp
}

// Add plots a given survival function to the plot.
func (sp *SurvfuncRightPlotter) Add(sf *SurvfuncRight, label string) *SurvfuncRightPlotter {

	ti := sf.Time()
	pr := sf.SurvProb()

	// Steps: hold the previous level up to each event time, then
	// drop to the new level.
	pts := make(plotter.XYs, 2*len(ti)+1)

	j := 0
	pts[j].X = 0
	pts[j].Y = 1
	j++

	for i := range ti {
		pts[j].X = ti[i]
		pts[j].Y = pts[j-1].Y
		j++
		pts[j].X = ti[i]
		pts[j].Y = pr[i]
		j++
	}

	sp.labels = append(sp.labels, label)

	line, err := plotter.NewLine(pts)
	if err != nil {
		panic(err)
	}
	line.Color = plotutil.Color(len(sp.lines))
	sp.lines = append(sp.lines, line)

	return sp
}

// Plot constructs the plot.
func (sp *SurvfuncRightPlotter) Plot() *SurvfuncRightPlotter {

	sp.plt.Y.Min = 0
	sp.plt.Y.Max = 1

	sp.plt.X.Label.Text = "Time"
	sp.plt.Y.Label.Text = "Proportion alive"

	leg, err := plot.NewLegend()
	if err != nil {
		panic(err)
	}

	for i := range sp.lines {
		sp.plt.Add(sp.lines[i])
		leg.Add(sp.labels[i], sp.lines[i])
	}

	if len(sp.lines) > 1 {
		leg.Top = false
		leg.Left = true
		sp.plt.Legend = leg
	}

	return sp
}

// GetPlotStruct returns the plotting structure for this plot.
func (sp *SurvfuncRightPlotter) GetPlotStruct() *plot.Plot {
	return sp.plt
}

// Save writes the plot to the given file.
func (sp *SurvfuncRightPlotter) Save(fname string) {

	if err := sp.plt.Save(sp.width*vg.Inch, sp.height*vg.Inch, fname); err != nil {
		panic(err)
	}
}

// CurvePlotter is used to plot one or more model-based curves, e.g.
// parametric survival or hazard functions evaluated over a time grid,
// as line charts.
type CurvePlotter struct {
	plt *plot.Plot

	labels []string
	lines  []*plotter.Line

	width  vg.Length
	height vg.Length

	xlabel string
	ylabel string

	ymin, ymax float64
	limitY     bool
}

// NewCurvePlotter returns a default CurvePlotter.
func NewCurvePlotter() *CurvePlotter {

	cp := &CurvePlotter{
		width:  4,
		height: 4,
		xlabel: "Time",
	}

	var err error
	cp.plt, err = plot.New()
	if err != nil {
		panic(err)
	}

	return cp
}

// Width sets the width of the plot, in inches.
func (cp *CurvePlotter) Width(w float64) *CurvePlotter {
	cp.width = vg.Length(w)
	return cp
}

// Height sets the height of the plot, in inches.
func (cp *CurvePlotter) Height(h float64) *CurvePlotter {
	cp.height = vg.Length(h)
	return cp
}

// XLabel sets the label of the horizontal axis.
func (cp *CurvePlotter) XLabel(s string) *CurvePlotter {
	cp.xlabel = s
	return cp
}

// YLabel sets the label of the vertical axis.
func (cp *CurvePlotter) YLabel(s string) *CurvePlotter {
	cp.ylabel = s
	return cp
}

// YLimits fixes the range of the vertical axis.
func (cp *CurvePlotter) YLimits(lo, hi float64) *CurvePlotter {
	cp.ymin = lo
	cp.ymax = hi
	cp.limitY = true
	return cp
}

// Add plots a given curve to the plot.
func (cp *CurvePlotter) Add(cv Curve, label string) *CurvePlotter {

	pts := make(plotter.XYs, len(cv.Times))
	for i := range cv.Times {
		pts[i].X = cv.Times[i]
		pts[i].Y = cv.Values[i]
	}

	cp.labels = append(cp.labels, label)

	line, err := plotter.NewLine(pts)
	if err != nil {
		panic(err)
	}
	line.Color = plotutil.Color(len(cp.lines))
	cp.lines = append(cp.lines, line)

	return cp
}

// Plot constructs the plot.
func (cp *CurvePlotter) Plot() *CurvePlotter {

	if cp.limitY {
		cp.plt.Y.Min = cp.ymin
		cp.plt.Y.Max = cp.ymax
	}

	cp.plt.X.Label.Text = cp.xlabel
	cp.plt.Y.Label.Text = cp.ylabel

	leg, err := plot.NewLegend()
	if err != nil {
		panic(err)
	}

	for i := range cp.lines {
		cp.plt.Add(cp.lines[i])
		leg.Add(cp.labels[i], cp.lines[i])
	}

	if len(cp.lines) > 1 {
		leg.Top = true
		leg.Left = false
		cp.plt.Legend = leg
	}

	return cp
}

// GetPlotStruct returns the plotting structure for this plot.
func (cp *CurvePlotter) GetPlotStruct() *plot.Plot {
	return cp.plt
}

// Save writes the plot to the given file.
func (cp *CurvePlotter) Save(fname string) {

	if err := cp.plt.Save(cp.width*vg.Inch, cp.height*vg.Inch, fname); err != nil {
		panic(err)
	}
}
