package diagram

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/alexiusacademia/goeq/internal/seismic"
)

var (
	rawColor   = color.RGBA{R: 100, G: 149, B: 237, A: 255}
	finalColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	shapeColor = color.RGBA{R: 0, G: 100, B: 0, A: 255}
)

var errNoData = errors.New("nothing to plot")

func save(p *plot.Plot, width, height vg.Length, filename string) error {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return p.Save(width, height, filename)
}

// chartWidth grows with the number of bars.
func chartWidth(n int) vg.Length {
	w := vg.Length(n) * 0.4 * vg.Inch
	if w < 6*vg.Inch {
		w = 6 * vg.Inch
	}
	return w
}

// ExportForceChart draws a group's nodal forces as bars. Horizontal groups
// show the first-mode forces next to the final ones.
func ExportForceChart(r *seismic.ForceResult, filename string) error {
	if r == nil || len(r.Final) == 0 {
		return errNoData
	}
	nodes := r.Final.Nodes()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Equivalent Static Forces %s-%s", r.Group, r.Axis)
	p.X.Label.Text = "Node"
	p.Y.Label.Text = "Force"

	barWidth := vg.Points(8)
	final, err := plotter.NewBarChart(plotter.Values(values(r.Final, nodes)), barWidth)
	if err != nil {
		return err
	}
	final.Color = finalColor
	final.LineStyle.Width = vg.Length(0)

	if !r.Axis.Vertical() && len(r.Raw) > 0 {
		raw, err := plotter.NewBarChart(plotter.Values(values(r.Raw, nodes)), barWidth)
		if err != nil {
			return err
		}
		raw.Color = rawColor
		raw.LineStyle.Width = vg.Length(0)
		raw.Offset = -barWidth / 2
		final.Offset = barWidth / 2
		p.Add(raw)
		p.Legend.Add("first mode", raw)
	}
	p.Add(final)
	p.Legend.Add("final", final)
	p.Legend.Top = true
	p.NominalX(nodes...)

	return save(p, chartWidth(len(nodes)), 4*vg.Inch, filename)
}

// ExportPeriodChart draws one bar per group period.
func ExportPeriodChart(results []*seismic.PeriodResult, filename string) error {
	if len(results) == 0 {
		return errNoData
	}

	vals := make(plotter.Values, len(results))
	labels := make([]string, len(results))
	for i, r := range results {
		vals[i] = r.Period
		labels[i] = fmt.Sprintf("%s-%s", r.Group, r.Axis)
	}

	p := plot.New()
	p.Title.Text = "Rayleigh Periods"
	p.Y.Label.Text = "Period (s)"

	bars, err := plotter.NewBarChart(vals, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = rawColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	return save(p, chartWidth(len(results)), 4*vg.Inch, filename)
}

// ExportModeShape draws the unit-acceleration displacement along a
// group's common nodes.
func ExportModeShape(r *seismic.PeriodResult, filename string) error {
	if r == nil || len(r.Common) == 0 {
		return errNoData
	}

	pts := make(plotter.XYs, len(r.Common))
	for i, n := range r.Common {
		pts[i] = plotter.XY{X: float64(i), Y: r.Disp[n]}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Displacement %s-%s (T = %.4f s)", r.Group, r.Axis, r.Period)
	p.X.Label.Text = "Node"
	p.Y.Label.Text = "Displacement"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = shapeColor
	p.Add(line)

	marks, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	marks.GlyphStyle.Color = finalColor
	marks.GlyphStyle.Radius = vg.Points(3)
	p.Add(marks)
	p.NominalX(r.Common...)

	return save(p, chartWidth(len(r.Common)), 4*vg.Inch, filename)
}
