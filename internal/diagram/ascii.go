package diagram

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/alexiusacademia/goeq/internal/seismic"
)

// Terminal plot dimensions
const (
	graphHeight   = 10
	graphMaxWidth = 70
)

func graphOptions(n int, caption string) []asciigraph.Option {
	opts := []asciigraph.Option{
		asciigraph.Height(graphHeight),
		asciigraph.Precision(4),
		asciigraph.Caption(caption),
	}
	if n > graphMaxWidth {
		opts = append(opts, asciigraph.Width(graphMaxWidth))
	}
	return opts
}

// values lists m over nodes, zero where a node has no entry.
func values(m seismic.NodeMap, nodes []string) []float64 {
	out := make([]float64, len(nodes))
	for i, n := range nodes {
		out[i] = m[n]
	}
	return out
}

// DrawModeShape plots the unit-acceleration displacement of a group along
// its common nodes, in node order.
func DrawModeShape(r *seismic.PeriodResult) string {
	if r == nil || len(r.Common) == 0 {
		return ""
	}
	caption := fmt.Sprintf("%s-%s displacement by node (T = %.4f s)", r.Group, r.Axis, r.Period)
	return asciigraph.Plot(values(r.Disp, r.Common), graphOptions(len(r.Common), caption)...) + "\n"
}

// DrawForceProfile plots the final nodal forces of a group. A rescaled
// horizontal group also shows its first-mode forces underneath.
func DrawForceProfile(r *seismic.ForceResult) string {
	if r == nil || len(r.Final) == 0 {
		return ""
	}
	nodes := r.Final.Nodes()
	caption := fmt.Sprintf("%s-%s nodal force, total %.4f", r.Group, r.Axis, r.TotalForce())
	if !r.Scaled {
		return asciigraph.Plot(values(r.Final, nodes), graphOptions(len(nodes), caption)...) + "\n"
	}

	caption += fmt.Sprintf(" (scaled x%.4f from first mode)", r.ScaleFactor)
	series := [][]float64{values(r.Final, nodes), values(r.Raw, nodes)}
	opts := append(graphOptions(len(nodes), caption),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue))
	return asciigraph.PlotMany(series, opts...) + "\n"
}

// DrawSummaryBox creates a summary box for results
func DrawSummaryBox(title string, lines []string) string {
	var sb strings.Builder

	maxLen := len([]rune(title))
	for _, line := range lines {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}
	maxLen += 4

	border := strings.Repeat("═", maxLen)
	sb.WriteString(fmt.Sprintf("  ╔%s╗\n", border))
	sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", pad(title, maxLen-4)))
	sb.WriteString(fmt.Sprintf("  ╠%s╣\n", border))
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", pad(line, maxLen-4)))
	}
	sb.WriteString(fmt.Sprintf("  ╚%s╝\n", border))

	return sb.String()
}

// pad right-fills s with spaces to n runes.
func pad(s string, n int) string {
	if d := n - len([]rune(s)); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}
