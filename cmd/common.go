package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/goeq/internal/config"
	"github.com/alexiusacademia/goeq/internal/diagram"
	"github.com/alexiusacademia/goeq/internal/engine"
	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/pipeline"
	"github.com/alexiusacademia/goeq/internal/report"
	"github.com/alexiusacademia/goeq/internal/seismic"
	"github.com/alexiusacademia/goeq/internal/version"
)

const rule = "───────────────────────────────────────────────────────────────"

// runFlags are the flags shared by the period and eqforce commands.
type runFlags struct {
	model     string
	config    string
	x         []string
	y         []string
	zSuper    string
	zSub      string
	report    string
	pdf       string
	plotDir   string
	units     string
	outputDir string
	failFast  bool
	diagram   bool
}

func addRunFlags(c *cobra.Command, f *runFlags) {
	c.Flags().StringVarP(&f.model, "model", "m", "", "Model workbook of exported tables (.xlsx)")
	c.Flags().StringVarP(&f.config, "config", "c", "", "Run file (.yaml or .toml)")

	// Groups
	c.Flags().StringSliceVar(&f.x, "x", nil, "Groups evaluated in X (comma separated)")
	c.Flags().StringSliceVar(&f.y, "y", nil, "Groups evaluated in Y (comma separated)")
	c.Flags().StringVar(&f.zSuper, "z-super", "", "Superstructure group for Z")
	c.Flags().StringVar(&f.zSub, "z-sub", "", "Substructure group for Z")

	// Output
	c.Flags().StringVarP(&f.report, "report", "r", "", "Excel report file name")
	c.Flags().StringVar(&f.pdf, "pdf", "", "Write a PDF calculation sheet")
	c.Flags().StringVar(&f.plotDir, "plot", "", "Directory for chart images (png)")
	c.Flags().StringVar(&f.outputDir, "output-dir", "", "Directory for reports (default: model directory)")
	c.Flags().BoolVar(&f.diagram, "diagram", false, "Show ASCII charts")

	c.Flags().StringVarP(&f.units, "units", "u", "", "Present units, e.g. Ton_m_C or kN_m_C")
	c.Flags().BoolVar(&f.failFast, "fail-fast", false, "Stop at the first group that fails")
}

// loadConfig layers the run file, the environment and the flags that were
// set on the command line, in that order.
func loadConfig(c *cobra.Command, f *runFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(rootEnvFile); err != nil {
		return nil, err
	}

	flags := c.Flags()
	if flags.Changed("model") {
		cfg.Model = f.model
	}
	if flags.Changed("x") {
		cfg.X.Groups = f.x
	}
	if flags.Changed("y") {
		cfg.Y.Groups = f.y
	}
	if flags.Changed("z-super") {
		cfg.Z.Groups = setAt(cfg.Z.Groups, zSuper, f.zSuper)
	}
	if flags.Changed("z-sub") {
		cfg.Z.Groups = setAt(cfg.Z.Groups, zSub, f.zSub)
	}
	if len(cfg.Z.Groups) > zSub && cfg.Z.Groups[zSuper] == "" {
		return nil, fmt.Errorf("--z-sub %s needs a superstructure group (--z-super or the run file)", cfg.Z.Groups[zSub])
	}
	if flags.Changed("units") {
		cfg.Units = f.units
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("pdf") {
		cfg.PDF = f.pdf
	}
	if flags.Changed("plot") {
		cfg.PlotDir = f.plotDir
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = f.failFast
	}
	return cfg, nil
}

// Z group positions
const (
	zSuper = 0
	zSub   = 1
)

// setAt replaces position i of list, growing it with zero values when it
// is shorter.
func setAt[T any](list []T, i int, v T) []T {
	out := append([]T(nil), list...)
	for len(out) <= i {
		var zero T
		out = append(out, zero)
	}
	out[i] = v
	return out
}

// plans turns the configured axes into pipeline plans. Factors are only
// paired for force runs.
func plans(cfg *config.Config, force bool) ([]pipeline.AxisPlan, error) {
	var out []pipeline.AxisPlan
	for _, a := range cfg.Active() {
		p := pipeline.AxisPlan{Axis: a}
		if force {
			gf, err := cfg.GroupFactors(a)
			if err != nil {
				return nil, err
			}
			p.Groups = gf
		} else {
			for _, g := range cfg.Axis(a).Groups {
				p.Groups = append(p.Groups, seismic.GroupFactor{Group: g})
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func openModel(ctx context.Context, cfg *config.Config) (engine.Model, error) {
	slog.Debug("opening model", "path", cfg.Model)
	model, err := engine.Open(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.ApplyTo != "" {
		if wb, ok := model.(*engine.Workbook); ok {
			wb.SetOutput(cfg.OutputPath(cfg.ApplyTo))
		}
	}
	return model, nil
}

func printHeader(title string, cfg *config.Config, units loadcase.Units, runID string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("     %s\n", title)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Model:\t%s\n", cfg.Model)
	fmt.Fprintf(w, "  Units:\t%s\n", units)
	fmt.Fprintf(w, "  Run:\t%s\n", runID)
	w.Flush()
	fmt.Println()
}

func printDiagnostics(d []seismic.Diagnostic) {
	if len(d) == 0 {
		return
	}
	fmt.Println("WARNINGS:")
	fmt.Println(rule)
	for _, e := range d {
		fmt.Printf("  ⚠ %s %s: %s\n", e.Axis, e.Group, e.Message)
	}
	fmt.Println()
}

// printFailures lists the groups that were skipped.
func printFailures(err error) {
	if err == nil {
		return
	}
	fmt.Println("FAILED GROUPS:")
	fmt.Println(rule)
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Printf("  ✗ %s\n", line)
	}
	fmt.Println()
}

func calcSheet(title string, cfg *config.Config, units loadcase.Units, runID string) report.CalcSheet {
	return report.CalcSheet{
		Title:  title,
		Model:  filepath.Base(cfg.Model),
		RunID:  runID,
		Author: version.Author,
		Date:   time.Now(),
		Floor:  cfg.Floor,
		Units:  units,
	}
}

func printSummary(title string, lines []string) {
	fmt.Print(diagram.DrawSummaryBox(title, lines))
	fmt.Println()
}
