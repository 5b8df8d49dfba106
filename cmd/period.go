package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/goeq/internal/config"
	"github.com/alexiusacademia/goeq/internal/diagram"
	"github.com/alexiusacademia/goeq/internal/loadcase"
	"github.com/alexiusacademia/goeq/internal/pipeline"
	"github.com/alexiusacademia/goeq/internal/report"
	"github.com/alexiusacademia/goeq/internal/seismic"
)

var periodFlags runFlags

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Estimate Rayleigh periods per group",
	Long: `Estimate the fundamental period of each group from the model's
unit acceleration displacements and joint masses (Rayleigh method).

    T = 2π √( Σ m·u² / (g · |Σ m·u|) )

X and Y are evaluated group by group. In Z the superstructure, the
substructure and any further run-file groups are merged into one structure
(StructZdir); a joint in several keeps the value of the earliest group.

Examples:
  goeq period -m bridge.xlsx --x PIER1,PIER2 --y PIER1,PIER2 --z-super DECK --z-sub PIERS
  goeq period -c run.yaml --diagram
  goeq period -c run.toml --pdf period.pdf --plot plots`,
	RunE: runPeriod,
}

func init() {
	rootCmd.AddCommand(periodCmd)
	addRunFlags(periodCmd, &periodFlags)
}

func runPeriod(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &periodFlags)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("report") {
		cfg.PeriodReport = periodFlags.report
	}
	if err := cfg.ValidatePeriod(); err != nil {
		return err
	}
	units, err := cfg.PresentUnits()
	if err != nil {
		return err
	}
	axisPlans, err := plans(cfg, false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	model, err := openModel(ctx, cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	rec := &seismic.Recorder{}
	runner := pipeline.New(model, slog.Default(), rec, pipeline.Options{
		Units:    units,
		FailFast: cfg.FailFast,
	})
	run, err := runner.RunPeriod(ctx, axisPlans)
	if err != nil {
		return err
	}

	printHeader("RAYLEIGH PERIOD ESTIMATE", cfg, units, run.ID)
	printPeriods(run.Results, periodFlags.diagram)
	printDiagnostics(rec.Warnings())
	printFailures(run.Failed)

	return writePeriodOutputs(cfg, run, units, rec)
}

func printPeriods(results []*seismic.PeriodResult, showDiagram bool) {
	fmt.Println("PERIODS:")
	fmt.Println(rule)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Dir\tGroup\tNodes\tβ = |Σ m·u|\tζ = Σ m·u²\tT (s)\n")
	fmt.Fprintf(w, "  ───\t─────\t─────\t───────────\t──────────\t─────\n")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%.6e\t%.6e\t%.4f\n", r.Axis, r.Group, len(r.Common), r.Beta, r.Zeta, r.Period)
	}
	w.Flush()
	fmt.Println()

	var lines []string
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s  %-12s T = %.4f s", r.Axis, r.Group, r.Period))
	}
	if len(lines) > 0 {
		printSummary("FUNDAMENTAL PERIODS", lines)
	}

	if !showDiagram {
		return
	}
	for _, r := range results {
		if s := diagram.DrawModeShape(r); s != "" {
			fmt.Println(s)
		}
	}
}

func writePeriodOutputs(cfg *config.Config, run *pipeline.PeriodRun, units loadcase.Units, rec *seismic.Recorder) error {
	path := cfg.OutputPath(cfg.PeriodReport)
	if err := report.WritePeriodWorkbook(path, run.Results); err != nil {
		return fmt.Errorf("write period report: %w", err)
	}
	fmt.Printf("  ✓ Period results written to: %s\n", path)

	if cfg.PDF != "" {
		cs := calcSheet("Rayleigh Period Estimate", cfg, units, run.ID)
		cs.Floor = 0
		cs.Periods = run.Results
		cs.Notes = rec.Events()
		pdf := cfg.OutputPath(cfg.PDF)
		if err := report.WriteCalcSheet(pdf, cs); err != nil {
			return fmt.Errorf("write calculation sheet: %w", err)
		}
		fmt.Printf("  ✓ Calculation sheet written to: %s\n", pdf)
	}

	if cfg.PlotDir != "" && len(run.Results) > 0 {
		dir := cfg.OutputPath(cfg.PlotDir)
		if err := diagram.ExportPeriodChart(run.Results, filepath.Join(dir, "periods.png")); err != nil {
			return fmt.Errorf("export period chart: %w", err)
		}
		for _, r := range run.Results {
			name := fmt.Sprintf("shape_%s_%s.png", r.Group, r.Axis)
			if err := diagram.ExportModeShape(r, filepath.Join(dir, name)); err != nil {
				return fmt.Errorf("export mode shape %s: %w", name, err)
			}
		}
		fmt.Printf("  ✓ Charts exported to: %s\n", dir)
	}
	fmt.Println()
	return nil
}
