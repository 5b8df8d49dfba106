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

var (
	eqforceFlags        runFlags
	eqforceXFactors     []float64
	eqforceYFactors     []float64
	eqforceZSuperFactor float64
	eqforceZSubFactor   float64
	eqforceFloor        float64
	eqforceApplyTo      string
	eqforceDryRun       bool
)

var eqforceCmd = &cobra.Command{
	Use:   "eqforce",
	Short: "Derive and assign equivalent static seismic joint loads",
	Long: `Distribute equivalent static seismic forces over the joints of each
group and assign them to the EQL (X), EQT (Y) and EQV (Z) load patterns.

  Horizontal:  F = (β/ζ) · C · g · m · u
               rescaled so |ΣF| reaches floor · C · g · Σm when short
  Vertical:    F = C · g · m

Each group takes one seismic coefficient C, in the same order as the
groups. Z groups are positional: superstructure first, substructure
second; a run file may list more. Where groups share a joint, the last
listed group's force is the one assigned. Existing loads of the patterns
are replaced.

Examples:
  goeq eqforce -m bridge.xlsx --x PIER1,PIER2 --x-factors 0.4,0.4
  goeq eqforce -c run.yaml --floor 0.8 --apply-to bridge_eq.xlsx
  goeq eqforce -c run.toml --dry-run --diagram`,
	RunE: runEqForce,
}

func init() {
	rootCmd.AddCommand(eqforceCmd)
	addForceFlags(eqforceCmd)
}

func addForceFlags(c *cobra.Command) {
	addRunFlags(c, &eqforceFlags)

	// Seismic coefficients
	c.Flags().Float64SliceVar(&eqforceXFactors, "x-factors", nil, "Seismic coefficient per X group")
	c.Flags().Float64SliceVar(&eqforceYFactors, "y-factors", nil, "Seismic coefficient per Y group")
	c.Flags().Float64Var(&eqforceZSuperFactor, "z-super-factor", 0, "Vertical coefficient of the superstructure")
	c.Flags().Float64Var(&eqforceZSubFactor, "z-sub-factor", 0, "Vertical coefficient of the substructure")
	c.Flags().Float64Var(&eqforceFloor, "floor", config.DefaultFloor, "Base shear floor as a fraction of C·g·Σm (0 disables, typically 0.8)")

	c.Flags().StringVar(&eqforceApplyTo, "apply-to", "", "Save the loaded model to this file instead of the input")
	c.Flags().BoolVar(&eqforceDryRun, "dry-run", false, "Compute forces without assigning them")
}

func runEqForce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &eqforceFlags)
	if err != nil {
		return err
	}
	if err := applyForceFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.ValidateForce(); err != nil {
		return err
	}
	units, err := cfg.PresentUnits()
	if err != nil {
		return err
	}
	axisPlans, err := plans(cfg, true)
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
		Floor:    cfg.Floor,
		FailFast: cfg.FailFast,
		DryRun:   eqforceDryRun,
	})
	run, err := runner.RunEqForce(ctx, axisPlans)
	if err != nil {
		return err
	}

	printHeader("EQUIVALENT STATIC SEISMIC FORCES", cfg, units, run.ID)
	printForces(cfg, run, eqforceFlags.diagram)
	printDiagnostics(rec.Warnings())
	printFailures(run.Failed)

	if err := writeForceOutputs(cfg, run, units, rec); err != nil {
		return err
	}

	if eqforceDryRun {
		fmt.Println("  Dry run: no loads assigned, model not saved.")
		fmt.Println()
		return nil
	}
	if err := model.Save(ctx); err != nil {
		return err
	}
	target := cfg.Model
	if cfg.ApplyTo != "" {
		target = cfg.OutputPath(cfg.ApplyTo)
	}
	fmt.Printf("  ✓ Model saved: %s\n", target)
	fmt.Println()
	return nil
}

// applyForceFlags layers the force-only flags over the config. Each Z
// factor flag replaces only its own position.
func applyForceFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("report") {
		cfg.ForceReport = eqforceFlags.report
	}
	if flags.Changed("x-factors") {
		cfg.X.Factors = eqforceXFactors
	}
	if flags.Changed("y-factors") {
		cfg.Y.Factors = eqforceYFactors
	}
	if flags.Changed("z-super-factor") {
		cfg.Z.Factors = setAt(cfg.Z.Factors, zSuper, eqforceZSuperFactor)
	}
	if flags.Changed("z-sub-factor") {
		if len(cfg.Z.Factors) <= zSuper {
			return fmt.Errorf("--z-sub-factor needs a superstructure factor (--z-super-factor or the run file)")
		}
		cfg.Z.Factors = setAt(cfg.Z.Factors, zSub, eqforceZSubFactor)
	}
	if flags.Changed("floor") {
		cfg.Floor = eqforceFloor
	}
	if flags.Changed("apply-to") {
		cfg.ApplyTo = eqforceApplyTo
	}
	return nil
}

func printForces(cfg *config.Config, run *pipeline.ForceRun, showDiagram bool) {
	fmt.Println("BASE SHEAR CHECK:")
	fmt.Println(rule)
	fmt.Printf("  Floor: %.0f%% of V = C·g·Σm\n", cfg.Floor*100)
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Dir\tGroup\tC\tΣm\tV\tFloor\tΣF\tScale\n")
	fmt.Fprintf(w, "  ───\t─────\t─\t──\t─\t─────\t──\t─────\n")
	for _, r := range run.Results {
		if r.Axis.Vertical() {
			fmt.Fprintf(w, "  %s\t%s\t%.4f\t%.4f\t-\t-\t%.4f\t-\n", r.Axis, r.Group, r.Factor, r.TotalMass, r.TotalForce())
			continue
		}
		scale := "-"
		if r.Scaled {
			scale = fmt.Sprintf("x%.4f", r.ScaleFactor)
		}
		fmt.Fprintf(w, "  %s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n",
			r.Axis, r.Group, r.Factor, r.TotalMass, r.BaseShear, r.BaseShearFloor, r.TotalForce(), scale)
	}
	w.Flush()
	fmt.Println()

	fmt.Println("LOAD PATTERNS:")
	fmt.Println(rule)
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Pattern\tDir\tJoints\tΣF\tAssigned\n")
	fmt.Fprintf(w, "  ───────\t───\t──────\t──\t────────\n")
	for _, a := range loadcase.Axes {
		merged, ok := run.Merged[a]
		if !ok {
			continue
		}
		assigned := "-"
		if n, ok := run.Applied[a]; ok {
			assigned = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(w, "  %s\t%s\t%d\t%.4f\t%s\n", loadcase.Pattern(a).Name, a, len(merged), merged.Sum(), assigned)
	}
	w.Flush()
	fmt.Println()

	if !showDiagram {
		return
	}
	for _, r := range run.Results {
		if s := diagram.DrawForceProfile(r); s != "" {
			fmt.Println(s)
		}
	}
}

func writeForceOutputs(cfg *config.Config, run *pipeline.ForceRun, units loadcase.Units, rec *seismic.Recorder) error {
	path := cfg.OutputPath(cfg.ForceReport)
	if err := report.WriteForceWorkbook(path, run.Results); err != nil {
		return fmt.Errorf("write force report: %w", err)
	}
	fmt.Printf("  ✓ Force results written to: %s\n", path)

	if cfg.PDF != "" {
		cs := calcSheet("Equivalent Static Seismic Forces", cfg, units, run.ID)
		cs.Forces = run.Results
		cs.Notes = rec.Events()
		pdf := cfg.OutputPath(cfg.PDF)
		if err := report.WriteCalcSheet(pdf, cs); err != nil {
			return fmt.Errorf("write calculation sheet: %w", err)
		}
		fmt.Printf("  ✓ Calculation sheet written to: %s\n", pdf)
	}

	if cfg.PlotDir != "" {
		dir := cfg.OutputPath(cfg.PlotDir)
		for _, r := range run.Results {
			if len(r.Final) == 0 {
				continue
			}
			name := fmt.Sprintf("force_%s_%s.png", r.Group, r.Axis)
			if err := diagram.ExportForceChart(r, filepath.Join(dir, name)); err != nil {
				return fmt.Errorf("export force chart %s: %w", name, err)
			}
		}
		fmt.Printf("  ✓ Charts exported to: %s\n", dir)
	}
	return nil
}
