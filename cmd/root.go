package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alexiusacademia/goeq/internal/version"
	"github.com/spf13/cobra"
)

var (
	rootVerbose bool
	rootEnvFile string
)

var rootCmd = &cobra.Command{
	Use:   "goeq",
	Short: "Equivalent Static Seismic Load Tool",
	Long: `goeq - Equivalent Static Seismic Loads for Finite Element Models

A CLI tool that derives seismic design quantities from a structural
model's unit acceleration results and writes them back as joint loads.

This tool helps structural engineers perform:
  - Rayleigh fundamental period estimation per group and direction
  - First-mode equivalent static force distribution (X, Y)
  - Mass-proportional vertical force distribution (Z)
  - Base shear floor checks with uniform rescaling
  - Load pattern creation and joint load assignment

Models are read from workbooks of exported engine tables (.xlsx).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if rootVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		fmt.Println("  ╔═══════════════════════════════════════════════════════════╗")
		fmt.Println("  ║                                                           ║")
		fmt.Printf("  ║   goeq v%-50s║\n", version.Version)
		fmt.Println("  ║   Equivalent Static Seismic Loads                         ║")
		fmt.Printf("  ║   %s ©  %-38s║\n", version.Author, version.Year)
		fmt.Println("  ║                                                           ║")
		fmt.Println("  ╚═══════════════════════════════════════════════════════════╝")
		fmt.Println()
		fmt.Println("  Derives Rayleigh periods and equivalent static seismic joint")
		fmt.Println("  loads from unit acceleration displacements and joint masses.")
		fmt.Println()
		fmt.Println("  Features:")
		fmt.Println("    • Unit acceleration cases UNIT-X, UNIT-Y, UNIT-Z")
		fmt.Println("    • Period per group, merged superstructure/substructure in Z")
		fmt.Println("    • EQL / EQT / EQV load patterns with base shear floor")
		fmt.Println("    • Excel, PDF and chart reports")
		fmt.Println()
		fmt.Println("  Use 'goeq --help' to see available commands.")
		fmt.Println()
		fmt.Println("  ─────────────────────────────────────────────────────────────")
		fmt.Printf("  Copyright © %s %s. All rights reserved.\n", version.Year, version.Author)
		fmt.Println()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// An interrupt cancels the engine session.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&rootEnvFile, "env", ".env", "Environment file with GOEQ_* overrides")
}
