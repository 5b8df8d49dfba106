package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/goeq/internal/engine"
)

var groupsModel string

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the groups, load cases and load patterns of a model",
	Long: `List the groups defined in a model with their joint counts, and the
load cases and patterns, to help pick the groups for a period or eqforce run.

Examples:
  goeq groups --model bridge.xlsx`,
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)

	groupsCmd.Flags().StringVarP(&groupsModel, "model", "m", "", "Model workbook of exported tables (.xlsx) [required]")
	groupsCmd.MarkFlagRequired("model")
}

func runGroups(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	model, err := engine.Open(ctx, groupsModel)
	if err != nil {
		return err
	}
	defer model.Close()

	groups, err := model.Groups(ctx)
	if err != nil {
		return err
	}
	cases, err := model.LoadCases(ctx)
	if err != nil {
		return err
	}
	patterns, err := model.LoadPatterns(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("GROUPS:")
	fmt.Println(rule)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Group\tJoints\n")
	fmt.Fprintf(w, "  ─────\t──────\n")
	for _, g := range groups {
		joints, err := model.GroupJoints(ctx, g)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\t%d\n", g, len(joints))
	}
	w.Flush()
	fmt.Println()

	fmt.Println("LOAD CASES:")
	fmt.Println(rule)
	for _, c := range cases {
		fmt.Printf("  %s\n", c)
	}
	fmt.Println()

	fmt.Println("LOAD PATTERNS:")
	fmt.Println(rule)
	for _, p := range patterns {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println()
	return nil
}
