package cmd

import (
	"fmt"

	"github.com/alexiusacademia/goeq/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of goeq",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
		fmt.Println("Equivalent Static Seismic Load Tool")
		fmt.Println("Rayleigh period and first-mode force distribution")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
