package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vnkit/internal/transform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vntool %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		if verbose {
			reg, err := newRegistry()
			if err == nil {
				fmt.Printf("  engines: %v\n", reg.Tags())
			}
			fmt.Printf("  transforms: %v\n", transform.Names())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
