package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractOut string

func init() {
	cmd := newExtractCmd()
	cmd.Flags().StringVarP(&extractOut, "output", "o", "", "Directory for message files (default: next to each input)")
	rootCmd.AddCommand(cmd)
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <input...>",
		Short: "Extract messages from assets to JSON",
		Long: `The extract command decodes each asset and writes its messages to a
JSON file named after the asset with ".json" appended. Directories are
walked recursively; files no engine claims are skipped.

Example:
  vntool extract data/scenario --output scripts
  vntool extract --encoding sjis start.scpt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args)
		},
	}
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	r, err := newRunner()
	if err != nil {
		return err
	}
	items, err := r.Expand(args)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no assets found")
	}
	printVerbose("Extracting %d file(s) with %d worker(s)\n", len(items), max(r.Config.Workers, 1))
	results, err := r.Extract(cmd.Context(), items, extractOut)
	if perr := printResults(results, r.Counter.Snapshot()); perr != nil && err == nil {
		err = perr
	}
	return err
}
