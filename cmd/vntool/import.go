package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vnkit/internal/batch"
)

func init() {
	rootCmd.AddCommand(newImportCmd())
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <input> <messages.json> <output>",
		Short: "Write edited messages back into assets",
		Long: `The import command re-encodes an asset with the messages of an edited
JSON file, relocating every pointer to moved text. The output is written
atomically and only when encoding succeeds.

Given three directories it pairs every asset under <input> with the
message file extract wrote for it under <messages.json> and mirrors the
results under <output>.

Example:
  vntool import start.scpt start.scpt.json patched/start.scpt
  vntool import data/scenario scripts patched -j 4`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args)
		},
	}
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	r, err := newRunner()
	if err != nil {
		return err
	}
	input, scripts, output := args[0], args[1], args[2]

	var jobs []batch.ImportJob
	st, err := os.Stat(input)
	if err != nil {
		return err
	}
	if st.IsDir() {
		items, err := r.Expand([]string{input})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("no assets found in %s", input)
		}
		jobs = batch.Pair(items, scripts, output)
	} else {
		jobs = []batch.ImportJob{{Input: input, Script: scripts, Output: output}}
	}

	printVerbose("Importing %d file(s)\n", len(jobs))
	results, err := r.Import(cmd.Context(), jobs)
	if perr := printResults(results, r.Counter.Snapshot()); perr != nil && err == nil {
		err = perr
	}
	return err
}
