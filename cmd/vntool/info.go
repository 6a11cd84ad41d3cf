package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <input>",
		Short: "Identify an asset's engine and summarize it",
		Long: `The info command detects the engine of an asset and reports its size,
script name and message count.

Example:
  vntool info start.scpt
  vntool info start.scpt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args)
		},
	}
	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	r, err := newRunner()
	if err != nil {
		return err
	}
	info, err := r.Inspect(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read asset: %w", err)
	}
	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nAsset Information:\n")
	printInfo("  File: %s\n", info.Path)
	if info.Size < 1024 {
		printInfo("  Size: %d bytes\n", info.Size)
	} else if info.Size < 1024*1024 {
		printInfo("  Size: %.1f KB\n", float64(info.Size)/1024)
	} else {
		printInfo("  Size: %.1f MB\n", float64(info.Size)/(1024*1024))
	}
	printInfo("  Engine: %s\n", info.Engine)
	if info.Name != "" {
		printInfo("  Name: %s\n", info.Name)
	}
	printInfo("  Messages: %d\n", info.Messages)
	printInfo("  Status: %s\n", info.Status)
	return nil
}
