package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vnkit/internal/batch"
	"github.com/joshuapare/vnkit/internal/config"
	"github.com/joshuapare/vnkit/internal/logger"
	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/counter"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/engine/scpt"
	"github.com/joshuapare/vnkit/pkg/textenc"
)

var (
	// Global flags
	verbose        bool
	quiet          bool
	jsonOut        bool
	configPath     string
	engineFlag     string
	encodingFlag   string
	outEncFlag     string
	orderFlag      string
	transformFlag  string
	keyFlag        string
	replacementStr string
	workersFlag    int
	strictFlag     bool
	logFile        string

	// Set by PersistentPreRunE.
	runCfg      engine.Config
	closeLogger = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "vntool",
	Short: "Extract and re-inject text in visual novel assets",
	Long: `vntool extracts translatable text from visual novel engine assets into
JSON message files and writes edited messages back, relocating every pointer
that refers to moved text.

Settings come from an optional YAML or INI file (--config) and are
overridden by flags.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogger()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output results in JSON format")
	pf.StringVarP(&configPath, "config", "c", "", "YAML or INI settings file")
	pf.StringVarP(&engineFlag, "engine", "e", "", "Force an engine by tag instead of detecting it")
	pf.StringVar(&encodingFlag, "encoding", "", "Text encoding of the assets (utf-8, sjis, gbk, utf-16le, auto)")
	pf.StringVar(&outEncFlag, "output-encoding", "", "Encoding for imported text, if different")
	pf.StringVar(&orderFlag, "order", "", "Override the engine byte order (le, be)")
	pf.StringVar(&transformFlag, "transform", "", "Transform for packed payloads (zstd, lz4, brotli, zlib, deflate, xor, blowfish-ecb)")
	pf.StringVar(&keyFlag, "key", "", "Key for encrypted payloads")
	pf.StringVar(&replacementStr, "replacement", "", "Character substituted for undecodable text")
	pf.IntVarP(&workersFlag, "workers", "j", 1, "Files processed in parallel")
	pf.BoolVar(&strictFlag, "strict", false, "Fail on undecodable text instead of replacing it")
	pf.StringVar(&logFile, "log-file", "", "Write logs to this file or directory")
}

// execute runs the root command and returns the process exit code.
func execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("%v\n", err)
		return 1
	}
	return 0
}

func setup(cmd *cobra.Command, args []string) error {
	f, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg := engine.DefaultConfig()
	if err := f.Apply(&cfg); err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	opts := logger.Options{
		Enabled: !quiet || logFile != "" || f.Log.File != "",
		File:    f.Log.File,
		JSON:    f.Log.JSON,
		Level:   slog.LevelWarn,
	}
	if f.Log.Level != "" {
		if err := opts.Level.UnmarshalText([]byte(f.Log.Level)); err != nil {
			return fmt.Errorf("config: log level: %w", err)
		}
	}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if logFile != "" {
		opts.File = logFile
	}
	closer, err := logger.Init(opts)
	if err != nil {
		return err
	}
	closeLogger = closer
	cfg.Logger = logger.L
	runCfg = cfg
	logger.Debug("configuration resolved", "engine", cfg.Engine, "encoding", cfg.Encoding, "workers", cfg.Workers, "transform", cfg.Transform)
	return nil
}

// applyFlags overrides cfg with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *engine.Config) error {
	changed := cmd.Flags().Changed
	if changed("engine") {
		cfg.Engine = engine.Tag(strings.ToLower(engineFlag))
	}
	if changed("encoding") {
		cs, err := textenc.ParseCharset(encodingFlag)
		if err != nil {
			return err
		}
		cfg.Encoding.Charset = cs
	}
	if changed("output-encoding") {
		cs, err := textenc.ParseCharset(outEncFlag)
		if err != nil {
			return err
		}
		out := cfg.Encoding
		out.Charset = cs
		cfg.OutputEncoding = &out
	}
	if changed("order") {
		o, err := binio.ParseOrder(strings.ToLower(orderFlag))
		if err != nil {
			return err
		}
		cfg.Order = &o
	}
	if changed("transform") {
		cfg.Transform = strings.ToLower(transformFlag)
	}
	if changed("key") {
		cfg.Key = []byte(keyFlag)
	}
	if changed("replacement") {
		r, err := config.ParseReplacement(replacementStr)
		if err != nil {
			return err
		}
		cfg.Replacement = r
	}
	if changed("workers") {
		if workersFlag < 1 {
			return fmt.Errorf("--workers must be at least 1")
		}
		cfg.Workers = workersFlag
	}
	if changed("strict") {
		cfg.Strict = strictFlag
	}
	return nil
}

// newRegistry lists every engine this binary knows.
func newRegistry() (*engine.Registry, error) {
	return engine.NewRegistry(scpt.New())
}

func newRunner() (*batch.Runner, error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	return &batch.Runner{Registry: reg, Config: runCfg, Counter: counter.New(), Log: logger.L}, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printResults reports per-file results and the tally; it returns an error
// when any file failed so the exit code reflects it.
func printResults(results []batch.Result, counts counter.Counts) error {
	if jsonOut {
		if err := printJSON(struct {
			Files  []batch.Result `json:"files"`
			Counts counter.Counts `json:"counts"`
		}{results, counts}); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			switch {
			case r.Err != nil:
				printInfo("  %-7s %s: %v\n", r.Status, r.Input, r.Err)
			default:
				printVerbose("  %-7s %s -> %s\n", r.Status, r.Input, r.Output)
			}
		}
		printInfo("%s\n", counts)
	}
	if counts.Error > 0 {
		return fmt.Errorf("%d of %d files failed", counts.Error, counts.Total())
	}
	return nil
}
