package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	<-done
	return buf.String(), fnErr
}

// runCLI resets global flags and runs vntool with args.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose, quiet, jsonOut, strictFlag = false, false, false, false
	configPath, engineFlag, encodingFlag, outEncFlag = "", "", "", ""
	orderFlag, transformFlag, keyFlag, replacementStr, logFile = "", "", "", "", ""
	workersFlag = 1
	extractOut = ""
	resetChanged()

	rootCmd.SetArgs(args)
	return captureOutput(t, func() error {
		return rootCmd.ExecuteContext(context.Background())
	})
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
