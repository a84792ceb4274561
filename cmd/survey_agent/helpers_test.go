package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so commands can run repeatedly in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// useTempState points the CLI at a fresh SQLite state file.
func useTempState(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SURVEY_STORE", "sqlite")
	t.Setenv("SURVEY_SQLITE_PATH", filepath.Join(dir, "survey.db"))
	t.Setenv("SURVEY_LOG_LEVEL", "error")
	return dir
}

// runCLI executes the root command in-process and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// copyPage copies a survey page fixture into dir.
func copyPage(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("..", "..", "internal", "htmlform", "testdata", name))
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}
