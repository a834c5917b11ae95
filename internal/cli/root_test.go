// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"cardsearch/internal/formatters/shared"
	"cardsearch/internal/paths"
	"cardsearch/internal/version"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const visa = "4539578763621486"

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, ctx context.Context, args ...string) result {
	t.Helper()
	t.Setenv(paths.ConfigDirEnvVar, t.TempDir())

	var stdout, stderr bytes.Buffer
	app := &App{Stdout: &stdout, Stderr: &stderr, Fs: afero.NewOsFs()}
	code := app.Execute(ctx, args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// cardTree creates a directory holding one file with a card number and one
// without.
func cardTree(t *testing.T) (dir, cardFile string) {
	t.Helper()
	dir = t.TempDir()
	cardFile = filepath.Join(dir, "orders.txt")
	require.NoError(t, os.WriteFile(cardFile, []byte("card "+visa+"\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("nothing here\n"), 0600))
	return dir, cardFile
}

func TestExecute_UsageErrors(t *testing.T) {
	dir, _ := cardTree(t)

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"no roots", nil, "at least one root path is required"},
		{"unknown flag", []string{"--bogus", dir}, "unknown flag"},
		{"bad integer", []string{"-c", "lots", dir}, "invalid argument"},
		{"chunk too small", []string{"-c", "18", dir}, "chunk size must be greater than 18"},
		{"chunk too large", []string{"-c", "9223372036854775807", dir}, "chunk size must be at most 1073741824"},
		{"bad throttle unit", []string{"--throttle-unit", "bytes", dir}, "unknown throttle unit"},
		{"negative workers", []string{"-w", "-2", dir}, "workers must not be negative"},
		{"unknown format", []string{"--format", "xml", dir}, "unsupported format 'xml'"},
		{"unknown profile", []string{"--profile", "nightly", dir}, "profile 'nightly' not found"},
		{"missing config", []string{"--config", filepath.Join(dir, "missing.yaml"), dir}, "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, context.Background(), tt.args...)
			assert.Equal(t, ExitUsage, res.code)
			assert.Contains(t, res.stderr, tt.errMsg)
			assert.Empty(t, res.stdout)
		})
	}
}

func TestExecute_VerboseMatchRecords(t *testing.T) {
	dir, cardFile := cardTree(t)

	res := execute(t, context.Background(), dir)
	require.Equal(t, ExitOK, res.code, res.stderr)

	assert.Equal(t, cardFile+":5 [Visa] "+visa+"  ...card ["+visa+"]....\n", res.stdout)
	assert.Contains(t, res.stderr, "scan complete")
}

func TestExecute_QuietWithOutputFile(t *testing.T) {
	dir, cardFile := cardTree(t)
	output := filepath.Join(dir, "cardsearch.log")

	res := execute(t, context.Background(), "-q", "-o", output, dir)
	require.Equal(t, ExitOK, res.code, res.stderr)

	assert.Equal(t, "Found 1 matches in "+cardFile+"\n", res.stdout)
	assert.Empty(t, res.stderr)

	// the log holds the number but is never scanned itself
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Found 1 matches in "+cardFile+"\n"+visa+"\n", string(data))

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExecute_OutputCannotBeOpened(t *testing.T) {
	dir, _ := cardTree(t)

	res := execute(t, context.Background(), "-o", filepath.Join(dir, "missing", "out.log"), dir)
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "cannot open file sink")
	assert.Empty(t, res.stdout)
}

func TestExecute_ExtensionsAndExcludedPaths(t *testing.T) {
	dir, _ := cardTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.JPG"), []byte(visa), 0600))
	sub := filepath.Join(dir, "archive")
	require.NoError(t, os.Mkdir(sub, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "old.txt"), []byte(visa), 0600))

	res := execute(t, context.Background(), "-q", "-e", "jpg,png", "--exclude-path", sub, dir)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "Found 1 matches in "+filepath.Join(dir, "orders.txt")+"\n", res.stdout)
}

func TestExecute_ExcludeMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixtures.txt"), []byte("test:"+visa+"\n"), 0600))

	res := execute(t, context.Background(), "--exclude-marker", "TEST:", dir)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Empty(t, res.stdout)
}

func TestExecute_Report(t *testing.T) {
	dir, cardFile := cardTree(t)
	report := filepath.Join(dir, "report.json")

	res := execute(t, context.Background(), "-q", "-w", "2", "--report", report, "--show-match", "--report-context", dir)
	require.Equal(t, ExitOK, res.code, res.stderr)

	data, err := os.ReadFile(report)
	require.NoError(t, err)

	var resp shared.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, cardFile, resp.Results[0].Filename)
	assert.Equal(t, visa, resp.Results[0].Value)
	assert.Equal(t, "card ", resp.Results[0].BeforeText)
}

func TestExecute_ConfigProfileAndFlagOverride(t *testing.T) {
	dir, cardFile := cardTree(t)
	configFile := filepath.Join(t.TempDir(), "cardsearch.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
profiles:
  cron:
    description: nightly job
    quiet: true
`), 0600))

	res := execute(t, context.Background(), "--config", configFile, "--profile", "cron", dir)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "Found 1 matches in "+cardFile+"\n", res.stdout)

	res = execute(t, context.Background(), "--config", configFile, "--profile", "cron", "--quiet=false", dir)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "[Visa]")
}

func TestExecute_GenerateSuppressions(t *testing.T) {
	dir, _ := cardTree(t)
	suppressionFile := filepath.Join(t.TempDir(), "suppressions.yaml")

	res := execute(t, context.Background(), "-q", "--suppression-file", suppressionFile, "--generate-suppressions", dir)
	require.Equal(t, ExitOK, res.code, res.stderr)

	data, err := os.ReadFile(suppressionFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), visa)

	var rules struct {
		Rules []struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"rules"`
	}
	require.NoError(t, yaml.Unmarshal(data, &rules))
	require.Len(t, rules.Rules, 1)
	assert.False(t, rules.Rules[0].Enabled)
}

func TestExecute_Interrupted(t *testing.T) {
	dir, _ := cardTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := execute(t, ctx, "-q", dir)
	assert.Equal(t, ExitInterrupted, res.code)
	assert.Empty(t, res.stdout)
}

func TestExecute_Version(t *testing.T) {
	res := execute(t, context.Background(), "--version")
	assert.Equal(t, ExitOK, res.code)
	assert.Equal(t, version.Info()+"\n", res.stdout)
}

func TestExecute_Listings(t *testing.T) {
	res := execute(t, context.Background(), "--list-schemes")
	require.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "Visa Electron")

	res = execute(t, context.Background(), "--list-profiles")
	require.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "gentle")
}
