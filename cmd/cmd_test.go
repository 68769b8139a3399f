package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tradeflow/core/allocation"
	"github.com/kilianp07/tradeflow/core/dataset"
	"github.com/kilianp07/tradeflow/core/model"
	"github.com/kilianp07/tradeflow/pkg/export"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := Execute()
	return buf.String(), err
}

func TestGenerateVerifyTop(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "runlog:\n  backend: none\n")
	exp := writeFile(t, dir, "exports.csv", "Country,2000,2001\nA,70,10\nB,30,\n")
	imp := writeFile(t, dir, "imports.csv", "Country,2000,2001\nP,60,5\nQ,40,5\n")
	out := filepath.Join(dir, "flows.csv")

	stdout, err := execute(t, "generate", "-c", cfg, "--exports", exp, "--imports", imp,
		"--output", out, "--strategy", "random", "--seed", "7", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2000\tallocated")
	assert.Contains(t, stdout, "-> "+out)

	flows, err := export.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, model.Vector{"A": 80, "B": 30}, model.ExportTotals(flows))

	exports, err := dataset.Load(exp)
	require.NoError(t, err)
	supply, err := exports.Vector(2000)
	require.NoError(t, err)
	var y2000 []model.Flow
	for _, f := range flows {
		if f.Year == 2000 {
			y2000 = append(y2000, f)
		}
	}
	require.NoError(t, allocation.CheckExports(2000, y2000, supply))

	t.Setenv("K_SOURCES__EXPORTS", exp)
	t.Setenv("K_SOURCES__IMPORTS", imp)
	stdout, err = execute(t, "verify", "-c", cfg, "--file", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2000\trecords=")
	assert.Contains(t, stdout, "export_mismatches=0")

	stdout, err = execute(t, "top", "--file", out, "--side", "exporters", "-n", "1", "--year", "0")
	require.NoError(t, err)
	assert.Equal(t, "1\tA\t80\n", stdout)

	_, err = execute(t, "top", "--file", out, "--side", "sideways")
	assert.Error(t, err)
}

func TestVerifyDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "runlog:\n  backend: none\n")
	exp := writeFile(t, dir, "exports.csv", "Country,2000\nA,10\n")
	imp := writeFile(t, dir, "imports.csv", "Country,2000\nP,10\n")
	out := writeFile(t, dir, "flows.csv", strings.Join(export.Header, ",")+"\nA,P,2000,9\n")

	t.Setenv("K_SOURCES__EXPORTS", exp)
	t.Setenv("K_SOURCES__IMPORTS", imp)
	_, err := execute(t, "verify", "-c", cfg, "--file", out, "--json=false")
	var mm *allocation.ExportMismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, allocation.Mismatch{Expected: 10, Actual: 9}, mm.Mismatches["A"])
}

func TestGenerateRequiresSources(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "runlog:\n  backend: none\n")
	genFlags = generateFlags{}
	_, err := execute(t, "generate", "-c", cfg, "--exports", "", "--imports", "")
	assert.ErrorContains(t, err, "required")
}

func TestVerifyHonoursYearSelection(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "runlog:\n  backend: none\nyears:\n  from: 2000\n  to: 2000\n")
	exp := writeFile(t, dir, "exports.csv", "Country,2000,2001\nA,70,10\nB,30,5\n")
	imp := writeFile(t, dir, "imports.csv", "Country,2000,2001\nP,60,10\nQ,40,5\n")
	out := filepath.Join(dir, "flows.csv")

	genFlags = generateFlags{}
	stdout, err := execute(t, "generate", "-c", cfg, "--exports", exp, "--imports", imp, "--output", out)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "2001\t")

	flows, err := export.ReadFile(out)
	require.NoError(t, err)
	for _, f := range flows {
		assert.Equal(t, 2000, f.Year)
	}

	t.Setenv("K_SOURCES__EXPORTS", exp)
	t.Setenv("K_SOURCES__IMPORTS", imp)
	stdout, err = execute(t, "verify", "-c", cfg, "--file", out, "--json=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2000\trecords=")
	assert.NotContains(t, stdout, "2001\t")
}
