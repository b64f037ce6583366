//go:build e2e

package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndRun(t *testing.T) {
	dir := t.TempDir()

	_, err := rackfit(t, dir, nil, "generate", "--request-files", "3", "--server-files", "2", "--seed", "11")
	require.NoError(t, err)

	seq, err := rackfit(t, dir, nil, "run", "--history=")
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(seq, "Request configuration:"))
	assert.Equal(t, 6, strings.Count(seq, "Number of deployed VM:"))

	par, err := rackfit(t, dir, nil, "run", "--history=", "--workers", "4")
	require.NoError(t, err)
	assert.Equal(t, seq, par, "concurrent run must print the same reports")
}

func TestRunWritesArtifactsAndHistory(t *testing.T) {
	dir := t.TempDir()

	_, err := rackfit(t, dir, nil, "generate", "--request-files", "2", "--server-files", "2", "--seed", "3")
	require.NoError(t, err)

	_, err = rackfit(t, dir, nil, "run", "--output", "out")
	require.NoError(t, err)
	_, err = rackfit(t, dir, nil, "run", "--search-width", "0")
	require.NoError(t, err)

	for _, name := range []string{"summary.json", "summary.csv", "reports/r00_s01.txt"} {
		_, err := os.Stat(filepath.Join(dir, "out", name))
		assert.NoError(t, err, name)
	}

	out, err := rackfit(t, dir, nil, "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3, "header plus two runs")
}

func TestPlaceSinglePair(t *testing.T) {
	dir := t.TempDir()
	req := filepath.Join(dir, "r.xml")
	srv := filepath.Join(dir, "s.xml")
	require.NoError(t, os.WriteFile(req, []byte(`<configuration n="1"><vm core_num="3" ram="1"/><vm core_num="3" ram="1"/><vm core_num="2" ram="1"/></configuration>`), 0644))
	require.NoError(t, os.WriteFile(srv, []byte(`<configuration n="1"><serv core_num="4" ram="4"/><serv core_num="4" ram="4"/></configuration>`), 0644))

	out, err := rackfit(t, dir, nil, "place", req, srv)
	require.NoError(t, err)
	assert.Contains(t, out, "0 -> 1\n2 -> 0\n")
	assert.Contains(t, out, "All VM deployed: False")
}

func TestInvalidSearchWidthExitsNonZero(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name string
		env  []string
		args []string
	}{
		{"flag", nil, []string{"run", "--search-width=-1"}},
		{"env", []string{"RACKFIT_SEARCH_WIDTH=two"}, []string{"run"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rackfit(t, dir, tc.env, tc.args...)
			var exitErr *exec.ExitError
			require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
			assert.Equal(t, 1, exitErr.ExitCode())
		})
	}
}

func TestMalformedInputAbortsRun(t *testing.T) {
	dir := t.TempDir()

	_, err := rackfit(t, dir, nil, "generate", "--request-files", "1", "--server-files", "1", "--seed", "5")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id", "requests", "r01.xml"), []byte(`<configuration n="1"><vm core_num="-2" ram="4"/></configuration>`), 0644))

	out, err := rackfit(t, dir, nil, "run", "--history=")
	assert.Error(t, err)
	assert.Empty(t, out)
}
