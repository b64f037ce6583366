package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DrSkyle/rackfit/pkg/providers/configfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	reqDir := filepath.Join(root, "requests")
	srvDir := filepath.Join(root, "servers")

	require.NoError(t, os.MkdirAll(reqDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(reqDir, "stale.xml"), []byte("x"), 0644))

	paths, err := Generate(reqDir, srvDir, Options{RequestFiles: 3, ServerFiles: 2, ServerSize: 6, Seed: 7})
	require.NoError(t, err)
	assert.Len(t, paths, 5)
	assert.NoFileExists(t, filepath.Join(reqDir, "stale.xml"))

	reqs, err := configfile.Discover(reqDir, "r")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(reqDir, "r00.xml"),
		filepath.Join(reqDir, "r01.xml"),
		filepath.Join(reqDir, "r02.xml"),
	}, reqs)

	for i, path := range reqs {
		cfg, err := configfile.Parse(path)
		require.NoError(t, err)
		assert.Equal(t, i, cfg.Number)
		assert.GreaterOrEqual(t, len(cfg.Items), 10)
		assert.LessOrEqual(t, len(cfg.Items), 20)
		for _, it := range cfg.Items {
			assert.True(t, it.Cores >= 1 && it.Cores <= 4, "cores %d", it.Cores)
			assert.True(t, it.RAM >= 4 && it.RAM <= 16, "ram %d", it.RAM)
		}
	}

	srv, err := configfile.Parse(filepath.Join(srvDir, "s01.xml"))
	require.NoError(t, err)
	assert.Len(t, srv.Items, 6)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	opts := Options{RequestFiles: 1, ServerFiles: 1, Seed: 42}

	_, err := Generate(filepath.Join(a, "r"), filepath.Join(a, "s"), opts)
	require.NoError(t, err)
	_, err = Generate(filepath.Join(b, "r"), filepath.Join(b, "s"), opts)
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(a, "r", "r00.xml"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(b, "r", "r00.xml"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
