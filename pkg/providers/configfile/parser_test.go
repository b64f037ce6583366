package configfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_XML(t *testing.T) {
	cfg, err := Parse("testdata/r00.xml")
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Number)
	assert.Equal(t, []tetris.Item{
		{ID: 0, Cores: 2, RAM: 8},
		{ID: 1, Cores: 4, RAM: 16},
		{ID: 2, Cores: 1, RAM: 4},
	}, cfg.Items)
}

func TestParse_ServerElements(t *testing.T) {
	cfg, err := Parse("testdata/s00.xml")
	require.NoError(t, err)
	assert.Len(t, cfg.Items, 2)
	assert.Equal(t, tetris.Item{ID: 1, Cores: 8, RAM: 32}, cfg.Items[1])
}

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse("testdata/s01.yaml")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Number)
	assert.Equal(t, []tetris.Item{
		{ID: 0, Cores: 12, RAM: 48},
		{ID: 1, Cores: 4, RAM: 16},
	}, cfg.Items)
}

func TestParse_HCL(t *testing.T) {
	cfg, err := Parse("testdata/s02.hcl")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Number)
	assert.Equal(t, []tetris.Item{
		{ID: 0, Cores: 64, RAM: 1024},
		{ID: 1, Cores: 8, RAM: 32},
	}, cfg.Items)
}

func TestParse_Errors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing.xml":   "",
		"broken.xml":    `<configuration n="1"><vm core_num="2"`,
		"nonumber.xml":  `<configuration><vm core_num="2" ram="4"/></configuration>`,
		"noram.xml":     `<configuration n="1"><vm core_num="2"/></configuration>`,
		"negative.xml":  `<configuration n="1"><vm core_num="-2" ram="4"/></configuration>`,
		"notint.xml":    `<configuration n="1"><vm core_num="two" ram="4"/></configuration>`,
		"nonumber.yaml": "items:\n  - cores: 1\n    ram: 1\n",
		"bad.hcl":       "number = \"x\"\n",
		"config.json":   "{}",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if name != "missing.xml" {
				require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			}

			_, err := Parse(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, path, pe.Path)
		})
	}
}

func TestDiscover(t *testing.T) {
	paths, err := Discover("testdata", "s")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "s00.xml"),
		filepath.Join("testdata", "s01.yaml"),
		filepath.Join("testdata", "s02.hcl"),
	}, paths)

	_, err = Discover("testdata/nope", "r")
	assert.Error(t, err)
}

func TestEncodeXML_RoundTrip(t *testing.T) {
	cfg := tetris.Configuration{Number: 7, Items: []tetris.Item{{ID: 0, Cores: 3, RAM: 9}}}
	data, err := EncodeXML(cfg, "vm")
	require.NoError(t, err)
	assert.Contains(t, string(data), `<vm core_num="3" ram="9"></vm>`)

	path := filepath.Join(t.TempDir(), "r07.xml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	parsed, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}
