// Package configfile reads request and server configurations from disk.
//
// A configuration is a numbered batch of items, each with a core count and a
// RAM quantity. Items get zero-based IDs in order of appearance. The encoding
// is chosen by file extension: .xml, .yaml/.yml or .hcl.
package configfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
)

// ErrParse marks unreadable or malformed configuration files.
var ErrParse = errors.New("configuration parse error")

// ParseError carries the offending path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

type decoder func(path string, data []byte) (tetris.Configuration, error)

var decoders = map[string]decoder{
	".xml":  decodeXML,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".hcl":  decodeHCL,
}

// Supported reports whether path has a known configuration extension.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Parse reads one configuration file.
func Parse(path string) (tetris.Configuration, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return tetris.Configuration{}, &ParseError{Path: path, Err: fmt.Errorf("unsupported extension %q", filepath.Ext(path))}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tetris.Configuration{}, &ParseError{Path: path, Err: err}
	}

	cfg, err := decode(path, data)
	if err != nil {
		return tetris.Configuration{}, &ParseError{Path: path, Err: err}
	}
	return cfg, nil
}

// Discover lists configuration files in dir whose name starts with prefix,
// sorted by name.
func Discover(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// build validates raw quantities and assigns positional IDs.
func build(number int, cores, ram []*int) (tetris.Configuration, error) {
	cfg := tetris.Configuration{Number: number, Items: make([]tetris.Item, 0, len(cores))}
	for i := range cores {
		if cores[i] == nil || ram[i] == nil {
			return tetris.Configuration{}, fmt.Errorf("item %d: missing core or ram quantity", i)
		}
		if *cores[i] < 0 || *ram[i] < 0 {
			return tetris.Configuration{}, fmt.Errorf("item %d: negative quantity (cores=%d, ram=%d)", i, *cores[i], *ram[i])
		}
		cfg.Items = append(cfg.Items, tetris.Item{ID: i, Cores: *cores[i], RAM: *ram[i]})
	}
	return cfg, nil
}
