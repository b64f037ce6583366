// Package dataset generates random request and server configurations in the
// XML layout read by configfile.
package dataset

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/DrSkyle/rackfit/pkg/providers/configfile"
)

// Range is an inclusive integer interval.
type Range struct {
	Min, Max int
}

func (r Range) draw(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

// Profile describes how one kind of item is drawn.
type Profile struct {
	Element string
	Prefix  string
	Size    Range // items per file
	Cores   Range
	RAM     Range
}

var (
	// VMProfile draws request files.
	VMProfile = Profile{Element: "vm", Prefix: "r", Size: Range{10, 20}, Cores: Range{1, 4}, RAM: Range{4, 16}}
	// ServerProfile draws server files.
	ServerProfile = Profile{Element: "serv", Prefix: "s", Size: Range{5, 10}, Cores: Range{4, 16}, RAM: Range{16, 64}}
)

// Options controls Generate.
type Options struct {
	RequestFiles int
	ServerFiles  int
	// RequestSize and ServerSize fix the item count per file; 0 draws it.
	RequestSize int
	ServerSize  int
	Seed        uint64
}

// Generate wipes requestsDir and serversDir and fills them with fresh files
// named rNN.xml and sNN.xml. It returns the paths written.
func Generate(requestsDir, serversDir string, opts Options) ([]string, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	reqs, err := generate(rng, requestsDir, VMProfile, opts.RequestFiles, opts.RequestSize)
	if err != nil {
		return nil, err
	}
	srvs, err := generate(rng, serversDir, ServerProfile, opts.ServerFiles, opts.ServerSize)
	if err != nil {
		return nil, err
	}
	return append(reqs, srvs...), nil
}

func generate(rng *rand.Rand, dir string, p Profile, files, size int) ([]string, error) {
	if err := cleanDir(dir); err != nil {
		return nil, err
	}

	var paths []string
	for i := 0; i < files; i++ {
		n := size
		if n <= 0 {
			n = p.Size.draw(rng)
		}

		cfg := tetris.Configuration{Number: i, Items: make([]tetris.Item, n)}
		for j := range cfg.Items {
			cfg.Items[j] = tetris.Item{ID: j, Cores: p.Cores.draw(rng), RAM: p.RAM.draw(rng)}
		}

		data, err := configfile.EncodeXML(cfg, p.Element)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s%02d.xml", p.Prefix, i))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func cleanDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	old, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return err
	}
	for _, f := range old {
		if err := os.RemoveAll(f); err != nil {
			return fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	}
	return nil
}
