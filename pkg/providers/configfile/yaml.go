package configfile

import (
	"errors"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"gopkg.in/yaml.v3"
)

type yamlConfiguration struct {
	Number *int `yaml:"n"`
	Items  []struct {
		Cores *int `yaml:"cores"`
		RAM   *int `yaml:"ram"`
	} `yaml:"items"`
}

func decodeYAML(_ string, data []byte) (tetris.Configuration, error) {
	var doc yamlConfiguration
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return tetris.Configuration{}, err
	}
	if doc.Number == nil {
		return tetris.Configuration{}, errors.New("missing configuration number (n)")
	}

	cores := make([]*int, len(doc.Items))
	ram := make([]*int, len(doc.Items))
	for i, it := range doc.Items {
		cores[i], ram[i] = it.Cores, it.RAM
	}
	return build(*doc.Number, cores, ram)
}
