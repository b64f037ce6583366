package configfile

import (
	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
)

//	number = 2
//	item {
//	  cores = 4
//	  ram   = 32 * gib
//	}
type hclConfiguration struct {
	Number int       `hcl:"number"`
	Items  []hclItem `hcl:"item,block"`
}

type hclItem struct {
	Cores int `hcl:"cores"`
	RAM   int `hcl:"ram"`
}

// RAM is counted in GiB; the unit variables let files spell larger sizes.
var hclUnits = &hcl.EvalContext{
	Variables: map[string]cty.Value{
		"gib": cty.NumberIntVal(1),
		"tib": cty.NumberIntVal(1024),
	},
}

func decodeHCL(path string, data []byte) (tetris.Configuration, error) {
	var doc hclConfiguration
	if err := hclsimple.Decode(path, data, hclUnits, &doc); err != nil {
		return tetris.Configuration{}, err
	}

	cores := make([]*int, len(doc.Items))
	ram := make([]*int, len(doc.Items))
	for i := range doc.Items {
		cores[i], ram[i] = &doc.Items[i].Cores, &doc.Items[i].RAM
	}
	return build(doc.Number, cores, ram)
}
