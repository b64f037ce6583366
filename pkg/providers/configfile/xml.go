package configfile

import (
	"encoding/xml"
	"errors"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
)

// <configuration n="0"><vm core_num="2" ram="8"/>...</configuration>
// Servers use <serv>; the element name is not checked.
type xmlConfiguration struct {
	XMLName xml.Name  `xml:"configuration"`
	Number  *int      `xml:"n,attr"`
	Items   []xmlItem `xml:",any"`
}

type xmlItem struct {
	XMLName xml.Name
	Cores   *int `xml:"core_num,attr"`
	RAM     *int `xml:"ram,attr"`
}

func decodeXML(_ string, data []byte) (tetris.Configuration, error) {
	var doc xmlConfiguration
	if err := xml.Unmarshal(data, &doc); err != nil {
		return tetris.Configuration{}, err
	}
	if doc.Number == nil {
		return tetris.Configuration{}, errors.New("configuration element has no n attribute")
	}

	cores := make([]*int, len(doc.Items))
	ram := make([]*int, len(doc.Items))
	for i, it := range doc.Items {
		cores[i], ram[i] = it.Cores, it.RAM
	}
	return build(*doc.Number, cores, ram)
}

// EncodeXML renders cfg as XML using element for each item.
func EncodeXML(cfg tetris.Configuration, element string) ([]byte, error) {
	doc := xmlConfiguration{Number: &cfg.Number}
	for _, it := range cfg.Items {
		c, r := it.Cores, it.RAM
		doc.Items = append(doc.Items, xmlItem{
			XMLName: xml.Name{Local: element},
			Cores:   &c,
			RAM:     &r,
		})
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
