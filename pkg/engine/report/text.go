// Package report renders deployments for humans and for export.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
)

// ErrWrite wraps any failure to emit a report.
var ErrWrite = errors.New("failed to write report")

// WriteText renders d in the classic deployment layout:
//
//	Request configuration: 0, server configuration: 1
//	0 -> 1
//	------------------------
//	Number of deployed VM: 1
//	All VM deployed: True
//	------------------------
func WriteText(w io.Writer, d *tetris.Deployment) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Request configuration: %d, server configuration: %d\n", d.RequestConfig, d.ServerConfig)

	ids := make([]int, 0, len(d.Mapping))
	for id := range d.Mapping {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(&buf, "%d -> %d\n", id, d.Mapping[id])
	}

	summary := fmt.Sprintf("Number of deployed VM: %d", d.DeployedCount)
	separator := strings.Repeat("-", len(summary))

	buf.WriteString(separator + "\n")
	buf.WriteString(summary + "\n")
	fmt.Fprintf(&buf, "All VM deployed: %s\n", titleBool(d.AllDeployed))
	buf.WriteString(separator + "\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
