package tui

import (
	"fmt"
	"strings"

	"github.com/DrSkyle/rackfit/pkg/engine/report"
)

func (m Model) viewDetails() string {
	pair, it, ok := m.selected()
	if !ok {
		return ""
	}
	d := pair.Deployment

	s := strings.Builder{}
	s.WriteString(detailsHeaderStyle.Render(fmt.Sprintf("%s x %s", pair.RequestFile, pair.ServerFile)) + "\n")
	s.WriteString(fmt.Sprintf("Critical resource: %s\n", it.Critical))
	s.WriteString(fmt.Sprintf("Deployed: %d/%d   Rejected: %d\n", it.Deployed, it.Requests, it.Rejected))
	s.WriteString(fmt.Sprintf("Repairs: %d committed of %d attempted\n\n", it.RepairsCommitted, it.RepairsAttempted))

	s.WriteString(subtle.Render("SERVER UTILIZATION") + "\n")
	for _, srv := range m.capacity[pair.ServerFile].Items {
		load := d.Utilization[srv.ID]
		s.WriteString(fmt.Sprintf("  #%-3d cores %s %2d/%-3d\n", srv.ID, m.progress.ViewAs(ratio(load.Cores, srv.Cores)), load.Cores, srv.Cores))
		s.WriteString(fmt.Sprintf("       ram   %s %2d/%-3d\n", m.progress.ViewAs(ratio(load.RAM, srv.RAM)), load.RAM, srv.RAM))
	}

	var text strings.Builder
	if err := report.WriteText(&text, d); err != nil {
		text.WriteString(err.Error())
	}
	s.WriteString("\n" + strings.TrimRight(text.String(), "\n"))

	return detailsBoxStyle.Render(s.String())
}

func ratio(used, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(used) / float64(total)
}
