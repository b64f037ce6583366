package tui

import (
	"fmt"
	"strings"
)

func (m Model) viewList() string {
	s := strings.Builder{}

	if len(m.visible) == 0 {
		if m.onlyPartial {
			return "\n   " + special.Render("Every pair fully deployed.") + "\n"
		}
		return "\n   " + subtle.Render("No configuration pairs.") + "\n"
	}

	start, end := m.calculateWindow(len(m.visible))

	header := fmt.Sprintf("  %-12s | %-12s | %-8s | %-9s | %-7s | %s", "REQUESTS", "SERVERS", "CRITICAL", "DEPLOYED", "REPAIRS", "STATUS")
	s.WriteString(subtle.Render(header) + "\n")
	if m.onlyPartial {
		s.WriteString(warning.Render("   [FILTER: partial]") + "\n")
	} else {
		s.WriteString(subtle.Render("  "+strings.Repeat("─", 72)) + "\n")
	}

	for i := start; i < end; i++ {
		it := m.items[m.visible[i]]

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		status := special.Render("FULL")
		if !it.AllDeployed {
			status = warning.Render("PARTIAL")
			if it.Deployed == 0 && it.Requests > 0 {
				status = danger.Render("NONE")
			}
		}

		line := cursor + fmt.Sprintf("%-12s | %-12s | %-8s | %-9s | %-7d | ",
			truncate(it.RequestFile, 12),
			truncate(it.ServerFile, 12),
			it.Critical,
			fmt.Sprintf("%d/%d", it.Deployed, it.Requests),
			it.RepairsCommitted,
		)

		if i == m.cursor {
			s.WriteString(listSelectedStyle.Render(line) + status + "\n")
		} else {
			s.WriteString(listNormalStyle.Render(line) + status + "\n")
		}
	}

	return s.String()
}

func (m Model) calculateWindow(total int) (int, int) {
	windowSize := m.height - 6
	if windowSize < 5 {
		windowSize = 5
	}

	start := m.cursor - (windowSize / 2)
	if start < 0 {
		start = 0
	}

	end := start + windowSize
	if end > total {
		end = total
		start = end - windowSize
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
