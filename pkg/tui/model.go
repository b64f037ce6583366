// Package tui is an interactive browser over the results of a placement run.
package tui

import (
	"github.com/DrSkyle/rackfit/pkg/engine/report"
	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type ViewState int

const (
	ViewStateList ViewState = iota
	ViewStateDetail
)

// Loader produces the pairs to browse and the server configurations by file.
type Loader func() ([]report.Pair, map[string]tetris.Configuration, error)

type resultMsg struct {
	pairs    []report.Pair
	capacity map[string]tetris.Configuration
	err      error
}

type Model struct {
	spinner  spinner.Model
	progress progress.Model
	load     Loader

	state    ViewState
	loading  bool
	quitting bool
	err      error
	width    int
	height   int

	pairs    []report.Pair
	items    []report.ExportItem
	capacity map[string]tetris.Configuration

	// visible holds indexes into pairs after filtering.
	visible     []int
	onlyPartial bool
	cursor      int
}

func NewModel(load Loader) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = special

	return Model{
		spinner:  s,
		progress: progress.New(progress.WithGradient("#00FF99", "#00CCFF"), progress.WithWidth(30)),
		load:     load,
		loading:  true,
		state:    ViewStateList,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	load := m.load
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			pairs, capacity, err := load()
			return resultMsg{pairs: pairs, capacity: capacity, err: err}
		},
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.pairs = msg.pairs
		m.capacity = msg.capacity
		m.items = make([]report.ExportItem, len(msg.pairs))
		for i, p := range msg.pairs {
			m.items[i] = report.Items([]report.Pair{p}, msg.capacity)[0]
		}
		m.refilter()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		case "enter", " ":
			if len(m.visible) > 0 {
				m.state = ViewStateDetail
			}
		case "esc", "backspace":
			m.state = ViewStateList
		case "f":
			m.onlyPartial = !m.onlyPartial
			m.refilter()
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if w := msg.Width - 40; w > 10 && w < 60 {
			m.progress.Width = w
		}

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refilter rebuilds visible and resets navigation.
func (m *Model) refilter() {
	m.visible = m.visible[:0]
	for i, it := range m.items {
		if m.onlyPartial && it.AllDeployed {
			continue
		}
		m.visible = append(m.visible, i)
	}
	m.cursor = 0
	m.state = ViewStateList
}

func (m Model) selected() (report.Pair, report.ExportItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return report.Pair{}, report.ExportItem{}, false
	}
	i := m.visible[m.cursor]
	return m.pairs[i], m.items[i], true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return "\n   " + danger.Render("Placement failed: ") + m.err.Error() + "\n"
	}
	if m.loading {
		return "\n\n   " + m.spinner.View() + " Placing configuration pairs..."
	}

	var body string
	if m.state == ViewStateDetail {
		body = m.viewDetails()
	} else {
		body = m.viewList()
	}

	footer := subtle.Render("  j/k move • enter details • esc back • f partial only • q quit")
	return titleStyle.Render("RACKFIT") + "\n" + body + "\n" + footer + "\n"
}
