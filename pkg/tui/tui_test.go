package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/DrSkyle/rackfit/pkg/engine/report"
	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() ([]report.Pair, map[string]tetris.Configuration, error) {
	servers := tetris.Configuration{Number: 1, Items: []tetris.Item{
		{ID: 0, Cores: 4, RAM: 4},
		{ID: 1, Cores: 4, RAM: 4},
	}}
	p := tetris.NewPacker(2, nil)

	full := p.Pack(tetris.Configuration{Number: 0, Items: []tetris.Item{{ID: 0, Cores: 2, RAM: 2}}}, servers)
	partial := p.Pack(tetris.Configuration{Number: 1, Items: []tetris.Item{
		{ID: 0, Cores: 3, RAM: 1}, {ID: 1, Cores: 3, RAM: 1}, {ID: 2, Cores: 2, RAM: 1},
	}}, servers)

	return []report.Pair{
			{RequestFile: "r00.xml", ServerFile: "s01.xml", Deployment: full},
			{RequestFile: "r01.xml", ServerFile: "s01.xml", Deployment: partial},
		},
		map[string]tetris.Configuration{"s01.xml": servers},
		nil
}

func loaded(t *testing.T, load Loader) Model {
	t.Helper()
	m := NewModel(load)
	pairs, capacity, err := load()
	next, _ := m.Update(resultMsg{pairs: pairs, capacity: capacity, err: err})
	return next.(Model)
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestLoadingView(t *testing.T) {
	m := NewModel(fixture)
	assert.Contains(t, m.View(), "Placing configuration pairs")
}

func TestListView(t *testing.T) {
	m := loaded(t, fixture)
	view := m.View()

	assert.Contains(t, view, "r00.xml")
	assert.Contains(t, view, "r01.xml")
	assert.Contains(t, view, "FULL")
	assert.Contains(t, view, "PARTIAL")
	assert.Contains(t, view, "2/3")
}

func TestNavigationClamps(t *testing.T) {
	m := loaded(t, fixture)

	m = press(m, "k")
	assert.Equal(t, 0, m.cursor)

	m = press(press(press(m, "j"), "j"), "j")
	assert.Equal(t, 1, m.cursor)
}

func TestDetailView(t *testing.T) {
	m := press(press(loaded(t, fixture), "j"), "enter")
	require.Equal(t, ViewStateDetail, m.state)

	view := m.View()
	assert.Contains(t, view, "r01.xml x s01.xml")
	assert.Contains(t, view, "Critical resource: cores")
	assert.Contains(t, view, "SERVER UTILIZATION")
	assert.Contains(t, view, "All VM deployed: False")

	m = press(m, "esc")
	assert.Equal(t, ViewStateList, m.state)
}

func TestPartialFilter(t *testing.T) {
	m := press(loaded(t, fixture), "f")

	require.Len(t, m.visible, 1)
	pair, _, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "r01.xml", pair.RequestFile)
	assert.NotContains(t, m.View(), "r00.xml")
}

func TestLoadError(t *testing.T) {
	m := loaded(t, func() ([]report.Pair, map[string]tetris.Configuration, error) {
		return nil, nil, errors.New("parse error in r07.xml")
	})
	assert.True(t, strings.Contains(m.View(), "parse error in r07.xml"))
}

func TestQuit(t *testing.T) {
	m := loaded(t, fixture)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View())
}
