package markerlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/emomap/internal/mapview"
)

type ToggleModeMsg struct{}

type ClearMsg struct{}

type NewSurveyMsg struct{}

type Item struct {
	Marker mapview.Marker
}

func (i Item) Title() string {
	return fmt.Sprintf("%s %s", i.Marker.Icon, i.Marker.Popup.Title)
}

func (i Item) Description() string {
	return fmt.Sprintf("%s | size %d | %s", i.Marker.Coordinates, i.Marker.Size, strings.Join(i.Marker.Popup.Lines, " · "))
}

func (i Item) FilterValue() string { return i.Marker.Popup.Title }

type KeyMap struct {
	Toggle    key.Binding
	Clear     key.Binding
	NewSurvey key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle mode"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear data"),
		),
		NewSurvey: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new survey"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(markers []mapview.Marker, width, height int) Model {
	l := list.New(toItems(markers), list.NewDefaultDelegate(), width, height)
	l.Title = "Markers"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.NewSurvey, keys.Clear}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.NewSurvey, keys.Clear}
	}

	return Model{list: l, keys: keys}
}

func toItems(markers []mapview.Marker) []list.Item {
	items := make([]list.Item, len(markers))
	for i, mk := range markers {
		items[i] = Item{Marker: mk}
	}
	return items
}

func (m *Model) SetMarkers(markers []mapview.Marker) {
	m.list.SetItems(toItems(markers))
}

// Selected returns the highlighted marker.
func (m Model) Selected() (mapview.Marker, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Marker, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Toggle):
			return m, func() tea.Msg { return ToggleModeMsg{} }
		case key.Matches(msg, m.keys.Clear):
			return m, func() tea.Msg { return ClearMsg{} }
		case key.Matches(msg, m.keys.NewSurvey):
			return m, func() tea.Msg { return NewSurveyMsg{} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No survey responses yet.\n  Press 'n' to take the survey."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
