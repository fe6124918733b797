package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/mapview"
	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/storage"
	"github.com/julianstephens/emomap/internal/survey"
	"github.com/julianstephens/emomap/internal/tui/components/markerlist"
)

// lookupResultMsg carries a finished geocoding request back to Update.
type lookupResultMsg struct {
	token survey.LookupToken
	place models.Place
	err   error
}

type Model struct {
	store         storage.Provider
	geocoder      survey.Geocoder
	lookupTimeout time.Duration

	state    constants.SessionState
	keys     KeyMap
	help     help.Model
	survey   *survey.Controller
	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	mapCtrl  *mapview.Controller
	markers  markerlist.Model

	form    *huh.Form
	confirm *bool

	status   string
	errMsg   string
	quitting bool
	width    int
	height   int
}

// NewModel opens on the map when submissions already exist and on a fresh
// survey otherwise. A store that cannot be read opens on the empty map with
// the error on the status line.
func NewModel(store storage.Provider, geocoder survey.Geocoder, lookupTimeout time.Duration) Model {
	if lookupTimeout <= 0 {
		lookupTimeout = constants.DefaultGeocodeTimeout
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	mc := mapview.New(store)
	readErr := mc.Refresh()

	m := Model{
		store:         store,
		geocoder:      geocoder,
		lookupTimeout: lookupTimeout,
		state:         constants.StateMap,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		spinner:       sp,
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		mapCtrl:       mc,
		markers:       markerlist.New(mc.Markers(), 0, 0),
		confirm:       new(bool),
	}
	switch {
	case readErr != nil:
		m.errMsg = "Could not read survey data: " + readErr.Error()
	case mc.Stats().Submissions == 0:
		m.startSurvey()
	}
	return m
}

func (m *Model) startSurvey() {
	m.survey = survey.New(m.store)
	m.input = textinput.New()
	m.input.Placeholder = "e.g., Central Park New York, My childhood home, Paris France..."
	m.input.CharLimit = 200
	m.input.Focus()
	m.state = constants.StateSurvey
	m.status = ""
	m.errMsg = ""
}

// syncInput shows the current step's saved location text.
func (m *Model) syncInput() {
	m.input.SetValue(m.survey.Current().Location)
	m.input.CursorEnd()
}

func (m *Model) showMap() {
	if err := m.mapCtrl.Refresh(); err != nil {
		m.errMsg = "Could not read survey data: " + err.Error()
	}
	m.markers.SetMarkers(m.mapCtrl.Markers())
	m.state = constants.StateMap
}

func (m *Model) newClearForm() {
	*m.confirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(constants.ClearConfirmationPrompt).
				Description("This permanently deletes every stored submission.").
				Affirmative("Clear").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithTheme(huh.ThemeDracula())
	m.state = constants.StateConfirmClear
}

func (m Model) lookupCmd(tok survey.LookupToken) tea.Cmd {
	g, timeout := m.geocoder, m.lookupTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		place, err := g.Geocode(ctx, tok.Query)
		return lookupResultMsg{token: tok, place: place, err: err}
	}
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case constants.StateSurvey:
		return []key.Binding{m.keys.Lookup, m.keys.Next, m.keys.Previous, m.keys.Up, m.keys.Down, m.keys.ShowMap}
	case constants.StateMap:
		k := markerlist.DefaultKeyMap()
		return []key.Binding{k.Toggle, k.NewSurvey, k.Clear, m.keys.Quit, m.keys.Help}
	default:
		return []key.Binding{m.keys.ForceQ}
	}
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.ForceQ, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateSurvey:
		return [][]key.Binding{
			{m.keys.Lookup, m.keys.Next, m.keys.Previous},
			{m.keys.Up, m.keys.Down, m.keys.ShowMap},
			{m.keys.ForceQ},
		}
	case constants.StateMap:
		k := markerlist.DefaultKeyMap()
		return [][]key.Binding{global, {k.Toggle, k.NewSurvey, k.Clear}}
	default:
		return [][]key.Binding{global}
	}
}

func (m Model) Init() tea.Cmd {
	if m.state == constants.StateSurvey {
		return textinput.Blink
	}
	return nil
}
