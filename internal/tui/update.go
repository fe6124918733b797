package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/geocode"
	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/survey"
	"github.com/julianstephens/emomap/internal/tui/components/markerlist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(msg.Width-8, 60)
		m.markers.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQ) {
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.survey == nil || !m.survey.LookupPending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case lookupResultMsg:
		m.resolveLookup(msg)
		return m, nil

	case markerlist.ToggleModeMsg:
		mode := m.mapCtrl.Toggle()
		m.markers.SetMarkers(m.mapCtrl.Markers())
		m.status = fmt.Sprintf("Showing %s view", mode)
		return m, nil

	case markerlist.ClearMsg:
		m.newClearForm()
		return m, m.form.Init()

	case markerlist.NewSurveyMsg:
		m.startSurvey()
		return m, m.Init()
	}

	switch m.state {
	case constants.StateSurvey:
		return m.updateSurvey(msg)
	case constants.StateConfirmClear:
		return m.updateConfirmClear(msg)
	default:
		return m.updateMap(msg)
	}
}

func (m *Model) resolveLookup(msg lookupResultMsg) {
	if m.survey == nil || !m.survey.ResolveLookup(msg.token, msg.place, msg.err) {
		return
	}
	if msg.token.Step != m.survey.Step() {
		return
	}
	switch {
	case errors.Is(msg.err, geocode.ErrNoResult):
		m.errMsg = fmt.Sprintf("No match for %q. Try a more specific place.", msg.token.Query)
	case msg.err != nil:
		logger.Warn("Location lookup failed", "query", msg.token.Query, "error", msg.err)
		m.errMsg = "Location lookup failed. Check your connection and try again."
	default:
		m.errMsg = ""
		m.status = "📍 " + msg.place.DisplayName
	}
}

func (m Model) updateSurvey(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, m.keys.ShowMap):
		m.showMap()
		return m, nil

	case key.Matches(keyMsg, m.keys.Up), key.Matches(keyMsg, m.keys.Down):
		delta := 1
		if key.Matches(keyMsg, m.keys.Down) {
			delta = -1
		}
		_ = m.survey.Apply(survey.SetIntensity(m.survey.Current().Intensity + delta))
		return m, nil

	case key.Matches(keyMsg, m.keys.Previous):
		if m.survey.Previous() {
			m.syncInput()
			m.status, m.errMsg = "", ""
		}
		return m, m.progress.SetPercent(m.percent())

	case key.Matches(keyMsg, m.keys.Next):
		done, err := m.survey.Next()
		switch {
		case errors.Is(err, survey.ErrCannotProceed):
			m.errMsg = "Enter a location and press enter to look it up first."
			return m, nil
		case err != nil:
			m.errMsg = err.Error()
			return m, nil
		case done:
			sub, _ := m.survey.Submission()
			m.showMap()
			m.status = successStyle.Render(fmt.Sprintf("✓ Survey %s saved", sub.ID))
			return m, nil
		}
		m.syncInput()
		m.status, m.errMsg = "", ""
		return m, m.progress.SetPercent(m.percent())

	case key.Matches(keyMsg, m.keys.Lookup):
		tok, err := m.survey.BeginLookup()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, m.lookupCmd(tok))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != m.survey.Current().Location {
		_ = m.survey.Apply(survey.SetLocation(v))
		m.status = ""
	}
	return m, cmd
}

func (m Model) percent() float64 {
	_, _, pct := m.survey.Progress()
	return float64(pct) / 100
}

func (m Model) updateMap(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.markers, cmd = m.markers.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmClear(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = constants.StateMap
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		confirmed := *m.confirm
		cleared, err := m.mapCtrl.ClearAll(func() bool { return confirmed })
		switch {
		case err != nil:
			m.errMsg = err.Error()
		case cleared:
			m.status = "All survey data cleared"
		}
		m.showMap()
		return m, nil
	case huh.StateAborted:
		m.state = constants.StateMap
		return m, nil
	}
	return m, cmd
}
