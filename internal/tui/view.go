package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/emomap/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateSurvey:
		content = m.viewSurvey()
	case constants.StateConfirmClear:
		content = m.viewConfirmClear()
	default:
		content = m.viewMap()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	tabs := []struct {
		title string
		state constants.SessionState
	}{
		{"Survey", constants.StateSurvey},
		{"Map", constants.StateMap},
	}

	var out []string
	for _, t := range tabs {
		active := m.state == t.state || (t.state == constants.StateMap && m.state == constants.StateConfirmClear)
		if active {
			out = append(out, activeTabStyle.Render(t.title))
		} else {
			out = append(out, inactiveTabStyle.Render(t.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) viewStatus() string {
	switch {
	case m.errMsg != "":
		return dangerStyle.Render(m.errMsg)
	case m.status != "":
		return m.status
	default:
		return ""
	}
}

func (m Model) viewSurvey() string {
	e := m.survey.Emotion()
	a := m.survey.Current()
	cur, total, pct := m.survey.Progress()

	progressLine := lipgloss.JoinHorizontal(lipgloss.Top,
		mutedStyle.Render(fmt.Sprintf("Question %d of %d", cur, total)),
		"  ",
		m.progress.ViewAs(float64(pct)/100),
		"  ",
		mutedStyle.Render(fmt.Sprintf("%d%%", pct)),
	)

	emotion := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Bold(true).Render(e.Name)
	question := fmt.Sprintf("%s  Where do you feel %s most strongly?", e.Icon, emotion)

	location := m.input.View()
	switch {
	case m.survey.LookupPending():
		location += " " + m.spinner.View() + " looking up…"
	case a.HasCoordinates:
		location += " " + successStyle.Render("✓ "+a.Coordinates.String())
	}

	filled := strings.Repeat("●", a.Intensity)
	empty := strings.Repeat("○", constants.MaxIntensity-a.Intensity)
	intensity := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render(filled) + mutedStyle.Render(empty)

	next := "Next"
	if m.survey.IsLast() {
		next = "Complete Survey"
	}
	nextStyle := mutedStyle
	if m.survey.CanProceed() {
		nextStyle = activeTabStyle
	}

	card := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		question,
		mutedStyle.Render("Think of a specific place where this emotion is most intense for you"),
		"",
		labelStyle.Render("Location"),
		location,
		"",
		labelStyle.Render(fmt.Sprintf("Intensity Level: %d/10", a.Intensity)),
		mutedStyle.Render("Mild ")+intensity+mutedStyle.Render(" Intense"),
		"",
		nextStyle.Render(next+" ⇥"),
	))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, progressLine, "", card))
}

func (m Model) viewMap() string {
	stats := m.mapCtrl.Stats()
	legend := m.mapCtrl.Legend()

	header := fmt.Sprintf("%d responses · %d locations · %s view",
		stats.Submissions, stats.Locations, m.mapCtrl.Mode())

	var swatches []string
	for _, e := range legend.Emotions {
		swatches = append(swatches,
			lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render("●")+" "+e.Name)
	}

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render(header),
		"",
		m.markers.View(),
		"",
		mutedStyle.Render(strings.Join(swatches, "  ")),
		mutedStyle.Render(legend.Caption),
	))
}

func (m Model) viewConfirmClear() string {
	return lipgloss.Place(m.width, max(m.height-4, 0),
		lipgloss.Center, lipgloss.Center,
		m.form.View(),
	)
}
