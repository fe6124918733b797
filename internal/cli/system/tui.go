package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if err := ctx.LoadOrInit(); err != nil {
		return err
	}

	// Perform automatic backup on TUI startup (after successful load)
	ctx.PerformAutomaticBackup()

	geocoder, err := ctx.GetGeocoder()
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(ctx.Store, geocoder, ctx.LookupTimeout()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
