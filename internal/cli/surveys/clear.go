package surveys

import (
	"fmt"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/mapview"
)

type ClearCmd struct {
	Yes bool `short:"y" help:"Clear without asking for confirmation."`
}

// confirmClear is swapped in tests.
var confirmClear = func() bool {
	return cli.Confirm(constants.ClearConfirmationPrompt, "This cannot be undone.")
}

func (c *ClearCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	mc := mapview.New(ctx.Store)
	cleared, err := mc.ClearAll(func() bool {
		if !c.Yes && !confirmClear() {
			return false
		}
		ctx.PerformAutomaticBackup()
		return true
	})
	if err != nil {
		return err
	}
	if !cleared {
		fmt.Println("Clear cancelled.")
		return nil
	}
	fmt.Println("✓ All survey data cleared")
	return nil
}
