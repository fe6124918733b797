package system

import (
	"fmt"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/validation"
)

type ValidateCmd struct{}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	surveys, err := ctx.Store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load submissions: %w", err)
	}

	result := validation.New().ValidateSurveys(surveys)
	fmt.Print(result.FormatReport())
	if !result.HasConflicts() {
		fmt.Println()
	}

	if result.HasBlocking() {
		return fmt.Errorf("validation failed with blocking conflicts")
	}
	return nil
}
