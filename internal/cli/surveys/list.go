package surveys

import (
	"fmt"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/models"
)

type ListCmd struct {
	JSON bool `help:"Print submissions as JSON."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	surveys := loadForView(ctx)

	if c.JSON {
		return writeJSON("", surveys)
	}

	if len(surveys) == 0 {
		fmt.Println("No survey responses yet.")
		return nil
	}

	for i, s := range surveys {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s  completed %s\n", s.ID, s.CompletedTime().Format("2006-01-02 15:04"))
		for _, r := range s.Responses {
			e := models.EmotionOrUnknown(r.EmotionID)
			fmt.Printf("  %s %-12s  %2d/10  %-30s  (%s)\n", e.Icon, e.Name, r.Intensity, r.Location, r.Coordinates)
		}
	}
	fmt.Printf("\n%d submission(s)\n", len(surveys))
	return nil
}
