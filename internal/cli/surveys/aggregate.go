package surveys

import (
	"fmt"
	"strings"

	"github.com/julianstephens/emomap/internal/aggregate"
	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/models"
)

type AggregateCmd struct {
	JSON bool `help:"Print aggregates as JSON."`
}

func (c *AggregateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	surveys := loadForView(ctx)
	groups := aggregate.Aggregate(surveys)

	if c.JSON {
		return writeJSON("", groups)
	}

	if len(groups) == 0 {
		fmt.Println("No survey responses yet.")
		return nil
	}

	for _, g := range groups {
		fmt.Printf("%-30s  %-20s  %d response(s)\n", g.Location, g.Coordinates, g.TotalResponses)

		var parts []string
		for _, t := range aggregate.Ranked(g) {
			e := models.EmotionOrUnknown(t.EmotionID)
			parts = append(parts, fmt.Sprintf("%s %s %d", e.Icon, e.Name, t.Total))
		}
		fmt.Printf("  %s\n", strings.Join(parts, " · "))
	}
	fmt.Printf("\n%d location(s) from %d submission(s)\n", len(groups), len(surveys))
	return nil
}
