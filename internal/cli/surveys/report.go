package surveys

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/julianstephens/emomap/internal/aggregate"
	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/models"
)

const topLocations = 10

type ReportCmd struct {
	Raw   bool `help:"Print the markdown source instead of rendering it."`
	Width int  `help:"Word wrap width for rendered output." default:"100"`
}

func (c *ReportCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	surveys := loadForView(ctx)

	md := buildReport(surveys)
	if c.Raw {
		fmt.Print(md)
		return nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(c.Width),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	fmt.Print(out)
	return nil
}

func buildReport(surveys []models.SurveyData) string {
	var b strings.Builder
	sum := aggregate.Summarize(surveys)

	b.WriteString("# Emotion Map Report\n\n")
	if sum.Submissions == 0 {
		b.WriteString("No survey responses yet. Run `emomap survey` to add one.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**%d** responses · **%d** locations · **%d** answers\n\n", sum.Submissions, sum.Locations, sum.Responses)

	b.WriteString("## Emotions\n\n")
	b.WriteString("| Emotion | Answers | Avg intensity | Places |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, s := range sum.Emotions {
		fmt.Fprintf(&b, "| %s %s | %d | %.1f | %d |\n", s.Emotion.Icon, s.Emotion.Name, s.Responses, s.Average(), s.Locations)
	}

	groups := aggregate.Aggregate(surveys)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].TotalResponses > groups[j].TotalResponses
	})
	if len(groups) > topLocations {
		groups = groups[:topLocations]
	}

	b.WriteString("\n## Top locations\n\n")
	b.WriteString("| Location | Responses | Dominant emotion |\n")
	b.WriteString("|---|---:|---|\n")
	for _, g := range groups {
		dominant := "-"
		if t, ok := aggregate.Dominant(g); ok {
			e := models.EmotionOrUnknown(t.EmotionID)
			dominant = fmt.Sprintf("%s %s (%d)", e.Icon, e.Name, t.Total)
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", escapeCell(g.Location), g.TotalResponses, dominant)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
