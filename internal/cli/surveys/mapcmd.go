package surveys

import (
	"bytes"
	"fmt"
	"os"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/mapview"
	"github.com/julianstephens/emomap/internal/models"
)

type MapCmd struct {
	Mode   string `help:"View mode: aggregate or individual." enum:"aggregate,individual" default:"aggregate"`
	Format string `help:"Output format." enum:"text,json,geojson,html" default:"text"`
	Output string `short:"o" help:"Write to a file instead of stdout." type:"path"`
}

func (c *MapCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	mode, err := mapview.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	mc := mapview.New(ctx.Store)
	if err := mc.SetMode(mode); err != nil {
		return err
	}
	if err := mc.Refresh(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ %v (showing an empty map)\n", err)
	}

	switch c.Format {
	case "json":
		return writeJSON(c.Output, struct {
			Mode     string           `json:"mode"`
			Stats    mapview.Stats    `json:"stats"`
			Legend   mapview.Legend   `json:"legend"`
			Viewport mapview.Viewport `json:"viewport"`
			Markers  []mapview.Marker `json:"markers"`
		}{string(mc.Mode()), mc.Stats(), mc.Legend(), mc.Viewport(), mc.Markers()})

	case "geojson":
		data, err := mapview.GeoJSON(mc.Markers())
		if err != nil {
			return err
		}
		return writeOutput(c.Output, append(data, '\n'))

	case "html":
		var buf bytes.Buffer
		if err := mapview.RenderHTML(&buf, mc.Page()); err != nil {
			return err
		}
		return writeOutput(c.Output, buf.Bytes())
	}

	var buf bytes.Buffer
	printMap(&buf, mc)
	return writeOutput(c.Output, buf.Bytes())
}

func printMap(buf *bytes.Buffer, mc *mapview.Controller) {
	stats := mc.Stats()
	fmt.Fprintf(buf, "Emotion Map · %d responses · %d locations · %s view\n\n", stats.Submissions, stats.Locations, mc.Mode())

	markers := mc.Markers()
	if len(markers) == 0 {
		fmt.Fprintln(buf, "No survey responses yet. Complete a survey to see the map.")
		return
	}
	for _, m := range markers {
		fmt.Fprintf(buf, "%s %s  (%s)  size %d\n", m.Icon, m.Popup.Title, m.Coordinates, m.Size)
		for _, l := range m.Popup.Lines {
			fmt.Fprintf(buf, "    %s\n", l)
		}
	}

	legend := mc.Legend()
	fmt.Fprintln(buf)
	for _, e := range legend.Emotions {
		fmt.Fprintf(buf, "%s %s (%s)  ", e.Icon, e.Name, e.Color)
	}
	fmt.Fprintf(buf, "\n%s\n", legend.Caption)
}

// ExportCmd writes the raw submissions in the same flat JSON array format
// the JSON store uses, so the file can be reopened with --config.
type ExportCmd struct {
	Output string `short:"o" help:"Destination file; stdout when omitted." type:"path"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	surveys, err := ctx.Store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load submissions: %w", err)
	}
	if surveys == nil {
		surveys = []models.SurveyData{}
	}
	return writeJSON(c.Output, surveys)
}
