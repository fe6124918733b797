package surveys

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/logger"
	"github.com/julianstephens/emomap/internal/models"
)

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return writeOutput(path, append(data, '\n'))
}

// loadForView returns every stored submission. A store that cannot be read
// is shown as empty, with the reason on stderr.
func loadForView(ctx *cli.Context) []models.SurveyData {
	surveys, err := ctx.Store.LoadAll()
	if err != nil {
		logger.Warn("Failed to read survey data, showing empty view", "error", err)
		fmt.Fprintf(os.Stderr, "⚠ %v (showing no responses)\n", err)
		return []models.SurveyData{}
	}
	if surveys == nil {
		surveys = []models.SurveyData{}
	}
	return surveys
}
