package surveys

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/geocode"
	"github.com/julianstephens/emomap/internal/models"
	"github.com/julianstephens/emomap/internal/survey"
)

type SurveyCmd struct {
	Answer []string `short:"a" help:"Answer as emotion=location[@intensity], once per emotion. Omit to answer interactively."`
}

type answer struct {
	location  string
	intensity int
}

func (c *SurveyCmd) Run(ctx *cli.Context) error {
	if err := ctx.LoadOrInit(); err != nil {
		return err
	}
	geocoder, err := ctx.GetGeocoder()
	if err != nil {
		return err
	}

	ctrl := survey.New(ctx.Store)
	if len(c.Answer) > 0 {
		answers, err := parseAnswers(c.Answer)
		if err != nil {
			return err
		}
		if err := runScripted(ctrl, geocoder, answers, ctx.LookupTimeout()); err != nil {
			return err
		}
	} else if err := runInteractive(ctrl, geocoder, ctx.LookupTimeout()); err != nil {
		return err
	}

	sub, _ := ctrl.Submission()
	fmt.Printf("✓ Survey %s saved (%d responses)\n", sub.ID, len(sub.Responses))
	return nil
}

// parseAnswers requires exactly one answer per catalog emotion.
func parseAnswers(raw []string) (map[string]answer, error) {
	out := make(map[string]answer, len(raw))
	for _, r := range raw {
		id, rest, ok := strings.Cut(r, "=")
		id = strings.ToLower(strings.TrimSpace(id))
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid answer %q, want emotion=location[@intensity]", r)
		}
		if _, known := models.LookupEmotion(id); !known {
			return nil, fmt.Errorf("unknown emotion %q", id)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("emotion %q answered twice", id)
		}

		a := answer{location: strings.TrimSpace(rest), intensity: constants.DefaultIntensity}
		if i := strings.LastIndex(rest, "@"); i >= 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(rest[i+1:])); err == nil {
				if n < constants.MinIntensity || n > constants.MaxIntensity {
					return nil, fmt.Errorf("intensity for %s must be between %d and %d, got %d", id, constants.MinIntensity, constants.MaxIntensity, n)
				}
				a.location = strings.TrimSpace(rest[:i])
				a.intensity = n
			}
		}
		if a.location == "" {
			return nil, fmt.Errorf("location for %s cannot be empty", id)
		}
		out[id] = a
	}

	for _, e := range models.Catalog() {
		if _, ok := out[e.ID]; !ok {
			return nil, fmt.Errorf("missing answer for %s", e.ID)
		}
	}
	return out, nil
}

func lookup(ctrl *survey.Controller, g survey.Geocoder, timeout time.Duration) (models.Place, error) {
	lookupCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return ctrl.Lookup(lookupCtx, g)
}

func runScripted(ctrl *survey.Controller, g survey.Geocoder, answers map[string]answer, timeout time.Duration) error {
	for !ctrl.Done() {
		e := ctrl.Emotion()
		a := answers[e.ID]
		if err := ctrl.Apply(survey.SetLocation(a.location)); err != nil {
			return err
		}
		if _, err := lookup(ctrl, g, timeout); err != nil {
			return fmt.Errorf("%s: could not locate %q: %w", e.Name, a.location, err)
		}
		if err := ctrl.Apply(survey.SetIntensity(a.intensity)); err != nil {
			return err
		}
		if _, err := ctrl.Next(); err != nil {
			return err
		}
	}
	return nil
}

func runInteractive(ctrl *survey.Controller, g survey.Geocoder, timeout time.Duration) error {
	intensities := make([]huh.Option[int], 0, constants.MaxIntensity)
	for n := constants.MinIntensity; n <= constants.MaxIntensity; n++ {
		label := strconv.Itoa(n)
		switch n {
		case constants.MinIntensity:
			label += " (mild)"
		case constants.MaxIntensity:
			label += " (intense)"
		}
		intensities = append(intensities, huh.NewOption(label, n))
	}

	for !ctrl.Done() {
		e := ctrl.Emotion()
		cur, total, _ := ctrl.Progress()
		location := ctrl.Current().Location
		intensity := ctrl.Current().Intensity

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("%s  Where do you feel %s most strongly? (%d/%d)", e.Icon, e.Name, cur, total)).
					Description("Think of a specific place where this emotion is most intense for you").
					Value(&location).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("enter a location")
						}
						return nil
					}),
				huh.NewSelect[int]().
					Title("Intensity Level").
					Options(intensities...).
					Value(&intensity),
			),
		).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return fmt.Errorf("survey cancelled: %w", err)
		}

		if err := ctrl.Apply(survey.SetLocation(strings.TrimSpace(location))); err != nil {
			return err
		}
		if err := ctrl.Apply(survey.SetIntensity(intensity)); err != nil {
			return err
		}

		place, err := lookup(ctrl, g, timeout)
		switch {
		case errors.Is(err, geocode.ErrNoResult):
			fmt.Printf("No match for %q. Try a more specific place.\n", location)
			continue
		case err != nil:
			fmt.Printf("Location lookup failed: %v\n", err)
			continue
		}
		fmt.Printf("📍 %s (%s)\n", place.DisplayName, place.Coordinates)

		if _, err := ctrl.Next(); err != nil {
			return err
		}
	}
	return nil
}
