package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/emomap/internal/aggregate"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateSubmissionID ConflictType = "duplicate_submission_id"
	ConflictInvalidSubmission     ConflictType = "invalid_submission"
	ConflictLabelAtManyPlaces     ConflictType = "label_at_many_places"
	ConflictCompletedBeforeAnswer ConflictType = "completed_before_answer"
	ConflictFutureTimestamp       ConflictType = "future_timestamp"
	ConflictOutOfOrder            ConflictType = "out_of_order"
)

// Conflict represents a problem found in stored submissions
type Conflict struct {
	Type        ConflictType
	Description string
	SurveyIDs   []string
	Items       []string // Location labels involved
}

// Blocking reports whether the conflict makes the data unusable rather than
// merely surprising.
func (c Conflict) Blocking() bool {
	switch c.Type {
	case ConflictDuplicateSubmissionID, ConflictInvalidSubmission:
		return true
	}
	return false
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// HasBlocking returns true if any conflict is blocking
func (vr *ValidationResult) HasBlocking() bool {
	for _, c := range vr.Conflicts {
		if c.Blocking() {
			return true
		}
	}
	return false
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		marker := "-"
		if c.Blocking() {
			marker = "!"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, c.Description)
	}
	return b.String()
}

// Validator checks stored submissions for conflicts
type Validator struct {
	now func() time.Time
	// skew tolerates clocks that disagree slightly.
	skew time.Duration
}

func New() *Validator {
	return &Validator{now: time.Now, skew: 5 * time.Minute}
}

// WithClock replaces the time source used for future-timestamp checks.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// ValidateSurveys checks submissions in append order.
func (v *Validator) ValidateSurveys(surveys []models.SurveyData) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	idCount := make(map[string]int)
	var ids []string
	for _, s := range surveys {
		if idCount[s.ID] == 0 {
			ids = append(ids, s.ID)
		}
		idCount[s.ID]++
	}
	for _, id := range ids {
		if n := idCount[id]; n > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateSubmissionID,
				Description: fmt.Sprintf("Submission ID %q appears %d times", id, n),
				SurveyIDs:   []string{id},
			})
		}
	}

	limit := v.now().Add(v.skew).UnixMilli()
	for i, s := range surveys {
		if err := s.Validate(); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidSubmission,
				Description: fmt.Sprintf("Submission %s is invalid: %v", s.ID, err),
				SurveyIDs:   []string{s.ID},
			})
		}

		if s.CompletedAt > limit {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictFutureTimestamp,
				Description: fmt.Sprintf("Submission %s completes in the future (%s)", s.ID, formatMillis(s.CompletedAt)),
				SurveyIDs:   []string{s.ID},
			})
		}

		for _, r := range s.Responses {
			if r.Timestamp > s.CompletedAt {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictCompletedBeforeAnswer,
					Description: fmt.Sprintf("Submission %s was completed before its %s answer", s.ID, r.EmotionID),
					SurveyIDs:   []string{s.ID},
				})
				break
			}
		}

		if i > 0 && s.CompletedAt < surveys[i-1].CompletedAt {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictOutOfOrder,
				Description: fmt.Sprintf("Submission %s completed before the one stored ahead of it (%s)", s.ID, surveys[i-1].ID),
				SurveyIDs:   []string{surveys[i-1].ID, s.ID},
			})
		}
	}

	result.Conflicts = append(result.Conflicts, labelConflicts(surveys)...)
	return result
}

// labelConflicts finds location labels that were geocoded to more than one
// place. Such answers show up as separate markers because grouping is by
// exact coordinates.
func labelConflicts(surveys []models.SurveyData) []Conflict {
	places := make(map[string]map[string]bool)
	labels := make(map[string]string)
	for _, s := range surveys {
		for _, r := range s.Responses {
			label := strings.ToLower(strings.TrimSpace(r.Location))
			if label == "" {
				continue
			}
			if places[label] == nil {
				places[label] = make(map[string]bool)
				labels[label] = r.Location
			}
			places[label][aggregate.CoordinateKey(r.Coordinates)] = true
		}
	}

	var keys []string
	for k, p := range places {
		if len(p) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []Conflict
	for _, k := range keys {
		out = append(out, Conflict{
			Type:        ConflictLabelAtManyPlaces,
			Description: fmt.Sprintf("Location %q was resolved to %d different coordinates", labels[k], len(places[k])),
			Items:       []string{labels[k]},
		})
	}
	return out
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format(constants.DateFormat + " 15:04")
}
