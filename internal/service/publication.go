package service

import (
	"time"

	"github.com/nebioudaniel/family-academy-api/internal/models"
	appErrors "github.com/nebioudaniel/family-academy-api/pkg/errors"
)

// Publication intents a teacher can choose when saving a course.
const (
	ChoiceDraft    = "draft"
	ChoicePublish  = "publish"
	ChoiceSchedule = "schedule"
)

// Transition is the resolved outcome of a publication intent: the target
// status plus both dependent timestamps. Exactly one of the timestamps is
// set for PUBLISHED and SCHEDULED; both are nil for DRAFT.
type Transition struct {
	Status      models.CourseStatus
	PublishedAt *time.Time
	ScheduledAt *time.Time
}

// ResolveTransition maps an explicit publication intent onto the target
// status and its derived timestamps. The rules hold for both creation and
// edits:
//
//   - draft clears both timestamps;
//   - publish stamps PublishedAt with the supplied clock time, so
//     re-publishing an already published course refreshes it;
//   - schedule requires a date and carries it as ScheduledAt.
//
// An unknown choice or a schedule intent without a date is a validation
// error and must leave persisted state untouched.
func ResolveTransition(choice string, scheduledAt *time.Time, now time.Time) (Transition, error) {
	switch choice {
	case ChoiceDraft:
		return Transition{Status: models.StatusDraft}, nil
	case ChoicePublish:
		publishedAt := now.UTC()
		return Transition{Status: models.StatusPublished, PublishedAt: &publishedAt}, nil
	case ChoiceSchedule:
		if scheduledAt == nil {
			return Transition{}, appErrors.Clone(appErrors.ErrValidation, "schedule date is required")
		}
		at := scheduledAt.UTC()
		return Transition{Status: models.StatusScheduled, ScheduledAt: &at}, nil
	default:
		return Transition{}, appErrors.Clone(appErrors.ErrValidation, "unknown publication choice")
	}
}

// Apply writes the transition onto a course.
func (t Transition) Apply(course *models.Course) {
	course.Status = t.Status
	course.PublishedAt = t.PublishedAt
	course.ScheduledAt = t.ScheduledAt
}

// scheduleLayouts accepts both full RFC 3339 stamps and the second-less
// format produced by datetime-local form inputs.
var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseScheduleDate parses a caller-supplied schedule date. Empty input
// yields nil without error; the caller decides whether a date was required.
func ParseScheduleDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range scheduleLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "invalid schedule date")
}
