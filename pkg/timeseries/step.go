package timeseries

import (
	"fmt"
	"strings"
	"time"
)

// Step is the bucketing granularity of a series.
type Step string

const (
	StepDay   Step = "day"
	StepWeek  Step = "week"
	StepMonth Step = "month"
	StepYear  Step = "year"
)

// LabelLayout is the bucket label format (ru locale short date).
const LabelLayout = "02.01.2006"

// Steps lists the supported steps in display order.
func Steps() []Step {
	return []Step{StepDay, StepWeek, StepMonth, StepYear}
}

// ParseStep normalizes a raw step value.
func ParseStep(value string) (Step, error) {
	step := Step(strings.ToLower(strings.TrimSpace(value)))
	if !step.Valid() {
		return "", badInput(fmt.Sprintf("timeseries: unsupported step %q", value), "INVALID_STEP")
	}
	return step, nil
}

// Valid reports whether the step is one of the supported values.
func (s Step) Valid() bool {
	switch s {
	case StepDay, StepWeek, StepMonth, StepYear:
		return true
	}
	return false
}

func (s Step) String() string { return string(s) }

// Start canonicalizes t to the start of the bucket that contains it.
func (s Step) Start(t time.Time) time.Time {
	y, m, d := t.Date()
	switch s {
	case StepWeek:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(y, m, d-(weekday-1), 0, 0, 0, 0, t.Location())
	case StepMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	case StepYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
}

// Label returns the bucket label for t.
func (s Step) Label(t time.Time) string {
	return s.Start(t).Format(LabelLayout)
}

// Advance moves t forward by n step units. Month and year increments clamp
// to the last day of the target month instead of overflowing into the next.
func (s Step) Advance(t time.Time, n int) time.Time {
	switch s {
	case StepWeek:
		return t.AddDate(0, 0, 7*n)
	case StepMonth:
		return addMonths(t, n)
	case StepYear:
		return addMonths(t, 12*n)
	case StepDay:
		return t.AddDate(0, 0, n)
	default:
		return t
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// ParseLabel parses a bucket label in the location loc.
func ParseLabel(label string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(LabelLayout, strings.TrimSpace(label), loc)
	if err != nil {
		return time.Time{}, invalidDateLabel(label, err)
	}
	return t, nil
}
