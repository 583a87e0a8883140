package dashboard

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

const (
	// DefaultPeriod is the window length, in days, of a fresh query.
	DefaultPeriod = 30
	// RequestDateLayout is how from/to travel to the aggregation service.
	RequestDateLayout = "1/2/2006"
	// ParamAll is the value of an extra filter nobody narrowed.
	ParamAll = "all"
)

// PeriodPresets are the window lengths offered by the period picker.
var PeriodPresets = []int{7, 14, 30, 90, 180, 365}

// QueryConfig is the immutable description of one aggregation request.
// Every With* method returns a modified copy.
type QueryConfig struct {
	chartType string
	period    int
	step      timeseries.Step
	from      time.Time
	to        time.Time
	params    map[string]string
}

// NewQueryConfig builds the default query for chartType: a DefaultPeriod day
// window ending at now, stepped by day.
func NewQueryConfig(chartType string, now time.Time) QueryConfig {
	return QueryConfig{
		chartType: chartType,
		period:    DefaultPeriod,
		step:      timeseries.StepDay,
		from:      startOfDay(now).AddDate(0, 0, -DefaultPeriod),
		to:        now,
		params:    map[string]string{},
	}
}

func (q QueryConfig) Type() string               { return q.chartType }
func (q QueryConfig) Period() int                { return q.period }
func (q QueryConfig) Step() timeseries.Step      { return q.step }
func (q QueryConfig) From() time.Time            { return q.from }
func (q QueryConfig) To() time.Time              { return q.to }
func (q QueryConfig) Params() map[string]string { return maps.Clone(q.params) }

// WithType returns a copy querying another aggregation type.
func (q QueryConfig) WithType(chartType string) QueryConfig {
	out := q.clone()
	out.chartType = chartType
	return out
}

// WithStep returns a copy with another bucket step.
func (q QueryConfig) WithStep(step timeseries.Step) QueryConfig {
	out := q.clone()
	out.step = step
	return out
}

// WithPeriod returns a copy whose window is the given number of days ending
// at now. A non-positive period leaves the range untouched.
func (q QueryConfig) WithPeriod(days int, now time.Time) QueryConfig {
	out := q.clone()
	if days <= 0 {
		out.period = 0
		return out
	}
	out.period = days
	out.to = now
	out.from = startOfDay(now).AddDate(0, 0, -days)
	return out
}

// WithRange returns a copy covering [from, to]. A span that is not one of
// the presets turns the query into a custom range.
func (q QueryConfig) WithRange(from, to time.Time) QueryConfig {
	out := q.clone()
	out.from = from
	out.to = to
	if out.period != 0 && !slices.Contains(PeriodPresets, out.Span()) {
		out.period = 0
	}
	return out
}

// WithParam returns a copy with an extra aggregation filter. An empty value
// resets the filter to ParamAll.
func (q QueryConfig) WithParam(key, value string) QueryConfig {
	out := q.clone()
	if value == "" {
		value = ParamAll
	}
	out.params[key] = value
	return out
}

// Span is the number of whole calendar days between From and To, read in
// From's location. A DST shift inside the window does not shorten it.
func (q QueryConfig) Span() int {
	return wholeDays(q.from, q.to)
}

// wholeDays counts calendar days from a to b, minus one when b's wall-clock
// time of day is earlier than a's.
func wholeDays(a, b time.Time) int {
	if b.Before(a) {
		return -wholeDays(b, a)
	}
	b = b.In(a.Location())
	days := dayNumber(b) - dayNumber(a)
	if days > 0 && clockOf(b) < clockOf(a) {
		days--
	}
	return days
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func clockOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// Custom reports whether the range is not one of the period presets.
func (q QueryConfig) Custom() bool {
	return q.period == 0 || !slices.Contains(PeriodPresets, q.Span())
}

// Ready reports whether the range can be requested at all.
func (q QueryConfig) Ready() bool {
	return q.from.Before(q.to)
}

// RequestParams renders the query string parameters sent to the aggregation
// service.
func (q QueryConfig) RequestParams() map[string]string {
	out := make(map[string]string, len(q.params)+4)
	for key, value := range q.params {
		if value == "" {
			value = ParamAll
		}
		out[key] = value
	}
	out["from"] = q.from.Format(RequestDateLayout)
	out["to"] = q.to.Format(RequestDateLayout)
	out["type"] = q.chartType
	out["step"] = q.step.String()
	return out
}

func (q QueryConfig) clone() QueryConfig {
	out := q
	out.params = maps.Clone(q.params)
	if out.params == nil {
		out.params = map[string]string{}
	}
	return out
}

// QueryConfigFromWidget reads type, period, step, from, to and params out of
// a widget configuration.
func QueryConfigFromWidget(cfg map[string]any, now time.Time) (QueryConfig, error) {
	query := NewQueryConfig(stringValue(cfg["type"], ""), now)

	if raw, ok := cfg["step"]; ok && raw != nil {
		step, err := timeseries.ParseStep(fmt.Sprint(raw))
		if err != nil {
			return QueryConfig{}, err
		}
		query = query.WithStep(step)
	}

	if raw, ok := cfg["period"]; ok && raw != nil {
		days, err := intValue(raw)
		if err != nil || days < 0 {
			return QueryConfig{}, goerrors.New(fmt.Sprintf("period must be a non-negative number of days, got %v", raw), goerrors.CategoryBadInput).
				WithTextCode("INVALID_PERIOD")
		}
		query = query.WithPeriod(days, now)
	}

	from, hasFrom, err := timeValue(cfg["from"], now.Location())
	if err != nil {
		return QueryConfig{}, err
	}
	to, hasTo, err := timeValue(cfg["to"], now.Location())
	if err != nil {
		return QueryConfig{}, err
	}
	if hasFrom || hasTo {
		if !hasFrom {
			from = query.From()
		}
		if !hasTo {
			to = query.To()
		}
		query = query.WithRange(from, to)
	}

	for key, value := range paramsValue(cfg["params"]) {
		query = query.WithParam(key, value)
	}
	return query, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var acceptedDateLayouts = []string{time.RFC3339, time.DateOnly, RequestDateLayout, timeseries.LabelLayout}

func timeValue(v any, loc *time.Location) (time.Time, bool, error) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return val, true, nil
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			return time.Time{}, false, nil
		}
		for _, layout := range acceptedDateLayouts {
			if t, err := time.ParseInLocation(layout, val, loc); err == nil {
				return t, true, nil
			}
		}
		return time.Time{}, false, goerrors.New(fmt.Sprintf("unrecognized date %q", val), goerrors.CategoryBadInput).
			WithTextCode("INVALID_DATE")
	default:
		return time.Time{}, false, goerrors.New(fmt.Sprintf("unsupported date value %T", v), goerrors.CategoryBadInput).
			WithTextCode("INVALID_DATE")
	}
}

func intValue(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(val))
	default:
		if f := float64Value(v); f != 0 {
			return int(f), nil
		}
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func paramsValue(v any) map[string]string {
	out := map[string]string{}
	switch val := v.(type) {
	case map[string]string:
		maps.Copy(out, val)
	case map[string]any:
		for key, item := range val {
			if item == nil {
				out[key] = ""
				continue
			}
			out[key] = fmt.Sprint(item)
		}
	}
	return out
}
