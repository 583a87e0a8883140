package dashboard

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// ComparisonTypeSuffix marks aggregation types the demo repository answers
// with a current/previous record pair.
const ComparisonTypeSuffix = "_comparison"

var demoBreakdownKeys = []string{"web", "mobile", "partner"}

var defaultProviders = map[string]Provider{
	WidgetTrend:      NewTrendChartProvider(DemoTrendRepository{}),
	WidgetComparison: NewTrendChartProvider(DemoTrendRepository{}),
	WidgetBreakdown:  NewTrendChartProvider(DemoTrendRepository{}),
}

// NewStaticTrendRepository returns a repository that always serves the provided payload.
func NewStaticTrendRepository(payload timeseries.Payload) TrendRepository {
	return staticTrendRepository{payload: payload}
}

type staticTrendRepository struct {
	payload timeseries.Payload
}

func (s staticTrendRepository) FetchTrend(context.Context, TrendQuery) (timeseries.Payload, error) {
	out := s.payload
	out.Current = append([]timeseries.Record(nil), s.payload.Current...)
	out.Previous = append([]timeseries.Record(nil), s.payload.Previous...)
	return out, nil
}

// DemoTrendRepository synthesizes sparse, deterministic aggregation data
// for local demos. Types ending in ComparisonTypeSuffix get both windows;
// a "source" param of "all" yields a per-source breakdown.
type DemoTrendRepository struct{}

// FetchTrend implements TrendRepository.
func (DemoTrendRepository) FetchTrend(_ context.Context, query TrendQuery) (timeseries.Payload, error) {
	cfg := query.Config
	period := max(cfg.Span(), 0)
	labels, err := timeseries.GenerateLabels(period, cfg.Step(), cfg.To())
	if err != nil {
		return timeseries.Payload{}, err
	}
	breakdown := cfg.Params()["source"] == ParamAll

	current := demoRecords(cfg.Type(), labels, breakdown)
	if strings.HasSuffix(cfg.Type(), ComparisonTypeSuffix) {
		prevLabels, err := timeseries.GenerateLabels(period, cfg.Step(), cfg.To().AddDate(0, 0, -period))
		if err != nil {
			return timeseries.Payload{}, err
		}
		return timeseries.Payload{
			Current:    current,
			Previous:   demoRecords(cfg.Type()+":prev", prevLabels, false),
			Comparison: true,
		}, nil
	}

	previous := demoRecords(cfg.Type()+":prev", labels, false)
	total := 0.0
	for _, record := range previous {
		total += record.Values[timeseries.FieldSum]
	}
	return timeseries.Payload{Current: current, PreviousTotal: total}, nil
}

func demoRecords(seed string, labels []string, breakdown bool) []timeseries.Record {
	records := make([]timeseries.Record, 0, len(labels))
	for _, label := range labels {
		h := demoHash(seed, label)
		if h%7 == 0 {
			continue
		}
		record := timeseries.NewRecord(label)
		if !breakdown {
			records = append(records, record.With(timeseries.FieldSum, float64(100+h%400)))
			continue
		}
		sum := 0.0
		parts := make([]float64, len(demoBreakdownKeys))
		for i, key := range demoBreakdownKeys {
			parts[i] = float64(demoHash(seed+key, label) % 150)
			sum += parts[i]
		}
		record = record.With(timeseries.FieldSum, sum)
		for i, key := range demoBreakdownKeys {
			record = record.With(key, parts[i])
		}
		records = append(records, record)
	}
	return records
}

func demoHash(seed, label string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(label))
	return h.Sum32()
}
