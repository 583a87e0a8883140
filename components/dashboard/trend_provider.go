package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// TrendChartProvider turns an aggregation payload into a densified trend
// chart with its headline delta.
//
// Widget configuration keys: type, title, keys, labels, with_relative,
// dynamic_keys, period, step, from, to, params, chart and theme. Two declared
// keys without dynamic_keys select comparison mode, where the payload carries
// the current and the previous window.
type TrendChartProvider struct {
	repo      TrendRepository
	renderer  *EChartsProvider
	snapshots SnapshotStore
	telemetry Telemetry
	now       func() time.Time
}

// TrendChartOption customizes a TrendChartProvider.
type TrendChartOption func(*TrendChartProvider)

// WithTrendRenderer replaces the chart renderer.
func WithTrendRenderer(renderer *EChartsProvider) TrendChartOption {
	return func(p *TrendChartProvider) {
		p.renderer = renderer
	}
}

// WithSnapshotStore keeps the last good result per instance so a failing
// upstream still yields a (stale) chart.
func WithSnapshotStore(store SnapshotStore) TrendChartOption {
	return func(p *TrendChartProvider) {
		p.snapshots = store
	}
}

// WithTrendTelemetry records fetch outcomes.
func WithTrendTelemetry(t Telemetry) TrendChartOption {
	return func(p *TrendChartProvider) {
		p.telemetry = t
	}
}

// WithClock overrides the time source used to anchor windows.
func WithClock(now func() time.Time) TrendChartOption {
	return func(p *TrendChartProvider) {
		p.now = now
	}
}

// NewTrendChartProvider builds a provider backed by the given repository.
func NewTrendChartProvider(repo TrendRepository, opts ...TrendChartOption) *TrendChartProvider {
	p := &TrendChartProvider{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.renderer == nil {
		p.renderer = NewEChartsProvider(ChartTrend)
	}
	p.telemetry = normalizeTelemetry(p.telemetry)
	return p
}

// trendSettings are the presentation parts of a widget configuration.
type trendSettings struct {
	Title        string
	Keys         []string
	Labels       []string
	WithRelative bool
	DynamicKeys  bool
	Chart        string
}

func (s trendSettings) comparison() bool {
	return len(s.Keys) == 2 && !s.DynamicKeys
}

func parseTrendSettings(cfg map[string]any) trendSettings {
	settings := trendSettings{
		Title:        stringValue(cfg["title"], ""),
		Keys:         stringSliceValue(cfg["keys"]),
		Labels:       stringSliceValue(cfg["labels"]),
		WithRelative: boolValue(cfg["with_relative"]),
		DynamicKeys:  boolValue(cfg["dynamic_keys"]),
		Chart:        stringValue(cfg["chart"], ""),
	}
	if len(settings.Keys) == 0 {
		settings.Keys = []string{timeseries.FieldSum}
	}
	return settings
}

// Fetch renders the trend widget.
func (p *TrendChartProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	if p.repo == nil {
		return nil, fmt.Errorf("trend chart provider: repository is required")
	}

	cfg := meta.Instance.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}
	settings := parseTrendSettings(cfg)
	query, err := QueryConfigFromWidget(cfg, p.now())
	if err != nil {
		return nil, fmt.Errorf("trend chart provider: %w", err)
	}

	view, err := p.load(ctx, meta, settings, query)
	if err != nil {
		p.telemetry.Record(ctx, EventChartFailed, map[string]any{
			"instance": snapshotKey(meta.Instance),
			"type":     query.Type(),
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("trend chart provider: %w", err)
	}

	data, err := p.render(ctx, meta, settings, query, view)
	if err != nil {
		return nil, err
	}
	event := EventChartFetched
	if view.Stale {
		event = EventChartStale
	}
	p.telemetry.Record(ctx, event, map[string]any{
		"instance": snapshotKey(meta.Instance),
		"type":     query.Type(),
		"step":     query.Step().String(),
		"buckets":  len(view.Result.Series),
		"series":   len(view.Keys),
	})
	return data, nil
}

// trendView is a prepared result plus the keys/labels to plot.
type trendView struct {
	Result      timeseries.Result
	Keys        []string
	Labels      []string
	Stale       bool
	Placeholder bool
}

func (p *TrendChartProvider) load(ctx context.Context, meta WidgetContext, settings trendSettings, query QueryConfig) (trendView, error) {
	if !query.Ready() {
		return p.placeholder(settings, query)
	}

	payload, err := p.repo.FetchTrend(ctx, TrendQuery{Config: query, Viewer: meta.Viewer})
	if err != nil {
		if view, ok := p.lastGood(ctx, meta, settings); ok {
			return view, nil
		}
		return trendView{}, err
	}

	view, err := prepareTrend(payload, settings, query)
	if err != nil {
		return trendView{}, err
	}
	if p.snapshots != nil {
		if err := p.snapshots.Save(ctx, snapshotKey(meta.Instance), view.Result); err != nil {
			p.telemetry.Record(ctx, EventSnapshotError, map[string]any{
				"instance": snapshotKey(meta.Instance),
				"error":    err.Error(),
			})
		}
	}
	return view, nil
}

func (p *TrendChartProvider) placeholder(settings trendSettings, query QueryConfig) (trendView, error) {
	fields := settings.Keys
	if settings.DynamicKeys {
		fields = nil
	}
	series, err := timeseries.Placeholder(max(query.Span(), 0), query.Step(), query.To(), fields)
	if err != nil {
		return trendView{}, err
	}
	keys := fields
	if len(keys) == 0 {
		keys = []string{timeseries.FieldSum, timeseries.FieldPrevSum}
	}
	return trendView{
		Result:      timeseries.Result{Series: series, PreviousTotal: timeseries.Unavailable, Fields: keys},
		Keys:        keys,
		Labels:      timeseries.SeriesLabels(settings.Keys, settings.Labels, keys, false),
		Placeholder: true,
	}, nil
}

func (p *TrendChartProvider) lastGood(ctx context.Context, meta WidgetContext, settings trendSettings) (trendView, bool) {
	if p.snapshots == nil {
		return trendView{}, false
	}
	result, ok, err := p.snapshots.Load(ctx, snapshotKey(meta.Instance))
	if err != nil {
		p.telemetry.Record(ctx, EventSnapshotError, map[string]any{
			"instance": snapshotKey(meta.Instance),
			"error":    err.Error(),
		})
		return trendView{}, false
	}
	if !ok {
		return trendView{}, false
	}
	view := trendView{Result: result, Stale: true}
	view.Keys, view.Labels = plotKeys(settings, result.Fields)
	return view, true
}

// prepareTrend shapes a payload according to the widget settings.
func prepareTrend(payload timeseries.Payload, settings trendSettings, query QueryConfig) (trendView, error) {
	period, step, end := query.Span(), query.Step(), query.To()

	if settings.comparison() && payload.Comparison {
		result, err := timeseries.PrepareComparison(payload.Current, payload.Previous, period, step, end)
		if err != nil {
			return trendView{}, err
		}
		return trendView{
			Result: result,
			Keys:   []string{timeseries.FieldSum, timeseries.FieldPrevSum},
			Labels: timeseries.SeriesLabels(settings.Keys, settings.Labels, settings.Keys, false),
		}, nil
	}
	if payload.Comparison {
		return trendView{}, goerrors.New("comparison payload for a widget that does not compare periods", goerrors.CategoryBadInput).
			WithTextCode("UNEXPECTED_PAYLOAD_SHAPE")
	}

	fields := settings.Keys
	if settings.DynamicKeys {
		fields = timeseries.DiscoverKeys(payload.Current)
	}
	result, err := timeseries.PrepareWithDelta(payload.Current, payload.PreviousTotal, period, step, end, fields)
	if err != nil {
		return trendView{}, err
	}
	view := trendView{Result: result}
	view.Keys, view.Labels = plotKeys(settings, result.Fields)
	return view, nil
}

// plotKeys picks the keys to plot and their legend labels. Discovered keys
// are rearranged and relabeled the way the widget declares them.
func plotKeys(settings trendSettings, fields []string) ([]string, []string) {
	if !settings.DynamicKeys {
		keys := settings.Keys
		if settings.comparison() {
			keys = []string{timeseries.FieldSum, timeseries.FieldPrevSum}
		}
		return keys, timeseries.SeriesLabels(settings.Keys, settings.Labels, keys, false)
	}
	keys := timeseries.ArrangeKeys(settings.Keys, settings.Labels, fields)
	return keys, timeseries.SeriesLabels(settings.Keys, settings.Labels, keys, true)
}

func (p *TrendChartProvider) render(ctx context.Context, meta WidgetContext, settings trendSettings, query QueryConfig, view trendView) (WidgetData, error) {
	labels := view.Result.Series.Labels()
	series := make([]map[string]any, len(view.Keys))
	for i, key := range view.Keys {
		name := key
		if i < len(view.Labels) && view.Labels[i] != "" {
			name = view.Labels[i]
		}
		series[i] = map[string]any{
			"name": name,
			"data": view.Result.Series.Values(key),
		}
	}

	title := settings.Title
	if title == "" {
		title = query.Type()
	}

	renderer := p.renderer
	if settings.Chart != "" && settings.Chart != renderer.chartType {
		renderer = renderer.withChartType(settings.Chart)
	}

	temp := meta
	temp.Instance.Configuration = map[string]any{
		"title":  title,
		"x_axis": labels,
		"series": series,
		"step":   query.Step().String(),
		"theme":  configValue(meta, "theme"),
	}
	data, err := renderer.Fetch(ctx, temp)
	if err != nil {
		return nil, err
	}

	data["delta"] = view.Result.DeltaText
	data["delta_class"] = DeltaClass(view.Result.DeltaText)
	data["current_total"] = view.Result.CurrentTotal
	data["previous_total"] = view.Result.PreviousTotal
	data["stale"] = view.Stale
	data["placeholder"] = view.Placeholder
	data["keys"] = view.Keys
	data["labels"] = labels
	data["step_name"] = StepName(ctx, meta.Translator, query.Step(), meta.Viewer.Locale)
	data["period_name"] = PeriodName(ctx, meta.Translator, query.Period(), meta.Viewer.Locale)
	data["custom_range"] = query.Custom()
	data["query"] = query.RequestParams()
	if settings.WithRelative {
		data["relative"] = relativeShares(view.Result.Series, view.Keys)
	}
	return data, nil
}

func configValue(meta WidgetContext, key string) any {
	if meta.Instance.Configuration == nil {
		return nil
	}
	return meta.Instance.Configuration[key]
}

// relativeShares renders each key's value as "value (share%)" of the bucket
// sum, or "0 (0%)" for an empty bucket.
func relativeShares(series timeseries.Series, keys []string) map[string][]string {
	out := make(map[string][]string, len(keys))
	for _, key := range keys {
		values := make([]string, len(series))
		for i, bucket := range series {
			sum := bucket.Value(timeseries.FieldSum)
			if sum <= 0 {
				values[i] = "0 (0%)"
				continue
			}
			value := bucket.Value(key)
			values[i] = fmt.Sprintf("%s (%s%%)", formatNumber(value), timeseries.FormatFixed(value/sum*100, 2))
		}
		out[key] = values
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func snapshotKey(instance WidgetInstance) string {
	if instance.ID != "" {
		return instance.ID
	}
	return instance.DefinitionID
}
