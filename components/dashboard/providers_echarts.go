package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

const (
	defaultChartHeight = "300px"
	tallChartHeight    = "450px"
	tallChartSeries    = 20
)

// Chart kinds understood by EChartsProvider. ChartTrend picks an area chart
// for one or two series and a line chart otherwise.
const (
	ChartTrend = "trend"
	ChartLine  = "line"
	ChartArea  = "area"
	ChartBar   = "bar"
)

var sharedChartCache = NewChartCache(5 * time.Minute)

type chartRenderContext struct {
	Viewer ViewerContext
	Theme  string
	Step   timeseries.Step
}

// ThemeResolver selects a chart theme per viewer.
type ThemeResolver func(ViewerContext) string

// EChartsProvider renders server-side chart HTML for the given chart kind.
type EChartsProvider struct {
	chartType     string
	cache         RenderCache
	theme         string
	themeResolver ThemeResolver
	assetsHost    string
}

// EChartsProviderOption customizes provider behavior.
type EChartsProviderOption func(*EChartsProvider)

// WithChartCache injects a render cache. A nil cache disables caching.
func WithChartCache(cache RenderCache) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.cache = cache
	}
}

// WithChartTheme sets a static theme (defaults to chalk).
func WithChartTheme(theme string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.theme = theme
	}
}

// WithChartThemeResolver resolves themes dynamically per viewer.
func WithChartThemeResolver(resolver ThemeResolver) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.themeResolver = resolver
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.assetsHost = host
	}
}

// NewEChartsProvider builds a provider for a specific chart kind.
func NewEChartsProvider(chartType string, opts ...EChartsProviderOption) *EChartsProvider {
	chartType = strings.ToLower(strings.TrimSpace(chartType))
	if chartType == "" {
		chartType = ChartTrend
	}
	p := &EChartsProvider{
		chartType: chartType,
		cache:     sharedChartCache,
		theme:     types.ThemeChalk,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *EChartsProvider) withChartType(chartType string) *EChartsProvider {
	clone := *p
	clone.chartType = strings.ToLower(chartType)
	return &clone
}

// Fetch converts widget configuration into go-echarts markup.
//
// Recognized keys: title, subtitle, x_axis (bucket labels), series
// ([{name, data}]), step and theme. With a step, x_axis entries are treated
// as bucket labels and turned into tick and tooltip labels.
func (p *EChartsProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg := meta.Instance.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}

	title := stringValue(cfg["title"], "Chart")
	subtitle := stringValue(cfg["subtitle"], "")

	if meta.Translator != nil {
		key := fmt.Sprintf("trendcharts.widget.%s.title", meta.Instance.DefinitionID)
		title = translateOrFallback(ctx, meta.Translator, key, meta.Viewer.Locale, title, nil)
	}

	series := parseChartSeries(cfg["series"])
	if len(series) == 0 {
		return nil, fmt.Errorf("chart series is required")
	}

	renderCtx := chartRenderContext{
		Viewer: meta.Viewer,
		Theme:  p.resolveTheme(meta.Viewer),
	}
	if override := strings.TrimSpace(stringValue(cfg["theme"], "")); override != "" {
		renderCtx.Theme = override
	}
	if raw := stringValue(cfg["step"], ""); raw != "" {
		step, err := timeseries.ParseStep(raw)
		if err != nil {
			return nil, err
		}
		renderCtx.Step = step
	}

	labels := stringSliceValue(cfg["x_axis"])
	if len(labels) == 0 {
		labels = inferredAxisLabels(series)
	}
	xAxis := labels
	if renderCtx.Step != "" {
		xAxis = tickLabels(renderCtx.Step, labels)
		nameSeriesPoints(series, renderCtx.Step, labels, meta.Viewer.Locale)
	}
	p.translateSeries(ctx, meta, series)

	kind := p.kind(len(series))
	renderFn := func() (string, error) {
		return p.render(kind, title, subtitle, xAxis, series, renderCtx)
	}

	var (
		html string
		err  error
	)
	if p.cache != nil {
		key := fmt.Sprintf("%s:%s:%s:%s:%s", meta.Instance.DefinitionID, meta.Instance.ID, kind, meta.Viewer.Locale, configHash(cfg))
		html, err = p.cache.GetOrRender(key, renderFn)
	} else {
		html, err = renderFn()
	}
	if err != nil {
		return nil, err
	}

	return WidgetData{
		"chart_html":   html,
		"chart_type":   kind,
		"chart_height": ChartHeight(len(series)),
		"title":        title,
		"subtitle":     subtitle,
		"theme":        renderCtx.Theme,
	}, nil
}

func (p *EChartsProvider) kind(seriesCount int) string {
	if p.chartType != ChartTrend {
		return p.chartType
	}
	if seriesCount > 2 {
		return ChartLine
	}
	return ChartArea
}

func (p *EChartsProvider) render(kind, title, subtitle string, xAxis []string, series []ChartSeries, ctx chartRenderContext) (string, error) {
	switch kind {
	case ChartBar:
		return p.renderBarChart(title, subtitle, xAxis, series, ctx)
	case ChartLine:
		return p.renderLineChart(title, subtitle, xAxis, series, ctx, false)
	case ChartArea:
		return p.renderLineChart(title, subtitle, xAxis, series, ctx, true)
	default:
		return "", fmt.Errorf("unsupported chart type: %s", kind)
	}
}

func (p *EChartsProvider) renderBarChart(title, subtitle string, xAxis []string, series []ChartSeries, ctx chartRenderContext) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(p.globalChartOptions(title, subtitle, len(xAxis), len(series), ctx)...)
	bar.SetXAxis(xAxis)
	for _, s := range series {
		bar.AddSeries(s.Name, toBarData(s.Points))
	}
	return renderChart(bar)
}

func (p *EChartsProvider) renderLineChart(title, subtitle string, xAxis []string, series []ChartSeries, ctx chartRenderContext, area bool) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(p.globalChartOptions(title, subtitle, len(xAxis), len(series), ctx)...)
	line.SetXAxis(xAxis)
	for _, s := range series {
		line.AddSeries(s.Name, toLineData(s.Points))
	}
	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
	}
	if area {
		seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}))
	}
	line.SetSeriesOptions(seriesOpts...)
	return renderChart(line)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *EChartsProvider) globalChartOptions(title, subtitle string, buckets, seriesCount int, ctx chartRenderContext) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  ctx.Theme,
		Width:  "100%",
		Height: ChartHeight(seriesCount),
	}
	if p.assetsHost != "" {
		initOpts.AssetsHost = p.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithColorsOpts(opts.Colors(SeriesPalette(seriesCount))),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Interval: strconv.Itoa(timeseries.AxisInterval(buckets))},
		}),
	}
}

func (p *EChartsProvider) resolveTheme(viewer ViewerContext) string {
	if p.themeResolver != nil {
		if theme := p.themeResolver(viewer); theme != "" {
			return theme
		}
	}
	if p.theme != "" {
		return p.theme
	}
	return types.ThemeChalk
}

func tickLabels(step timeseries.Step, labels []string) []string {
	out := make([]string, len(labels))
	for i, label := range labels {
		out[i] = timeseries.TickLabel(step, label)
	}
	return out
}

func nameSeriesPoints(series []ChartSeries, step timeseries.Step, labels []string, locale string) {
	for i := range series {
		for j := range series[i].Points {
			if series[i].Points[j].Label != "" || j >= len(labels) {
				continue
			}
			series[i].Points[j].Label = timeseries.TooltipLabel(step, labels[j], locale)
		}
	}
}

func toBarData(points []ChartPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, point := range points {
		data[i] = opts.BarData{
			Name:  point.Label,
			Value: point.Value,
		}
	}
	return data
}

func toLineData(points []ChartPoint) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, point := range points {
		data[i] = opts.LineData{
			Name:  point.Label,
			Value: point.Value,
		}
	}
	return data
}

// ChartSeries represents a set of values plotted for a given legend entry.
type ChartSeries struct {
	Name   string
	Points []ChartPoint
}

// ChartPoint represents an individual value (optionally labeled).
type ChartPoint struct {
	Label string
	Value float64
}

func parseChartSeries(v any) []ChartSeries {
	switch val := v.(type) {
	case []ChartSeries:
		out := make([]ChartSeries, len(val))
		for i, s := range val {
			out[i] = ChartSeries{Name: s.Name, Points: append([]ChartPoint(nil), s.Points...)}
		}
		return out
	case []map[string]any:
		out := make([]ChartSeries, 0, len(val))
		for _, item := range val {
			if series := buildSeries(item); len(series.Points) > 0 {
				out = append(out, series)
			}
		}
		return out
	case []any:
		out := make([]ChartSeries, 0, len(val))
		for _, item := range val {
			seriesMap, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if series := buildSeries(seriesMap); len(series.Points) > 0 {
				out = append(out, series)
			}
		}
		return out
	default:
		return nil
	}
}

func buildSeries(m map[string]any) ChartSeries {
	return ChartSeries{
		Name:   stringValue(m["name"], "Series"),
		Points: parseChartPoints(m["data"]),
	}
}

func parseChartPoints(v any) []ChartPoint {
	switch value := v.(type) {
	case []float64:
		points := make([]ChartPoint, len(value))
		for i, val := range value {
			points[i] = ChartPoint{Value: val}
		}
		return points
	case []int:
		points := make([]ChartPoint, len(value))
		for i, val := range value {
			points[i] = ChartPoint{Value: float64(val)}
		}
		return points
	case []any:
		points := make([]ChartPoint, 0, len(value))
		for _, item := range value {
			if m, ok := item.(map[string]any); ok {
				points = append(points, ChartPoint{
					Label: stringValue(m["name"], ""),
					Value: float64Value(m["value"]),
				})
				continue
			}
			points = append(points, ChartPoint{Value: float64Value(item)})
		}
		return points
	default:
		return nil
	}
}

func stringSliceValue(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func float64Value(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return 0
}

func boolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return false
	}
}

func (p *EChartsProvider) translateSeries(ctx context.Context, meta WidgetContext, series []ChartSeries) {
	if meta.Translator == nil {
		return
	}
	for i := range series {
		if series[i].Name == "" {
			continue
		}
		series[i].Name = translateOrFallback(ctx, meta.Translator, series[i].Name, meta.Viewer.Locale, series[i].Name, nil)
	}
}

func inferredAxisLabels(series []ChartSeries) []string {
	var candidate []string
	longest := 0
	for _, s := range series {
		if len(s.Points) <= longest {
			continue
		}
		longest = len(s.Points)
		candidate = make([]string, len(s.Points))
		for i, point := range s.Points {
			if point.Label != "" {
				candidate[i] = point.Label
			} else {
				candidate[i] = fmt.Sprintf("Item %d", i+1)
			}
		}
	}
	return candidate
}

func init() {
	RegisterWidgetHook(func(reg *Registry) error {
		providers := map[string]string{
			"trendcharts.widget.line_chart": ChartLine,
			"trendcharts.widget.area_chart": ChartArea,
			"trendcharts.widget.bar_chart":  ChartBar,
		}
		for code, chartType := range providers {
			if _, ok := reg.Provider(code); ok {
				continue
			}
			if _, ok := reg.Definition(code); !ok {
				continue
			}
			if err := reg.RegisterProvider(code, NewEChartsProvider(chartType)); err != nil {
				return err
			}
		}
		return nil
	})
}
