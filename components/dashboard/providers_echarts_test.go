package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEChartsBarProvider(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartBar, WithChartCache(nil))
	ctx := sampleChartContext(WidgetBarChart, map[string]any{
		"title":  "Test Chart",
		"x_axis": []string{"A", "B", "C"},
		"series": []map[string]any{
			{"name": "Series 1", "data": []float64{10, 20, 30}},
		},
	})

	data, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)

	assert.Equal(t, ChartBar, data["chart_type"])
	assert.Equal(t, "Test Chart", data["title"])
	assert.Equal(t, "300px", data["chart_height"])
	assert.Contains(t, html(data), "echarts")
}

func TestEChartsTrendPicksAreaForFewSeries(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartTrend, WithChartCache(nil))

	data, err := provider.Fetch(context.Background(), sampleChartContext(WidgetTrend, map[string]any{
		"series": []map[string]any{
			{"name": "Current", "data": []float64{1, 2}},
			{"name": "Previous", "data": []float64{2, 1}},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, ChartArea, data["chart_type"])
	assert.Contains(t, html(data), "areastyle")

	data, err = provider.Fetch(context.Background(), sampleChartContext(WidgetTrend, map[string]any{
		"series": []map[string]any{
			{"name": "web", "data": []float64{1, 2}},
			{"name": "mobile", "data": []float64{2, 1}},
			{"name": "partner", "data": []float64{0, 3}},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, ChartLine, data["chart_type"])
}

func TestEChartsProviderStepLabels(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartLine, WithChartCache(nil))
	ctx := sampleChartContext(WidgetLineChart, map[string]any{
		"title":  "Daily",
		"x_axis": []string{"06.02.2024", "07.02.2024"},
		"step":   "day",
		"series": []map[string]any{
			{"name": "sum", "data": []float64{3, 4}},
		},
	})

	data, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	markup := html(data)
	assert.Contains(t, markup, `"07.02"`)
	assert.Contains(t, markup, "07 february 2024")
}

func TestEChartsProviderRejectsUnknownStep(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartLine, WithChartCache(nil))
	ctx := sampleChartContext(WidgetLineChart, map[string]any{
		"step":   "hour",
		"series": []map[string]any{{"name": "sum", "data": []float64{1}}},
	})

	_, err := provider.Fetch(context.Background(), ctx)
	require.Error(t, err)
}

func TestEChartsProviderUsesSeriesPalette(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartLine, WithChartCache(nil))
	ctx := sampleChartContext(WidgetLineChart, map[string]any{
		"series": []map[string]any{{"name": "sum", "data": []float64{1, 2}}},
	})

	data, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	assert.Contains(t, html(data), SeriesPalette(1)[0])
}

func TestEChartsProviderTallCanvasForManySeries(t *testing.T) {
	t.Parallel()
	series := make([]map[string]any, 21)
	for i := range series {
		series[i] = map[string]any{"name": fmt.Sprintf("key%d", i), "data": []float64{float64(i)}}
	}
	provider := NewEChartsProvider(ChartTrend, WithChartCache(nil))

	data, err := provider.Fetch(context.Background(), sampleChartContext(WidgetBreakdown, map[string]any{"series": series}))
	require.NoError(t, err)
	assert.Equal(t, "450px", data["chart_height"])
	assert.Equal(t, ChartLine, data["chart_type"])
}

func TestEChartsProviderInvalidType(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider("bubble", WithChartCache(nil))
	ctx := sampleChartContext(WidgetBarChart, map[string]any{
		"title": "Unsupported",
		"series": []map[string]any{
			{"name": "Series", "data": []float64{1}},
		},
	})

	_, err := provider.Fetch(context.Background(), ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestEChartsProviderRequiresSeries(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartBar, WithChartCache(nil))

	_, err := provider.Fetch(context.Background(), sampleChartContext(WidgetBarChart, map[string]any{"title": "Empty"}))
	require.Error(t, err)
}

func TestEChartsProviderUsesCache(t *testing.T) {
	t.Parallel()
	cache := &countingCache{}
	provider := NewEChartsProvider(ChartBar, WithChartCache(cache))
	ctx := sampleChartContext(WidgetBarChart, map[string]any{
		"title":  "Cached",
		"series": []map[string]any{{"name": "Series", "data": []float64{1, 2}}},
	})

	_, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	_, err = provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&cache.calls))
}

func TestEChartsProviderThemeOverride(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartBar, WithChartCache(nil), WithChartThemeResolver(func(viewer ViewerContext) string {
		return types.ThemeWalden
	}))
	ctx := sampleChartContext(WidgetBarChart, map[string]any{
		"title": "Theme Override",
		"series": []map[string]any{
			{"name": "Series", "data": []float64{5, 6}},
		},
		"theme": "wonderland",
	})

	data, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	assert.Equal(t, "wonderland", data["theme"])
}

func TestEChartsProviderThemeDefaults(t *testing.T) {
	t.Parallel()
	ctx := sampleChartContext(WidgetBarChart, map[string]any{
		"series": []map[string]any{{"name": "Series", "data": []float64{1}}},
	})

	data, err := NewEChartsProvider(ChartBar, WithChartCache(nil)).Fetch(context.Background(), ctx)
	require.NoError(t, err)
	assert.Equal(t, types.ThemeChalk, data["theme"])

	resolved := NewEChartsProvider(ChartBar, WithChartCache(nil), WithChartThemeResolver(func(viewer ViewerContext) string {
		if viewer.Locale == "en" {
			return types.ThemeWalden
		}
		return ""
	}))
	data, err = resolved.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	assert.Equal(t, types.ThemeWalden, data["theme"])
}

func TestEChartsProviderTranslatesTitle(t *testing.T) {
	t.Parallel()
	translator := mapTranslator{
		"trendcharts.widget." + WidgetBarChart + ".title": "Translated",
	}
	ctx := sampleChartContext(WidgetBarChart, map[string]any{
		"title":  "Original",
		"series": []map[string]any{{"name": "Series", "data": []float64{1}}},
	})
	ctx.Translator = translator

	data, err := NewEChartsProvider(ChartBar, WithChartCache(nil)).Fetch(context.Background(), ctx)
	require.NoError(t, err)
	assert.Equal(t, "Translated", data["title"])
}

func TestEChartsProviderAssetsHost(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartBar, WithChartCache(nil), WithChartAssetsHost("https://cdn.example.com/echarts/"))
	ctx := sampleChartContext(WidgetBarChart, map[string]any{
		"series": []map[string]any{{"name": "Series", "data": []float64{1}}},
	})

	data, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	assert.Contains(t, html(data), "cdn.example.com")
}

func TestParseChartPointsAcceptsObjects(t *testing.T) {
	points := parseChartPoints([]any{
		map[string]any{"name": "A", "value": 3},
		"4.5",
		2,
	})
	require.Len(t, points, 3)
	assert.Equal(t, ChartPoint{Label: "A", Value: 3}, points[0])
	assert.Equal(t, 4.5, points[1].Value)
	assert.Equal(t, 2.0, points[2].Value)
}

func TestInferredAxisLabels(t *testing.T) {
	labels := inferredAxisLabels([]ChartSeries{
		{Name: "short", Points: []ChartPoint{{Value: 1}}},
		{Name: "long", Points: []ChartPoint{{Label: "x", Value: 1}, {Value: 2}}},
	})
	assert.Equal(t, []string{"x", "Item 2"}, labels)
}

func sampleChartContext(definition string, cfg map[string]any) WidgetContext {
	return WidgetContext{
		Instance: WidgetInstance{
			ID:            definition + "-instance",
			DefinitionID:  definition,
			Configuration: cfg,
		},
		Viewer: ViewerContext{UserID: "tester", Locale: "en"},
	}
}

func html(data WidgetData) string {
	val, _ := data["chart_html"].(string)
	return strings.ToLower(val)
}

type mapTranslator map[string]string

func (m mapTranslator) Translate(_ context.Context, key, _ string, _ map[string]any) (string, error) {
	return m[key], nil
}

type countingCache struct {
	calls int32
	value string
}

func (c *countingCache) GetOrRender(_ string, render func() (string, error)) (string, error) {
	if c.value != "" {
		return c.value, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	atomic.AddInt32(&c.calls, 1)
	c.value = html
	return html, nil
}

func BenchmarkEChartsTrend(b *testing.B) {
	provider := NewEChartsProvider(ChartTrend, WithChartCache(nil))
	ctx := sampleChartContext(WidgetTrend, map[string]any{
		"x_axis": []string{"01.01.2024", "02.01.2024", "03.01.2024"},
		"step":   "day",
		"series": []map[string]any{
			{"name": "sum", "data": []float64{1, 2, 3}},
			{"name": "prevSum", "data": []float64{3, 2, 1}},
		},
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := provider.Fetch(context.Background(), ctx); err != nil {
			b.Fatal(err)
		}
	}
}
