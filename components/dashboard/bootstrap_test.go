package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

func TestRegisterTrendProvidersValidatesInput(t *testing.T) {
	if err := RegisterTrendProviders(nil, BootstrapOptions{}); !errors.Is(err, errMissingRegistry) {
		t.Fatalf("expected missing registry error, got %v", err)
	}
	if err := RegisterTrendProviders(NewRegistry(), BootstrapOptions{}); !errors.Is(err, errMissingRepository) {
		t.Fatalf("expected missing repository error, got %v", err)
	}
}

func TestRegisterTrendProvidersRebindsBuiltins(t *testing.T) {
	reg := NewRegistry()
	before, _ := reg.Provider(WidgetTrend)

	snapshots := &memorySnapshots{}
	telemetry := &recordingTelemetry{}
	cache := NewChartCache(time.Minute)
	repo := NewStaticTrendRepository(timeseries.Payload{
		Current:       []timeseries.Record{timeseries.NewRecord("10.01.2024").With("sum", 2)},
		PreviousTotal: 1,
	})

	require.NoError(t, RegisterTrendProviders(reg, BootstrapOptions{
		Repository: repo,
		Snapshots:  snapshots,
		Telemetry:  telemetry,
		Cache:      cache,
		Theme:      "dark",
	}))

	after, ok := reg.Provider(WidgetTrend)
	require.True(t, ok)
	assert.NotSame(t, before, after)
	for code := range staticChartWidgets {
		_, ok := reg.Provider(code)
		assert.True(t, ok, code)
	}

	service := NewService(Options{Registry: reg, Cache: cache})
	data, err := service.Chart(context.Background(), ChartRequest{Code: "sales-trend"})
	require.NoError(t, err)
	assert.NotEmpty(t, data["chart_html"])
	assert.Len(t, snapshots.items, 1, "successful fetch stores a snapshot")
	assert.NotEmpty(t, telemetry.events)
	assert.Equal(t, 1, cache.Len())
}

func TestRegisterTrendProvidersSkipsUnknownDefinitions(t *testing.T) {
	reg := newEmptyRegistry()
	require.NoError(t, reg.RegisterDefinition(WidgetDefinition{Code: WidgetTrend, Name: "Trend"}))

	require.NoError(t, RegisterTrendProviders(reg, BootstrapOptions{Repository: DemoTrendRepository{}}))
	_, ok := reg.Provider(WidgetTrend)
	assert.True(t, ok)
	_, ok = reg.Provider(WidgetBarChart)
	assert.False(t, ok)
}
