package dashboard

import (
	"errors"
	"fmt"
)

var (
	errMissingRegistry   = errors.New("dashboard: registry is required")
	errMissingRepository = errors.New("dashboard: trend repository is required")
)

// BootstrapOptions carries the production dependencies of the built-in widgets.
type BootstrapOptions struct {
	Repository TrendRepository
	Snapshots  SnapshotStore
	Telemetry  Telemetry
	Cache      RenderCache
	Theme      string
	AssetsHost string
}

// trendWidgets lists the built-in definitions served by TrendChartProvider.
var trendWidgets = []string{WidgetTrend, WidgetComparison, WidgetBreakdown}

// staticChartWidgets maps built-in static chart definitions to chart kinds.
var staticChartWidgets = map[string]string{
	WidgetLineChart: ChartLine,
	WidgetAreaChart: ChartArea,
	WidgetBarChart:  ChartBar,
}

// RegisterTrendProviders rebinds the built-in chart widgets of reg to the
// repository, snapshot store, and render settings in opts. Definitions the
// registry does not know are skipped.
func RegisterTrendProviders(reg ProviderRegistry, opts BootstrapOptions) error {
	if reg == nil {
		return errMissingRegistry
	}
	if opts.Repository == nil {
		return errMissingRepository
	}

	var chartOpts []EChartsProviderOption
	if opts.Cache != nil {
		chartOpts = append(chartOpts, WithChartCache(opts.Cache))
	}
	if opts.Theme != "" {
		chartOpts = append(chartOpts, WithChartTheme(opts.Theme))
	}
	if host := ResolveAssetsHost(opts.AssetsHost); host != "" {
		chartOpts = append(chartOpts, WithChartAssetsHost(host))
	}

	trendOpts := []TrendChartOption{WithTrendRenderer(NewEChartsProvider(ChartTrend, chartOpts...))}
	if opts.Snapshots != nil {
		trendOpts = append(trendOpts, WithSnapshotStore(opts.Snapshots))
	}
	if opts.Telemetry != nil {
		trendOpts = append(trendOpts, WithTrendTelemetry(opts.Telemetry))
	}

	for _, code := range trendWidgets {
		if _, ok := reg.Definition(code); !ok {
			continue
		}
		if err := reg.RegisterProvider(code, NewTrendChartProvider(opts.Repository, trendOpts...)); err != nil {
			return fmt.Errorf("register provider %s: %w", code, err)
		}
	}
	for code, kind := range staticChartWidgets {
		if _, ok := reg.Definition(code); !ok {
			continue
		}
		if err := reg.RegisterProvider(code, NewEChartsProvider(kind, chartOpts...)); err != nil {
			return fmt.Errorf("register provider %s: %w", code, err)
		}
	}
	return nil
}
