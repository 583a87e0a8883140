package dashboard

import (
	"context"

	core "github.com/goliatone/go-trendcharts/components/dashboard"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// ChartRequest re-export for convenience.
type ChartRequest = core.ChartRequest

// ViewerContext re-export for convenience.
type ViewerContext = core.ViewerContext

// WidgetData re-export for convenience.
type WidgetData = core.WidgetData

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// RenderChart resolves code against the default registry and returns the chart payload.
func RenderChart(ctx context.Context, code, locale string) (WidgetData, error) {
	return NewService(Options{}).Chart(ctx, ChartRequest{
		Code:   code,
		Viewer: ViewerContext{Locale: locale},
	})
}
