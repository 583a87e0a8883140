package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
)

type chartService interface {
	Chart(ctx context.Context, req dashboard.ChartRequest) (dashboard.WidgetData, error)
}

// ChartQuery executes read-only chart resolution.
type ChartQuery struct {
	service chartService
}

// NewChartQuery builds the query.
func NewChartQuery(service chartService) *ChartQuery {
	return &ChartQuery{service: service}
}

var _ gocommand.Querier[dashboard.ChartRequest, dashboard.WidgetData] = (*ChartQuery)(nil)

// Query fetches the chart data for the request.
func (q *ChartQuery) Query(ctx context.Context, req dashboard.ChartRequest) (dashboard.WidgetData, error) {
	return q.service.Chart(ctx, req)
}
