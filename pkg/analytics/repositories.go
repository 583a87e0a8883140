package analytics

import (
	"context"

	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// NewAggregationRepository adapts an aggregation client into the trend
// repository consumed by trend chart providers.
func NewAggregationRepository(client AggregationClient) dashboard.TrendRepository {
	return &aggregationRepository{client: client}
}

type aggregationRepository struct {
	client AggregationClient
}

func (r *aggregationRepository) FetchTrend(ctx context.Context, query dashboard.TrendQuery) (timeseries.Payload, error) {
	params := query.Config.RequestParams()
	if query.Viewer.Locale != "" {
		params["locale"] = query.Viewer.Locale
	}
	return r.client.FetchAggregation(ctx, params)
}
