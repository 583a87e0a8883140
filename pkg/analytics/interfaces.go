package analytics

import (
	"context"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// AggregationClient fetches aggregated time series from the upstream
// analytics service. params are sent verbatim as query string values.
type AggregationClient interface {
	FetchAggregation(ctx context.Context, params map[string]string) (timeseries.Payload, error)
}
