package dashboard

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Telemetry records chart events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Telemetry event names.
const (
	EventChartFetched   = "trendcharts.chart.fetched"
	EventChartStale     = "trendcharts.chart.stale"
	EventChartFailed    = "trendcharts.chart.failed"
	EventChartRefreshed = "trendcharts.chart.refreshed"
	EventSnapshotError  = "trendcharts.snapshot.error"
)

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZapTelemetry writes telemetry events as structured zap log entries.
type ZapTelemetry struct {
	logger *zap.Logger
}

// NewZapTelemetry wraps a zap logger. A nil logger discards events.
func NewZapTelemetry(logger *zap.Logger) *ZapTelemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapTelemetry{logger: logger.Named("telemetry")}
}

// Record logs the event with its payload as fields. Failure events are
// logged at warn level.
func (t *ZapTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, zap.Any(key, payload[key]))
	}
	switch event {
	case EventChartFailed, EventChartStale, EventSnapshotError:
		t.logger.Warn(event, fields...)
	default:
		t.logger.Info(event, fields...)
	}
}
