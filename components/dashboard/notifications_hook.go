package dashboard

import "context"

// NotificationsClient defines the minimal interface needed from go-notifications (or similar).
type NotificationsClient interface {
	PublishChartEvent(ctx context.Context, channel string, event ChartEvent) error
}

// NotificationsHook forwards chart refresh events to an external notifications client.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
}

// ChartRefreshed publishes events to the configured notifications client.
func (h *NotificationsHook) ChartRefreshed(ctx context.Context, event ChartEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	channel := h.Channel
	if channel == "" {
		channel = "trendcharts"
	}
	return h.Client.PublishChartEvent(ctx, channel, event)
}
