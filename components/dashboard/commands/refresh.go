package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
)

// RefreshChartInput asks for a chart to be re-rendered on connected clients.
type RefreshChartInput struct {
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

type chartRefresher interface {
	Refresh(ctx context.Context, code, reason string) (dashboard.ChartEvent, error)
}

// RefreshChartCommand drops cached renderings and fires refresh hooks.
type RefreshChartCommand struct {
	service   chartRefresher
	telemetry Telemetry
}

// NewRefreshChartCommand creates the command.
func NewRefreshChartCommand(service chartRefresher, telemetry Telemetry) *RefreshChartCommand {
	return &RefreshChartCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshChartInput] = (*RefreshChartCommand)(nil)

// Execute refreshes the chart.
func (c *RefreshChartCommand) Execute(ctx context.Context, msg RefreshChartInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	event, err := c.service.Refresh(ctx, msg.Code, msg.Reason)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "trendcharts.command.refresh", map[string]any{
		"instance":   event.Code,
		"definition": event.Definition,
	})
	return nil
}
