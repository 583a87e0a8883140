package dashboard

import (
	"context"
	"fmt"
	"io"
)

// DefaultChartTemplate is the widget wrapper template rendered around a chart.
const DefaultChartTemplate = "chart_widget.html"

// ControllerOptions configures the chart controller.
type ControllerOptions struct {
	Service  *Service
	Renderer Renderer
	Template string
}

// Controller renders chart widgets for HTTP transports.
type Controller struct {
	service  *Service
	renderer Renderer
	template string
}

// NewController wires the service and renderer into a controller.
func NewController(opts ControllerOptions) *Controller {
	template := opts.Template
	if template == "" {
		template = DefaultChartTemplate
	}
	return &Controller{
		service:  opts.Service,
		renderer: opts.Renderer,
		template: template,
	}
}

// ChartPayload returns the widget data of a chart.
func (c *Controller) ChartPayload(ctx context.Context, req ChartRequest) (WidgetData, error) {
	if c.service == nil {
		return nil, fmt.Errorf("trendcharts: controller has no service")
	}
	return c.service.Chart(ctx, req)
}

// RenderChart writes the chart wrapped in the widget template to out.
func (c *Controller) RenderChart(ctx context.Context, req ChartRequest, out io.Writer) error {
	if c.renderer == nil {
		return fmt.Errorf("trendcharts: controller has no renderer")
	}
	data, err := c.ChartPayload(ctx, req)
	if err != nil {
		return err
	}
	if _, err := c.renderer.Render(c.template, map[string]any(data), out); err != nil {
		return fmt.Errorf("trendcharts: render %s: %w", c.template, err)
	}
	return nil
}
