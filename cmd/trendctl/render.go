package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/components/dashboard/commands"
)

type renderCmd struct {
	Code     string   `arg:"" help:"Chart instance id or widget definition code."`
	Period   string   `help:"Override the window length in days."`
	Step     string   `help:"Override the bucket size (day, week, month, year)."`
	From     string   `help:"Override the window start (YYYY-MM-DD or dd.mm.yyyy)."`
	To       string   `help:"Override the window end (YYYY-MM-DD or dd.mm.yyyy)."`
	Chart    string   `help:"Override the chart kind (trend, line, area, bar)."`
	Params   string   `help:"Override request params as key:value,key:value."`
	Locale   string   `default:"ru" help:"Viewer locale."`
	Manifest []string `type:"existingfile" help:"Widget manifests to load before rendering."`
	Wrap     bool     `help:"Wrap the chart in the widget template."`
	Out      string   `short:"o" type:"path" help:"Write to a file instead of stdout."`
}

func (cmd *renderCmd) Run(ctx context.Context) error {
	out := io.Writer(os.Stdout)
	if cmd.Out != "" {
		file, err := os.Create(cmd.Out) //nolint:gosec
		if err != nil {
			return fmt.Errorf("trendctl: create %s: %w", cmd.Out, err)
		}
		defer file.Close()
		out = file
	}
	return cmd.run(ctx, out)
}

func (cmd *renderCmd) overrides() (map[string]any, error) {
	values := map[string]string{
		"period": cmd.Period,
		"step":   cmd.Step,
		"from":   cmd.From,
		"to":     cmd.To,
		"chart":  cmd.Chart,
		"params": cmd.Params,
	}
	return dashboard.ChartOverrides(func(key string) string { return values[key] })
}

func (cmd *renderCmd) run(ctx context.Context, w io.Writer) error {
	registry := dashboard.NewRegistry()
	if len(cmd.Manifest) > 0 {
		load := commands.NewLoadManifestsCommand(registry, nil)
		if err := load.Execute(ctx, commands.LoadManifestsInput{Paths: cmd.Manifest}); err != nil {
			return err
		}
	}
	overrides, err := cmd.overrides()
	if err != nil {
		return err
	}
	req := dashboard.ChartRequest{
		Code:      cmd.Code,
		Viewer:    dashboard.ViewerContext{Locale: cmd.Locale},
		Overrides: overrides,
	}
	service := dashboard.NewService(dashboard.Options{
		Registry:  registry,
		Validator: dashboard.NewJSONSchemaValidator(),
	})

	if cmd.Wrap {
		renderer, err := dashboard.NewTemplateRenderer()
		if err != nil {
			return fmt.Errorf("trendctl: template renderer: %w", err)
		}
		controller := dashboard.NewController(dashboard.ControllerOptions{Service: service, Renderer: renderer})
		return controller.RenderChart(ctx, req, w)
	}

	data, err := service.Chart(ctx, req)
	if err != nil {
		return err
	}
	html, _ := data["chart_html"].(string)
	_, err = io.WriteString(w, html)
	return err
}
