package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
)

// Globals are flags shared by every subcommand.
type Globals struct {
	Config   string `short:"c" type:"path" help:"Path to a trendcharts TOML config file."`
	LogLevel string `name:"log-level" help:"Override the configured log level (debug, info, warn, error)."`
}

type cli struct {
	Globals

	Densify  densifyCmd  `cmd:"" help:"Fill gaps in an aggregation payload and print the dense series."`
	Prepare  prepareCmd  `cmd:"" help:"Densify a payload and compute its headline delta."`
	Delta    deltaCmd    `cmd:"" help:"Print the relative change between two totals."`
	Keys     keysCmd     `cmd:"" help:"List the series keys discovered in a payload."`
	Render   renderCmd   `cmd:"" help:"Render a configured chart instance to HTML."`
	Serve    serveCmd    `cmd:"" help:"Serve the chart API over HTTP."`
	Scaffold scaffoldCmd `cmd:"" help:"Scaffold a trend widget definition and instance in a manifest."`
}

func main() {
	ctx := context.Background()
	var app cli
	kctx := kong.Parse(&app,
		kong.Name("trendctl"),
		kong.Description("Trend chart utility: densify aggregation payloads, render charts, serve the chart API."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	kctx.Stdout = os.Stdout
	err := kctx.Run(&app.Globals)
	kctx.FatalIfErrorf(err)
}
