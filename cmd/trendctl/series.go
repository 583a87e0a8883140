package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

type windowFlags struct {
	Period int    `default:"30" help:"Window length in days."`
	Step   string `default:"day" enum:"day,week,month,year" help:"Bucket size."`
	End    string `help:"Window end as dd.mm.yyyy (defaults to today)."`
	Format string `default:"json" enum:"json,yaml" help:"Output format."`
}

func (w windowFlags) resolve(now time.Time) (timeseries.Step, time.Time, error) {
	step, err := timeseries.ParseStep(w.Step)
	if err != nil {
		return "", time.Time{}, err
	}
	end, err := windowEnd(w.End, now)
	if err != nil {
		return "", time.Time{}, err
	}
	return step, end, nil
}

type densifyCmd struct {
	windowFlags
	Input  string   `arg:"" type:"existingfile" help:"Aggregation payload (JSON)."`
	Fields []string `help:"Fields to keep (defaults to every discovered key)."`
}

func (cmd *densifyCmd) Run(_ context.Context) error {
	return cmd.run(os.Stdout, time.Now())
}

func (cmd *densifyCmd) run(w io.Writer, now time.Time) error {
	payload, err := readPayload(cmd.Input)
	if err != nil {
		return err
	}
	step, end, err := cmd.resolve(now)
	if err != nil {
		return err
	}
	fields := cmd.Fields
	if len(fields) == 0 {
		fields = timeseries.DiscoverKeys(payload.Current)
	}
	series, err := timeseries.Reconstruct(payload.Current, cmd.Period, step, end, fields)
	if err != nil {
		return err
	}
	return writeOutput(w, cmd.Format, series)
}

type prepareCmd struct {
	windowFlags
	Input  string   `arg:"" type:"existingfile" help:"Aggregation payload (JSON)."`
	Fields []string `help:"Fields to keep (defaults to every discovered key)."`
}

func (cmd *prepareCmd) Run(_ context.Context) error {
	return cmd.run(os.Stdout, time.Now())
}

func (cmd *prepareCmd) run(w io.Writer, now time.Time) error {
	payload, err := readPayload(cmd.Input)
	if err != nil {
		return err
	}
	step, end, err := cmd.resolve(now)
	if err != nil {
		return err
	}
	var result timeseries.Result
	if payload.Comparison {
		result, err = timeseries.PrepareComparison(payload.Current, payload.Previous, cmd.Period, step, end)
	} else {
		result, err = timeseries.PrepareWithDelta(payload.Current, payload.PreviousTotal, cmd.Period, step, end, cmd.Fields)
	}
	if err != nil {
		return err
	}
	return writeOutput(w, cmd.Format, result)
}

type deltaCmd struct {
	Previous string `arg:"" help:"Previous-window total."`
	Current  string `arg:"" help:"Current-window total."`
}

func (cmd *deltaCmd) Run(_ context.Context) error {
	return cmd.run(os.Stdout)
}

func (cmd *deltaCmd) run(w io.Writer) error {
	previous, err := strconv.ParseFloat(cmd.Previous, 64)
	if err != nil {
		return fmt.Errorf("trendctl: previous total: %w", err)
	}
	current, err := strconv.ParseFloat(cmd.Current, 64)
	if err != nil {
		return fmt.Errorf("trendctl: current total: %w", err)
	}
	_, err = fmt.Fprintln(w, timeseries.ComputeDelta(previous, current))
	return err
}

type keysCmd struct {
	Input  string `arg:"" type:"existingfile" help:"Aggregation payload (JSON)."`
	Rotate bool   `help:"Move the first key (the total) to the end."`
	Format string `default:"json" enum:"json,yaml" help:"Output format."`
}

func (cmd *keysCmd) Run(_ context.Context) error {
	return cmd.run(os.Stdout)
}

func (cmd *keysCmd) run(w io.Writer) error {
	payload, err := readPayload(cmd.Input)
	if err != nil {
		return err
	}
	keys := timeseries.DiscoverKeys(payload.Current)
	if cmd.Rotate {
		keys = timeseries.RotateFirstKey(keys)
	}
	return writeOutput(w, cmd.Format, keys)
}
