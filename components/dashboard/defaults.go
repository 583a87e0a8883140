package dashboard

import (
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// Built-in widget codes.
const (
	WidgetTrend      = "trendcharts.widget.trend"
	WidgetComparison = "trendcharts.widget.comparison"
	WidgetBreakdown  = "trendcharts.widget.breakdown"
	WidgetLineChart  = "trendcharts.widget.line_chart"
	WidgetAreaChart  = "trendcharts.widget.area_chart"
	WidgetBarChart   = "trendcharts.widget.bar_chart"
)

var chartThemes = []string{
	types.ThemeChalk,
	types.ThemeWesteros,
	types.ThemeWalden,
	types.ThemeWonderland,
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code: WidgetTrend,
		Name: "Trend",
		NameLocalized: map[string]string{
			"ru": "Динамика",
		},
		Description: "Metric total per step with the change against the previous window",
		DescriptionLocalized: map[string]string{
			"ru": "Сумма показателя по шагам и изменение к прошлому периоду",
		},
		Category: "charts",
		Schema:   trendChartSchema(),
	},
	{
		Code: WidgetComparison,
		Name: "Period comparison",
		NameLocalized: map[string]string{
			"ru": "Сравнение периодов",
		},
		Description: "Current window plotted against the window before it",
		Category:    "charts",
		Schema:      trendChartSchema(),
	},
	{
		Code: WidgetBreakdown,
		Name: "Breakdown",
		NameLocalized: map[string]string{
			"ru": "Разбивка",
		},
		Description: "One series per key discovered in the aggregation response",
		Category:    "charts",
		Schema:      trendChartSchema(),
	},
	{
		Code:        WidgetLineChart,
		Name:        "Line Chart",
		Description: "Static line chart",
		Category:    "charts",
		Schema:      chartConfigSchema(),
	},
	{
		Code:        WidgetAreaChart,
		Name:        "Area Chart",
		Description: "Static area chart",
		Category:    "charts",
		Schema:      chartConfigSchema(),
	},
	{
		Code:        WidgetBarChart,
		Name:        "Bar Chart",
		Description: "Static bar chart",
		Category:    "charts",
		Schema:      chartConfigSchema(),
	},
}

func stringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "minLength": 1},
	}
}

func trendChartSchema() map[string]any {
	steps := make([]string, 0, len(timeseries.Steps()))
	for _, step := range timeseries.Steps() {
		steps = append(steps, step.String())
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"type"},
		"properties": map[string]any{
			"type": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"title": map[string]any{
				"type": "string",
			},
			"keys":   stringArraySchema(),
			"labels": stringArraySchema(),
			"with_relative": map[string]any{
				"type":    "boolean",
				"default": false,
			},
			"dynamic_keys": map[string]any{
				"type":    "boolean",
				"default": false,
			},
			"period": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"default": DefaultPeriod,
			},
			"step": map[string]any{
				"type":    "string",
				"enum":    steps,
				"default": timeseries.StepDay.String(),
			},
			"from": map[string]any{"type": "string"},
			"to":   map[string]any{"type": "string"},
			"params": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"chart": map[string]any{
				"type": "string",
				"enum": []string{ChartTrend, ChartLine, ChartArea, ChartBar},
			},
			"theme": map[string]any{
				"type": "string",
				"enum": chartThemes,
			},
		},
	}
}

func chartSeriesSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"name", "data"},
		"properties": map[string]any{
			"name": map[string]any{
				"type":    "string",
				"default": "Series",
			},
			"data": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"oneOf": []map[string]any{
						{"type": "number"},
						{
							"type":     "object",
							"required": []string{"value"},
							"properties": map[string]any{
								"name":  map[string]any{"type": "string"},
								"value": map[string]any{"type": "number"},
							},
						},
					},
				},
			},
		},
	}
}

func chartConfigSchema() map[string]any {
	steps := make([]string, 0, len(timeseries.Steps()))
	for _, step := range timeseries.Steps() {
		steps = append(steps, step.String())
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"series"},
		"properties": map[string]any{
			"title": map[string]any{
				"type":    "string",
				"default": "Chart",
			},
			"subtitle": map[string]any{"type": "string"},
			"series": map[string]any{
				"type":     "array",
				"items":    chartSeriesSchema(),
				"minItems": 1,
			},
			"x_axis": stringArraySchema(),
			"step": map[string]any{
				"type": "string",
				"enum": steps,
			},
			"theme": map[string]any{
				"type": "string",
				"enum": chartThemes,
			},
		},
	}
}

var defaultInstances = []WidgetInstance{
	{
		ID:           "sales-trend",
		DefinitionID: WidgetTrend,
		Configuration: map[string]any{
			"type":   "sales",
			"title":  "Продажи",
			"keys":   []string{timeseries.FieldSum},
			"labels": []string{"Сумма"},
		},
	},
	{
		ID:           "sales-comparison",
		DefinitionID: WidgetComparison,
		Configuration: map[string]any{
			"type":   "sales" + ComparisonTypeSuffix,
			"title":  "Продажи к прошлому периоду",
			"keys":   []string{timeseries.FieldSum, timeseries.FieldPrevSum},
			"labels": []string{"Текущий период", "Прошлый период"},
		},
	},
	{
		ID:           "orders-by-source",
		DefinitionID: WidgetBreakdown,
		Configuration: map[string]any{
			"type":          "orders",
			"title":         "Заказы по источникам",
			"keys":          []string{timeseries.FieldSum},
			"labels":        []string{},
			"dynamic_keys":  true,
			"with_relative": true,
			"step":          timeseries.StepWeek.String(),
			"period":        90,
			"params":        map[string]any{"source": ParamAll},
		},
	},
}

// DefaultWidgetDefinitions returns copies of built-in widget definitions.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

// DefaultInstances returns the demo widget instances served out of the box.
func DefaultInstances() []WidgetInstance {
	out := make([]WidgetInstance, len(defaultInstances))
	for i, instance := range defaultInstances {
		out[i] = cloneInstance(instance)
	}
	return out
}

func cloneInstance(instance WidgetInstance) WidgetInstance {
	out := instance
	out.Configuration = cloneMap(instance.Configuration)
	out.Metadata = cloneMap(instance.Metadata)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
