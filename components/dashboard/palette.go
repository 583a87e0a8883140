package dashboard

import "fmt"

var seriesColors = []string{
	"hsl(2,50%,50%)",
	"hsl(25,56%,50%)",
	"hsl(48,65%,49%)",
	"hsl(189,50%,50%)",
	"hsl(143,60%,65%)",
	"hsl(286,100%,50%)",
}

// SeriesPalette returns the colors for n series. Up to three series get a
// fixed trio, up to six the base palette, and more than that an evenly
// spaced hue wheel.
func SeriesPalette(n int) []string {
	if n <= 3 {
		return []string{seriesColors[4], seriesColors[1], seriesColors[3]}
	}
	if n > len(seriesColors) {
		step := 360 / n
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("hsl(%d,50%%,50%%)", step*(i+1))
		}
		return out
	}
	return append([]string(nil), seriesColors...)
}

// ChartHeight is the canvas height for n series.
func ChartHeight(n int) string {
	if n > tallChartSeries {
		return tallChartHeight
	}
	return defaultChartHeight
}
