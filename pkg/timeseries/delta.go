package timeseries

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Result is a shaped series plus its headline delta.
type Result struct {
	Series        Series  `json:"series"`
	CurrentTotal  float64 `json:"current_total"`
	PreviousTotal float64 `json:"previous_total"`
	DeltaText     string  `json:"delta"`
	// Fields lists the bucket fields in series order.
	Fields []string `json:"fields,omitempty"`
}

// Total sums one field over the series.
func Total(series Series, field string) float64 {
	total := 0.0
	for _, bucket := range series {
		total += bucket.Fields[field]
	}
	return total
}

// ComputeDelta renders the signed percentage change from previousTotal to
// currentTotal. Drops carry a single minus and a zero change renders as
// "-0.00%". When previousTotal is not positive the current total is reported
// as a percentage of one unit with its own sign after the "+".
func ComputeDelta(previousTotal, currentTotal float64) string {
	if previousTotal > 0 {
		percent := (currentTotal - previousTotal) * 100 / previousTotal
		if percent > 0 {
			return "+" + FormatFixed(percent, 2) + "%"
		}
		return "-" + FormatFixed(math.Abs(percent), 2) + "%"
	}
	return "+" + FormatFixed(currentTotal*100, 2) + "%"
}

// FormatFixed formats value with the given number of decimals, rounding
// ties away from zero on the exact binary value.
func FormatFixed(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	negative := value < 0
	exact := strconv.FormatFloat(math.Abs(value), 'f', 64, 64)
	dot := strings.IndexByte(exact, '.')
	whole, frac := exact[:dot], exact[dot+1:]

	digits := []byte(whole + frac[:decimals])
	if frac[decimals] >= '5' {
		i := len(digits) - 1
		for ; i >= 0; i-- {
			if digits[i] == '9' {
				digits[i] = '0'
				continue
			}
			digits[i]++
			break
		}
		if i < 0 {
			digits = append([]byte{'1'}, digits...)
		}
	}

	intLen := len(digits) - decimals
	out := string(digits[:intLen])
	if decimals > 0 {
		out += "." + string(digits[intLen:])
	}
	if negative {
		out = "-" + out
	}
	return out
}

// PrepareWithDelta densifies records and computes the delta against
// previousTotal. The Unavailable sentinel yields an empty delta.
func PrepareWithDelta(records []Record, previousTotal float64, period int, step Step, end time.Time, fields []string) (Result, error) {
	if len(fields) == 0 {
		fields = []string{FieldSum}
	}
	series, err := Reconstruct(records, period, step, end, fields)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Series:        series,
		CurrentTotal:  Total(series, FieldSum),
		PreviousTotal: previousTotal,
		Fields:        append([]string(nil), fields...),
	}
	if previousTotal == Unavailable {
		return result, nil
	}
	result.DeltaText = ComputeDelta(previousTotal, result.CurrentTotal)
	return result, nil
}

// PrepareComparison densifies the current window and the window before it
// and merges them into sum/prevSum buckets. An empty side becomes a
// placeholder series.
func PrepareComparison(current, previous []Record, period int, step Step, end time.Time) (Result, error) {
	previousEnd := end.AddDate(0, 0, -period)

	prevSeries, err := densifyOrPlaceholder(previous, period, step, previousEnd)
	if err != nil {
		return Result{}, err
	}
	currSeries, err := densifyOrPlaceholder(current, period, step, end)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		CurrentTotal:  Total(currSeries, FieldSum),
		PreviousTotal: Total(prevSeries, FieldSum),
		Fields:        []string{FieldSum, FieldPrevSum},
	}
	result.DeltaText = ComputeDelta(result.PreviousTotal, result.CurrentTotal)

	merged := make(Series, len(currSeries))
	for i, bucket := range currSeries {
		fields := make(map[string]float64, len(bucket.Fields)+1)
		for k, v := range bucket.Fields {
			fields[k] = v
		}
		fields[FieldPrevSum] = 0
		if i < len(prevSeries) {
			fields[FieldPrevSum] = prevSeries[i].Fields[FieldSum]
		}
		merged[i] = Bucket{Label: bucket.Label, Fields: fields}
	}
	result.Series = merged
	return result, nil
}

func densifyOrPlaceholder(records []Record, period int, step Step, end time.Time) (Series, error) {
	if len(records) == 0 {
		return Placeholder(period, step, end, nil)
	}
	return Reconstruct(records, period, step, end, nil)
}
