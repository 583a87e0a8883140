package timeseries

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthNames = map[string]struct {
	genitive   [12]string
	nominative [12]string
	year       string
}{
	"ru": {
		genitive:   [12]string{"января", "февраля", "марта", "апреля", "мая", "июня", "июля", "августа", "сентября", "октября", "ноября", "декабря"},
		nominative: [12]string{"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь", "Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"},
		year:       "%s год",
	},
	"en": {
		genitive:   [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		nominative: [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		year:       "%s",
	},
}

// DefaultLocale is used when a locale has no month names.
const DefaultLocale = "ru"

// TickLabel shortens a bucket label for the x axis.
func TickLabel(step Step, label string) string {
	day, month, year := splitLabel(label)
	switch step {
	case StepYear:
		return year
	case StepMonth:
		return month + "." + year
	default:
		return day + "." + month
	}
}

// TooltipLabel expands a bucket label into a human readable period name.
func TooltipLabel(step Step, label, locale string) string {
	names, ok := monthNames[baseLocale(locale)]
	if !ok {
		names = monthNames[DefaultLocale]
	}
	day, month, year := splitLabel(label)

	switch step {
	case StepWeek:
		start, err := ParseLabel(label, time.UTC)
		if err != nil {
			return label
		}
		end := StepWeek.Start(start).AddDate(0, 0, 6)
		return label + " - " + end.Format(LabelLayout)
	case StepYear:
		return fmt.Sprintf(names.year, year)
	case StepMonth:
		if idx := monthIndex(month); idx >= 0 {
			return names.nominative[idx] + " " + year
		}
		return label
	default:
		if idx := monthIndex(month); idx >= 0 {
			return day + " " + names.genitive[idx] + " " + year
		}
		return label
	}
}

// AxisInterval is the number of ticks skipped between x-axis labels.
func AxisInterval(buckets int) int {
	return buckets / 32
}

func splitLabel(label string) (day, month, year string) {
	parts := strings.SplitN(label, ".", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

func monthIndex(month string) int {
	n, err := strconv.Atoi(month)
	if err != nil || n < 1 || n > 12 {
		return -1
	}
	return n - 1
}

func baseLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		locale = locale[:idx]
	}
	return locale
}
