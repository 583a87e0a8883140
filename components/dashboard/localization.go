package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// TranslationService exposes locale-aware translation helpers. Implementations can provide
// pluralization or interpolation while providers rely on the lightweight interface defined here.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// ResolveLocalizedValue selects the best translation for the provided locale and falls back to the supplied value.
// Keys are matched case-insensitively, and language-region pairs (`es-mx`) automatically fall back to their
// base language (`es`) when present.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	candidates := localeCandidates(locale)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	if value, ok := values["default"]; ok && value != "" {
		return value
	}
	return fallback
}

func (def *WidgetDefinition) normalizeLocalizedFields() {
	def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
	def.DescriptionLocalized = normalizeLocaleMap(def.DescriptionLocalized)
}

// NameForLocale returns the display name for the requested locale with graceful fallback to the default name.
func (def WidgetDefinition) NameForLocale(locale string) string {
	return ResolveLocalizedValue(def.NameLocalized, locale, def.Name)
}

// DescriptionForLocale returns the localized description if available.
func (def WidgetDefinition) DescriptionForLocale(locale string) string {
	return ResolveLocalizedValue(def.DescriptionLocalized, locale, def.Description)
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	candidates = append(candidates, "default")
	return candidates
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}

var stepNames = map[timeseries.Step]map[string]string{
	timeseries.StepDay:   {"ru": "День", "en": "Day"},
	timeseries.StepWeek:  {"ru": "Неделя", "en": "Week"},
	timeseries.StepMonth: {"ru": "Месяц", "en": "Month"},
	timeseries.StepYear:  {"ru": "Год", "en": "Year"},
}

var pickerPlaceholders = map[string]map[string]string{
	"step":   {"ru": "Шаг", "en": "Step"},
	"period": {"ru": "Период", "en": "Period"},
}

var periodFormats = map[string]string{"ru": "%d дней", "en": "%d days"}

// StepName is the picker label of a step. The translator, when present, is
// asked for "trendcharts.step.<step>" first.
func StepName(ctx context.Context, svc TranslationService, step timeseries.Step, locale string) string {
	if step == "" {
		return PickerPlaceholder(ctx, svc, "step", locale)
	}
	fallback := ResolveLocalizedValue(stepNames[step], builtinLocale(locale), step.String())
	return translateOrFallback(ctx, svc, "trendcharts.step."+step.String(), locale, fallback, nil)
}

// PeriodName is the picker label of a window length. Zero means a custom
// range and renders the placeholder.
func PeriodName(ctx context.Context, svc TranslationService, days int, locale string) string {
	if days <= 0 {
		return PickerPlaceholder(ctx, svc, "period", locale)
	}
	format := ResolveLocalizedValue(periodFormats, builtinLocale(locale), periodFormats[timeseries.DefaultLocale])
	return translateOrFallback(ctx, svc, "trendcharts.period.days", locale, fmt.Sprintf(format, days), map[string]any{"count": days})
}

// PickerPlaceholder labels a picker with nothing selected ("step" or "period").
func PickerPlaceholder(ctx context.Context, svc TranslationService, picker, locale string) string {
	fallback := ResolveLocalizedValue(pickerPlaceholders[picker], builtinLocale(locale), picker)
	return translateOrFallback(ctx, svc, "trendcharts.picker."+picker, locale, fallback, nil)
}

// builtinLocale maps a viewer locale onto one the built-in labels cover.
func builtinLocale(locale string) string {
	for _, candidate := range localeCandidates(locale) {
		if candidate == "ru" || candidate == "en" {
			return candidate
		}
	}
	return timeseries.DefaultLocale
}
