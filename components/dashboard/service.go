package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// ChartRequest asks for the data of one chart. Code is a widget instance ID
// or, for an unconfigured chart, a widget definition code. Overrides are
// merged over the stored configuration before validation.
type ChartRequest struct {
	Code      string
	Viewer    ViewerContext
	Overrides map[string]any
}

// CacheInvalidator drops rendered charts whose cache key has the prefix.
type CacheInvalidator interface {
	Invalidate(prefix string) int
}

// Options configures the chart service. A nil Cache invalidates the render
// cache shared by providers built without WithChartCache.
type Options struct {
	Registry     *Registry
	Validator    ConfigValidator
	Translator   TranslationService
	Telemetry    Telemetry
	Cache        CacheInvalidator
	RefreshHooks []RefreshHook
	Now          func() time.Time
}

// Service resolves widget instances and runs their providers.
type Service struct {
	registry   *Registry
	validator  ConfigValidator
	translator TranslationService
	telemetry  Telemetry
	cache      CacheInvalidator
	hooks      []RefreshHook
	now        func() time.Time
}

// NewService builds a Service. A nil registry means the built-in one.
func NewService(opts Options) *Service {
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	validator := opts.Validator
	if validator == nil {
		validator = noopConfigValidator{}
	}
	cache := opts.Cache
	if cache == nil {
		cache = sharedChartCache
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		registry:   registry,
		validator:  validator,
		translator: opts.Translator,
		telemetry:  normalizeTelemetry(opts.Telemetry),
		cache:      cache,
		hooks:      append([]RefreshHook(nil), opts.RefreshHooks...),
		now:        now,
	}
}

// Registry exposes the registry backing the service.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Chart resolves the requested chart and fetches its widget data.
func (s *Service) Chart(ctx context.Context, req ChartRequest) (WidgetData, error) {
	instance, def, err := s.resolve(req.Code)
	if err != nil {
		return nil, err
	}
	provider, ok := s.registry.Provider(def.Code)
	if !ok {
		return nil, goerrors.New(fmt.Sprintf("no provider registered for widget %s", def.Code), goerrors.CategoryNotFound).
			WithTextCode("PROVIDER_NOT_FOUND")
	}

	instance.Configuration = mergeConfig(instance.Configuration, req.Overrides)
	if err := s.validator.Validate(def, instance.Configuration); err != nil {
		return nil, err
	}

	data, err := provider.Fetch(ctx, WidgetContext{
		Instance:   instance,
		Viewer:     req.Viewer,
		Translator: s.translator,
	})
	if err != nil {
		return nil, err
	}
	data["instance_id"] = instance.ID
	data["definition"] = def.Code
	data["widget_name"] = def.NameForLocale(req.Viewer.Locale)
	return data, nil
}

// Refresh drops the cached renderings of a chart and notifies the refresh
// hooks so connected clients fetch it again.
func (s *Service) Refresh(ctx context.Context, code, reason string) (ChartEvent, error) {
	instance, def, err := s.resolve(code)
	if err != nil {
		return ChartEvent{}, err
	}
	dropped := s.cache.Invalidate(def.Code + ":" + instance.ID + ":")
	event := ChartEvent{
		Code:       instance.ID,
		Definition: def.Code,
		Reason:     reason,
		At:         s.now(),
	}
	var errs []error
	for _, hook := range s.hooks {
		if err := hook.ChartRefreshed(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	s.telemetry.Record(ctx, EventChartRefreshed, map[string]any{
		"instance": instance.ID,
		"reason":   reason,
		"dropped":  dropped,
	})
	if len(errs) > 0 {
		return event, fmt.Errorf("trendcharts: refresh hooks: %w", errors.Join(errs...))
	}
	return event, nil
}

func (s *Service) resolve(code string) (WidgetInstance, WidgetDefinition, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return WidgetInstance{}, WidgetDefinition{}, goerrors.New("chart code is required", goerrors.CategoryBadInput).
			WithTextCode("MISSING_CHART_CODE")
	}
	if instance, ok := s.registry.Instance(code); ok {
		def, ok := s.registry.Definition(instance.DefinitionID)
		if !ok {
			return WidgetInstance{}, WidgetDefinition{}, goerrors.New(fmt.Sprintf("widget definition %s not found", instance.DefinitionID), goerrors.CategoryNotFound).
				WithTextCode("WIDGET_NOT_FOUND")
		}
		return instance, def, nil
	}
	if def, ok := s.registry.Definition(code); ok {
		return WidgetInstance{ID: code, DefinitionID: code}, def, nil
	}
	return WidgetInstance{}, WidgetDefinition{}, goerrors.New(fmt.Sprintf("chart %s not found", code), goerrors.CategoryNotFound).
		WithTextCode("CHART_NOT_FOUND").
		WithMetadata(map[string]any{"code": code})
}

func mergeConfig(base, overrides map[string]any) map[string]any {
	out := cloneMap(base)
	if out == nil {
		out = map[string]any{}
	}
	for key, value := range overrides {
		if key == "params" {
			params := paramsValue(out["params"])
			for k, v := range paramsValue(value) {
				params[k] = v
			}
			out["params"] = params
			continue
		}
		out[key] = value
	}
	return out
}

// overrideKeys are the query arguments a chart request may override.
var overrideKeys = []string{"period", "step", "from", "to", "chart", "theme", "params"}

// ChartOverrides reads chart overrides through lookup, typically a query
// string getter. params is encoded as "key:value,key:value".
func ChartOverrides(lookup func(string) string) (map[string]any, error) {
	out := map[string]any{}
	for _, key := range overrideKeys {
		raw := strings.TrimSpace(lookup(key))
		if raw == "" {
			continue
		}
		switch key {
		case "period":
			days, err := strconv.Atoi(raw)
			if err != nil || days < 0 {
				return nil, goerrors.New(fmt.Sprintf("period must be a non-negative number of days, got %q", raw), goerrors.CategoryBadInput).
					WithTextCode("INVALID_PERIOD")
			}
			out[key] = days
		case "step":
			step, err := timeseries.ParseStep(raw)
			if err != nil {
				return nil, err
			}
			out[key] = step.String()
		case "params":
			params := map[string]any{}
			for _, pair := range strings.Split(raw, ",") {
				k, v, _ := strings.Cut(pair, ":")
				if k = strings.TrimSpace(k); k != "" {
					params[k] = strings.TrimSpace(v)
				}
			}
			out[key] = params
		default:
			out[key] = raw
		}
	}
	return out, nil
}
