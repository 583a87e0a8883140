package dashboard

import (
	"context"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// ProviderRegistry stores widget definitions/providers discoverable via hooks or manifests.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// TrendRepository fetches the raw aggregation payload for a trend widget.
type TrendRepository interface {
	FetchTrend(ctx context.Context, query TrendQuery) (timeseries.Payload, error)
}

// SnapshotStore keeps the last successfully prepared result per widget instance.
type SnapshotStore interface {
	Save(ctx context.Context, key string, result timeseries.Result) error
	Load(ctx context.Context, key string) (timeseries.Result, bool, error)
}

// TrendQuery is the request handed to a TrendRepository.
type TrendQuery struct {
	Config QueryConfig
	Viewer ViewerContext
}

// WidgetDefinition describes a widget schema and its display metadata.
type WidgetDefinition struct {
	Code                 string            `json:"code" yaml:"code"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
	Category             string            `json:"category,omitempty" yaml:"category,omitempty"`
}

// WidgetInstance is a configured occurrence of a widget definition.
type WidgetInstance struct {
	ID            string         `json:"id" yaml:"id"`
	DefinitionID  string         `json:"definition" yaml:"definition"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ViewerContext captures the active user/locale information needed to render charts.
type ViewerContext struct {
	UserID string
	Roles  []string
	Locale string
}
