package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// WidgetManifestDocument models a YAML/JSON manifest describing widgets and
// the instances built from them.
type WidgetManifestDocument struct {
	Version   string           `json:"version" yaml:"version"`
	Name      string           `json:"name,omitempty" yaml:"name,omitempty"`
	Package   string           `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage  string           `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Widgets   []ManifestWidget `json:"widgets,omitempty" yaml:"widgets,omitempty"`
	Instances []WidgetInstance `json:"instances,omitempty" yaml:"instances,omitempty"`
	Source    string           `json:"-" yaml:"-"`
}

// ManifestWidget describes a single widget entry within a manifest. Extends
// names an already registered widget whose provider (and schema, when the
// entry declares none) the new widget reuses.
type ManifestWidget struct {
	Definition  WidgetDefinition `json:"definition" yaml:"definition"`
	Extends     string           `json:"extends,omitempty" yaml:"extends,omitempty"`
	Provider    ManifestProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	Maintainers []string         `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestProvider captures discovery metadata about a provider implementation.
type ManifestProvider struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Entry        string   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Package      string   `json:"package,omitempty" yaml:"package,omitempty"`
	DocsURL      string   `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Channel      string   `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// LoadManifestFile reads a manifest from disk, registers it against the registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*WidgetManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers definitions, provider metadata and
// instances from a decoded manifest.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("trendcharts: manifest document is nil")
	}
	for _, widget := range doc.Widgets {
		def := widget.Definition
		var base Provider
		if widget.Extends != "" {
			parent, ok := r.Definition(widget.Extends)
			if !ok {
				return fmt.Errorf("trendcharts: widget %s extends unknown widget %s", def.Code, widget.Extends)
			}
			if len(def.Schema) == 0 {
				def.Schema = parent.Schema
			}
			if def.Category == "" {
				def.Category = parent.Category
			}
			base, _ = r.Provider(widget.Extends)
		}
		if err := r.RegisterDefinition(def); err != nil {
			return fmt.Errorf("trendcharts: register widget %s from %s: %w", def.Code, doc.Source, err)
		}
		if base != nil {
			if err := r.RegisterProvider(def.Code, base); err != nil {
				return fmt.Errorf("trendcharts: register provider for %s: %w", def.Code, err)
			}
		}
		r.recordProviderMetadata(def.Code, widget.Provider)
	}
	for _, instance := range doc.Instances {
		if err := r.RegisterInstance(instance); err != nil {
			return fmt.Errorf("trendcharts: register instance %s from %s: %w", instance.ID, doc.Source, err)
		}
	}
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("trendcharts: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("trendcharts: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader. Instances without an id
// get a random UUID.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc WidgetManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("trendcharts: manifest is empty")
		}
		return nil, fmt.Errorf("trendcharts: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *WidgetManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("trendcharts: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		if widget.Definition.Code == "" {
			return fmt.Errorf("trendcharts: manifest widget at index %d is missing definition.code", idx)
		}
		if widget.Definition.Name == "" {
			return fmt.Errorf("trendcharts: manifest widget %s missing definition.name", widget.Definition.Code)
		}
		if _, exists := seen[widget.Definition.Code]; exists {
			return fmt.Errorf("trendcharts: manifest duplicates widget code %s", widget.Definition.Code)
		}
		seen[widget.Definition.Code] = struct{}{}
	}
	ids := make(map[string]struct{}, len(doc.Instances))
	for idx, instance := range doc.Instances {
		if instance.DefinitionID == "" {
			return fmt.Errorf("trendcharts: manifest instance at index %d is missing definition", idx)
		}
		if _, exists := ids[instance.ID]; exists {
			return fmt.Errorf("trendcharts: manifest duplicates instance id %s", instance.ID)
		}
		ids[instance.ID] = struct{}{}
	}
	return nil
}

func (doc *WidgetManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	for i := range doc.Instances {
		if doc.Instances[i].ID == "" {
			doc.Instances[i].ID = uuid.NewString()
		}
	}
}

func (p ManifestProvider) isZero() bool {
	return p.Name == "" &&
		p.Summary == "" &&
		p.Entry == "" &&
		p.Package == "" &&
		p.DocsURL == "" &&
		len(p.Capabilities) == 0 &&
		p.Channel == ""
}
