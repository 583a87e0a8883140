package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/pkg/keyvalue"
)

type scaffoldCmd struct {
	Code         string   `required:"" help:"Fully-qualified widget code (e.g. acme.widget.signups)."`
	Name         string   `required:"" help:"Display name for the widget."`
	Description  string   `help:"One-line description used in manifests."`
	Category     string   `default:"trends" help:"Widget category."`
	ManifestPath string   `required:"" type:"path" help:"Path to the widget manifest YAML/JSON file to update."`
	Extends      string   `default:"trendcharts.widget.trend" help:"Built-in widget whose provider the new widget reuses."`
	SchemaPath   string   `type:"path" help:"Optional JSON schema file for the widget configuration."`
	Type         string   `required:"" help:"Aggregation type requested from the analytics service."`
	Key          []string `help:"Series keys (use multiple --key flags)."`
	Label        []string `help:"Series labels, matched to keys by position."`
	Step         string   `default:"day" enum:"day,week,month,year" help:"Default bucket size."`
	Period       int      `default:"30" help:"Default window length in days."`
	Instance     string   `help:"Instance id (defaults to the kebab-cased last code segment)."`
	Tag          []string `help:"Optional tags to include in the manifest."`
	Maintainer   []string `help:"Maintainers to record in the manifest."`
	Overwrite    bool     `help:"Replace an existing widget or instance entry."`
}

func (cmd *scaffoldCmd) Run(_ context.Context) error {
	return cmd.run(os.Stdout)
}

func (cmd *scaffoldCmd) run(w io.Writer) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("trendctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	schema, err := cmd.loadSchema()
	if err != nil {
		return err
	}

	widget := dashboard.ManifestWidget{
		Definition: dashboard.WidgetDefinition{
			Code:        cmd.Code,
			Name:        cmd.Name,
			Description: cmd.Description,
			Category:    cmd.Category,
			Schema:      schema,
		},
		Extends:     cmd.Extends,
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}
	instance := dashboard.WidgetInstance{
		ID:            cmd.instanceID(doc),
		DefinitionID:  cmd.Code,
		Configuration: cmd.configuration(),
	}

	if err := upsertWidget(doc, widget, cmd.Overwrite); err != nil {
		return err
	}
	if err := upsertInstance(doc, instance, cmd.Overwrite); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Added %s (instance %s) to %s\n", cmd.Code, instance.ID, manifestPath)
	return nil
}

func (cmd *scaffoldCmd) validate() error {
	if !strings.Contains(cmd.Code, ".") {
		return fmt.Errorf("trendctl: widget code %s must contain at least one '.' segment", cmd.Code)
	}
	if len(cmd.Label) > 0 && len(cmd.Key) == 0 {
		return fmt.Errorf("trendctl: --label needs matching --key flags")
	}
	return nil
}

// instanceID returns --instance, or the kebab-cased last code segment with a
// numeric suffix when another widget's instance already uses it.
func (cmd *scaffoldCmd) instanceID(doc *dashboard.WidgetManifestDocument) string {
	if cmd.Instance != "" {
		return cmd.Instance
	}
	parts := strings.Split(cmd.Code, ".")
	base := strcase.ToKebab(parts[len(parts)-1])

	taken := make(map[string]struct{}, len(doc.Instances))
	for _, instance := range doc.Instances {
		if instance.DefinitionID == cmd.Code {
			continue
		}
		taken[instance.ID] = struct{}{}
	}
	return keyvalue.NextKey(taken, func(n int) string {
		if n == 1 {
			return base
		}
		return fmt.Sprintf("%s-%d", base, n)
	})
}

func (cmd *scaffoldCmd) configuration() map[string]any {
	keys := cmd.Key
	if len(keys) == 0 {
		keys = []string{"sum"}
	}
	labels := cmd.Label
	if len(labels) == 0 {
		labels = []string{cmd.Name}
	}
	return map[string]any{
		"type":   cmd.Type,
		"title":  cmd.Name,
		"keys":   keys,
		"labels": labels,
		"step":   cmd.Step,
		"period": cmd.Period,
	}
}

func (cmd *scaffoldCmd) loadSchema() (map[string]any, error) {
	if cmd.SchemaPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(cmd.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("trendctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("trendctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

func upsertWidget(doc *dashboard.WidgetManifestDocument, widget dashboard.ManifestWidget, overwrite bool) error {
	for idx := range doc.Widgets {
		if doc.Widgets[idx].Definition.Code != widget.Definition.Code {
			continue
		}
		if !overwrite {
			return fmt.Errorf("trendctl: manifest already defines widget %s (use --overwrite to replace)", widget.Definition.Code)
		}
		doc.Widgets[idx] = widget
		return nil
	}
	doc.Widgets = append(doc.Widgets, widget)
	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Definition.Code < doc.Widgets[j].Definition.Code
	})
	return nil
}

func upsertInstance(doc *dashboard.WidgetManifestDocument, instance dashboard.WidgetInstance, overwrite bool) error {
	for idx := range doc.Instances {
		if doc.Instances[idx].ID != instance.ID {
			continue
		}
		if !overwrite {
			return fmt.Errorf("trendctl: manifest already defines instance %s (use --overwrite to replace)", instance.ID)
		}
		doc.Instances[idx] = instance
		return nil
	}
	doc.Instances = append(doc.Instances, instance)
	return nil
}

func loadOrInitManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.WidgetManifestDocument{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("trendctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("trendctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	tmpDoc := *doc
	tmpDoc.Source = ""

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("trendctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(tmpDoc); err != nil {
		return fmt.Errorf("trendctl: write manifest: %w", err)
	}
	return nil
}
