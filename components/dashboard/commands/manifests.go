package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
)

// LoadManifestsInput lists manifest files to register.
type LoadManifestsInput struct {
	Paths []string
}

type manifestLoader interface {
	LoadManifestFile(path string) (*dashboard.WidgetManifestDocument, error)
}

// LoadManifestsCommand registers widgets and instances from manifest files.
type LoadManifestsCommand struct {
	registry  manifestLoader
	telemetry Telemetry
}

// NewLoadManifestsCommand wires dependencies.
func NewLoadManifestsCommand(registry manifestLoader, telemetry Telemetry) *LoadManifestsCommand {
	return &LoadManifestsCommand{
		registry:  registry,
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[LoadManifestsInput] = (*LoadManifestsCommand)(nil)

// Execute loads every manifest in order, stopping at the first failure.
func (c *LoadManifestsCommand) Execute(ctx context.Context, msg LoadManifestsInput) error {
	if c.registry == nil {
		return errors.New("load manifests command requires registry")
	}
	for _, path := range msg.Paths {
		doc, err := c.registry.LoadManifestFile(path)
		if err != nil {
			return fmt.Errorf("load manifest %s: %w", path, err)
		}
		c.telemetry.Record(ctx, "trendcharts.manifest.loaded", map[string]any{
			"path":      path,
			"widgets":   len(doc.Widgets),
			"instances": len(doc.Instances),
		})
	}
	return nil
}
