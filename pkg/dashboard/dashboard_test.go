package dashboard

import (
	"context"
	"testing"
)

func TestRenderChartUsesDefaultRegistry(t *testing.T) {
	data, err := RenderChart(context.Background(), "sales-trend", "ru")
	if err != nil {
		t.Fatalf("RenderChart returned error: %v", err)
	}
	if data["instance_id"] != "sales-trend" {
		t.Fatalf("expected sales-trend payload, got %v", data["instance_id"])
	}
	if _, err := RenderChart(context.Background(), "missing", "ru"); err == nil {
		t.Fatalf("expected error for unknown chart")
	}
}
