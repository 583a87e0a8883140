package queries

import (
	"context"
	"testing"

	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
)

type stubChartService struct {
	calls int
	last  dashboard.ChartRequest
}

func (s *stubChartService) Chart(_ context.Context, req dashboard.ChartRequest) (dashboard.WidgetData, error) {
	s.calls++
	s.last = req
	return dashboard.WidgetData{"instance_id": req.Code}, nil
}

type stubLister []dashboard.WidgetInstance

func (s stubLister) Instances() []dashboard.WidgetInstance {
	return append([]dashboard.WidgetInstance(nil), s...)
}

func TestChartQuery(t *testing.T) {
	service := &stubChartService{}
	query := NewChartQuery(service)
	data, err := query.Query(context.Background(), dashboard.ChartRequest{Code: "sales-trend"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 {
		t.Fatalf("expected 1 call, got %d", service.calls)
	}
	if data["instance_id"] != "sales-trend" {
		t.Fatalf("expected chart data for sales-trend, got %v", data)
	}
}

func TestInstancesQuery(t *testing.T) {
	lister := stubLister{
		{ID: "a", DefinitionID: dashboard.WidgetTrend},
		{ID: "b", DefinitionID: dashboard.WidgetBreakdown},
		{ID: "c", DefinitionID: dashboard.WidgetTrend},
	}
	query := NewInstancesQuery(lister)

	all, err := query.Query(context.Background(), InstancesInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(all))
	}

	trends, err := query.Query(context.Background(), InstancesInput{Definition: dashboard.WidgetTrend})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(trends) != 2 || trends[0].ID != "a" || trends[1].ID != "c" {
		t.Fatalf("expected trend instances a and c, got %#v", trends)
	}
}

func TestInstancesQueryAgainstRegistry(t *testing.T) {
	query := NewInstancesQuery(dashboard.NewRegistry())
	instances, err := query.Query(context.Background(), InstancesInput{Definition: dashboard.WidgetComparison})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(instances) != 1 || instances[0].ID != "sales-comparison" {
		t.Fatalf("expected the built-in comparison instance, got %#v", instances)
	}
}
