package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
)

// InstancesInput narrows the instance listing. An empty Definition lists
// every instance.
type InstancesInput struct {
	Definition string
}

type instanceLister interface {
	Instances() []dashboard.WidgetInstance
}

// InstancesQuery lists the configured chart instances.
type InstancesQuery struct {
	lister instanceLister
}

// NewInstancesQuery builds the query.
func NewInstancesQuery(lister instanceLister) *InstancesQuery {
	return &InstancesQuery{lister: lister}
}

var _ gocommand.Querier[InstancesInput, []dashboard.WidgetInstance] = (*InstancesQuery)(nil)

// Query returns the matching instances ordered by ID.
func (q *InstancesQuery) Query(_ context.Context, input InstancesInput) ([]dashboard.WidgetInstance, error) {
	instances := q.lister.Instances()
	if input.Definition == "" {
		return instances, nil
	}
	out := instances[:0]
	for _, instance := range instances {
		if instance.DefinitionID == input.Definition {
			out = append(out, instance)
		}
	}
	return out, nil
}
