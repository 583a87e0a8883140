package analytics

import (
	"context"
	"maps"
	"sync"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// MockClient implements AggregationClient using in-memory fixtures keyed by
// the "type" parameter.
type MockClient struct {
	mu       sync.RWMutex
	payloads map[string]timeseries.Payload
	calls    []map[string]string
	err      error
}

var _ AggregationClient = (*MockClient)(nil)

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(payloads map[string]timeseries.Payload) *MockClient {
	return &MockClient{payloads: maps.Clone(payloads)}
}

// SetPayload replaces the fixture served for chartType.
func (c *MockClient) SetPayload(chartType string, payload timeseries.Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payloads == nil {
		c.payloads = map[string]timeseries.Payload{}
	}
	c.payloads[chartType] = payload
}

// FailWith makes every subsequent fetch return err. nil restores fixtures.
func (c *MockClient) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// FetchAggregation returns the fixture for params["type"] or an empty payload.
func (c *MockClient) FetchAggregation(_ context.Context, params map[string]string) (timeseries.Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, maps.Clone(params))
	if c.err != nil {
		return timeseries.Payload{}, c.err
	}
	payload, ok := c.payloads[params["type"]]
	if !ok {
		return timeseries.Payload{PreviousTotal: timeseries.Unavailable}, nil
	}
	return clonePayload(payload), nil
}

// Calls returns the parameters of every fetch so far.
func (c *MockClient) Calls() []map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]map[string]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func clonePayload(p timeseries.Payload) timeseries.Payload {
	out := p
	out.Current = append([]timeseries.Record(nil), p.Current...)
	out.Previous = append([]timeseries.Record(nil), p.Previous...)
	return out
}
