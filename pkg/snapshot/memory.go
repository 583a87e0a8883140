package snapshot

import (
	"context"
	"sync"

	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]timeseries.Result
}

var _ dashboard.SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]timeseries.Result{}}
}

// Save stores a copy of result under key.
func (s *MemoryStore) Save(_ context.Context, key string, result timeseries.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = cloneResult(result)
	return nil
}

// Load returns the snapshot stored under key.
func (s *MemoryStore) Load(_ context.Context, key string) (timeseries.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.items[key]
	if !ok {
		return timeseries.Result{}, false, nil
	}
	return cloneResult(result), true, nil
}

// Delete drops the snapshot stored under key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len reports the number of stored snapshots.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func cloneResult(r timeseries.Result) timeseries.Result {
	out := r
	out.Fields = append([]string(nil), r.Fields...)
	out.Series = make(timeseries.Series, len(r.Series))
	for i, bucket := range r.Series {
		fields := make(map[string]float64, len(bucket.Fields))
		for k, v := range bucket.Fields {
			fields[k] = v
		}
		out.Series[i] = timeseries.Bucket{Label: bucket.Label, Fields: fields}
	}
	return out
}
