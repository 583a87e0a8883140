package analytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

func TestHTTPClientFetchAggregation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/dashboard" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		q := r.URL.Query()
		assert.Equal(t, "sales", q.Get("type"))
		assert.Equal(t, "day", q.Get("step"))
		assert.Equal(t, "1/1/2024", q.Get("from"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{"date":"01.01.2024","sum":"12"}], 6]`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/api/", APIKey: "secret"})
	require.NoError(t, err)

	payload, err := client.FetchAggregation(context.Background(), map[string]string{
		"type": "sales",
		"step": "day",
		"from": "1/1/2024",
	})
	require.NoError(t, err)
	require.Len(t, payload.Current, 1)
	assert.Equal(t, "01.01.2024", payload.Current[0].Date)
	assert.Equal(t, 12.0, payload.Current[0].Values["sum"])
	assert.Equal(t, 6.0, payload.PreviousTotal)
	assert.False(t, payload.Comparison)
}

func TestHTTPClientRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.FetchAggregation(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))
	assert.Contains(t, err.Error(), "maintenance")
	assert.Equal(t, http.StatusBadGateway, dashboard.HTTPStatus(err))

	var gerr *goerrors.Error
	require.True(t, goerrors.As(err, &gerr))
	assert.Equal(t, http.StatusServiceUnavailable, gerr.Code)
}

func TestHTTPClientRejectsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows": []}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.FetchAggregation(context.Background(), map[string]string{"type": "sales"})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))
}

func TestHTTPClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.FetchAggregation(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPClient(HTTPConfig{}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}

func TestAggregationRepositoryPassesRequestParams(t *testing.T) {
	now := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	client := NewMockClient(map[string]timeseries.Payload{
		"sales": {
			Current:       []timeseries.Record{timeseries.NewRecord("10.01.2024").With("sum", 4)},
			PreviousTotal: 2,
		},
	})
	repo := NewAggregationRepository(client)

	cfg := dashboard.NewQueryConfig("sales", now).WithParam("source", "web")
	payload, err := repo.FetchTrend(context.Background(), dashboard.TrendQuery{
		Config: cfg,
		Viewer: dashboard.ViewerContext{Locale: "ru"},
	})
	require.NoError(t, err)
	require.Len(t, payload.Current, 1)
	assert.Equal(t, 2.0, payload.PreviousTotal)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sales", calls[0]["type"])
	assert.Equal(t, "web", calls[0]["source"])
	assert.Equal(t, "ru", calls[0]["locale"])
	assert.Equal(t, cfg.RequestParams()["from"], calls[0]["from"])
}

func TestMockClientFixturesAndFailures(t *testing.T) {
	client := NewMockClient(nil)

	payload, err := client.FetchAggregation(context.Background(), map[string]string{"type": "unknown"})
	require.NoError(t, err)
	assert.Empty(t, payload.Current)
	assert.Equal(t, float64(timeseries.Unavailable), payload.PreviousTotal)

	client.SetPayload("orders", timeseries.Payload{
		Current:    []timeseries.Record{timeseries.NewRecord("01.01.2024").With("web", 1)},
		Previous:   []timeseries.Record{timeseries.NewRecord("25.12.2023").With("web", 3)},
		Comparison: true,
	})
	payload, err = client.FetchAggregation(context.Background(), map[string]string{"type": "orders"})
	require.NoError(t, err)
	assert.True(t, payload.Comparison)
	require.Len(t, payload.Previous, 1)

	boom := errors.New("offline")
	client.FailWith(boom)
	_, err = client.FetchAggregation(context.Background(), map[string]string{"type": "orders"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, client.Calls(), 3)
}

func TestHTTPClientRejectsHTMLBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.FetchAggregation(context.Background(), map[string]string{"type": "sales"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, dashboard.HTTPStatus(err))
	assert.Equal(t, timeseries.TextCodeInvalidPayload, dashboard.ErrorPayload(err)["code"])
}
