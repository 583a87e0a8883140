package analytics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// DefaultAggregationPath is the endpoint queried when HTTPConfig.Path is empty.
const DefaultAggregationPath = "/dashboard"

// maxErrorBody caps how much of a failed response is copied into the error.
const maxErrorBody = 512

// HTTPConfig configures the HTTP analytics client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Path       string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPClient talks to the aggregation service over REST.
type HTTPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ AggregationClient = (*HTTPClient)(nil)

// NewHTTPClient builds a client capable of hitting the live aggregation API.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("analytics: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("analytics: invalid base url: %w", err)
	}
	path := cfg.Path
	if path == "" {
		path = DefaultAggregationPath
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/"),
		apiKey:   cfg.APIKey,
		client:   httpClient,
	}, nil
}

// FetchAggregation issues GET {endpoint}?{params} and decodes the payload.
func (c *HTTPClient) FetchAggregation(ctx context.Context, params map[string]string) (timeseries.Payload, error) {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	target := c.endpoint
	if len(values) > 0 {
		target += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return timeseries.Payload{}, fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return timeseries.Payload{}, goerrors.Wrap(err, goerrors.CategoryExternal, "analytics: http request failed").
			WithTextCode("AGGREGATION_UNAVAILABLE")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return timeseries.Payload{}, goerrors.New(
			fmt.Sprintf("analytics: remote error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			goerrors.CategoryExternal,
		).WithCode(resp.StatusCode).WithTextCode(goerrors.HTTPStatusToTextCode(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return timeseries.Payload{}, goerrors.Wrap(err, goerrors.CategoryExternal, "analytics: read response")
	}
	return timeseries.DecodePayload(data)
}
