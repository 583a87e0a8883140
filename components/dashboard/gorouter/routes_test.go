package gorouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	router "github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/components/dashboard/commands"
	"github.com/goliatone/go-trendcharts/components/dashboard/queries"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	if err == nil {
		t.Fatalf("expected error when router/controller missing")
	}
	err = Register(Config[struct{}]{Router: newMockRouter()})
	if err == nil {
		t.Fatalf("expected error when controller missing")
	}
}

func TestRegisterChartRoutes(t *testing.T) {
	mock := newMockRouter()
	refresh := &stubRefresh{}
	registry := dashboard.NewRegistry()
	cfg := Config[struct{}]{
		Router:     mock,
		Controller: newTestController(registry),
		Instances:  queries.NewInstancesQuery(registry),
		Refresh:    refresh,
		Broadcast:  dashboard.NewBroadcastHook(),
	}
	require.NoError(t, Register(cfg))

	for _, key := range []string{
		"GET:/admin/dashboard/charts",
		"GET:/admin/dashboard/charts/:code",
		"GET:/admin/dashboard/charts/:code/html",
		"POST:/admin/dashboard/charts/:code/refresh",
	} {
		_, ok := mock.routes[key]
		assert.True(t, ok, key)
	}
	_, ok := mock.ws["/admin/dashboard/ws"]
	assert.True(t, ok, "websocket route")
}

func TestRegisterCustomBasePathSkipsOptionalRoutes(t *testing.T) {
	mock := newMockRouter()
	require.NoError(t, Register(Config[struct{}]{
		Router:     mock,
		Controller: newTestController(dashboard.NewRegistry()),
		BasePath:   "/ops",
		Routes:     RouteConfig{Chart: "/trend/:code"},
	}))

	_, ok := mock.routes["GET:/ops/trend/:code"]
	assert.True(t, ok)
	_, ok = mock.routes["POST:/ops/dashboard/charts/:code/refresh"]
	assert.False(t, ok, "refresh needs a commander")
	assert.Empty(t, mock.ws)
}

func TestChartJSONRoute(t *testing.T) {
	mock := newMockRouter()
	require.NoError(t, Register(Config[struct{}]{
		Router:     mock,
		Controller: newTestController(dashboard.NewRegistry()),
	}))
	handler := mock.routes["GET:/admin/dashboard/charts/:code"]

	ctx := newMockContext()
	ctx.params["code"] = "sales-trend"
	ctx.query["step"] = "week"
	ctx.query["locale"] = "RU"
	if err := handler(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	require.Equal(t, http.StatusOK, ctx.status)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(ctx.body, &payload))
	assert.Equal(t, "sales-trend", payload["instance_id"])
	assert.NotEmpty(t, payload["chart_html"])

	missing := newMockContext()
	missing.params["code"] = "nope"
	require.NoError(t, handler(missing))
	assert.Equal(t, http.StatusNotFound, missing.status)
	assert.Contains(t, string(missing.body), "CHART_NOT_FOUND")

	bad := newMockContext()
	bad.params["code"] = "sales-trend"
	bad.query["period"] = "-3"
	require.NoError(t, handler(bad))
	assert.Equal(t, http.StatusBadRequest, bad.status)
}

func TestChartHTMLRoute(t *testing.T) {
	mock := newMockRouter()
	renderer := &stubRenderer{}
	require.NoError(t, Register(Config[struct{}]{
		Router: mock,
		Controller: dashboard.NewController(dashboard.ControllerOptions{
			Service:  dashboard.NewService(dashboard.Options{}),
			Renderer: renderer,
		}),
	}))
	handler := mock.routes["GET:/admin/dashboard/charts/:code/html"]

	ctx := newMockContext()
	ctx.params["code"] = "orders-by-source"
	if err := handler(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if renderer.calls == 0 {
		t.Fatalf("renderer not invoked")
	}
	assert.Equal(t, "ok", string(ctx.body))
	assert.Equal(t, "text/html; charset=utf-8", ctx.headers["Content-Type"])
}

func TestRefreshRoute(t *testing.T) {
	mock := newMockRouter()
	refresh := &stubRefresh{}
	require.NoError(t, Register(Config[struct{}]{
		Router:     mock,
		Controller: newTestController(dashboard.NewRegistry()),
		Refresh:    refresh,
	}))
	handler := mock.routes["POST:/admin/dashboard/charts/:code/refresh"]

	ctx := newMockContext()
	ctx.params["code"] = " sales-trend "
	ctx.query["reason"] = "manual"
	require.NoError(t, handler(ctx))
	assert.Equal(t, http.StatusOK, ctx.status)
	assert.Equal(t, commands.RefreshChartInput{Code: "sales-trend", Reason: "manual"}, refresh.last)

	refresh.err = goerrors.New("chart not found", goerrors.CategoryNotFound)
	failed := newMockContext()
	failed.params["code"] = "gone"
	require.NoError(t, handler(failed))
	assert.Equal(t, http.StatusNotFound, failed.status)
}

func TestListChartsRoute(t *testing.T) {
	mock := newMockRouter()
	registry := dashboard.NewRegistry()
	require.NoError(t, Register(Config[struct{}]{
		Router:     mock,
		Controller: newTestController(registry),
		Instances:  queries.NewInstancesQuery(registry),
	}))
	handler := mock.routes["GET:/admin/dashboard/charts"]

	ctx := newMockContext()
	ctx.query["definition"] = dashboard.WidgetTrend
	require.NoError(t, handler(ctx))
	require.Equal(t, http.StatusOK, ctx.status)

	var payload struct {
		Charts []dashboard.WidgetInstance `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(ctx.body, &payload))
	require.Len(t, payload.Charts, 1)
	assert.Equal(t, "sales-trend", payload.Charts[0].ID)
}

func TestInferLocale(t *testing.T) {
	ctx := newMockContext()
	ctx.headers["Accept-Language"] = "de-DE;q=0.9, en;q=0.8"
	assert.Equal(t, "de-de", inferLocale(ctx))

	ctx.query["locale"] = " RU "
	assert.Equal(t, "ru", inferLocale(ctx))

	ctx.locals["locale"] = "en"
	assert.Equal(t, "en", inferLocale(ctx))

	assert.Equal(t, "", parseAcceptLanguage(" , ;q=1"))
}

func TestDefaultViewerResolver(t *testing.T) {
	ctx := newMockContext()
	ctx.locals["user_id"] = "u-7"
	ctx.locals["roles"] = []string{"analyst"}
	viewer := defaultViewerResolver(ctx)
	assert.Equal(t, "u-7", viewer.UserID)
	assert.Equal(t, []string{"analyst"}, viewer.Roles)
}

// --- Test helpers ---

func newTestController(registry *dashboard.Registry) *dashboard.Controller {
	return dashboard.NewController(dashboard.ControllerOptions{
		Service:  dashboard.NewService(dashboard.Options{Registry: registry}),
		Renderer: &stubRenderer{},
	})
}

type mockRouter struct {
	router.Router[struct{}]
	prefix string
	routes map[string]router.HandlerFunc
	ws     map[string]func(router.WebSocketContext) error
}

func newMockRouter() *mockRouter {
	return &mockRouter{
		routes: map[string]router.HandlerFunc{},
		ws:     map[string]func(router.WebSocketContext) error{},
	}
}

func (m *mockRouter) Group(prefix string) router.Router[struct{}] {
	return &mockRouter{
		prefix: m.prefix + prefix,
		routes: m.routes,
		ws:     m.ws,
	}
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) {
	full := m.prefix + path
	m.routes[method+":"+full] = handler
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.GET), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.POST), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo {
	full := m.prefix + path
	m.ws[full] = handler
	return mockRouteInfo{}
}

type mockRouteInfo struct {
	router.RouteInfo
}

func (mockRouteInfo) SetName(string) router.RouteInfo { return mockRouteInfo{} }

type mockContext struct {
	router.Context
	ctx     context.Context
	headers map[string]string
	body    []byte
	locals  map[any]any
	params  map[string]string
	query   map[string]string
	status  int
}

func newMockContext() *mockContext {
	return &mockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		locals:  map[any]any{},
		params:  map[string]string{},
		query:   map[string]string{},
	}
}

func (m *mockContext) Context() context.Context {
	return m.ctx
}

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return m
}

func (m *mockContext) Header(k string) string {
	return m.headers[k]
}

func (m *mockContext) Send(b []byte) error {
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) Body() []byte { return m.body }

func (m *mockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.params[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Query(name string, defaultValue ...string) string {
	if v, ok := m.query[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

type stubRenderer struct {
	calls int
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("ok"))
	}
	return "ok", nil
}

type stubRefresh struct {
	last commands.RefreshChartInput
	err  error
}

func (s *stubRefresh) Execute(_ context.Context, input commands.RefreshChartInput) error {
	s.last = input
	return s.err
}
