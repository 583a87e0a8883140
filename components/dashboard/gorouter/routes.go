package gorouter

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/components/dashboard/commands"
	"github.com/goliatone/go-trendcharts/components/dashboard/queries"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the chart controller, commands, and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	Instances      gocommand.Querier[queries.InstancesInput, []dashboard.WidgetInstance]
	Refresh        gocommand.Commander[commands.RefreshChartInput]
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	// DefaultLocale is used when the resolved viewer carries no locale.
	DefaultLocale  string
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for chart endpoints.
type RouteConfig struct {
	Charts    string
	Chart     string
	HTML      string
	Refresh   string
	WebSocket string
}

// Register mounts chart routes (JSON, HTML, refresh, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}
	if cfg.DefaultLocale != "" {
		resolve := viewerResolver
		viewerResolver = func(ctx router.Context) dashboard.ViewerContext {
			viewer := resolve(ctx)
			if viewer.Locale == "" {
				viewer.Locale = cfg.DefaultLocale
			}
			return viewer
		}
	}

	group := cfg.Router.Group(base)

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	if cfg.Instances != nil {
		group.Get(routes.Charts, router.WrapHandler(func(ctx router.Context) error {
			status, payload := listCharts(ctx.Context(), cfg.Instances, ctx.Query("definition"))
			return ctx.JSON(status, payload)
		}))
	}

	group.Get(routes.Chart, router.WrapHandler(func(ctx router.Context) error {
		req, err := chartRequest(ctx.Param("code"), viewerResolver(ctx), queryLookup(ctx))
		if err != nil {
			return respondError(ctx, err)
		}
		status, payload := chartJSON(ctx.Context(), cfg.Controller, req)
		return ctx.JSON(status, payload)
	}))

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		req, err := chartRequest(ctx.Param("code"), viewerResolver(ctx), queryLookup(ctx))
		if err != nil {
			return respondError(ctx, err)
		}
		body, err := chartHTML(ctx.Context(), cfg.Controller, req)
		if err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(body)
	}))

	if cfg.Refresh != nil {
		group.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
			status, payload := refreshChart(ctx.Context(), cfg.Refresh, ctx.Param("code"), ctx.Query("reason"))
			return ctx.JSON(status, payload)
		}))
	}

	return nil
}

func queryLookup(ctx router.Context) func(string) string {
	return func(key string) string {
		return ctx.Query(key)
	}
}

func chartRequest(code string, viewer dashboard.ViewerContext, lookup func(string) string) (dashboard.ChartRequest, error) {
	overrides, err := dashboard.ChartOverrides(lookup)
	if err != nil {
		return dashboard.ChartRequest{}, err
	}
	return dashboard.ChartRequest{
		Code:      strings.TrimSpace(code),
		Viewer:    viewer,
		Overrides: overrides,
	}, nil
}

func chartJSON(ctx context.Context, controller *dashboard.Controller, req dashboard.ChartRequest) (int, any) {
	data, err := controller.ChartPayload(ctx, req)
	if err != nil {
		return dashboard.HTTPStatus(err), dashboard.ErrorPayload(err)
	}
	return http.StatusOK, data
}

func chartHTML(ctx context.Context, controller *dashboard.Controller, req dashboard.ChartRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := controller.RenderChart(ctx, req, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func listCharts(ctx context.Context, query gocommand.Querier[queries.InstancesInput, []dashboard.WidgetInstance], definition string) (int, any) {
	instances, err := query.Query(ctx, queries.InstancesInput{Definition: strings.TrimSpace(definition)})
	if err != nil {
		return dashboard.HTTPStatus(err), dashboard.ErrorPayload(err)
	}
	return http.StatusOK, map[string]any{"charts": instances}
}

func refreshChart(ctx context.Context, cmd gocommand.Commander[commands.RefreshChartInput], code, reason string) (int, any) {
	if err := cmd.Execute(ctx, commands.RefreshChartInput{Code: strings.TrimSpace(code), Reason: reason}); err != nil {
		return dashboard.HTTPStatus(err), dashboard.ErrorPayload(err)
	}
	return http.StatusOK, map[string]string{"status": "refreshed"}
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if roles, ok := ctx.Locals("roles").([]string); ok {
		viewer.Roles = roles
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return parseAcceptLanguage(ctx.Header("Accept-Language"))
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, err error) error {
	return ctx.JSON(dashboard.HTTPStatus(err), dashboard.ErrorPayload(err))
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Charts == "" {
		routes.Charts = "/dashboard/charts"
	}
	if routes.Chart == "" {
		routes.Chart = "/dashboard/charts/:code"
	}
	if routes.HTML == "" {
		routes.HTML = "/dashboard/charts/:code/html"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/dashboard/charts/:code/refresh"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboard/ws"
	}
	return routes
}
