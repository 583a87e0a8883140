package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/components/dashboard/commands"
	"github.com/goliatone/go-trendcharts/components/dashboard/queries"
)

// Handlers exposes chart endpoints backed by shared commands and queries.
type Handlers struct {
	Chart     gocommand.Querier[dashboard.ChartRequest, dashboard.WidgetData]
	Instances gocommand.Querier[queries.InstancesInput, []dashboard.WidgetInstance]
	Refresh   gocommand.Commander[commands.RefreshChartInput]
	Broadcast *dashboard.BroadcastHook
}

// Routes returns a chi router serving the chart API.
func Routes(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if h.Instances != nil {
		r.Get("/charts", h.HandleListCharts)
	}
	if h.Broadcast != nil {
		r.Get("/ws", h.Broadcast.ServeWebSocket)
		r.Get("/events", h.Broadcast.ServeSSE)
	}
	r.Get("/charts/{code}", h.HandleChart)
	if h.Refresh != nil {
		r.Post("/charts/{code}/refresh", h.HandleRefreshChart)
	}
	return r
}

// HandleChart renders the chart named by the {code} URL parameter.
func (h *Handlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	overrides, err := dashboard.ChartOverrides(query.Get)
	if err != nil {
		writeError(w, err)
		return
	}
	req := dashboard.ChartRequest{
		Code:      strings.TrimSpace(chi.URLParam(r, "code")),
		Viewer:    viewerFromRequest(r),
		Overrides: overrides,
	}
	data, err := h.Chart.Query(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handlers) HandleListCharts(w http.ResponseWriter, r *http.Request) {
	instances, err := h.Instances.Query(r.Context(), queries.InstancesInput{
		Definition: strings.TrimSpace(r.URL.Query().Get("definition")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"charts": instances})
}

func (h *Handlers) HandleRefreshChart(w http.ResponseWriter, r *http.Request) {
	input := commands.RefreshChartInput{
		Code:   strings.TrimSpace(chi.URLParam(r, "code")),
		Reason: r.URL.Query().Get("reason"),
	}
	if err := h.Refresh.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func viewerFromRequest(r *http.Request) dashboard.ViewerContext {
	viewer := dashboard.ViewerContext{
		UserID: r.Header.Get("X-User-ID"),
	}
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); locale != "" {
		viewer.Locale = strings.ToLower(locale)
		return viewer
	}
	header := r.Header.Get("Accept-Language")
	if idx := strings.IndexAny(header, ",;"); idx >= 0 {
		header = header[:idx]
	}
	viewer.Locale = strings.ToLower(strings.TrimSpace(header))
	return viewer
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, dashboard.HTTPStatus(err), dashboard.ErrorPayload(err))
}
