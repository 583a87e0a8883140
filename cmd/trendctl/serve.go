package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"

	"github.com/goliatone/go-trendcharts/components/dashboard"
	"github.com/goliatone/go-trendcharts/components/dashboard/commands"
	"github.com/goliatone/go-trendcharts/components/dashboard/gorouter"
	"github.com/goliatone/go-trendcharts/components/dashboard/httpapi"
	"github.com/goliatone/go-trendcharts/components/dashboard/queries"
	"github.com/goliatone/go-trendcharts/pkg/analytics"
	"github.com/goliatone/go-trendcharts/pkg/config"
	"github.com/goliatone/go-trendcharts/pkg/snapshot"
)

type serveCmd struct {
	Addr      string `help:"Override the configured listen address."`
	Transport string `default:"fiber" enum:"fiber,chi" help:"HTTP stack serving the chart API (fiber, chi)."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("serving chart API",
		zap.String("addr", cfg.Server.Addr),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("transport", cmd.Transport),
		zap.Int("instances", len(app.registry.Instances())),
	)
	if cmd.Transport == "chi" {
		return serveChi(ctx, app, cfg, logger)
	}
	return serveFiber(app, cfg)
}

// application bundles the wired chart stack.
type application struct {
	registry   *dashboard.Registry
	service    *dashboard.Service
	controller *dashboard.Controller
	hook       *dashboard.BroadcastHook
	refresh    *commands.RefreshChartCommand
	closers    []func() error
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*application, error) {
	app := &application{hook: dashboard.NewBroadcastHook()}
	telemetry := dashboard.NewZapTelemetry(logger)

	var snapshots dashboard.SnapshotStore
	if cfg.Snapshot.Path != "" {
		store, err := snapshot.OpenBadgerStore(snapshot.BadgerOptions{Path: cfg.Snapshot.Path, TTL: cfg.SnapshotTTL()})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, store.Close)
		snapshots = store
	} else {
		snapshots = snapshot.NewMemoryStore()
	}

	var repo dashboard.TrendRepository = dashboard.DemoTrendRepository{}
	if cfg.Analytics.BaseURL != "" {
		client, err := analytics.NewHTTPClient(analytics.HTTPConfig{
			BaseURL: cfg.Analytics.BaseURL,
			APIKey:  cfg.Analytics.APIKey,
			Path:    cfg.Analytics.Path,
			Timeout: cfg.AnalyticsTimeout(),
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		repo = analytics.NewAggregationRepository(client)
	} else {
		logger.Warn("analytics.base_url not set, serving demo data")
	}

	cache := dashboard.NewChartCache(cfg.CacheTTL())
	app.registry = dashboard.NewRegistry()
	if err := dashboard.RegisterTrendProviders(app.registry, dashboard.BootstrapOptions{
		Repository: repo,
		Snapshots:  snapshots,
		Telemetry:  telemetry,
		Cache:      cache,
		AssetsHost: cfg.Charts.AssetsHost,
	}); err != nil {
		app.Close()
		return nil, err
	}
	if len(cfg.Charts.Manifests) > 0 {
		load := commands.NewLoadManifestsCommand(app.registry, telemetry)
		if err := load.Execute(ctx, commands.LoadManifestsInput{Paths: cfg.Charts.Manifests}); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.service = dashboard.NewService(dashboard.Options{
		Registry:     app.registry,
		Validator:    dashboard.NewJSONSchemaValidator(),
		Telemetry:    telemetry,
		Cache:        cache,
		RefreshHooks: []dashboard.RefreshHook{app.hook},
	})
	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("trendctl: template renderer: %w", err)
	}
	app.controller = dashboard.NewController(dashboard.ControllerOptions{Service: app.service, Renderer: renderer})
	app.refresh = commands.NewRefreshChartCommand(app.service, telemetry)
	return app, nil
}

// Close releases stores opened by buildApp.
func (a *application) Close() error {
	var errs error
	for _, closeFn := range a.closers {
		errs = errors.Join(errs, closeFn())
	}
	a.closers = nil
	return errs
}

func serveFiber(app *application, cfg config.Config) error {
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:        server.Router(),
		Controller:    app.controller,
		Instances:     queries.NewInstancesQuery(app.registry),
		Refresh:       app.refresh,
		Broadcast:     app.hook,
		BasePath:      cfg.Server.BasePath,
		DefaultLocale: cfg.Charts.Locale,
	}); err != nil {
		return fmt.Errorf("trendctl: register routes: %w", err)
	}
	return server.Serve(cfg.Server.Addr)
}

func chiHandler(app *application, cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Mount(cfg.Server.BasePath+"/dashboard", httpapi.Routes(&httpapi.Handlers{
		Chart:     queries.NewChartQuery(app.service),
		Instances: queries.NewInstancesQuery(app.registry),
		Refresh:   app.refresh,
		Broadcast: app.hook,
	}))
	return r
}

func serveChi(ctx context.Context, app *application, cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           chiHandler(app, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
