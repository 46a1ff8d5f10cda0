// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/almanac/internal/api"
	"github.com/starford/almanac/internal/calendar"
	"github.com/starford/almanac/internal/eventservice"
	"github.com/starford/almanac/internal/holidays"
	"github.com/starford/almanac/internal/metrics"
	"github.com/starford/almanac/internal/scheduler"
	"github.com/starford/almanac/internal/sse"
	"github.com/starford/almanac/internal/store"
	"github.com/starford/almanac/internal/watcher"
)

// components are the wired pieces shared by the server and the CLI commands.
type components struct {
	logger   *slog.Logger
	db       *store.DB
	registry *prometheus.Registry
	agg      *calendar.Aggregator
	svc      *eventservice.Service
}

func (c *components) Close() error {
	return c.db.Close()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the process logger: tint for humans, JSON otherwise.
func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	if cfg.LogFormat == LogFormatText {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.RFC1123Z,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

// newHolidaySource returns nil when national holidays are turned off.
func newHolidaySource(cfg HolidaysConfig) holidays.Source {
	switch cfg.Provider {
	case holidays.ProviderBuiltin:
		return holidays.NewBuiltin(cfg.Country)
	case ProviderNone:
		return nil
	default:
		return holidays.NewNagerClient(cfg.BaseURL, cfg.Country, cfg.Timeout)
	}
}

// build opens the database and wires the calendar stack.
func (a *application) build(svcOpts ...eventservice.Option) (*components, error) {
	cfg := a.config

	out := a.logOutput
	if out == nil {
		out = os.Stdout
		if cfg.App.LogFormat == LogFormatText {
			out = os.Stderr
		}
	}
	logger := newLogger(cfg.App, out)
	slog.SetDefault(logger)

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	agg := calendar.NewAggregator(db, db, newHolidaySource(cfg.Holidays), cfg.Holidays.Country,
		calendar.WithLogger(logger),
		calendar.WithMetrics(m),
	)

	opts := append([]eventservice.Option{
		eventservice.WithLogger(logger),
		eventservice.WithMetrics(m),
	}, svcOpts...)
	svc := eventservice.NewService(db, db, agg, opts...)

	return &components{
		logger:   logger,
		db:       db,
		registry: reg,
		agg:      agg,
		svc:      svc,
	}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := app.build(eventservice.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer c.Close()
	logger := c.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("holiday_provider", cfg.Holidays.Provider),
		slog.String("country", cfg.Holidays.Country),
		slog.String("log_level", cfg.App.LogLevel.String()))

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", api.Live)
	r.Get("/health/ready", api.Ready(func(r *http.Request) error {
		return c.db.Ping(r.Context())
	}))
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler(c.registry))
	}

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Another process writing the same database shows up as a calendar refresh.
	g.Go(func() error {
		if err := watcher.Watch(gCtx, cfg.SQLite.Path, 0, logger, broker.PublishExternalChange); err != nil {
			logger.Warn("database watcher unavailable", slog.String("error", err.Error()))
		}
		return nil
	})

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(c.agg, c.db, c.db,
			scheduler.WithSpecs(cfg.Scheduler.WarmSpec, cfg.Scheduler.ReminderSpec),
			scheduler.WithReminderLead(cfg.Scheduler.ReminderLead),
			scheduler.WithLogger(logger),
		)
		g.Go(func() error {
			return sched.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher and scheduler exit with the server.
var errShutdown = errors.New("shutdown requested")
