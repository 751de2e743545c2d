// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/onepage/internal/analysis"
	"github.com/starford/onepage/internal/analyzer"
	"github.com/starford/onepage/internal/api"
	"github.com/starford/onepage/internal/board"
	"github.com/starford/onepage/internal/export"
	"github.com/starford/onepage/internal/index"
	"github.com/starford/onepage/internal/mcpserver"
	"github.com/starford/onepage/internal/sse"
	"github.com/starford/onepage/internal/storage"
)

// runtime holds the components shared by the HTTP and MCP front ends.
type runtime struct {
	cfg      *Config
	logger   *slog.Logger
	store    *storage.FS
	db       *index.DB
	renderer *export.Renderer
}

func (app *application) setup() (*runtime, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	renderer, err := export.New(cfg.Export.Options())
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &runtime{cfg: cfg, logger: logger, store: store, db: db, renderer: renderer}, nil
}

// watch keeps the catalogue in sync with the library and fans library events
// out to every listener.
func (rt *runtime) watch(ctx context.Context, listeners ...index.EventCallback) error {
	err := index.Watch(ctx, rt.db, rt.store, rt.cfg.Library.Path, rt.logger, func(kind, path string) {
		for _, l := range listeners {
			l(kind, path)
		}
	})
	if err != nil {
		rt.logger.Warn("watcher: disabled", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	rt, err := app.setup()
	if err != nil {
		return err
	}
	defer rt.db.Close()
	cfg, logger := rt.cfg, rt.logger

	broker := sse.NewBroker(cfg.Canvas.FrameThrottle)
	defer broker.Close()

	svc := board.NewService(cfg.Canvas.Board(), rt.store, rt.renderer, broker, logger)
	an := analyzer.New(cfg.AnalyzerClientConfig(), logger)
	if cfg.Analyzer.URL == "" {
		logger.Warn("analyzer url not set, document uploads are disabled")
	}

	apiRouter := api.NewRouter(api.NewHandler(svc, rt.db, an), cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Library watcher: catalogue, SSE clients and open canvases.
	g.Go(func() error {
		return rt.watch(gCtx, broker.PublishAnalysisEvent, svc.AnalysisChanged)
	})

	// Idle session reaper.
	g.Go(func() error {
		return svc.RunReaper(gCtx, cfg.Canvas.ReapInterval)
	})

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

		// SSE streams never finish on their own.
		broker.Close()

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

// errShutdown ends the errgroup once the HTTP server has stopped, so the
// watcher and reaper are cancelled too.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	rt, err := app.setup()
	if err != nil {
		return err
	}
	defer rt.db.Close()
	cfg := rt.cfg

	if err := os.MkdirAll(cfg.Library.ExportDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	exports, err := storage.NewFS(cfg.Library.ExportDir)
	if err != nil {
		return fmt.Errorf("init exports: %w", err)
	}

	svc := board.NewService(cfg.Canvas.Board(), rt.store, rt.renderer, nil, rt.logger)
	srv := mcpserver.New(svc, rt.db, mcpserver.WithExports(exports))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = rt.watch(ctx, svc.AnalysisChanged) }()
	go func() { _ = svc.RunReaper(ctx, cfg.Canvas.ReapInterval) }()

	rt.logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// RenderOptions describe one offline export.
type RenderOptions struct {
	In       string
	OutDir   string
	Viewport int
	Format   export.Format
	Dark     bool
	FontSize int
}

// Render exports an analysis file without starting a server and returns the
// path of the written artifact.
func Render(ctx context.Context, cfg *Config, ro RenderOptions) (string, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	data, err := os.ReadFile(ro.In)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", ro.In, err)
	}
	a, err := analysis.Decode(data, ro.In)
	if err != nil {
		return "", err
	}

	renderer, err := export.New(cfg.Export.Options())
	if err != nil {
		return "", fmt.Errorf("init renderer: %w", err)
	}
	svc := board.NewService(cfg.Canvas.Board(), nil, renderer, nil, logger)
	v, err := svc.OpenPayload(ctx, a, filepath.Base(ro.In))
	if err != nil {
		return "", err
	}
	defer func() { _ = svc.Close(v.ID) }()

	if err := svc.SetDarkMode(v.ID, ro.Dark); err != nil {
		return "", err
	}
	if _, err := svc.SetFontSize(v.ID, ro.FontSize); err != nil {
		return "", err
	}

	art, err := svc.Export(ctx, v.ID, export.Request{Viewport: ro.Viewport, Format: ro.Format})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(ro.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out, err := storage.NewFS(ro.OutDir)
	if err != nil {
		return "", err
	}
	if err := out.Write(art.Filename, art.Data); err != nil {
		return "", err
	}
	logger.Debug("render: written", slog.String("file", art.Filename), slog.Int("bytes", len(art.Data)))
	return filepath.Join(ro.OutDir, art.Filename), nil
}
