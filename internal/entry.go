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
	"golang.org/x/sync/errgroup"

	"github.com/starford/jotter/internal/api"
	"github.com/starford/jotter/internal/client"
	"github.com/starford/jotter/internal/mcpserver"
	"github.com/starford/jotter/internal/noteservice"
	"github.com/starford/jotter/internal/storage"
	"github.com/starford/jotter/internal/tui"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{
		version: "dev",
		stdout:  os.Stdout,
		stdin:   os.Stdin,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func (a *application) newClient(logger *slog.Logger) *client.Client {
	return client.New(a.config.Client.BaseURL(),
		client.WithTimeout(a.config.Client.Timeout),
		client.WithLogger(logger),
	)
}

// Run starts the terminal client. Logs go to app.log_file because the
// terminal belongs to the UI.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	var logOut io.Writer = io.Discard
	if cfg.App.LogFile != "" {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("api_base", cfg.Client.BaseURL()),
		slog.Duration("timeout", cfg.Client.Timeout),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return tui.Run(ctx, app.newClient(logger), logger)
}

// ServeMCP runs the MCP bridge on stdio. Logs go to stderr since stdout
// carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Starting MCP server", slog.String("api_base", cfg.Client.BaseURL()))

	srv := mcpserver.New(app.newClient(logger), app.version)
	if err := srv.Serve(ctx, app.stdin, app.stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// Serve starts the reference notes backend.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Server.HTTP.Address()),
		slog.String("sqlite_path", cfg.Server.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := storage.OpenSQLite(cfg.Server.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer db.Close()

	svc := noteservice.NewService(db)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", api.Health)
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Ping(req.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		api.Health(w, req)
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc))

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Server.HTTP.Address()))
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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
