// Package internal wires the reader's services together and runs the HTTP
// server.
package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/api"
	"github.com/thywilljoshua/pdf-reader/internal/highlight"
	"github.com/thywilljoshua/pdf-reader/internal/library"
	"github.com/thywilljoshua/pdf-reader/internal/outline"
	"github.com/thywilljoshua/pdf-reader/internal/session"
	"github.com/thywilljoshua/pdf-reader/internal/sse"
)

const (
	shutdownTimeout = 10 * time.Second
	sseKeepAlive    = 15 * time.Second
)

// NewAssistant returns the assistant selected by cfg: Gemini when enabled,
// otherwise the no-op assistant that explains how to configure one.
func NewAssistant(ctx context.Context, cfg AIConfig, logger *zap.Logger) (ai.Assistant, error) {
	if !cfg.Enabled() {
		return ai.Noop{}, nil
	}
	g, err := ai.NewGemini(ctx, cfg.APIKey, cfg.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}
	return g, nil
}

// NewHighlightStore opens the configured highlight store.
func NewHighlightStore(ctx context.Context, cfg HighlightsConfig, logger *zap.Logger) (highlight.Store, error) {
	if cfg.Store == StoreMemory {
		return highlight.NewMemory(), nil
	}
	s, err := highlight.NewSQLite(ctx, cfg.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("init highlights: %w", err)
	}
	return s, nil
}

// Run starts the application with the given options and blocks until ctx
// is cancelled, a shutdown signal arrives or the server fails.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		l, err := NewLogger(cfg.App.Env, cfg.App.LogLevel)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		defer func() { _ = logger.Sync() }()
	}

	logger.Info("configuration loaded",
		zap.String("http_address", cfg.App.HTTP.Address()),
		zap.String("library_path", cfg.Library.Path),
		zap.String("highlight_store", cfg.Highlights.Store),
		zap.Bool("ai_enabled", cfg.AI.Enabled()),
	)

	highlights, err := NewHighlightStore(ctx, cfg.Highlights, logger)
	if err != nil {
		return err
	}
	defer highlights.Close()

	broker := sse.NewBroker(0, sseKeepAlive)
	defer broker.Close()

	lib, err := library.New(cfg.Library.Path, broker, logger)
	if err != nil {
		return err
	}
	if err := lib.Load(); err != nil {
		logger.Warn("initial library load failed", zap.Error(err))
	}
	logger.Info("library loaded", zap.Int("documents", lib.Len()))

	assistant, err := NewAssistant(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}
	policy, err := outline.ParsePolicy(cfg.AI.OutlinePolicy)
	if err != nil {
		return err
	}

	sessions := session.NewManager(broker, logger)
	defer sessions.Close()

	router := api.NewRouter(api.Deps{
		Library:      lib,
		Highlights:   highlights,
		Assistant:    assistant,
		Sessions:     sessions,
		Events:       broker,
		Logger:       logger,
		AITimeout:    cfg.AI.Timeout,
		ContextPages: cfg.AI.ContextPages,
		Policy:       policy,
	}, cfg.App.HTTP.CORSOrigins)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Library.Watch {
		g.Go(func() error {
			if err := lib.Watch(gCtx); err != nil {
				logger.Error("library watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("context cancelled, initiating shutdown")
		}

		// Event streams never go idle on their own; end them first.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
		// A signal does not cancel gCtx; returning an error stops the watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("application error", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

var errShutdown = errors.New("shutdown")
