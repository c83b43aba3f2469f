// Package internal provides the application wiring behind each command.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wanikanji/internal/ankiconnect"
	"github.com/starford/wanikanji/internal/api"
	"github.com/starford/wanikanji/internal/catalog"
	"github.com/starford/wanikanji/internal/install"
	"github.com/starford/wanikanji/internal/ledger"
	"github.com/starford/wanikanji/internal/models"
	"github.com/starford/wanikanji/internal/snapshot"
	"github.com/starford/wanikanji/internal/sse"
	"github.com/starford/wanikanji/internal/wanikani"
)

// App runs commands against one configuration.
type App struct {
	config  *Config
	version string
	out     io.Writer
	logger  *slog.Logger
}

// New creates an application with the given options.
func New(opts ...Option) (*App, error) {
	app := &App{version: "dev", out: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		app.logger = newLogger(app.config.App, os.Stderr)
		slog.SetDefault(app.logger)
	}

	return app, nil
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// free for command output and the MCP stdio transport.
func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (a *App) wanikaniClient() *wanikani.Client {
	cfg := a.config.WaniKani
	return wanikani.New(
		wanikani.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		wanikani.WithBaseURL(cfg.BaseURL),
		wanikani.WithToken(cfg.APIToken),
		wanikani.WithRevision(cfg.Revision),
		wanikani.WithCooldown(cfg.RateLimitCooldown),
		wanikani.WithRequestsPerMinute(cfg.RequestsPerMinute),
		wanikani.WithLogger(a.logger),
	)
}

func (a *App) ankiClient() *ankiconnect.Client {
	cfg := a.config.AnkiConnect
	return ankiconnect.New(
		ankiconnect.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		ankiconnect.WithEndpoint(cfg.Endpoint),
		ankiconnect.WithVersion(cfg.Version),
		ankiconnect.WithLogger(a.logger),
	)
}

func (a *App) openLedger() (*ledger.DB, error) {
	db, err := ledger.Open(a.config.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return db, nil
}

func (a *App) noteTargets() api.Notes {
	return api.Notes{
		KanjiModel:      a.config.Kanji.ModelName,
		KanjiDeck:       a.config.Kanji.DeckName,
		VocabularyModel: a.config.Vocabulary.ModelName,
		VocabularyDeck:  a.config.Vocabulary.DeckName,
	}
}

// Serve runs the status API and re-installs a variant whenever its
// snapshot is rewritten, until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.config
	logger := a.logger

	logger.Info("configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("cache_dir", cfg.Cache.Dir),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("anki_endpoint", cfg.AnkiConnect.Endpoint),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := snapshot.NewFS(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	db, err := a.openLedger()
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := catalog.NewService(store, db)
	apiRouter := api.NewRouter(svc, a.noteTargets(), cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if _, err := store.List(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"cache unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// One pending install per variant; the installer drains them one at a
	// time so AnkiConnect never sees two runs at once.
	queue := make(chan models.Variant, len(models.Variants))
	observer := func(o install.Outcome) {
		ev := sse.InstallEvent{
			Variant:   string(o.Variant),
			SubjectID: o.SubjectID,
			Label:     o.Label,
			Status:    string(o.Status),
			Attempts:  o.Attempts,
		}
		if o.Err != nil {
			ev.Error = o.Err.Error()
		}
		broker.PublishInstall(ev)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return snapshot.Watch(gCtx, cfg.Cache.Dir, logger, func(key string) {
			broker.PublishSnapshot(key)
			variant, err := models.ParseVariant(key)
			if err != nil {
				return
			}
			select {
			case queue <- variant:
			default:
				logger.Debug("serve: install already queued", slog.String("variant", key))
			}
		})
	})

	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case variant := <-queue:
				records, ok, err := a.loadVariant(store, variant)
				if ok {
					_, err = a.runPipeline(gCtx, variant, records, db, observer)
				}
				if err != nil {
					logger.Error("serve: install", slog.String("variant", string(variant)), slog.String("error", err.Error()))
				}
			}
		}
	})

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
