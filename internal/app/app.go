// Package app wires all MAITRI subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP traffic until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithStore, WithLogLevel, etc.). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maitri-mission/maitri/internal/assistant"
	"github.com/maitri-mission/maitri/internal/chat"
	"github.com/maitri-mission/maitri/internal/config"
	"github.com/maitri-mission/maitri/internal/health"
	"github.com/maitri-mission/maitri/internal/httpapi"
	"github.com/maitri-mission/maitri/internal/resilience"
	"github.com/maitri-mission/maitri/internal/scene"
	"github.com/maitri-mission/maitri/internal/store"
	"github.com/maitri-mission/maitri/pkg/provider/live"
	"github.com/maitri-mission/maitri/pkg/provider/llm"
)

// readHeaderTimeout bounds how long a client may take to send request headers.
const readHeaderTimeout = 10 * time.Second

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	LLM  llm.Provider
	Live live.Provider
}

// App owns all subsystem lifetimes and serves the MAITRI companion API.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems, initialised in New, torn down in Shutdown.
	store      store.Store
	scenes     *scene.Generator
	chat       *chat.Service
	assistants *assistant.Manager
	httpSrv    *http.Server

	// logLevel, when injected, is adjusted on config reload.
	logLevel *slog.LevelVar

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects an astronaut store instead of creating one from config.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithLogLevel hands the App the process log level so that config reloads
// can adjust it at runtime.
func WithLogLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = lv }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option functions
// to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: store connection and
// migration, scene generator and chat service construction, assistant
// manager setup, and HTTP server assembly. Run must be called to begin
// serving.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Astronaut store ───────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 2. Scene generator + chat service ────────────────────────────────
	a.initLLMServices()

	// ── 3. Assistant manager ─────────────────────────────────────────────
	a.initAssistants()

	// ── 4. HTTP server ───────────────────────────────────────────────────
	a.initHTTP()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore connects to PostgreSQL when a DSN is configured, falling back to
// the in-memory store otherwise.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil // injected
	}

	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		slog.Info("no postgres_dsn configured, astronaut records are in-memory only")
		a.store = store.NewMemStore()
		return nil
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}

	pg := store.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return err
	}

	a.store = pg
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})
	slog.Info("connected to postgres store")
	return nil
}

// initLLMServices builds the scene generator and chat service. Both require
// an LLM provider; without one the HTTP layer reports the routes as
// unavailable.
func (a *App) initLLMServices() {
	if a.providers.LLM == nil {
		slog.Warn("no llm provider configured, chat and scene routes disabled")
		return
	}

	// Calls go through a circuit breaker so a model outage degrades into
	// fast errors instead of piled-up requests.
	name := a.cfg.Providers.LLM.Name
	if name == "" {
		name = "llm"
	}
	guarded := resilience.WrapLLM(a.providers.LLM, name, resilience.GroupConfig{})

	a.scenes = scene.NewGenerator(guarded, slog.Default())
	a.chat = chat.NewService(guarded, a.store, a.scenes, slog.Default())
}

// initAssistants builds the voice assistant manager when a live provider is
// configured.
func (a *App) initAssistants() {
	if a.providers.Live == nil {
		slog.Warn("no live provider configured, voice sessions disabled")
		return
	}

	mopts := []assistant.ManagerOption{
		assistant.WithLogger(slog.Default()),
	}
	if a.cfg.Assistant.Voice != "" {
		mopts = append(mopts, assistant.WithVoice(a.cfg.Assistant.Voice))
	}
	if a.cfg.Assistant.SilenceThreshold != 0 {
		mopts = append(mopts, assistant.WithSilenceThreshold(a.cfg.Assistant.SilenceThreshold))
	}

	a.assistants = assistant.NewManager(a.providers.Live, a.store, a.scenes, mopts...)
}

// initHTTP assembles the router and the http.Server. Readiness checks cover
// the store always and each provider only when it is configured, so a
// deployment without voice support still reports ready.
func (a *App) initHTTP() {
	checkers := []health.Checker{health.StoreChecker(a.store)}
	if a.providers.LLM != nil {
		checkers = append(checkers, health.LLMChecker(a.providers.LLM))
	}
	if a.providers.Live != nil {
		checkers = append(checkers, health.LiveChecker(a.providers.Live))
	}

	srv := httpapi.New(a.store, a.chat, a.scenes, a.assistants,
		httpapi.WithLogger(slog.Default()),
		httpapi.WithHealth(health.New(checkers...)),
	)

	a.httpSrv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run starts the HTTP listener and blocks until ctx is cancelled or the
// listener fails. When ctx is done, Run returns ctx.Err(); the caller should
// follow up with Shutdown to drain connections.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			slog.Info("listening with TLS", "addr", a.httpSrv.Addr)
			err = a.httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			slog.Info("listening", "addr", a.httpSrv.Addr)
			err = a.httpSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ─── Config reload ───────────────────────────────────────────────────────────

// ApplyConfigUpdate reacts to a config file change. Log level and assistant
// defaults take effect immediately; anything else is logged as requiring a
// restart. Intended as the callback for a [config.Watcher].
func (a *App) ApplyConfigUpdate(old, new *config.Config) {
	diff := config.Diff(old, new)

	if diff.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(slogLevel(diff.NewLogLevel))
		slog.Info("log level changed", "level", diff.NewLogLevel)
	}

	if diff.AssistantChanged && a.assistants != nil {
		voice := diff.NewAssistant.Voice
		threshold := diff.NewAssistant.SilenceThreshold
		a.assistants.UpdateDefaults(voice, threshold)
		slog.Info("assistant defaults changed", "voice", voice, "silence_threshold", threshold)
	}

	if diff.RestartRequired {
		slog.Warn("config change requires a restart to take effect")
	}
}

// slogLevel maps a config log level onto the slog scale.
func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		// Stop accepting connections first so closers see quiescent state.
		if a.httpSrv != nil {
			if err := a.httpSrv.Shutdown(ctx); err != nil {
				slog.Warn("http shutdown error", "err", err)
			}
		}

		// End voice sessions before the store they write to goes away.
		// Shutdown above does not wait for hijacked websocket connections.
		if a.assistants != nil {
			a.assistants.CloseAll()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
