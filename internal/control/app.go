// Package control wires the client's collaborators together with an
// explicit create, use, dispose lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vithaluntold/rai-compliance-client/internal/core/config"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/api"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/netmon"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/session"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/storage"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/storage/postgres"
	"github.com/vithaluntold/rai-compliance-client/internal/pipeline"
	"github.com/vithaluntold/rai-compliance-client/internal/workflow"
)

// MigrationsDir is where goose migrations live, relative to CWD.
const MigrationsDir = "migrations"

// App owns the wired collaborators for one client process.
type App struct {
	cfg      *config.AppConfig
	client   *api.HTTPClient
	monitor  *netmon.Monitor
	sessions session.Store
	db       *postgres.DB
	archive  storage.RunRepository
	sink     pipeline.EscalationSink

	cancelMonitor context.CancelFunc
}

// NewApp creates all dependencies. Optional collaborators (redis sessions,
// postgres archive, escalation sink) are selected by configuration, with
// in-memory fallbacks.
func NewApp(cfg *config.AppConfig) (*App, error) {
	app := &App{cfg: cfg}

	app.client = api.NewHTTPClient(cfg.API.BaseURL, cfg.Network.ProbePath, cfg.API.Timeout)

	if cfg.Session.Redis.URL != "" {
		store, err := session.NewRedisStore(cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to init session store: %w", err)
		}
		app.sessions = store
		slog.Info("Using Redis session store")
	} else {
		app.sessions = session.NewMemoryStore()
		slog.Info("Using in-memory session store")
	}

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(MigrationsDir); err != nil {
			return nil, err
		}
		app.db = db
		app.archive = postgres.NewRunRepo(db)
		slog.Info("Using PostgreSQL run archive")
	} else {
		app.archive = storage.NewMemoryRunRepo()
	}

	if cfg.Telemetry.EscalationURL != "" {
		app.sink = pipeline.NewHTTPSink(cfg.Telemetry.EscalationURL)
	}

	return app, nil
}

// Start probes connectivity and launches the background monitor.
func (a *App) Start(ctx context.Context) error {
	monCtx, cancel := context.WithCancel(ctx)
	a.cancelMonitor = cancel
	a.monitor = netmon.NewMonitor(monCtx, a.client, a.cfg.Network.ProbeInterval)
	go a.monitor.Run(monCtx)
	return nil
}

// Stop disposes all owned resources.
func (a *App) Stop(ctx context.Context) error {
	if a.cancelMonitor != nil {
		a.cancelMonitor()
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			slog.Warn("Error closing session store", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Client returns the backend API client.
func (a *App) Client() api.Client {
	return a.client
}

// Sessions returns the session store.
func (a *App) Sessions() session.Store {
	return a.sessions
}

// Archive returns the run archive.
func (a *App) Archive() storage.RunRepository {
	return a.archive
}

// NewManager builds a workflow manager for one document-processing attempt,
// with a fresh pipeline log bound to the escalation sink.
func (a *App) NewManager(sessionID string) *workflow.Manager {
	log := pipeline.NewLog(sessionID, a.sink)
	return workflow.NewManager(workflow.Options{
		Client:    a.client,
		Monitor:   a.monitor,
		Log:       log,
		Sessions:  a.sessions,
		Archive:   a.archive,
		Retry:     workflow.RetryConfig(a.cfg.Retry),
		Polling:   workflow.PollingConfig(a.cfg.Polling),
		SessionID: sessionID,
	})
}
