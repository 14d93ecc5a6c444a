// Package app wires an invocation together: logger, configuration, project,
// ledger session, and the external engines, handed to the step layer as one
// environment. There is no ambient global state; everything a step touches
// comes through here.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/hydroprep/internal/config"
	"github.com/vk/hydroprep/internal/ctxlog"
	"github.com/vk/hydroprep/internal/engine"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/project"
	"github.com/vk/hydroprep/internal/steps"
)

// App holds one invocation's dependencies.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *config.Model
}

// New constructs an App with its own isolated logger; the global logger is
// never touched.
func New(outW io.Writer, cfg *config.Model) *App {
	return &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		cfg:    cfg,
	}
}

// Context returns a base context carrying the app logger.
func (a *App) Context() context.Context {
	return ctxlog.WithLogger(context.Background(), a.logger)
}

// Logger returns the app's logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// OpenSession opens the project at root and acquires its ledger session
// under the configured wait policy. The caller owns closing the session on
// every exit path.
func (a *App) OpenSession(root string) (*project.Project, *ledger.Session, error) {
	p, err := project.Open(root)
	if err != nil {
		return nil, nil, err
	}
	policy := ledger.Wait
	if a.cfg.NoWait {
		policy = ledger.NoWait
	}
	s, err := ledger.Open(p.LedgerPath(), p.LockPath(), policy)
	if err != nil {
		return nil, nil, err
	}
	return p, s, nil
}

// Env builds the step environment over an open project and session, backed
// by the configured engine binaries.
func (a *App) Env(p *project.Project, s *ledger.Session) *steps.Env {
	return &steps.Env{
		Project: p,
		Ledger:  s.Ledger(),
		GIS:     &engine.ExecGIS{Bin: a.cfg.GISBin, OutputDir: p.MapsPath()},
		Sim:     &engine.ExecSimulator{Bin: a.cfg.SimBin, OutputDir: p.MapsPath()},
	}
}
