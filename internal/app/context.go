package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"wbtracker/internal/config"
	"wbtracker/internal/db"
	"wbtracker/internal/engine"
	"wbtracker/internal/events"
	"wbtracker/internal/logging"
	"wbtracker/internal/migrate"
)

// Options tune how a workspace is opened.
type Options struct {
	// ConfigPath overrides <workspace>/wb.yml.
	ConfigPath string
	Journal    bool
	Log        *zap.Logger
}

// Runtime is an opened workspace: validated config, migrated player store
// and an engine wired to both.
type Runtime struct {
	Workspace string
	Config    *config.Config
	DB        *sql.DB
	Engine    engine.Engine
	Journal   *events.Writer
}

// JournalDir is where report journals live inside a workspace.
func JournalDir(workspace string) string {
	return filepath.Join(db.StateDir(workspace), "journal")
}

// LoadConfig reads the override path when set, the workspace config otherwise.
func LoadConfig(workspace, override string) (*config.Config, error) {
	if override != "" {
		return config.FromFile(override)
	}
	return config.Load(workspace)
}

// Open loads config, opens and migrates the database and builds the engine.
func Open(ctx context.Context, workspace string, opts Options) (*Runtime, error) {
	log := logging.OrNop(opts.Log)
	cfg, err := LoadConfig(workspace, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	applied, err := migrate.Migrate(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	for _, name := range applied {
		log.Info("migration applied", zap.String("name", name))
	}
	e, err := engine.New(conn, cfg, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	rt := &Runtime{Workspace: workspace, Config: cfg, DB: conn, Engine: e}
	if opts.Journal {
		rt.Journal = events.NewWriter(JournalDir(workspace))
		rt.Engine.Journal = rt.Journal
	}
	return rt, nil
}

// Close flushes the journal and closes the database.
func (r *Runtime) Close() error {
	var errs []error
	if r.Journal != nil {
		errs = append(errs, r.Journal.Close())
	}
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	return errors.Join(errs...)
}
