// Package services contains the authentication, enrolment and
// administration flows. Core wires the shared collaborators once; each
// service borrows what it needs from it.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/audit"
	"github.com/dmitrijs2005/faceguard/internal/clock"
	"github.com/dmitrijs2005/faceguard/internal/config"
	"github.com/dmitrijs2005/faceguard/internal/datasets"
	"github.com/dmitrijs2005/faceguard/internal/lockout"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/repositories/repomanager"
	"github.com/dmitrijs2005/faceguard/internal/repositories/users"
	"github.com/dmitrijs2005/faceguard/internal/session"
	"github.com/dmitrijs2005/faceguard/internal/snapshots"
	"github.com/dmitrijs2005/faceguard/internal/vision"
)

// Vision bundles the camera and face capabilities used by login and
// enrolment.
type Vision struct {
	OpenCamera vision.CameraOpener
	// Liveness finds faces for blink tracking.
	Liveness vision.Analyzer
	// Faces finds and crops faces for enrolment and matching.
	Faces      vision.Analyzer
	Recognizer vision.Recognizer
}

type Core struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cfg    *config.Config
	logger logging.Logger
	clock  clock.Clock

	guard     *lockout.Guard
	sessions  *session.Issuer
	audit     *audit.Recorder
	snapshots snapshots.Store
	datasets  *datasets.Store
}

// NewCore loads (or creates) the session signing key and builds the shared
// collaborators.
func NewCore(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config,
	logger logging.Logger, clk clock.Clock, snaps snapshots.Store) (*Core, error) {
	if clk == nil {
		clk = clock.Real()
	}

	key, err := session.LoadOrCreateKey(ctx, rm.Metadata(db))
	if err != nil {
		return nil, err
	}
	issuer, err := session.NewIssuer(rm.Sessions(db), key,
		session.WithClock(clk),
		session.WithValidity(cfg.SessionValidity))
	if err != nil {
		return nil, fmt.Errorf("session issuer: %w", err)
	}

	return &Core{
		db:     db,
		repos:  rm,
		cfg:    cfg,
		logger: logger,
		clock:  clk,
		guard: lockout.NewGuard(rm.Lockouts(db),
			lockout.WithThreshold(cfg.LockoutThreshold),
			lockout.WithDuration(cfg.LockoutDuration),
			lockout.WithClock(clk)),
		sessions:  issuer,
		audit:     audit.NewRecorder(rm.Audit(db), rm.AccessLogs(db), logger, clk),
		snapshots: snaps,
		datasets:  datasets.New(cfg.DatasetsDir),
	}, nil
}

func (c *Core) Config() *config.Config    { return c.cfg }
func (c *Core) Logger() logging.Logger    { return c.logger }
func (c *Core) Guard() *lockout.Guard     { return c.guard }
func (c *Core) Sessions() *session.Issuer { return c.sessions }
func (c *Core) Audit() *audit.Recorder    { return c.audit }
func (c *Core) Datasets() *datasets.Store { return c.datasets }

func (c *Core) users() users.Repository {
	return c.repos.Users(c.db)
}
