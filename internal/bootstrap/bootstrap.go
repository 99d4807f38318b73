// Package bootstrap opens the database, picks the snapshot backend and
// builds the services shared by faceguard and faceguardd.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/config"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/repositories/repomanager"
	"github.com/dmitrijs2005/faceguard/internal/services"
	"github.com/dmitrijs2005/faceguard/internal/snapshots"
)

// Stack owns the database handle; Close releases it.
type Stack struct {
	DB     *sql.DB
	Core   *services.Core
	Login  *services.LoginService
	Enroll *services.EnrollmentService
	Admin  *services.AdminService
}

// New migrates the configured database and wires the services over v.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, v services.Vision) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	snaps, err := NewSnapshotStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db, rm, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	core, err := services.NewCore(ctx, db, rm, cfg, logger, nil, snaps)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("core init error: %w", err)
	}

	enroll := services.NewEnrollmentService(core, v)
	return &Stack{
		DB:     db,
		Core:   core,
		Login:  services.NewLoginService(core, v),
		Enroll: enroll,
		Admin:  services.NewAdminService(core, enroll),
	}, nil
}

func (s *Stack) Close() error {
	return s.DB.Close()
}

// NewSnapshotStore returns the intruder snapshot backend named by
// cfg.SnapshotBackend.
func NewSnapshotStore(ctx context.Context, cfg *config.Config) (snapshots.Store, error) {
	switch cfg.SnapshotBackend {
	case config.SnapshotFS:
		return snapshots.NewFSStore(cfg.IntrudersDir), nil
	case config.SnapshotS3:
		s, err := snapshots.NewS3Store(ctx, snapshots.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Prefix:       cfg.S3Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 snapshots: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
}
