// Package server runs faceguardd: the gRPC session and admin endpoints over
// the shared services, stopped by SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/faceguard/internal/config"
	"github.com/dmitrijs2005/faceguard/internal/logging"

	gs "github.com/dmitrijs2005/faceguard/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	sessions gs.Sessions
	admin    gs.Admin
}

func NewApp(c *config.Config, logger logging.Logger, sessions gs.Sessions, admin gs.Admin) *App {
	return &App{config: c, logger: logger, sessions: sessions, admin: admin}
}

// Run serves until ctx is cancelled or a stop signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")
	if app.config.AdminPasswordHash == "" {
		app.logger.Warn(ctx, "admin password hash not configured, admin login disabled")
	}

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.sessions, app.admin)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
