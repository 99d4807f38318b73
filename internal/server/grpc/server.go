// Package grpc exposes session checks and the admin panel over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/services"
	"github.com/dmitrijs2005/faceguard/internal/session"
	"google.golang.org/grpc"
)

// Sessions is the part of session.Issuer served to other processes.
type Sessions interface {
	Validate(ctx context.Context, token string) (*session.Payload, error)
	Invalidate(ctx context.Context, token string) error
}

// Admin is implemented by services.AdminService.
type Admin interface {
	Login(ctx context.Context, password string) (string, error)
	Authorize(token string) error
	ListUsers(ctx context.Context) ([]*services.UserInfo, error)
	DeleteUser(ctx context.Context, username string) (*services.DeleteResult, error)
	ResetPIN(ctx context.Context, username, newPIN string) error
	Unlock(ctx context.Context) error
	LockoutStatus(ctx context.Context) (bool, int, error)
	ListSessions(ctx context.Context) ([]*models.Session, error)
	RevokeSession(ctx context.Context, token string) error
	AuditLog(ctx context.Context, limit int) ([]*models.AuditEntry, error)
	AccessLog(ctx context.Context, limit int) ([]*models.AccessLogEntry, error)
	Intruders(ctx context.Context) ([]string, error)
}

type GRPCServer struct {
	address  string
	sessions Sessions
	admin    Admin
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, sessions Sessions, admin Admin) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		admin:    admin,
	}
}

// Register attaches both services to srv.
func (s *GRPCServer) Register(srv *grpc.Server) {
	srv.RegisterService(&sessionServiceDesc, s)
	srv.RegisterService(&adminServiceDesc, s)
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	s.Register(srv)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	<-stopped
	return nil
}

var (
	_ SessionServer = (*GRPCServer)(nil)
	_ AdminServer   = (*GRPCServer)(nil)
	_ Sessions      = (*session.Issuer)(nil)
	_ Admin         = (*services.AdminService)(nil)
)
