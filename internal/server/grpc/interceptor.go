package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requiresAdmin reports whether method is an admin call other than Login.
func requiresAdmin(method string) bool {
	return strings.HasPrefix(method, "/"+AdminServiceName+"/") && method != MethodAdminLogin
}

// tokenFromMetadata returns the first access_token value, if any.
func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
		return v[0]
	}
	return ""
}

// accessTokenInterceptor guards the admin service. Session calls carry their
// own token in the request and pass through.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !requiresAdmin(info.FullMethod) {
		return handler(ctx, req)
	}

	token := tokenFromMetadata(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if err := s.admin.Authorize(token); err != nil {
		s.logger.Warn(ctx, "admin token rejected", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	return handler(ctx, req)
}
