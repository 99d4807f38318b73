package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/audit"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// fail logs unexpected errors and converts err to a status.
func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	}
	return st
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *GRPCServer) Validate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	p, err := s.sessions.Validate(ctx, req.GetValue())
	if err != nil {
		return nil, s.fail(ctx, "Validate", err)
	}
	return structpb.NewStruct(map[string]any{
		"username":   p.Username,
		"created_at": p.CreatedAt,
		"expires_at": p.ExpiresAt,
	})
}

func (s *GRPCServer) Invalidate(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.sessions.Invalidate(ctx, req.GetValue()); err != nil {
		return nil, s.fail(ctx, "Invalidate", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	token, err := s.admin.Login(ctx, req.GetValue())
	if err != nil {
		return nil, s.fail(ctx, "Login", err)
	}
	s.logger.Info(ctx, "admin logged in")
	return wrapperspb.String(token), nil
}

func (s *GRPCServer) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	users, err := s.admin.ListUsers(ctx)
	if err != nil {
		return nil, s.fail(ctx, "ListUsers", err)
	}
	locked, _, err := s.admin.LockoutStatus(ctx)
	if err != nil {
		return nil, s.fail(ctx, "ListUsers", err)
	}

	rows := make([]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, map[string]any{
			"username":      u.Username,
			"full_name":     u.FullName,
			"registered_at": ts(u.RegisteredAt),
			"pin_set":       u.PINSet,
			"has_dataset":   u.HasDataset,
			"locked":        locked,
		})
	}
	return structpb.NewList(rows)
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := s.admin.DeleteUser(ctx, req.GetValue())
	if err != nil {
		return nil, s.fail(ctx, "DeleteUser", err)
	}
	out := map[string]any{"sessions_revoked": float64(res.SessionsRevoked)}
	if res.RetrainErr != nil {
		out["retrain_error"] = toStatusMessage(res.RetrainErr)
	}
	return structpb.NewStruct(out)
}

func toStatusMessage(err error) string {
	return status.Convert(toStatus(err)).Message()
}

func (s *GRPCServer) ResetPIN(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	f := req.GetFields()
	username := f["username"].GetStringValue()
	if username == "" {
		return nil, status.Error(codes.InvalidArgument, "username is required")
	}
	if err := s.admin.ResetPIN(ctx, username, f["pin"].GetStringValue()); err != nil {
		return nil, s.fail(ctx, "ResetPIN", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Unlock(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.admin.Unlock(ctx); err != nil {
		return nil, s.fail(ctx, "Unlock", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) LockoutStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	locked, secs, err := s.admin.LockoutStatus(ctx)
	if err != nil {
		return nil, s.fail(ctx, "LockoutStatus", err)
	}
	return structpb.NewStruct(map[string]any{"locked": locked, "seconds_remaining": float64(secs)})
}

func (s *GRPCServer) ListSessions(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	list, err := s.admin.ListSessions(ctx)
	if err != nil {
		return nil, s.fail(ctx, "ListSessions", err)
	}
	rows := make([]any, 0, len(list))
	for _, ss := range list {
		rows = append(rows, map[string]any{
			"id":         float64(ss.ID),
			"username":   ss.Username,
			"token":      ss.Token,
			"created_at": ts(ss.CreatedAt),
			"expires_at": ts(ss.ExpiresAt),
		})
	}
	return structpb.NewList(rows)
}

func (s *GRPCServer) RevokeSession(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.admin.RevokeSession(ctx, req.GetValue()); err != nil {
		return nil, s.fail(ctx, "RevokeSession", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) AuditLog(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.ListValue, error) {
	entries, err := s.admin.AuditLog(ctx, int(req.GetValue()))
	if err != nil {
		return nil, s.fail(ctx, "AuditLog", err)
	}
	rows := make([]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"timestamp":    ts(e.Timestamp),
			"action":       string(e.Action),
			"description":  audit.Describe(e.Action),
			"performed_by": e.PerformedBy,
			"target_user":  e.TargetUser,
			"details":      e.Details,
		})
	}
	return structpb.NewList(rows)
}

func (s *GRPCServer) AccessLog(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.ListValue, error) {
	entries, err := s.admin.AccessLog(ctx, int(req.GetValue()))
	if err != nil {
		return nil, s.fail(ctx, "AccessLog", err)
	}
	rows := make([]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"timestamp":  ts(e.Timestamp),
			"username":   e.Username,
			"status":     string(e.Status),
			"confidence": e.Confidence,
		})
	}
	return structpb.NewList(rows)
}

func (s *GRPCServer) Intruders(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	names, err := s.admin.Intruders(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Intruders", err)
	}
	rows := make([]any, 0, len(names))
	for _, n := range names {
		rows = append(rows, n)
	}
	return structpb.NewList(rows)
}
