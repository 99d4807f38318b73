// Package adminclient talks to a running faceguardd over gRPC.
package adminclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/faceguard/internal/common"
	api "github.com/dmitrijs2005/faceguard/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

type UserRow struct {
	Username     string
	FullName     string
	RegisteredAt string
	PINSet       bool
	HasDataset   bool
	Locked       bool
}

type SessionRow struct {
	ID        int64
	Username  string
	Token     string
	CreatedAt string
	ExpiresAt string
}

type AuditRow struct {
	Timestamp   string
	Action      string
	Description string
	PerformedBy string
	TargetUser  string
	Details     string
}

type AccessRow struct {
	Timestamp  string
	Username   string
	Status     string
	Confidence float64
}

type Client struct {
	conn *grpc.ClientConn

	mu          sync.Mutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *Client) accessTokenInterceptor(ctx context.Context, method string, req, reply any,
	cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	if token := c.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// New connects lazily to endpoint. Extra options are appended after the
// defaults (insecure transport, token interceptor).
func New(endpoint string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) LoggedIn() bool { return c.token() != "" }

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return mapError(err)
	}
	return nil
}

func mapError(err error) error {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return errors.New(st.Message())
	}
}

// Login exchanges the admin password for an access token that is attached
// to every later call.
func (c *Client) Login(ctx context.Context, password string) error {
	out := &wrapperspb.StringValue{}
	if err := c.invoke(ctx, api.MethodAdminLogin, wrapperspb.String(password), out); err != nil {
		return err
	}
	c.mu.Lock()
	c.accessToken = out.GetValue()
	c.mu.Unlock()
	return nil
}

func (c *Client) Logout() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// ValidateSession returns the username behind a user session token.
func (c *Client) ValidateSession(ctx context.Context, token string) (string, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, api.MethodValidateSession, wrapperspb.String(token), out); err != nil {
		return "", err
	}
	return str(out, "username"), nil
}

func (c *Client) InvalidateSession(ctx context.Context, token string) error {
	return c.invoke(ctx, api.MethodInvalidateSession, wrapperspb.String(token), &emptypb.Empty{})
}

func (c *Client) ListUsers(ctx context.Context) ([]UserRow, error) {
	out := &structpb.ListValue{}
	if err := c.invoke(ctx, api.MethodListUsers, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	rows := make([]UserRow, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		s := v.GetStructValue()
		rows = append(rows, UserRow{
			Username:     str(s, "username"),
			FullName:     str(s, "full_name"),
			RegisteredAt: str(s, "registered_at"),
			PINSet:       boolean(s, "pin_set"),
			HasDataset:   boolean(s, "has_dataset"),
			Locked:       boolean(s, "locked"),
		})
	}
	return rows, nil
}

// DeleteUser returns the number of revoked sessions and, if the model could
// not be retrained afterwards, the reason.
func (c *Client) DeleteUser(ctx context.Context, username string) (int64, string, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, api.MethodDeleteUser, wrapperspb.String(username), out); err != nil {
		return 0, "", err
	}
	return int64(num(out, "sessions_revoked")), str(out, "retrain_error"), nil
}

func (c *Client) ResetPIN(ctx context.Context, username, pin string) error {
	in, err := structpb.NewStruct(map[string]any{"username": username, "pin": pin})
	if err != nil {
		return err
	}
	return c.invoke(ctx, api.MethodResetPIN, in, &emptypb.Empty{})
}

func (c *Client) Unlock(ctx context.Context) error {
	return c.invoke(ctx, api.MethodUnlock, &emptypb.Empty{}, &emptypb.Empty{})
}

func (c *Client) LockoutStatus(ctx context.Context) (bool, int, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, api.MethodLockoutStatus, &emptypb.Empty{}, out); err != nil {
		return false, 0, err
	}
	return boolean(out, "locked"), int(num(out, "seconds_remaining")), nil
}

func (c *Client) ListSessions(ctx context.Context) ([]SessionRow, error) {
	out := &structpb.ListValue{}
	if err := c.invoke(ctx, api.MethodListSessions, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	rows := make([]SessionRow, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		s := v.GetStructValue()
		rows = append(rows, SessionRow{
			ID:        int64(num(s, "id")),
			Username:  str(s, "username"),
			Token:     str(s, "token"),
			CreatedAt: str(s, "created_at"),
			ExpiresAt: str(s, "expires_at"),
		})
	}
	return rows, nil
}

func (c *Client) RevokeSession(ctx context.Context, token string) error {
	return c.invoke(ctx, api.MethodRevokeSession, wrapperspb.String(token), &emptypb.Empty{})
}

func (c *Client) AuditLog(ctx context.Context, limit int) ([]AuditRow, error) {
	out := &structpb.ListValue{}
	if err := c.invoke(ctx, api.MethodAuditLog, wrapperspb.Int32(int32(limit)), out); err != nil {
		return nil, err
	}
	rows := make([]AuditRow, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		s := v.GetStructValue()
		rows = append(rows, AuditRow{
			Timestamp:   str(s, "timestamp"),
			Action:      str(s, "action"),
			Description: str(s, "description"),
			PerformedBy: str(s, "performed_by"),
			TargetUser:  str(s, "target_user"),
			Details:     str(s, "details"),
		})
	}
	return rows, nil
}

func (c *Client) AccessLog(ctx context.Context, limit int) ([]AccessRow, error) {
	out := &structpb.ListValue{}
	if err := c.invoke(ctx, api.MethodAccessLog, wrapperspb.Int32(int32(limit)), out); err != nil {
		return nil, err
	}
	rows := make([]AccessRow, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		s := v.GetStructValue()
		rows = append(rows, AccessRow{
			Timestamp:  str(s, "timestamp"),
			Username:   str(s, "username"),
			Status:     str(s, "status"),
			Confidence: num(s, "confidence"),
		})
	}
	return rows, nil
}

func (c *Client) Intruders(ctx context.Context) ([]string, error) {
	out := &structpb.ListValue{}
	if err := c.invoke(ctx, api.MethodIntruders, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		names = append(names, v.GetStringValue())
	}
	return names, nil
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func num(s *structpb.Struct, key string) float64 {
	return s.GetFields()[key].GetNumberValue()
}

func boolean(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}
