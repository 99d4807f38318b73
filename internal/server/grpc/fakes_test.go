package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/services"
	"github.com/dmitrijs2005/faceguard/internal/session"
)

var t0 = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

type fakeSessions struct {
	valid       map[string]string
	invalidated []string
	err         error
}

func (f *fakeSessions) Validate(_ context.Context, token string) (*session.Payload, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.valid[token]
	if !ok {
		return nil, common.ErrorInvalidSession
	}
	return &session.Payload{Username: u, CreatedAt: "2024-08-01 12:00:00", ExpiresAt: "2024-08-01 12:30:00"}, nil
}

func (f *fakeSessions) Invalidate(_ context.Context, token string) error {
	f.invalidated = append(f.invalidated, token)
	delete(f.valid, token)
	return f.err
}

type fakeAdmin struct {
	password string
	token    string
	err      error

	users    []*services.UserInfo
	deleted  []string
	retrain  error
	pins     map[string]string
	unlocked int
	locked   bool
	sessions []*models.Session
	revoked  []string
	audit    []*models.AuditEntry
	access   []*models.AccessLogEntry
	limits   []int
	snaps    []string
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{password: "s3cret", token: "admin-token", pins: map[string]string{}}
}

func (f *fakeAdmin) Login(_ context.Context, password string) (string, error) {
	if password != f.password {
		return "", common.ErrorUnauthorized
	}
	return f.token, nil
}

func (f *fakeAdmin) Authorize(token string) error {
	if token != f.token {
		return common.ErrorUnauthorized
	}
	return nil
}

func (f *fakeAdmin) ListUsers(context.Context) ([]*services.UserInfo, error) {
	return f.users, f.err
}

func (f *fakeAdmin) DeleteUser(_ context.Context, username string) (*services.DeleteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, username)
	return &services.DeleteResult{SessionsRevoked: 2, RetrainErr: f.retrain}, nil
}

func (f *fakeAdmin) ResetPIN(_ context.Context, username, pin string) error {
	if f.err != nil {
		return f.err
	}
	f.pins[username] = pin
	return nil
}

func (f *fakeAdmin) Unlock(context.Context) error {
	f.unlocked++
	f.locked = false
	return f.err
}

func (f *fakeAdmin) LockoutStatus(context.Context) (bool, int, error) {
	if f.locked {
		return true, 25, f.err
	}
	return false, 0, f.err
}

func (f *fakeAdmin) ListSessions(context.Context) ([]*models.Session, error) {
	return f.sessions, f.err
}

func (f *fakeAdmin) RevokeSession(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return f.err
}

func (f *fakeAdmin) AuditLog(_ context.Context, limit int) ([]*models.AuditEntry, error) {
	f.limits = append(f.limits, limit)
	return f.audit, f.err
}

func (f *fakeAdmin) AccessLog(_ context.Context, limit int) ([]*models.AccessLogEntry, error) {
	f.limits = append(f.limits, limit)
	return f.access, f.err
}

func (f *fakeAdmin) Intruders(context.Context) ([]string, error) {
	return f.snaps, f.err
}

func newTestServer() (*GRPCServer, *fakeSessions, *fakeAdmin) {
	ss := &fakeSessions{valid: map[string]string{"user-token": "alice"}}
	a := newFakeAdmin()
	return NewGRPCServer("127.0.0.1:0", logging.Nop(), ss, a), ss, a
}
