package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/cryptox"
	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/pin"
	"github.com/dmitrijs2005/faceguard/internal/server/auth"
	"golang.org/x/time/rate"
)

// UserInfo is a user row as shown in the admin panel.
type UserInfo struct {
	Username     string
	FullName     string
	RegisteredAt time.Time
	PINSet       bool
	HasDataset   bool
}

type DeleteResult struct {
	SessionsRevoked int64
	// RetrainErr is set when the model could not be rebuilt without the
	// deleted user. The deletion itself stands.
	RetrainErr error
}

// AdminService backs the admin panel. Every mutating call is audited with
// ADMIN as the actor.
type AdminService struct {
	*Core
	enroll  *EnrollmentService
	limiter *rate.Limiter
}

func NewAdminService(core *Core, enroll *EnrollmentService) *AdminService {
	perMin := max(core.cfg.AdminLoginPerMin, 1)
	return &AdminService{
		Core:    core,
		enroll:  enroll,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
	}
}

// Login checks the admin password and returns a signed access token.
func (s *AdminService) Login(ctx context.Context, password string) (string, error) {
	if !s.limiter.AllowN(s.clock.Now(), 1) {
		return "", common.ErrorRateLimited
	}
	if s.cfg.AdminPasswordHash == "" {
		s.logger.Warn(ctx, "admin login attempted but no admin password is configured")
		return "", common.ErrorUnauthorized
	}

	ok, err := cryptox.VerifyPassword(s.cfg.AdminPasswordHash, []byte(password))
	if err != nil {
		return "", fmt.Errorf("admin password hash: %w", err)
	}
	if !ok {
		s.logger.Warn(ctx, "admin login failed")
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(common.ActorAdmin, auth.RoleAdmin, []byte(s.cfg.AdminSecretKey),
		s.clock.Now(), s.cfg.AdminTokenValidity)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, models.ActionAdminLogin, common.ActorAdmin, "", "Admin panel login")
	return token, nil
}

// Authorize accepts only unexpired admin tokens.
func (s *AdminService) Authorize(token string) error {
	claims, err := auth.ParseToken(token, []byte(s.cfg.AdminSecretKey), s.clock.Now())
	if err != nil {
		return err
	}
	if claims.Role != auth.RoleAdmin {
		return common.ErrorUnauthorized
	}
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*UserInfo, error) {
	list, err := s.users().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserInfo, 0, len(list))
	for _, u := range list {
		out = append(out, &UserInfo{
			Username:     u.Username,
			FullName:     u.FullName,
			RegisteredAt: u.RegisteredAt,
			PINSet:       u.HasPIN(),
			HasDataset:   s.datasets.Exists(u.Username),
		})
	}
	return out, nil
}

// DeleteUser removes the user row, its sessions and its dataset, then
// retrains on whoever is left.
func (s *AdminService) DeleteUser(ctx context.Context, username string) (*DeleteResult, error) {
	ctx = context.WithoutCancel(ctx)

	// the row and its sessions go together
	res := &DeleteResult{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).Delete(ctx, username); err != nil {
			return err
		}
		n, err := s.repos.Sessions(tx).DeactivateByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("revoke sessions of %s: %w", username, err)
		}
		res.SessionsRevoked = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.datasets.Remove(username); err != nil {
		s.logger.Error(ctx, "remove dataset", "user", username, "error", err)
	}
	s.audit.Record(ctx, models.ActionUserDeleted, common.ActorAdmin, username, "Deleted via admin panel")

	if _, err := s.enroll.Train(ctx); err != nil {
		s.logger.Warn(ctx, "retrain after delete failed", "error", err)
		res.RetrainErr = err
	}
	return res, nil
}

// ResetPIN replaces the user's PIN.
func (s *AdminService) ResetPIN(ctx context.Context, username, newPIN string) error {
	h, err := pin.Hash(newPIN)
	if err != nil {
		return err
	}
	if err := s.users().SetPINHash(ctx, username, h); err != nil {
		return err
	}
	s.audit.Record(ctx, models.ActionPINReset, common.ActorAdmin, username, "PIN reset via admin panel")
	return nil
}

// Unlock clears the login lockout.
func (s *AdminService) Unlock(ctx context.Context) error {
	if err := s.guard.Reset(ctx, s.cfg.LockoutIdentifier); err != nil {
		return err
	}
	s.audit.Record(ctx, models.ActionLockoutReset, common.ActorAdmin, s.cfg.LockoutIdentifier,
		"Manually unlocked via admin panel")
	return nil
}

func (s *AdminService) LockoutStatus(ctx context.Context) (bool, int, error) {
	st, err := s.guard.Check(ctx, s.cfg.LockoutIdentifier)
	if err != nil {
		return false, 0, err
	}
	return st.Locked, st.SecondsRemaining, nil
}

func (s *AdminService) ListSessions(ctx context.Context) ([]*models.Session, error) {
	return s.sessions.ListActive(ctx)
}

// RevokeSession deactivates one session by token.
func (s *AdminService) RevokeSession(ctx context.Context, token string) error {
	p, err := s.sessions.Validate(ctx, token)
	if err != nil && !errors.Is(err, common.ErrorInvalidSession) {
		return err
	}
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return err
	}
	target := ""
	if p != nil {
		target = p.Username
	}
	s.audit.Record(ctx, models.ActionSessionRevoked, common.ActorAdmin, target, "Manually revoked via admin panel")
	return nil
}

func (s *AdminService) AuditLog(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	return s.audit.Recent(ctx, limit)
}

func (s *AdminService) AccessLog(ctx context.Context, limit int) ([]*models.AccessLogEntry, error) {
	return s.audit.RecentAttempts(ctx, limit)
}

// Intruders lists stored snapshot names, newest first.
func (s *AdminService) Intruders(ctx context.Context) ([]string, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	return s.snapshots.List(ctx)
}
