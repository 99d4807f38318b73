// Package audit records security events and login attempts.
//
// Writes are best effort: a storage failure is logged and swallowed so that
// an authentication decision already reached is never undone by the trail.
package audit

import (
	"context"

	"github.com/dmitrijs2005/faceguard/internal/clock"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/repositories/accesslogs"
	auditrepo "github.com/dmitrijs2005/faceguard/internal/repositories/audit"
)

const (
	DefaultAuditLimit  = 200
	DefaultAccessLimit = 100
)

var descriptions = map[models.AuditAction]string{
	models.ActionUserRegistered: "User registered",
	models.ActionUserDeleted:    "User deleted",
	models.ActionModelTrained:   "Model trained",
	models.ActionLoginSuccess:   "Login successful",
	models.ActionLoginFail:      "Login failed",
	models.ActionIntruder:       "Intruder detected",
	models.ActionLivenessFail:   "Liveness check failed",
	models.ActionWrongPIN:       "Wrong PIN entered",
	models.ActionLockout:        "Account locked out",
	models.ActionLockoutReset:   "Lockout manually reset",
	models.ActionPINReset:       "PIN reset by admin",
	models.ActionSessionCreated: "Session token created",
	models.ActionSessionRevoked: "Session token revoked",
	models.ActionAdminLogin:     "Admin panel accessed",
}

// Describe returns a human-readable label for action.
func Describe(action models.AuditAction) string {
	if d, ok := descriptions[action]; ok {
		return d
	}
	return string(action)
}

type Recorder struct {
	audit  auditrepo.Repository
	access accesslogs.Repository
	logger logging.Logger
	clock  clock.Clock
}

func NewRecorder(audit auditrepo.Repository, access accesslogs.Repository, logger logging.Logger, c clock.Clock) *Recorder {
	if c == nil {
		c = clock.Real()
	}
	return &Recorder{audit: audit, access: access, logger: logger, clock: c}
}

// Record appends an audit entry.
func (r *Recorder) Record(ctx context.Context, action models.AuditAction, performedBy, targetUser, details string) {
	e := &models.AuditEntry{
		Timestamp:   r.clock.Now().UTC(),
		Action:      action,
		PerformedBy: performedBy,
		TargetUser:  targetUser,
		Details:     details,
	}
	if err := r.audit.Append(ctx, e); err != nil {
		r.logger.Error(ctx, "audit write failed", "action", string(action), "error", err)
		return
	}
	r.logger.Info(ctx, Describe(action),
		"audit_action", string(action), "performed_by", performedBy, "target_user", targetUser, "details", details)
}

// Attempt stores one login attempt and mirrors it to the structured log.
func (r *Recorder) Attempt(ctx context.Context, username string, status models.AccessStatus, confidence float64) {
	e := &models.AccessLogEntry{
		Username:   username,
		Status:     status,
		Confidence: confidence,
		Timestamp:  r.clock.Now().UTC(),
	}
	r.logger.Info(ctx, "access attempt", "user", username, "status", string(status), "confidence", confidence)
	if err := r.access.Add(ctx, e); err != nil {
		r.logger.Error(ctx, "access log write failed", "status", string(status), "error", err)
	}
}

// Recent returns up to limit audit entries, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	return r.audit.ListRecent(ctx, limit)
}

// RecentAttempts returns up to limit access-log entries, newest first.
func (r *Recorder) RecentAttempts(ctx context.Context, limit int) ([]*models.AccessLogEntry, error) {
	if limit <= 0 {
		limit = DefaultAccessLimit
	}
	return r.access.ListRecent(ctx, limit)
}
