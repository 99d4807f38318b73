package models

import "time"

// AuditAction is the fixed vocabulary of security events. Values are stored
// verbatim and must not change.
type AuditAction string

const (
	ActionUserRegistered AuditAction = "USER_REGISTERED"
	ActionUserDeleted    AuditAction = "USER_DELETED"
	ActionModelTrained   AuditAction = "MODEL_TRAINED"
	ActionLoginSuccess   AuditAction = "LOGIN_SUCCESS"
	ActionLoginFail      AuditAction = "LOGIN_FAIL"
	ActionIntruder       AuditAction = "INTRUDER"
	ActionLivenessFail   AuditAction = "LIVENESS_FAIL"
	ActionWrongPIN       AuditAction = "WRONG_PIN"
	ActionLockout        AuditAction = "LOCKOUT"
	ActionLockoutReset   AuditAction = "LOCKOUT_RESET"
	ActionPINReset       AuditAction = "PIN_RESET"
	ActionSessionCreated AuditAction = "SESSION_CREATED"
	ActionSessionRevoked AuditAction = "SESSION_REVOKED"
	ActionAdminLogin     AuditAction = "ADMIN_LOGIN"
)

type AuditEntry struct {
	ID          int64
	Timestamp   time.Time
	Action      AuditAction
	PerformedBy string
	TargetUser  string
	Details     string
}
