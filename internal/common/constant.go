// Package common contains shared constants and sentinel errors used across
// faceguard components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the admin
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Synthetic actors recorded in the audit trail when no end user performed an action.
const (
	ActorSystem = "SYSTEM"
	ActorAdmin  = "ADMIN"
)

// UnknownUser is the username recorded for attempts that never matched an identity.
const UnknownUser = "UNKNOWN"

// TimestampLayout is the fixed timestamp format used in session payloads.
const TimestampLayout = "2006-01-02 15:04:05"
