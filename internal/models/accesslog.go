package models

import "time"

// AccessStatus is the outcome of a single login attempt.
type AccessStatus string

const (
	AccessSuccess      AccessStatus = "SUCCESS"
	AccessFailed       AccessStatus = "FAILED"
	AccessIntruder     AccessStatus = "INTRUDER"
	AccessLivenessFail AccessStatus = "LIVENESS_FAIL"
	AccessWrongPIN     AccessStatus = "WRONG_PIN"
	AccessNoPIN        AccessStatus = "NO_PIN"
)

type AccessLogEntry struct {
	ID         int64
	Username   string
	Status     AccessStatus
	Confidence float64
	Timestamp  time.Time
}
