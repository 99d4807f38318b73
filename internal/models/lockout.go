package models

import "time"

type Lockout struct {
	Identifier  string
	FailCount   int
	LockedUntil *time.Time
}
