// Package models holds the persistent record types shared by repositories
// and services.
package models

import "time"

type User struct {
	ID           int64
	FullName     string
	Username     string
	PINHash      string // empty until a PIN is set
	RegisteredAt time.Time
}

func (u *User) HasPIN() bool {
	return u.PINHash != ""
}
