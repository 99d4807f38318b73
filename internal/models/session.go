package models

import "time"

type Session struct {
	ID        int64
	Username  string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Active    bool
}
