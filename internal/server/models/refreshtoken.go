package models

import "time"

// RefreshToken is one active session of a user.
type RefreshToken struct {
	UserID    string
	Token     string
	CreatedAt time.Time
}
