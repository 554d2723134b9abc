// Package models holds the server-side persistence types.
package models

import "time"

// Confirmation is the password-reset state kept on the user row. Code is set
// after a reset is requested, Token after the code was confirmed. Both nil
// means no reset is in progress.
type Confirmation struct {
	Code  *string
	Token *string
}

// Equal compares two confirmation records field by field.
func (c Confirmation) Equal(o Confirmation) bool {
	return equalPtr(c.Code, o.Code) && equalPtr(c.Token, o.Token)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	Confirmation Confirmation
	CreatedAt    time.Time
}

// UserUpdate describes a partial update of a user row. Nil fields are left
// unchanged. When ExpectConfirmation is set the update only applies if the
// stored confirmation still equals it.
type UserUpdate struct {
	PasswordHash       *string
	Confirmation       *Confirmation
	ExpectConfirmation *Confirmation
}
