// Package refreshtokens declares the server-side repository contract for the
// set of active refresh tokens (sessions) of each user.
package refreshtokens

import (
	"context"
)

// Repository stores the refresh tokens that are currently valid sessions.
type Repository interface {
	// Add records token as an active session of userID.
	Add(ctx context.Context, userID string, token string) error

	// TrimOldest deletes all but the keep most recent sessions of userID and
	// returns how many were removed.
	TrimOldest(ctx context.Context, userID string, keep int) (int64, error)

	// Delete removes exactly that session. Deleting a non-existent token is
	// not an error.
	Delete(ctx context.Context, userID string, token string) error

	// Exists reports whether token is an active session of userID.
	Exists(ctx context.Context, userID string, token string) (bool, error)
}
