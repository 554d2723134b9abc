// Package users declares and implements the credential store: persistence of
// user records keyed by ID and by normalized email.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create inserts user, assigning ID and CreatedAt. A duplicate email
	// yields common.ErrConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmail and FindByID return common.ErrorNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	// Update applies upd in a single statement. If upd.ExpectConfirmation is
	// set and no longer matches, nothing changes and common.ErrStaleState is
	// returned.
	Update(ctx context.Context, id string, upd models.UserUpdate) error
}
