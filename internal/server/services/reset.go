package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
)

const (
	resetCodeDigits = 6
	resetTokenBytes = 8
)

// PasswordResetFlow drives the reset state kept on the user row:
//
//	none -> code issued -> token issued -> none
//
// Every transition is a compare-and-swap on the confirmation the flow just
// read, so concurrent requests cannot both consume the same code or token.
type PasswordResetFlow struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	notifier    Notifier
	validator   Validator
	logger      logging.Logger
}

func NewPasswordResetFlow(db *sql.DB, m repomanager.RepositoryManager, h PasswordHasher, n Notifier, v Validator, logger logging.Logger) *PasswordResetFlow {
	return &PasswordResetFlow{
		db:          db,
		repomanager: m,
		hasher:      h,
		notifier:    n,
		validator:   v,
		logger:      logger.With("module", "password_reset"),
	}
}

// RequestReset issues a fresh code, replacing any reset in progress, and hands
// it to the notifier. The code is never returned. When delivery fails the
// previous confirmation state is restored and ErrDeliveryFailed is returned.
func (f *PasswordResetFlow) RequestReset(ctx context.Context, in ForgotEmailInput) error {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := f.validator.Struct(in); err != nil {
		return err
	}

	repo := f.repomanager.Users(f.db)

	user, err := f.findUser(ctx, in.Email)
	if err != nil {
		return err
	}

	code, err := common.MakeRandDigits(resetCodeDigits)
	if err != nil {
		f.logger.Error(ctx, "code generation failed", "error", err)
		return common.ErrorInternal
	}

	issued := models.Confirmation{Code: &code}
	if err := repo.Update(ctx, user.ID, models.UserUpdate{Confirmation: &issued}); err != nil {
		f.logger.Error(ctx, "storing reset code failed", "user_id", user.ID, "error", err)
		return common.ErrorInternal
	}

	if err := f.notifier.SendResetCode(ctx, user.Email, code); err != nil {
		f.logger.Error(ctx, "reset code delivery failed", "user_id", user.ID, "error", err)

		previous := user.Confirmation
		if err := repo.Update(ctx, user.ID, models.UserUpdate{
			Confirmation:       &previous,
			ExpectConfirmation: &issued,
		}); err != nil && !errors.Is(err, common.ErrStaleState) {
			f.logger.Error(ctx, "reverting reset code failed", "user_id", user.ID, "error", err)
		}
		return common.ErrDeliveryFailed
	}

	f.logger.Info(ctx, "reset code issued", "user_id", user.ID)
	return nil
}

// ConfirmCode trades a correct code for a one-time confirmation token. The
// token is returned to the caller and gates ResetPassword.
func (f *PasswordResetFlow) ConfirmCode(ctx context.Context, in ConfirmInput) (string, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := f.validator.Struct(in); err != nil {
		return "", err
	}
	code := validation.NormalizeCode(in.Code)

	user, err := f.findUser(ctx, in.Email)
	if err != nil {
		return "", err
	}

	stored := user.Confirmation
	if stored.Code == nil || !secretEqual(*stored.Code, code) {
		return "", common.ErrCodeMismatch
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		f.logger.Error(ctx, "token generation failed", "error", err)
		return "", common.ErrorInternal
	}

	err = f.repomanager.Users(f.db).Update(ctx, user.ID, models.UserUpdate{
		Confirmation:       &models.Confirmation{Token: &token},
		ExpectConfirmation: &stored,
	})
	if err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return "", common.ErrCodeMismatch
		}
		f.logger.Error(ctx, "storing confirmation token failed", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}

	f.logger.Info(ctx, "reset code confirmed", "user_id", user.ID)
	return token, nil
}

// ResetPassword sets a new password if the confirmation token matches, then
// clears the reset state. The token is checked before the password so a
// caller without a token learns nothing about the current password.
func (f *PasswordResetFlow) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := f.validator.Struct(in); err != nil {
		return err
	}

	user, err := f.findUser(ctx, in.Email)
	if err != nil {
		return err
	}

	stored := user.Confirmation
	if stored.Token == nil || !secretEqual(*stored.Token, in.ConfirmationToken) {
		return common.ErrTokenMismatch
	}

	same, err := f.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		f.logger.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return common.ErrorInternal
	}
	if same {
		return common.ErrSamePassword
	}

	hash, err := f.hasher.Hash(in.Password)
	if err != nil {
		f.logger.Error(ctx, "password hashing failed", "error", err)
		return common.ErrorInternal
	}

	err = f.repomanager.Users(f.db).Update(ctx, user.ID, models.UserUpdate{
		PasswordHash:       &hash,
		Confirmation:       &models.Confirmation{},
		ExpectConfirmation: &stored,
	})
	if err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return common.ErrTokenMismatch
		}
		f.logger.Error(ctx, "storing new password failed", "user_id", user.ID, "error", err)
		return common.ErrorInternal
	}

	f.logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

func (f *PasswordResetFlow) findUser(ctx context.Context, email string) (*models.User, error) {
	user, err := f.repomanager.Users(f.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		f.logger.Error(ctx, "user lookup failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}

func secretEqual(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
