// Package services contains the server-side business logic: account
// registration and signin, token refresh and signout, session bookkeeping and
// the password-reset flow.
package services

import (
	"context"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// PasswordHasher is implemented by cryptox.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsUpgrade(encoded string) bool
}

// TokenIssuer is implemented by auth.TokenIssuer.
type TokenIssuer interface {
	IssueAccess(userID string) (string, error)
	IssueRefresh(userID string) (string, error)
	VerifyAccess(token string) (string, error)
	VerifyRefresh(token string) (string, error)
}

// Validator is implemented by validation.Validator.
type Validator interface {
	Struct(s any) error
}

// Notifier is implemented by the notify package.
type Notifier interface {
	SendResetCode(ctx context.Context, email, code string) error
}

type SignupInput struct {
	Username string `json:"username" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type ForgotEmailInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,code"`
}

type ResetPasswordInput struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,password"`
	ConfirmationToken string `json:"confirmationToken" validate:"required"`
}
