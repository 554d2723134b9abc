package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
)

// MsgTokenRequired is returned when refresh or signout get no token.
const MsgTokenRequired = "Token is required"

// AuthService provides the account operations exposed to clients:
//   - Signup: create a user and open a session
//   - Signin: verify credentials and open a session
//   - Refresh: mint a new access token from a live refresh token
//   - Signout: close one session
//   - Me: resolve an access token to its user
type AuthService struct {
	db                     *sql.DB
	repomanager            repomanager.RepositoryManager
	hasher                 PasswordHasher
	tokens                 TokenIssuer
	sessions               *SessionRegistry
	validator              Validator
	logger                 logging.Logger
	refreshRequiresSession bool
}

// AuthOptions carries the collaborators of AuthService.
type AuthOptions struct {
	Hasher                 PasswordHasher
	Tokens                 TokenIssuer
	Sessions               *SessionRegistry
	Validator              Validator
	Logger                 logging.Logger
	RefreshRequiresSession bool
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, opts AuthOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &AuthService{
		db:                     db,
		repomanager:            m,
		hasher:                 opts.Hasher,
		tokens:                 opts.Tokens,
		sessions:               opts.Sessions,
		validator:              opts.Validator,
		logger:                 logger.With("module", "auth_service"),
		refreshRequiresSession: opts.RefreshRequiresSession,
	}
}

// Signup creates the user and its first session in one transaction.
// A taken email yields common.ErrConflict.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*TokenPair, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	var (
		user *models.User
		pair *TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			UserName:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}

		pair, err = s.generateTokenPair(user.ID)
		if err != nil {
			return err
		}

		return s.sessions.AddTx(ctx, tx, user.ID, pair.RefreshToken)
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		s.logger.Error(ctx, "signup failed", "email", in.Email, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return pair, nil
}

// Signin verifies the password and opens a new session. An unknown email is
// common.ErrorNotFound, a wrong password common.ErrInvalidPassword.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (*TokenPair, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "email", in.Email, "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrInvalidPassword
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, in.Password)
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.sessions.Add(ctx, user.ID, pair.RefreshToken); err != nil {
		s.logger.Error(ctx, "session add failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user signed in", "user_id", user.ID)
	return pair, nil
}

// Refresh returns a new access token. The refresh token itself is kept.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.verifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	if s.refreshRequiresSession {
		active, err := s.sessions.IsActive(ctx, userID, refreshToken)
		if err != nil {
			s.logger.Error(ctx, "session lookup failed", "user_id", userID, "error", err)
			return "", common.ErrorInternal
		}
		if !active {
			return "", common.ErrInvalidToken
		}
	}

	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "user_id", userID, "error", err)
		return "", common.ErrorInternal
	}

	return access, nil
}

// Signout closes the session of refreshToken. Repeating it is harmless.
func (s *AuthService) Signout(ctx context.Context, refreshToken string) error {
	userID, err := s.verifyRefresh(refreshToken)
	if err != nil {
		return err
	}

	if err := s.sessions.Remove(ctx, userID, refreshToken); err != nil {
		s.logger.Error(ctx, "session remove failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "user signed out", "user_id", userID)
	return nil
}

// Me returns the user an access token was issued to.
func (s *AuthService) Me(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, common.ErrInvalidToken
	}

	userID, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		s.logger.Error(ctx, "user lookup failed", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	return user, nil
}

// --- helpers below ---

func (s *AuthService) verifyRefresh(token string) (string, error) {
	if token == "" {
		return "", common.NewValidationError(MsgTokenRequired)
	}
	return s.tokens.VerifyRefresh(token)
}

func (s *AuthService) generateTokenPair(userID string) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// upgradeHash rehashes a password stored with outdated parameters. Failure
// leaves the old, still valid hash in place.
func (s *AuthService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn(ctx, "password rehash failed", "user_id", userID, "error", err)
		return
	}

	err = s.repomanager.Users(s.db).Update(ctx, userID, models.UserUpdate{PasswordHash: &hash})
	if err != nil {
		s.logger.Warn(ctx, "storing upgraded hash failed", "user_id", userID, "error", err)
		return
	}

	s.logger.Info(ctx, "password hash upgraded", "user_id", userID)
}
