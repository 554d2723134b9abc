package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// SessionRegistry tracks which refresh tokens are live sessions. Each user
// keeps at most maxSessions of them; adding one more evicts the oldest.
type SessionRegistry struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	maxSessions int
	logger      logging.Logger
}

func NewSessionRegistry(db *sql.DB, m repomanager.RepositoryManager, maxSessions int, logger logging.Logger) *SessionRegistry {
	return &SessionRegistry{
		db:          db,
		repomanager: m,
		maxSessions: maxSessions,
		logger:      logger.With("module", "sessions"),
	}
}

// Add registers token and evicts the overflow in its own transaction.
func (r *SessionRegistry) Add(ctx context.Context, userID, token string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return r.AddTx(ctx, tx, userID, token)
	})
}

// AddTx is Add for a caller that already holds a transaction.
func (r *SessionRegistry) AddTx(ctx context.Context, tx dbx.DBTX, userID, token string) error {
	repo := r.repomanager.RefreshTokens(tx)

	if err := repo.Add(ctx, userID, token); err != nil {
		return err
	}

	evicted, err := repo.TrimOldest(ctx, userID, r.maxSessions)
	if err != nil {
		return err
	}
	if evicted > 0 {
		r.logger.Info(ctx, "evicted oldest sessions", "user_id", userID, "count", evicted)
	}

	return nil
}

// Remove deletes exactly that session; an unknown token is not an error.
func (r *SessionRegistry) Remove(ctx context.Context, userID, token string) error {
	return r.repomanager.RefreshTokens(r.db).Delete(ctx, userID, token)
}

func (r *SessionRegistry) IsActive(ctx context.Context, userID, token string) (bool, error) {
	return r.repomanager.RefreshTokens(r.db).Exists(ctx, userID, token)
}
