package refreshtokens

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, userID string, token string) error {
	query :=
		`INSERT INTO refresh_tokens (user_id, token)
		 VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) TrimOldest(ctx context.Context, userID string, keep int) (int64, error) {
	query :=
		`DELETE FROM refresh_tokens
		 WHERE user_id = $1
		   AND id NOT IN (
		       SELECT id FROM refresh_tokens
		       WHERE user_id = $1
		       ORDER BY created_at DESC, id DESC
		       LIMIT $2)`

	res, err := r.db.ExecContext(ctx, query, userID, keep)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string, token string) error {
	query :=
		`DELETE FROM refresh_tokens
		 WHERE user_id = $1 AND token = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, userID string, token string) (bool, error) {
	query :=
		`SELECT EXISTS (
		     SELECT 1 FROM refresh_tokens
		     WHERE user_id = $1 AND token = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return ok, nil
}
