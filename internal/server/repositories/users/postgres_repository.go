package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, username, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`

	id := uuid.NewString()

	err := r.db.QueryRowContext(ctx, query,
		id, user.UserName, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	return user, nil
}

const selectUser = `SELECT id, username, email, password_hash, confirmation_code, confirmation_token, created_at FROM users`

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var code, token sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &code, &token, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Confirmation = models.Confirmation{Code: fromNull(code), Token: fromNull(token)}
	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	var (
		sets  []string
		conds = []string{"id = $1"}
		args  = []any{id}
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash = "+arg(*upd.PasswordHash))
	}
	if upd.Confirmation != nil {
		sets = append(sets,
			"confirmation_code = "+arg(toNull(upd.Confirmation.Code))+"::text",
			"confirmation_token = "+arg(toNull(upd.Confirmation.Token))+"::text",
		)
	}
	if len(sets) == 0 {
		return nil
	}
	if upd.ExpectConfirmation != nil {
		conds = append(conds,
			"confirmation_code IS NOT DISTINCT FROM "+arg(toNull(upd.ExpectConfirmation.Code))+"::text",
			"confirmation_token IS NOT DISTINCT FROM "+arg(toNull(upd.ExpectConfirmation.Token))+"::text",
		)
	}

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(conds, " AND ")

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		if upd.ExpectConfirmation != nil {
			return common.ErrStaleState
		}
		return common.ErrorNotFound
	}

	return nil
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
