package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// ConnectOptions tune the startup connection attempts.
type ConnectOptions struct {
	InitialBackoff time.Duration
	MaxDuration    time.Duration
}

var DefaultConnectOptions = ConnectOptions{
	InitialBackoff: 500 * time.Millisecond,
	MaxDuration:    30 * time.Second,
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// OpenPostgres opens a pgx-backed *sql.DB and pings it with exponential
// backoff until it answers or opts.MaxDuration elapses.
func OpenPostgres(ctx context.Context, dsn string, opts ConnectOptions, logger logging.Logger) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	b := retry.WithMaxDuration(opts.MaxDuration, retry.NewExponential(opts.InitialBackoff))

	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			logger.Warn(ctx, "database not reachable", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}
