// Package server wires configuration, storage, services and transports into
// the running auth server and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const dbWatchInterval = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler *httpapi.Handler
	metrics *metrics.Metrics
}

// NewApp connects to the database, applies migrations and builds the
// services. The caller owns the returned App and must call Run or Close.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(c.LogLevel, nil)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN, repomanager.DefaultConnectOptions, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	notifier, err := newNotifier(c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	handler := buildHandler(c, db, rm, notifier, logger)

	return &App{config: c, logger: logger, db: db, handler: handler, metrics: metrics.New()}, nil
}

func buildHandler(c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, n services.Notifier, logger logging.Logger) *httpapi.Handler {
	hasher := cryptox.NewPasswordHasher(cryptox.DefaultArgon2Params)
	tokens := auth.NewTokenIssuer(c.AccessTokenSecret, c.AccessTokenValidityDuration, c.RefreshTokenSecret, c.RefreshTokenValidityDuration)
	v := validation.New()

	sessions := services.NewSessionRegistry(db, rm, c.MaxSessionsPerUser, logger)
	authService := services.NewAuthService(db, rm, services.AuthOptions{
		Hasher:                 hasher,
		Tokens:                 tokens,
		Sessions:               sessions,
		Validator:              v,
		Logger:                 logger,
		RefreshRequiresSession: c.RefreshRequiresSession,
	})
	resetFlow := services.NewPasswordResetFlow(db, rm, hasher, n, v, logger)

	return httpapi.NewHandler(authService, resetFlow, logger)
}

func newNotifier(c *config.Config, logger logging.Logger) (services.Notifier, error) {
	if c.MailMode == config.MailModeLog {
		logger.Warn(context.Background(), "reset codes are not mailed", "mail_mode", c.MailMode)
		return notify.NewLogNotifier(logger), nil
	}

	n, err := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.Sender(),
	}, logger)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(app.handler, app.metrics)
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc, s *gs.GRPCServer) {
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until a signal arrives or ctx is cancelled, then
// waits for both servers to drain and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	health := gs.NewGRPCServer(app.config.GRPCAddr, app.logger)
	health.SetServing(true)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc, health)
	}()
	go func() {
		defer wg.Done()
		health.WatchDatabase(ctx, app.db, dbWatchInterval)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

func (app *App) Close() error {
	return app.db.Close()
}
