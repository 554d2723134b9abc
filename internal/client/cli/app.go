package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// apiClient is the subset of *client.APIClient the commands use.
type apiClient interface {
	Signup(ctx context.Context, username, email, password string) error
	Signin(ctx context.Context, email, password string) error
	RequestReset(ctx context.Context, email string) error
	Confirm(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, email, password, confirmationToken string) error
	Refresh(ctx context.Context) error
	Signout(ctx context.Context) error
	Me(ctx context.Context) (*client.Profile, error)
	SignedIn() bool
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    apiClient
	health pinger
	closer io.Closer
	reader *bufio.Reader

	email      string
	resetEmail string
	resetToken string

	modeMu sync.Mutex
	mode   Mode
}

func NewApp(c *config.Config) (*App, error) {
	hc, err := client.NewHealthClient(c.HealthAddr)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		api:    client.NewAPIClient(c.ServerURL, c.RequestTimeout),
		health: hc,
		closer: hc,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// Run checks connectivity once, starts the watcher and blocks in the REPL.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.closer != nil {
		defer a.closer.Close()
	}

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	log.Println("Welcome to gophauth CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)

	if a.api.SignedIn() {
		// best effort, the session would expire anyway
		_ = a.api.Signout(context.WithoutCancel(ctx))
	}
}

func (a *App) isSignedIn() bool {
	return a.api.SignedIn()
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.health.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
