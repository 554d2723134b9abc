package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memStore is an in-memory stand-in for the users and refresh_tokens tables
// with the same conflict and compare-and-swap semantics as the SQL repos.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	sessions []models.RefreshToken
	seq      int

	createErr error
	findErr   error
	updateErr error
	addErr    error
	existsErr error
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}}
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.Confirmation.Code != nil {
		v := *u.Confirmation.Code
		c.Confirmation.Code = &v
	}
	if u.Confirmation.Token != nil {
		v := *u.Confirmation.Token
		c.Confirmation.Token = &v
	}
	return &c
}

func (s *memStore) byEmail(email string) *models.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *memStore) sessionTokens(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, rt := range s.sessions {
		if rt.UserID == userID {
			out = append(out, rt.Token)
		}
	}
	return out
}

type fakeUsersRepo struct{ s *memStore }

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return nil, r.s.createErr
	}
	if r.s.byEmail(u.Email) != nil {
		return nil, common.ErrConflict
	}
	r.s.seq++
	u.ID = fmt.Sprintf("u-%d", r.s.seq)
	u.CreatedAt = time.Now()
	r.s.users[u.ID] = copyUser(u)
	return u, nil
}

func (r *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findErr != nil {
		return nil, r.s.findErr
	}
	u := r.s.byEmail(email)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *fakeUsersRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findErr != nil {
		return nil, r.s.findErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *fakeUsersRepo) Update(_ context.Context, id string, upd models.UserUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.updateErr != nil {
		return r.s.updateErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if upd.ExpectConfirmation != nil && !u.Confirmation.Equal(*upd.ExpectConfirmation) {
		return common.ErrStaleState
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Confirmation != nil {
		u.Confirmation = copyUser(&models.User{Confirmation: *upd.Confirmation}).Confirmation
	}
	return nil
}

type fakeRefreshRepo struct{ s *memStore }

func (r *fakeRefreshRepo) Add(_ context.Context, userID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.addErr != nil {
		return r.s.addErr
	}
	r.s.sessions = append(r.s.sessions, models.RefreshToken{UserID: userID, Token: token, CreatedAt: time.Now()})
	return nil
}

func (r *fakeRefreshRepo) TrimOldest(_ context.Context, userID string, keep int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := 0
	for _, rt := range r.s.sessions {
		if rt.UserID == userID {
			total++
		}
	}
	drop := total - keep
	if drop <= 0 {
		return 0, nil
	}
	kept := r.s.sessions[:0]
	var n int64
	for _, rt := range r.s.sessions {
		if rt.UserID == userID && n < int64(drop) {
			n++
			continue
		}
		kept = append(kept, rt)
	}
	r.s.sessions = kept
	return n, nil
}

func (r *fakeRefreshRepo) Delete(_ context.Context, userID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteErr != nil {
		return r.s.deleteErr
	}
	kept := r.s.sessions[:0]
	for _, rt := range r.s.sessions {
		if rt.UserID == userID && rt.Token == token {
			continue
		}
		kept = append(kept, rt)
	}
	r.s.sessions = kept
	return nil
}

func (r *fakeRefreshRepo) Exists(_ context.Context, userID, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.existsErr != nil {
		return false, r.s.existsErr
	}
	for _, rt := range r.s.sessions {
		if rt.UserID == userID && rt.Token == token {
			return true, nil
		}
	}
	return false, nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository {
	return &fakeUsersRepo{m.s}
}

func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository {
	return &fakeRefreshRepo{m.s}
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  map[string]string
	err   error
	calls int
}

func (n *fakeNotifier) SendResetCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.err != nil {
		return n.err
	}
	if n.sent == nil {
		n.sent = map[string]string{}
	}
	n.sent[email] = code
	return nil
}

func (n *fakeNotifier) lastCode(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[email]
}

var testArgon2 = cryptox.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

// txDB returns a real *sql.DB so dbx.WithTx can begin and commit; the fakes
// ignore the handle they are bound to.
func txDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fixture struct {
	store    *memStore
	notifier *fakeNotifier
	tokens   *auth.TokenIssuer
	hasher   *cryptox.PasswordHasher
	auth     *AuthService
	reset    *PasswordResetFlow
	sessions *SessionRegistry
}

type fixtureOpts struct {
	db                     *sql.DB
	maxSessions            int
	refreshRequiresSession bool
	accessTTL              time.Duration
	refreshTTL             time.Duration
}

func newFixture(t *testing.T, o fixtureOpts) *fixture {
	t.Helper()
	if o.db == nil {
		o.db = txDB(t)
	}
	if o.maxSessions == 0 {
		o.maxSessions = 10
	}
	if o.accessTTL == 0 {
		o.accessTTL = time.Minute
	}
	if o.refreshTTL == 0 {
		o.refreshTTL = time.Hour
	}

	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	logger := logging.Nop()
	hasher := cryptox.NewPasswordHasher(testArgon2)
	tokens := auth.NewTokenIssuer("access-secret", o.accessTTL, "refresh-secret", o.refreshTTL)
	v := validation.New()
	notifier := &fakeNotifier{}

	sessions := NewSessionRegistry(o.db, rm, o.maxSessions, logger)

	return &fixture{
		store:    store,
		notifier: notifier,
		tokens:   tokens,
		hasher:   hasher,
		sessions: sessions,
		auth: NewAuthService(o.db, rm, AuthOptions{
			Hasher:                 hasher,
			Tokens:                 tokens,
			Sessions:               sessions,
			Validator:              v,
			Logger:                 logger,
			RefreshRequiresSession: o.refreshRequiresSession,
		}),
		reset: NewPasswordResetFlow(o.db, rm, hasher, notifier, v, logger),
	}
}

func newLegacyUser(hash string) *models.User {
	return &models.User{UserName: "old_user", Email: "old@x.com", PasswordHash: hash}
}
