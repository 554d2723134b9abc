package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer mimics the auth API closely enough for the client.
type fakeServer struct {
	mu        sync.Mutex
	access    string
	expired   bool
	refreshes int
	signouts  []string
	bodies    map[string]map[string]string
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	decode := func(r *http.Request) map[string]string {
		var m map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		f.mu.Lock()
		f.bodies[r.URL.Path] = m
		f.mu.Unlock()
		return m
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("POST /api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		if decode(r)["email"] == "taken@x.io" {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "Email already exists"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "accessToken": "acc-1", "refreshToken": "ref-1"})
	})
	mux.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		decode(r)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "accessToken": "acc-1", "refreshToken": "ref-1"})
	})
	mux.HandleFunc("POST /api/auth/forgot/email", func(w http.ResponseWriter, r *http.Request) {
		decode(r)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /api/auth/confirmation", func(w http.ResponseWriter, r *http.Request) {
		if decode(r)["code"] != "123456" {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "Code is incorrect"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "confirmationToken": "0123456789abcdef"})
	})
	mux.HandleFunc("POST /api/auth/forgot/password", func(w http.ResponseWriter, r *http.Request) {
		decode(r)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		decode(r)
		f.mu.Lock()
		f.refreshes++
		f.expired = false
		f.access = "acc-2"
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "accessToken": "acc-2"})
	})
	mux.HandleFunc("POST /api/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		m := decode(r)
		f.mu.Lock()
		f.signouts = append(f.signouts, m["refreshToken"])
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		expired, access := f.expired, f.access
		f.mu.Unlock()
		if expired {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Token expired"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+access {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "id": "u1", "username": "alice1", "email": "alice@x.io",
			"createdAt": time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	})

	return mux
}

func newTestClient(t *testing.T) (*APIClient, *fakeServer) {
	t.Helper()
	f := &fakeServer{access: "acc-1", bodies: map[string]map[string]string{}}
	ts := httptest.NewServer(f.handler(t))
	t.Cleanup(ts.Close)
	return NewAPIClient(ts.URL+"/", 2*time.Second), f
}

func TestSignupSigninAndMe(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()

	assert.False(t, c.SignedIn())
	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	require.NoError(t, c.Signup(ctx, "alice1", "alice@x.io", "Passw0rd"))
	assert.True(t, c.SignedIn())
	assert.Equal(t, map[string]string{"username": "alice1", "email": "alice@x.io", "password": "Passw0rd"}, f.bodies["/api/auth/signup"])

	p, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice1", p.Username)
	assert.Equal(t, "u1", p.ID)

	require.NoError(t, c.Signin(ctx, "alice@x.io", "Passw0rd"))
	assert.Equal(t, "ref-1", c.tokens().RefreshToken)
}

func TestSignup_Conflict(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Signup(context.Background(), "alice1", "taken@x.io", "Passw0rd")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Email already exists", apiErr.Message)
	assert.False(t, c.SignedIn())
}

func TestMe_RefreshesExpiredAccessTokenOnce(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.Signin(ctx, "alice@x.io", "Passw0rd"))

	f.mu.Lock()
	f.expired = true
	f.mu.Unlock()

	p, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", p.Email)
	assert.Equal(t, 1, f.refreshes)
	assert.Equal(t, "acc-2", c.tokens().AccessToken)
	assert.Equal(t, map[string]string{"refreshToken": "ref-1"}, f.bodies["/api/auth/refresh"])
}

func TestMe_InvalidTokenIsUnauthorized(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.Signin(ctx, "alice@x.io", "Passw0rd"))

	f.mu.Lock()
	f.access = "something-else"
	f.mu.Unlock()

	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, f.refreshes)
}

func TestResetFlow(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.RequestReset(ctx, "alice@x.io"))

	_, err := c.Confirm(ctx, "alice@x.io", "000000")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Code is incorrect", apiErr.Message)

	token, err := c.Confirm(ctx, "alice@x.io", "123456")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", token)

	require.NoError(t, c.ResetPassword(ctx, "alice@x.io", "N3wPassw0rd", token))
	assert.Equal(t, "0123456789abcdef", f.bodies["/api/auth/forgot/password"]["confirmationToken"])
}

func TestSignout(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Signout(ctx), ErrNotSignedIn)
	assert.ErrorIs(t, c.Refresh(ctx), ErrNotSignedIn)

	require.NoError(t, c.Signin(ctx, "alice@x.io", "Passw0rd"))
	require.NoError(t, c.Signout(ctx))

	assert.False(t, c.SignedIn())
	assert.Equal(t, []string{"ref-1"}, f.signouts)
}

func TestUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewAPIClient(url, time.Second)
	err := c.RequestReset(context.Background(), "alice@x.io")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMapError_NonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewAPIClient(ts.URL, time.Second)
	err := c.RequestReset(context.Background(), "alice@x.io")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}
