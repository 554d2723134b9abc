package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/netx"
)

// msgTokenExpired is the server message that triggers a transparent refresh.
const msgTokenExpired = "Token expired"

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIClient is safe for concurrent use.
type APIClient struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewAPIClient returns a client for the server at baseURL, e.g.
// "http://127.0.0.1:8080".
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + common.APIPrefix,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) Signup(ctx context.Context, username, email, password string) error {
	req := map[string]string{"username": username, "email": email, "password": password}
	return c.openSession(ctx, "/signup", req)
}

func (c *APIClient) Signin(ctx context.Context, email, password string) error {
	req := map[string]string{"email": email, "password": password}
	return c.openSession(ctx, "/signin", req)
}

func (c *APIClient) RequestReset(ctx context.Context, email string) error {
	return c.post(ctx, "/forgot/email", map[string]string{"email": email}, nil)
}

// Confirm exchanges the mailed code for a confirmation token.
func (c *APIClient) Confirm(ctx context.Context, email, code string) (string, error) {
	var resp struct {
		ConfirmationToken string `json:"confirmationToken"`
	}
	if err := c.post(ctx, "/confirmation", map[string]string{"email": email, "code": code}, &resp); err != nil {
		return "", err
	}
	return resp.ConfirmationToken, nil
}

func (c *APIClient) ResetPassword(ctx context.Context, email, password, confirmationToken string) error {
	req := map[string]string{"email": email, "password": password, "confirmationToken": confirmationToken}
	return c.post(ctx, "/forgot/password", req, nil)
}

// Refresh replaces the access token using the stored refresh token.
func (c *APIClient) Refresh(ctx context.Context) error {
	refresh := c.tokens().RefreshToken
	if refresh == "" {
		return ErrNotSignedIn
	}

	var resp tokensResponse
	if err := c.post(ctx, "/refresh", map[string]string{"refreshToken": refresh}, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken = resp.AccessToken
	c.mu.Unlock()
	return nil
}

// Signout ends the session on the server and forgets the tokens. The local
// tokens are dropped even if the server call fails.
func (c *APIClient) Signout(ctx context.Context) error {
	refresh := c.tokens().RefreshToken
	if refresh == "" {
		return ErrNotSignedIn
	}

	err := c.post(ctx, "/signout", map[string]string{"refreshToken": refresh}, nil)
	c.setTokens("", "")
	return err
}

// Me returns the profile of the signed-in user, refreshing the access token
// once if the server reports it expired.
func (c *APIClient) Me(ctx context.Context) (*Profile, error) {
	if !c.SignedIn() {
		return nil, ErrNotSignedIn
	}

	var p Profile
	err := c.get(ctx, "/me", &p)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && apiErr.Message == msgTokenExpired {
		if rerr := c.Refresh(ctx); rerr != nil {
			return nil, rerr
		}
		err = c.get(ctx, "/me", &p)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *APIClient) SignedIn() bool {
	return c.tokens().RefreshToken != ""
}

func (c *APIClient) tokens() tokensResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return tokensResponse{AccessToken: c.accessToken, RefreshToken: c.refreshToken}
}

func (c *APIClient) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = access, refresh
}

func (c *APIClient) openSession(ctx context.Context, path string, req any) error {
	var resp tokensResponse
	if err := c.post(ctx, path, req, &resp); err != nil {
		return err
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (c *APIClient) post(ctx context.Context, path string, in, out any) error {
	err := netx.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+path, nil, in, out)
	return c.mapError(err)
}

func (c *APIClient) get(ctx context.Context, path string, out any) error {
	hdr := http.Header{}
	hdr.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.tokens().AccessToken)
	err := netx.DoJSON(ctx, c.http, http.MethodGet, c.baseURL+path, hdr, nil, out)
	return c.mapError(err)
}

func (c *APIClient) mapError(err error) error {
	if err == nil {
		return nil
	}

	var se *netx.StatusError
	if !errors.As(err, &se) {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var body errorResponse
	if jerr := json.Unmarshal(se.Body, &body); jerr != nil || body.Error == "" {
		body.Error = http.StatusText(se.StatusCode)
	}
	return &APIError{Status: se.StatusCode, Message: body.Error}
}
