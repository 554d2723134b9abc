package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// AuthService is implemented by services.AuthService.
type AuthService interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.TokenPair, error)
	Signin(ctx context.Context, in services.SigninInput) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Signout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, accessToken string) (*models.User, error)
}

// ResetFlow is implemented by services.PasswordResetFlow.
type ResetFlow interface {
	RequestReset(ctx context.Context, in services.ForgotEmailInput) error
	ConfirmCode(ctx context.Context, in services.ConfirmInput) (string, error)
	ResetPassword(ctx context.Context, in services.ResetPasswordInput) error
}

type Handler struct {
	auth   AuthService
	reset  ResetFlow
	logger logging.Logger
}

func NewHandler(auth AuthService, reset ResetFlow, logger logging.Logger) *Handler {
	return &Handler{auth: auth, reset: reset, logger: logger.With("module", "http_handler")}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := decodeJSON(r, w, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	pair, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensResponse{Success: true, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var in services.SigninInput
	if err := decodeJSON(r, w, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	pair, err := h.auth.Signin(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensResponse{Success: true, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) ForgotEmail(w http.ResponseWriter, r *http.Request) {
	var in services.ForgotEmailInput
	if err := decodeJSON(r, w, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.reset.RequestReset(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{Success: true})
}

func (h *Handler) Confirmation(w http.ResponseWriter, r *http.Request) {
	var in services.ConfirmInput
	if err := decodeJSON(r, w, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.reset.ConfirmCode(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, confirmationResponse{Success: true, ConfirmationToken: token})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in services.ResetPasswordInput
	if err := decodeJSON(r, w, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.reset.ResetPassword(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{Success: true})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(r, w, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	access, err := h.auth.Refresh(r.Context(), in.token())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensResponse{Success: true, AccessToken: access})
}

func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeJSON(r, w, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.auth.Signout(r.Context(), in.token()); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{Success: true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), bearerToken(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Success:   true,
		ID:        user.ID,
		Username:  user.UserName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" if the header is missing or uses another scheme.
func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}
