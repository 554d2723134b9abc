package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type okResponse struct {
	Success bool `json:"success"`
}

type tokensResponse struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type confirmationResponse struct {
	Success           bool   `json:"success"`
	ConfirmationToken string `json:"confirmationToken"`
}

type meResponse struct {
	Success   bool      `json:"success"`
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// refreshRequest accepts the legacy rfsToken name as an alias.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	RfsToken     string `json:"rfsToken"`
}

func (r refreshRequest) token() string {
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.RfsToken
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// decodeJSON reads the request body into dst. An empty body leaves dst zeroed
// so the validator reports the missing fields.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return common.NewValidationError(msgMalformedBody)
}
