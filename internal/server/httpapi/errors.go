package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	msgMalformedBody = "Request body is not valid JSON"
	msgInternal      = "Internal server error"
	msgNotFound      = "Not found"
	msgBadMethod     = "Method not allowed"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorTable is consulted in order; the first entry matching with errors.Is wins.
var errorTable = []errorMapping{
	{common.ErrConflict, http.StatusConflict, "Email already exists"},
	{common.ErrorNotFound, http.StatusBadRequest, "Email not found"},
	{common.ErrInvalidPassword, http.StatusBadRequest, "Invalid Password"},
	{common.ErrSamePassword, http.StatusBadRequest, "New password should be different from old one"},
	{common.ErrTokenMismatch, http.StatusBadRequest, "Confirmation token is incorrect"},
	{common.ErrCodeMismatch, http.StatusConflict, "Code is incorrect"},
	{common.ErrTokenExpired, http.StatusUnauthorized, "Token expired"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Unauthorized"},
}

// statusFor maps a service error to the HTTP status and the message shown to
// the client. Unknown errors become a 500 without details.
func statusFor(err error) (int, string) {
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Message
	}
	if errors.Is(err, common.ErrValidation) {
		return http.StatusBadRequest, err.Error()
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}

	return http.StatusInternalServerError, msgInternal
}
