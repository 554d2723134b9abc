// Package httpapi exposes the auth services as a JSON API under /api/auth.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
)

// Operation names used as route names and metric labels.
const (
	OpSignup         = "signup"
	OpSignin         = "signin"
	OpForgotEmail    = "forgot_email"
	OpForgotPassword = "forgot_password"
	OpConfirmation   = "confirmation"
	OpRefresh        = "refresh"
	OpSignout        = "signout"
	OpMe             = "me"
)

func NewRouter(h *Handler, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgBadMethod)
	})

	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	api := r.PathPrefix(common.APIPrefix).Subrouter()
	if m != nil {
		api.Use(metricsMiddleware(m))
	}

	api.HandleFunc("/signup", h.Signup).Methods("POST").Name(OpSignup)
	api.HandleFunc("/signin", h.Signin).Methods("POST").Name(OpSignin)
	api.HandleFunc("/forgot/email", h.ForgotEmail).Methods("POST").Name(OpForgotEmail)
	api.HandleFunc("/forgot/password", h.ForgotPassword).Methods("POST").Name(OpForgotPassword)
	api.HandleFunc("/confirmation", h.Confirmation).Methods("POST").Name(OpConfirmation)
	api.HandleFunc("/refresh", h.Refresh).Methods("POST").Name(OpRefresh)
	api.HandleFunc("/signout", h.Signout).Methods("POST").Name(OpSignout)
	api.HandleFunc("/me", h.Me).Methods("GET").Name(OpMe)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op := "unknown"
			if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
				op = route.GetName()
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			m.Observe(op, rec.status, time.Since(start))
		})
	}
}
