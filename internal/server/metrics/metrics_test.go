package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve_CountsByOperationAndStatus(t *testing.T) {
	m := New()

	m.Observe("signin", http.StatusOK, 10*time.Millisecond)
	m.Observe("signin", http.StatusOK, 20*time.Millisecond)
	m.Observe("signin", http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("signin", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("signin", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.Observe("signup", http.StatusCreated, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gophauth_requests_total{operation="signup",status="201"} 1`)
	assert.Contains(t, string(body), "gophauth_request_duration_seconds_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Observe("refresh", http.StatusOK, time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.RequestsTotal.WithLabelValues("refresh", "200")))
}
