package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordAuthEvent(t *testing.T) {
	m := NewMetrics()

	m.RecordAuthEvent("login", OutcomeSuccess)
	m.RecordAuthEvent("login", OutcomeSuccess)
	m.RecordAuthEvent("login", "unauthorized")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", "unauthorized")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("/auth/login", "POST", "200", 25*time.Millisecond)
	m.RecordAuthEvent("refresh", OutcomeSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `authd_http_request_duration_seconds_count{method="POST",route="/auth/login",status="200"} 1`)
	assert.Contains(t, string(body), `authd_auth_events_total{operation="refresh",outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
