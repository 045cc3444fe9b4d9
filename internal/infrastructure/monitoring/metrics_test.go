package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolated(t *testing.T) {
	// Two collectors must not collide on registration.
	a := NewMetrics()
	b := NewMetrics()

	a.ObserveCommand("ok", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CommandsTotal.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CommandsTotal.WithLabelValues("ok")))
}

func TestObserversAndSnapshot(t *testing.T) {
	m := NewMetrics()

	m.ObserveCommand("timeout", 30*time.Second)
	m.ObserveCommand("ok", time.Millisecond)
	m.SetActiveSessions(3)
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	m.RecordHTTPRequest("GET", "/health", "200", 10*time.Millisecond, 0, 10)
	m.RecordHTTPRequest("POST", "/api/command", "400", 30*time.Millisecond, 5, 10)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("timeout")))

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.TotalCommands)
	assert.Equal(t, int64(3), s.ActiveSessions)
	assert.Equal(t, int64(1), s.ActiveConnections)
	assert.Equal(t, int64(2), s.TotalRequests)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.InDelta(t, 0.02, s.AvgRequestSeconds, 0.0001)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/sessions/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/sessions/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "astraterm_http_requests_total")
	assert.Contains(t, string(body), "astraterm_uptime_seconds")
}

func TestTimer(t *testing.T) {
	m := NewMetrics()

	NewTimer(m, "ai", "grok").Stop("success")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceCalls.WithLabelValues("ai", "grok", "success")))

	assert.NotPanics(t, func() { NewTimer(nil, "ai", "grok").Stop("error") })
}
