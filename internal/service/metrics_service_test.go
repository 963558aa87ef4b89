package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceLedgerCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveColumnOpened(32)
	m.ObserveColumnOpened(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.columnsOpened))
	assert.Equal(t, 33.0, testutil.ToFloat64(m.marksCreated))
}

func TestMetricsServiceExposesRequests(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/marks/columns", http.StatusCreated, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="POST",path="/api/v1/marks/columns",status="201"} 1`))
	assert.Contains(t, body, "mark_columns_opened_total 0")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveColumnOpened(3)
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
