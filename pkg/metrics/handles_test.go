package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHandleMetrics_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newHandleMetrics(reg)

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.RecordCacheEviction()
	m.RecordCacheInvalidation()
	m.SetCacheEntries(42)
	m.RecordSearch(3*time.Millisecond, true)
	m.RecordCompose("compose", nil)
	m.RecordCompose("extend", errors.New("depth"))
	m.RecordInvalidHandle()
	m.RecordThrottled()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheEvictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheInvalidations))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.cacheEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchesTotal.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.composeTotal.WithLabelValues("compose", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.composeTotal.WithLabelValues("extend", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidHandles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.throttled))
}

func TestOrNoop(t *testing.T) {
	m := OrNoop(nil)
	assert.NotNil(t, m)

	// Must not panic.
	m.RecordCacheLookup(true)
	m.RecordSearch(time.Second, false)

	pm := newHandleMetrics(prometheus.NewRegistry())
	assert.Same(t, pm, OrNoop(pm))
}

func TestHandler_Disabled(t *testing.T) {
	if IsEnabled() {
		t.Skip("registry already initialized by another test")
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewHandleMetrics_DisabledIsNoop(t *testing.T) {
	if IsEnabled() {
		t.Skip("registry already initialized by another test")
	}
	_, ok := NewHandleMetrics().(*noopHandleMetrics)
	assert.True(t, ok)
}

func TestNewServer_DefaultPort(t *testing.T) {
	assert.Equal(t, DefaultPort, NewServer(ServerConfig{}).Port())
	assert.Equal(t, 9191, NewServer(ServerConfig{Port: 9191}).Port())
}
