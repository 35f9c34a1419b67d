package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAPIRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.APIRequest("GET", "/trees", 200, 10*time.Millisecond)
	m.APIRequest("GET", "/trees", 200, 20*time.Millisecond)
	m.APIRequest("PUT", "/trees/{id}", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/trees", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("PUT", "/trees/{id}", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestTokenRefreshAndCacheLookup(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TokenRefresh(true)
	m.TokenRefresh(false)
	m.TokenRefresh(false)
	m.CacheLookup("trees", CacheHit)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("trees", CacheHit)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.APIRequest("GET", "/x", 200, time.Second)
	m.TokenRefresh(true)
	m.CacheLookup("trees", CacheMiss)
}
