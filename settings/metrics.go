package settings

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics holds Prometheus metrics for the settings cache.
type CacheMetrics struct {
	hitsTotal        prometheus.Counter
	fetchesTotal     prometheus.Counter
	fetchErrorsTotal prometheus.Counter
	lastFetch        prometheus.Gauge
}

var (
	cacheMetricsInstance *CacheMetrics
	cacheMetricsOnce     sync.Once
)

// GetCacheMetrics returns the singleton settings cache metrics.
func GetCacheMetrics() *CacheMetrics {
	cacheMetricsOnce.Do(func() {
		cacheMetricsInstance = newCacheMetrics()
	})
	return cacheMetricsInstance
}

// MustRegister registers the collectors with a registry other than the
// default one promauto uses.
func (m *CacheMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.hitsTotal,
		m.fetchesTotal,
		m.fetchErrorsTotal,
		m.lastFetch,
	)
}

func newCacheMetrics() *CacheMetrics {
	return &CacheMetrics{
		hitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storeauth",
			Subsystem: "settings_cache",
			Name:      "hits_total",
			Help:      "Store setting lookups served from the cache",
		}),
		fetchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storeauth",
			Subsystem: "settings_cache",
			Name:      "fetches_total",
			Help:      "Store setting fetches issued to the backend",
		}),
		fetchErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storeauth",
			Subsystem: "settings_cache",
			Name:      "fetch_errors_total",
			Help:      "Store setting fetches that failed",
		}),
		lastFetch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "storeauth",
			Subsystem: "settings_cache",
			Name:      "last_fetch_timestamp_seconds",
			Help:      "Unix time of the last successful store setting fetch",
		}),
	}
}
