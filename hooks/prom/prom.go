// Package promhook exports fetcher events as Prometheus metrics.
package promhook

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/fetchcache"
)

type Hooks struct {
	hits         prometheus.Counter
	misses       prometheus.Counter
	coalesced    prometheus.Counter
	originErrors prometheus.Counter
	selfHeals    *prometheus.CounterVec
	storeErrors  *prometheus.CounterVec
	hitAge       prometheus.Histogram
}

var _ fetchcache.Hooks = (*Hooks)(nil)

// New registers the fetcher metrics with reg (prometheus.DefaultRegisterer if
// nil). Use a distinct namespace per fetcher sharing a registry.
func New(reg prometheus.Registerer, namespace string) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Hooks{
		hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetchcache_hits_total",
			Help:      "Number of fetches served from the store",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetchcache_misses_total",
			Help:      "Number of fetches that went to the origin",
		}),
		coalesced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetchcache_requests_coalesced_total",
			Help:      "Number of fetches that shared an origin call with concurrent misses",
		}),
		originErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetchcache_origin_errors_total",
			Help:      "Number of failed origin calls, including cancellations",
		}),
		selfHeals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetchcache_self_heals_total",
			Help:      "Number of unreadable entries deleted on read",
		}, []string{"reason"}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetchcache_store_errors_total",
			Help:      "Number of failed store operations",
		}, []string{"op"}),
		hitAge: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetchcache_hit_age_seconds",
			Help:      "Age of content served from the store",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
	}
}

func (h *Hooks) CacheHit(_ string, age time.Duration) {
	h.hits.Inc()
	h.hitAge.Observe(age.Seconds())
}

func (h *Hooks) CacheMiss(string)          { h.misses.Inc() }
func (h *Hooks) Coalesced(string)          { h.coalesced.Inc() }
func (h *Hooks) OriginError(string, error) { h.originErrors.Inc() }

func (h *Hooks) SelfHeal(_, reason string) {
	h.selfHeals.WithLabelValues(reason).Inc()
}

func (h *Hooks) StoreError(op, _ string, _ error) {
	h.storeErrors.WithLabelValues(op).Inc()
}
