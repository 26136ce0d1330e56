package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for the fetch pipeline. They
// are registered on the default registry and exposed when watch mode
// serves /metrics; one-shot CLI runs simply never scrape them.
type Metrics struct {
	FetchesTotal       *prometheus.CounterVec
	CacheHitsTotal     prometheus.Counter
	FailuresTotal      prometheus.Counter
	IntegrityFailTotal prometheus.Counter
}

// NewMetrics creates and registers the fetch pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		FetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultpipe_fetches_total",
			Help: "Network fetches by retrieval method.",
		}, []string{"method"}),
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultpipe_cache_hits_total",
			Help: "Requests served from the content cache.",
		}),
		FailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultpipe_fetch_failures_total",
			Help: "Requests that exhausted every retrieval method.",
		}),
		IntegrityFailTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultpipe_cache_integrity_failures_total",
			Help: "Cache entries invalidated by hash mismatch or corruption.",
		}),
	}
}
