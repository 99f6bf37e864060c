package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_scans_total",
			Help: "Scan outcomes per result",
		},
		[]string{"result"},
	)

	resolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_resolve_duration_seconds",
			Help:    "Ticket resolution latency per source",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"source"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_cache_lookups_total",
			Help: "Ticket cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	entriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_entries_total",
			Help: "Tickets marked as entered",
		},
	)
)

func ObserveScan(result string) {
	scansTotal.WithLabelValues(result).Inc()
}

func ObserveResolve(source string, d time.Duration) {
	resolveDuration.WithLabelValues(source).Observe(d.Seconds())
}

func ObserveCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}

	cacheLookups.WithLabelValues(outcome).Inc()
}

func IncEntries() {
	entriesTotal.Inc()
}
