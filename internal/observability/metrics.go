// Package observability holds the service-wide Prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "elogbook",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity written to Postgres.",
	})

	reportsComposedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elogbook",
		Subsystem: "reports",
		Name:      "composed_total",
		Help:      "Number of activity reports composed, labeled by output format.",
	}, []string{"format"})

	reportPagesHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "elogbook",
		Subsystem: "reports",
		Name:      "pages",
		Help:      "Page count of composed activity reports.",
		Buckets:   prometheus.ExponentialBuckets(2, 2, 10),
	})

	statsCacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elogbook",
		Subsystem: "stats_cache",
		Name:      "lookups_total",
		Help:      "Statistics cache lookups, labeled by result (hit or miss).",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, reportsComposedCounter, reportPagesHistogram, statsCacheCounter)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordReportComposed counts a composed report and observes its size.
func RecordReportComposed(format string, pages int) {
	reportsComposedCounter.WithLabelValues(format).Inc()
	reportPagesHistogram.Observe(float64(pages))
}

// RecordStatsCacheLookup counts a cache hit or miss.
func RecordStatsCacheLookup(hit bool) {
	if hit {
		statsCacheCounter.WithLabelValues("hit").Inc()
		return
	}
	statsCacheCounter.WithLabelValues("miss").Inc()
}
