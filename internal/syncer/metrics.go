package syncer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the run counters. A nil *Metrics records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	sources       *prometheus.CounterVec
	entries       prometheus.Counter
	published     prometheus.Counter
	publishFailed prometheus.Counter
	lastRun       prometheus.Gauge
	runDuration   prometheus.Histogram
}

// NewMetrics registers the sync collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedsync",
			Name:      "runs_total",
			Help:      "Sync runs by outcome (ok, partial, failed).",
		}, []string{"outcome"}),
		sources: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedsync",
			Name:      "sources_total",
			Help:      "Sources processed by outcome (ok, failed).",
		}, []string{"outcome"}),
		entries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "feedsync",
			Name:      "entries_matched_total",
			Help:      "Feed entries inside the lookback window.",
		}),
		published: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "feedsync",
			Name:      "posts_published_total",
			Help:      "Posts created in the destination database.",
		}),
		publishFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "feedsync",
			Name:      "posts_failed_total",
			Help:      "Posts that could not be created.",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "feedsync",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "feedsync",
			Name:      "run_duration_seconds",
			Help:      "Wall time of sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func (m *Metrics) sourceDone(ok bool, matched int) {
	if m == nil {
		return
	}
	if ok {
		m.sources.WithLabelValues("ok").Inc()
		m.entries.Add(float64(matched))
		return
	}
	m.sources.WithLabelValues("failed").Inc()
}

func (m *Metrics) postDone(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.published.Inc()
		return
	}
	m.publishFailed.Inc()
}

func (m *Metrics) runDone(outcome string, started, finished time.Time) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.lastRun.Set(float64(finished.Unix()))
	m.runDuration.Observe(finished.Sub(started).Seconds())
}
