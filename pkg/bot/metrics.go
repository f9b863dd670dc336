package bot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeGenerated   = "generated"
	outcomeNoValidPost = "no_valid_post"
	outcomeEmptyCorpus = "empty_corpus"
	outcomeSkipped     = "skipped"
	outcomeError       = "error"
)

// Metrics are the Prometheus collectors updated by a Bot. A nil *Metrics
// records nothing.
type Metrics struct {
	Runs            *prometheus.CounterVec
	Styles          *prometheus.CounterVec
	Publishes       *prometheus.CounterVec
	Attempts        prometheus.Histogram
	GenerateSeconds prometheus.Histogram
	CorpusSize      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ebooks",
				Subsystem: "bot",
				Name:      "runs_total",
				Help:      "Generation runs by outcome",
			},
			[]string{"outcome"},
		),
		Styles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ebooks",
				Subsystem: "bot",
				Name:      "posts_by_style_total",
				Help:      "Accepted posts by style profile",
			},
			[]string{"style"},
		),
		Publishes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ebooks",
				Subsystem: "publish",
				Name:      "attempts_total",
				Help:      "Publish attempts by publisher and result",
			},
			[]string{"publisher", "result"},
		),
		Attempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "ebooks",
				Subsystem: "bot",
				Name:      "attempts_per_post",
				Help:      "Generation attempts needed for an accepted post",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		GenerateSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "ebooks",
				Subsystem: "bot",
				Name:      "generate_duration_seconds",
				Help:      "Time from chain lookup to an accepted post",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
		CorpusSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ebooks",
				Subsystem: "corpus",
				Name:      "texts",
				Help:      "Source texts in the most recently gathered corpus",
			},
		),
	}
}

func (m *Metrics) observeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeGenerated(post Post, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcomeGenerated).Inc()
	m.Styles.WithLabelValues(post.Style).Inc()
	m.Attempts.Observe(float64(post.Attempts))
	m.GenerateSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) observePublish(publisher string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Publishes.WithLabelValues(publisher, result).Inc()
}

func (m *Metrics) setCorpusSize(n int) {
	if m == nil {
		return
	}
	m.CorpusSize.Set(float64(n))
}
