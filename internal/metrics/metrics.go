// Package metrics exposes Prometheus metrics for rate fetching.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// Fetch outcomes recorded by ObserveFetch.
const (
	OutcomeSuccess   = "success"   // fresh pair installed
	OutcomeDegraded  = "degraded"  // fetch failed, previous pair kept
	OutcomeError     = "error"     // fetch failed, nothing to serve
	OutcomeDiscarded = "discarded" // superseded by a newer value
)

// Collector holds the rate metrics.
type Collector struct {
	SourceAttemptsTotal *prometheus.CounterVec
	FetchTotal          *prometheus.CounterVec
	FetchDuration       prometheus.Histogram
	FetchStatus         *prometheus.GaugeVec
	GoldPricePerGram    prometheus.Gauge
}

// NewCollector registers the metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		SourceAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zakah_gold_source_attempts_total",
				Help: "Gold price source attempts by source and result",
			},
			[]string{"source", "result"},
		),

		FetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zakah_rate_fetch_total",
				Help: "Aggregate rate fetch cycles by outcome",
			},
			[]string{"outcome"},
		),

		FetchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zakah_rate_fetch_duration_seconds",
				Help:    "Duration of aggregate rate fetch cycles",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
			},
		),

		FetchStatus: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zakah_rate_fetch_status",
				Help: "1 for the current fetch status, 0 otherwise",
			},
			[]string{"status"},
		),

		GoldPricePerGram: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "zakah_gold_price_per_gram",
				Help: "Installed gold price per gram in the reference currency",
			},
		),
	}
}

// ObserveSourceAttempt counts one gold source attempt.
func (c *Collector) ObserveSourceAttempt(source string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.SourceAttemptsTotal.WithLabelValues(source, result).Inc()
}

// ObserveFetch records a finished fetch cycle.
func (c *Collector) ObserveFetch(outcome string, d time.Duration) {
	c.FetchTotal.WithLabelValues(outcome).Inc()
	c.FetchDuration.Observe(d.Seconds())
}

// SetStatus marks status as current.
func (c *Collector) SetStatus(status models.FetchStatus) {
	for _, s := range models.AllFetchStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		c.FetchStatus.WithLabelValues(string(s)).Set(v)
	}
}

// SetGoldPrice records the installed gold price.
func (c *Collector) SetGoldPrice(price decimal.Decimal) {
	c.GoldPricePerGram.Set(price.InexactFloat64())
}
