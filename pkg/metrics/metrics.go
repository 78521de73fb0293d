// Package metrics provides Prometheus metrics for manifest analysis.
package metrics

import (
	"time"

	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "cargoscan"

	StatusOK            = "ok"
	StatusInvalidFormat = "invalid_format"
	StatusError         = "error"
)

var (
	// AnalysesTotal tracks manifest analyses by status
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of manifest analyses by status",
		},
		[]string{"status"},
	)

	// AnalysisDuration tracks how long a single analysis takes
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Duration of manifest analyses in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// RecordsScoredTotal tracks scored manifest records
	RecordsScoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "records_scored_total",
			Help:      "Total number of manifest records scored",
		},
	)

	// RuleHitsTotal tracks records on which a rule contributed a non-zero score
	RuleHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "hits_total",
			Help:      "Total number of records flagged by each rule",
		},
		[]string{"rule"},
	)

	// CoercionAnomaliesTotal tracks numeric cells which could not be parsed
	CoercionAnomaliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "coercion_anomalies_total",
			Help:      "Total number of numeric cells coerced to zero",
		},
	)

	// MaxScore tracks the highest suspicion score of the last analysis
	MaxScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "last_max_score",
			Help:      "Highest suspicion score of the most recent analysis",
		},
	)
)

// Observe records the outcome of one analysis.
func Observe(res *manifest.RankedResult, err error, d time.Duration) {
	AnalysisDuration.Observe(d.Seconds())

	switch {
	case err == nil:
		AnalysesTotal.WithLabelValues(StatusOK).Inc()
	case manifest.IsFormatError(err):
		AnalysesTotal.WithLabelValues(StatusInvalidFormat).Inc()
		return
	default:
		AnalysesTotal.WithLabelValues(StatusError).Inc()
		return
	}

	if res == nil {
		return
	}

	RecordsScoredTotal.Add(float64(res.TotalRecords))
	CoercionAnomaliesTotal.Add(float64(len(res.Anomalies)))
	for rule, n := range res.RuleHits {
		RuleHitsTotal.WithLabelValues(rule).Add(float64(n))
	}

	var top float64
	if len(res.Records) > 0 {
		top = float64(res.Records[0].SuspicionScore)
	}
	MaxScore.Set(top)
}
