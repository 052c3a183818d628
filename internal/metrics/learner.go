package metrics

import "github.com/prometheus/client_golang/prometheus"

// Learner Prometheus metrics.
var (
	LearnerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "celearn",
			Name:      "learner_runs_total",
			Help:      "Total number of finished search runs",
		},
		[]string{"termination"},
	)

	LearnerRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "celearn",
			Name:      "learner_run_duration_seconds",
			Help:      "Search run wall-clock duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"termination"},
	)

	LearnerExpansionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "celearn",
			Name:      "learner_expansions_total",
			Help:      "Total number of expanded search tree nodes",
		},
	)

	LearnerNodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "celearn",
			Name:      "learner_nodes_total",
			Help:      "Total number of scored search tree nodes",
		},
		[]string{"outcome"}, // "viable" / "too_weak"
	)

	LearnerFullScoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "celearn",
			Name:      "learner_full_scores_total",
			Help:      "Full scoring calls made for best-hypotheses admission",
		},
		[]string{"result"}, // "admitted" / "rejected"
	)

	LearnerFullScoresSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "celearn",
			Name:      "learner_full_scores_skipped_total",
			Help:      "Full scoring calls avoided by the coverage pre-filter",
		},
	)

	ReducerSelectedDefinitions = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "celearn",
			Name:      "reducer_selected_definitions",
			Help:      "Number of partial definitions kept by a reduction",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
	)
)

var learnerMetricsRegistered bool

// RegisterLearnerMetrics registers Prometheus learner metrics. Must be called once from main.
func RegisterLearnerMetrics() {
	if learnerMetricsRegistered {
		return
	}
	prometheus.MustRegister(LearnerRunsTotal)
	prometheus.MustRegister(LearnerRunDuration)
	prometheus.MustRegister(LearnerExpansionsTotal)
	prometheus.MustRegister(LearnerNodesTotal)
	prometheus.MustRegister(LearnerFullScoresTotal)
	prometheus.MustRegister(LearnerFullScoresSkipped)
	prometheus.MustRegister(ReducerSelectedDefinitions)
	learnerMetricsRegistered = true
}
