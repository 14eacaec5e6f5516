package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitch_batch_runs_total",
			Help: "Batch runs by outcome (completed, source_unavailable)",
		},
		[]string{"outcome"},
	)

	ApplicationsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitch_applications_total",
			Help: "Applications attempted by the pipeline, by result (success or error kind)",
		},
		[]string{"result"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pitch_pipeline_step_duration_seconds",
			Help:    "Duration of pipeline steps in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"step"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitch_cache_lookups_total",
			Help: "Cache lookups by entry type and outcome (hit, miss)",
		},
		[]string{"entry", "outcome"},
	)

	Checkpoint = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitch_checkpoint_last_processed_id",
			Help: "Last processed application id as of the most recent batch run",
		},
	)

	BatchRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitch_batch_running",
			Help: "1 while a batch run is in progress",
		},
	)
)

// CacheLookup records a cache hit or miss for entry ("transcript", "skill", "behavior").
func CacheLookup(entry string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookups.WithLabelValues(entry, outcome).Inc()
}
