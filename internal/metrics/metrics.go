// Package metrics holds the Prometheus collectors of the renderer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simplification job lifecycle
	SimplifyJobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackrender_simplify_jobs_submitted_total",
		Help: "Simplification jobs accepted by the worker pool",
	})

	SimplifyJobsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackrender_simplify_jobs_rejected_total",
		Help: "Simplification jobs rejected because the pool queue was full or closed",
	})

	SimplifyJobsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackrender_simplify_jobs_cancelled_total",
		Help: "Simplification jobs that stopped early on cancellation",
	})

	SimplifyJobsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackrender_simplify_jobs_discarded_total",
		Help: "Finished simplification results dropped because a newer job superseded them",
	})

	SimplifyJobsInstalled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackrender_simplify_jobs_installed_total",
		Help: "Simplification results installed into a segment cache",
	})

	SimplifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackrender_simplify_duration_seconds",
		Help:    "Time taken by one simplification run",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~0.8s
	})

	SimplifyPointsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackrender_simplify_points_removed_total",
		Help: "Points dropped by completed simplification runs",
	})

	// Worker pool
	PoolQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackrender_pool_queue_depth",
		Help: "Tasks waiting in the background worker pool queue",
	})

	PoolActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackrender_pool_active_workers",
		Help: "Background workers currently running",
	})

	// Frames
	FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackrender_frames_rendered_total",
		Help: "Video frames drawn",
	})

	FrameRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackrender_frame_render_duration_seconds",
		Help:    "Time taken to draw one frame",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)
