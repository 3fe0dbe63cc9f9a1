// Package observability provides Prometheus metrics for the attendance
// capture and recording engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CaptureSessions counts finished capture sessions by terminal outcome.
	CaptureSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classmark_capture_sessions_total",
		Help: "Finished capture sessions by terminal outcome.",
	}, []string{"kind", "outcome"})

	// FramesProcessed counts frames read from the capture device.
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classmark_frames_processed_total",
		Help: "Frames read and processed across detection sessions.",
	})

	// FacesDetected counts face regions reported by the classifier.
	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classmark_faces_detected_total",
		Help: "Face regions detected across all frames.",
	})

	// SessionDuration observes the wall-clock length of capture sessions.
	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "classmark_session_duration_seconds",
		Help:    "Duration of capture sessions.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// LedgerMarks counts successful attendance upserts by source and status.
	LedgerMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classmark_ledger_marks_total",
		Help: "Successful attendance upserts by source and status.",
	}, []string{"source", "status"})

	// LedgerErrors counts failed ledger writes.
	LedgerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classmark_ledger_errors_total",
		Help: "Failed attendance ledger writes.",
	})
)
