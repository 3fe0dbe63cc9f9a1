// Package capture drives camera capture sessions: the open-ended detection
// loop and the bounded registration capture. A session owns its frame
// source exclusively and releases it on every exit path.
package capture

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/classmark/classmark-go/internal/camera"
	"github.com/classmark/classmark-go/internal/logging"
	"github.com/classmark/classmark-go/internal/observability"
)

// FrameReader is the capture device seam. camera.Device implements it.
type FrameReader interface {
	// Read reads the next frame into m, returning false when the stream
	// ended or the read failed.
	Read(m *gocv.Mat) bool
	Close() error
}

// FaceFinder locates face regions in a frame. facedet.Classifier
// implements it.
type FaceFinder interface {
	Detect(m *gocv.Mat) []image.Rectangle
}

// Surface is the optional preview window. Show renders a frame and returns
// the key pressed during the poll delay, or -1. A nil Surface means a
// headless session cancelled through context only.
type Surface interface {
	Show(m *gocv.Mat) int
	Close() error
}

// StopReason tells how a streaming session ended.
type StopReason string

const (
	// StopUserCancel is the operator's stop key or the caller's context.
	StopUserCancel StopReason = "user_cancel"
	// StopDeadline is a caller-supplied context deadline expiring.
	StopDeadline StopReason = "deadline"
	// StopStreamError is a failed frame read mid-session.
	StopStreamError StopReason = "stream_error"
)

// Summary is what remains of a detection session after it is discarded:
// the per-frame statistics and the reason the stream stopped.
type Summary struct {
	SessionID          string
	TotalTicks         int
	TicksWithDetection int
	PeakCount          int
	Reason             StopReason
	Duration           time.Duration
}

// NoDetection reports whether the session never saw a face.
func (s *Summary) NoDetection() bool {
	return s.TicksWithDetection == 0
}

// detectionSession accumulates per-tick face counts for one loop run. It
// lives only for the duration of the run and is reduced to a Summary.
type detectionSession struct {
	id     string
	counts []int
}

func newDetectionSession() *detectionSession {
	return &detectionSession{id: uuid.NewString()}
}

func (s *detectionSession) record(count int) {
	s.counts = append(s.counts, count)
}

func (s *detectionSession) summarize(reason StopReason, duration time.Duration) Summary {
	summary := Summary{
		SessionID: s.id,
		Reason:    reason,
		Duration:  duration,
	}
	for _, count := range s.counts {
		summary.TotalTicks++
		if count > 0 {
			summary.TicksWithDetection++
		}
		if count > summary.PeakCount {
			summary.PeakCount = count
		}
	}
	return summary
}

// RunDetection drives the capture and detection loop until the operator
// stops it, the caller cancels, or the stream fails. Every tick reads one
// frame, counts face regions and records the count; cancellation is polled
// once per tick. The frame source is released exactly once, whatever the
// exit path. The per-tick work blocks the calling goroutine, run it off
// any interactive context.
func RunDetection(ctx context.Context, src FrameReader, finder FaceFinder, surface Surface, stopKey byte) Summary {
	logger := sessionLogger()

	session := newDetectionSession()
	start := time.Now()

	frame := gocv.NewMat()
	defer frame.Close()
	defer src.Close()

	logger.Info("detection session started", "session_id", session.id)

	reason := StopUserCancel
loop:
	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				reason = StopDeadline
			}
			break loop
		default:
		}

		if !src.Read(&frame) {
			reason = StopStreamError
			break
		}
		observability.FramesProcessed.Inc()

		regions := finder.Detect(&frame)
		session.record(len(regions))
		if len(regions) > 0 {
			observability.FacesDetected.Add(float64(len(regions)))
		}

		if surface != nil {
			camera.DrawRegions(&frame, regions)
			if key := surface.Show(&frame); key == int(stopKey) {
				break
			}
		}
	}

	summary := session.summarize(reason, time.Since(start))
	observability.CaptureSessions.WithLabelValues("detection", string(reason)).Inc()
	observability.SessionDuration.Observe(summary.Duration.Seconds())

	logger.Info("detection session stopped",
		"session_id", summary.SessionID,
		"reason", summary.Reason,
		"total_ticks", summary.TotalTicks,
		"ticks_with_detection", summary.TicksWithDetection,
		"peak_count", summary.PeakCount,
	)
	return summary
}

func sessionLogger() *slog.Logger {
	return logging.ForService("capture")
}
