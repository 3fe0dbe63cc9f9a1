package capture

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/classmark/classmark-go/internal/errors"
	"github.com/classmark/classmark-go/internal/observability"
)

// FrameEncoder turns a captured frame into a storable binary form.
// camera.EncodePNG is the production encoder.
type FrameEncoder func(m *gocv.Mat) ([]byte, error)

// RunRegistration captures exactly one still frame after the fixed delay
// has elapsed and returns it encoded. Frames read during the countdown may
// be previewed but are discarded. Cancellation during the countdown, via
// the cancel key or the caller's context, aborts with no image. The frame
// source is released on every exit path.
func RunRegistration(ctx context.Context, src FrameReader, surface Surface, encode FrameEncoder, delay time.Duration, cancelKey byte) ([]byte, error) {
	logger := sessionLogger()

	frame := gocv.NewMat()
	defer frame.Close()
	defer src.Close()

	deadline := time.Now().Add(delay)
	logger.Info("registration capture started", "delay", delay.String())

	for {
		select {
		case <-ctx.Done():
			observability.CaptureSessions.WithLabelValues("registration", "cancelled").Inc()
			return nil, errors.New(ctx.Err()).
				Component("capture").
				Category(errors.CategoryCancellation).
				Build()
		default:
		}

		if !src.Read(&frame) {
			observability.CaptureSessions.WithLabelValues("registration", string(StopStreamError)).Inc()
			return nil, errors.Newf("frame read failed during registration capture").
				Component("capture").
				Category(errors.CategoryStream).
				Build()
		}

		if time.Now().After(deadline) || time.Now().Equal(deadline) {
			break
		}

		if surface != nil {
			if key := surface.Show(&frame); key == int(cancelKey) {
				observability.CaptureSessions.WithLabelValues("registration", "cancelled").Inc()
				return nil, errors.Newf("registration capture cancelled by operator").
					Component("capture").
					Category(errors.CategoryCancellation).
					Build()
			}
		}
	}

	image, err := encode(&frame)
	if err != nil {
		observability.CaptureSessions.WithLabelValues("registration", "encode_error").Inc()
		return nil, err
	}

	observability.CaptureSessions.WithLabelValues("registration", "captured").Inc()
	logger.Info("registration frame captured", "bytes", len(image))
	return image, nil
}
