// Package facedet locates face regions in frames with a Haar cascade
// classifier. It counts regions only; no identity is ever inferred from
// pixels.
package facedet

import (
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/classmark/classmark-go/internal/conf"
	"github.com/classmark/classmark-go/internal/errors"
)

// Classifier wraps a loaded cascade and the detection parameters it is run
// with. One classifier serves one session.
type Classifier struct {
	cascade      gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
}

// ResolveCascadePath picks the classifier asset: the configured primary
// path, or the well-known fallback when the primary is absent. Both
// missing is a hard error.
func ResolveCascadePath(settings *conf.DetectionSettings) (string, error) {
	if settings.CascadePath != "" {
		if _, err := os.Stat(settings.CascadePath); err == nil {
			return settings.CascadePath, nil
		}
	}
	if settings.FallbackPath != "" {
		if _, err := os.Stat(settings.FallbackPath); err == nil {
			return settings.FallbackPath, nil
		}
	}
	return "", errors.Newf("cascade classifier asset not found at %q or fallback %q",
		settings.CascadePath, settings.FallbackPath).
		Component("facedet").
		Category(errors.CategoryModelLoad).
		Context("primary_path", settings.CascadePath).
		Context("fallback_path", settings.FallbackPath).
		Build()
}

// New loads the cascade classifier for one session.
func New(settings *conf.DetectionSettings) (*Classifier, error) {
	path, err := ResolveCascadePath(settings)
	if err != nil {
		return nil, err
	}

	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(path) {
		cascade.Close()
		return nil, errors.Newf("failed to load cascade classifier from %s", path).
			Component("facedet").
			Category(errors.CategoryModelLoad).
			Context("path", path).
			Build()
	}

	return &Classifier{
		cascade:      cascade,
		scaleFactor:  settings.ScaleFactor,
		minNeighbors: settings.MinNeighbors,
	}, nil
}

// Detect returns the face regions found in the frame. Detection runs on a
// grayscale copy, matching the reference pipeline.
func (c *Classifier) Detect(m *gocv.Mat) []image.Rectangle {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*m, &gray, gocv.ColorBGRToGray)

	return c.cascade.DetectMultiScaleWithParams(
		gray, c.scaleFactor, c.minNeighbors, 0,
		image.Point{}, image.Point{},
	)
}

// Close releases the cascade.
func (c *Classifier) Close() error {
	return c.cascade.Close()
}
