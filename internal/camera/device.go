// Package camera wraps the capture device, the preview window and frame
// encoding behind small interfaces so session loops stay testable without
// hardware.
package camera

import (
	"gocv.io/x/gocv"

	"github.com/classmark/classmark-go/internal/errors"
)

// Device is an exclusively-owned capture device. It is acquired for the
// duration of one session and must be released on every exit path.
type Device struct {
	capture *gocv.VideoCapture
	index   int
}

// Open acquires the capture device with the given index. Failure to open is
// terminal for the session; the caller may retry a whole new session.
func Open(index int) (*Device, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, errors.Newf("could not open capture device %d: %v", index, err).
			Component("camera").
			Category(errors.CategoryCamera).
			Context("device_index", index).
			Build()
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Newf("capture device %d is not available", index).
			Component("camera").
			Category(errors.CategoryCamera).
			Context("device_index", index).
			Build()
	}
	return &Device{capture: capture, index: index}, nil
}

// Read reads the next frame into m. It returns false when the stream has
// ended or the read failed.
func (d *Device) Read(m *gocv.Mat) bool {
	return d.capture.Read(m)
}

// Close releases the device.
func (d *Device) Close() error {
	return d.capture.Close()
}
