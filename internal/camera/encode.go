package camera

import (
	"gocv.io/x/gocv"

	"github.com/classmark/classmark-go/internal/errors"
)

// EncodePNG encodes a captured frame to PNG bytes suitable for storing as a
// student's reference image.
func EncodePNG(m *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, *m)
	if err != nil {
		return nil, errors.Newf("failed to encode frame: %v", err).
			Component("camera").
			Category(errors.CategoryImageEncode).
			Build()
	}
	defer buf.Close()

	// The native buffer is freed on Close, copy out the bytes.
	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}
