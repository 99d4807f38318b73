// Package vision describes the camera and face-analysis capabilities the
// authentication flows depend on. The OpenCV implementation lives in the
// opencv subpackage; the flows only see these interfaces.
package vision

import (
	"context"
	"errors"
	"image"
)

// ErrEndOfStream is returned by Camera.Read when the device stops producing
// frames.
var ErrEndOfStream = errors.New("camera: end of stream")

// Frame is one captured image. It may own native memory and must be closed.
type Frame interface {
	Bounds() image.Rectangle
	EncodeJPEG() ([]byte, error)
	Close() error
}

type Camera interface {
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// CameraOpener opens the capture device. Failures wrap
// common.ErrorResourceUnavailable.
type CameraOpener func(ctx context.Context) (Camera, error)

// Analyzer finds faces and measures eye openness.
type Analyzer interface {
	// DetectFaces returns face rectangles in frame coordinates.
	DetectFaces(f Frame) ([]image.Rectangle, error)
	// EyeOpenness returns the height of the largest dark contour inside
	// region relative to the region height. Empty or noisy regions report
	// fully open (1.0).
	EyeOpenness(f Frame, region image.Rectangle) (float64, error)
	// CropFace returns the normalized grayscale face as JPEG, the form
	// used for training samples.
	CropFace(f Frame, face image.Rectangle) ([]byte, error)
}

// Prediction is the matcher's answer for one face. Lower distance means a
// closer match; the scale depends on the recognizer.
type Prediction struct {
	Label    string
	Distance float64
}

type Matcher interface {
	Match(f Frame, face image.Rectangle) (Prediction, error)
	Close() error
}

// Sample is one labeled training image, as produced by Analyzer.CropFace.
type Sample struct {
	Label string
	JPEG  []byte
}

// Recognizer trains and loads the face model.
type Recognizer interface {
	// Train builds a model from samples and persists it, replacing any
	// previous model.
	Train(ctx context.Context, samples []Sample) error
	// Load returns a Matcher for the persisted model or an error wrapping
	// common.ErrorModelNotTrained.
	Load(ctx context.Context) (Matcher, error)
}

// Largest returns the face with the biggest area. ok is false for an empty
// slice.
func Largest(faces []image.Rectangle) (r image.Rectangle, ok bool) {
	best := -1
	for _, f := range faces {
		if a := f.Dx() * f.Dy(); a > best {
			best, r, ok = a, f, true
		}
	}
	return r, ok
}

// SubRegion maps fractional bounds inside face to absolute pixels,
// truncating toward zero.
func SubRegion(face image.Rectangle, x0, x1, y0, y1 float64) image.Rectangle {
	w, h := float64(face.Dx()), float64(face.Dy())
	fx, fy := float64(face.Min.X), float64(face.Min.Y)
	return image.Rect(
		int(fx+x0*w), int(fy+y0*h),
		int(fx+x1*w), int(fy+y1*h),
	)
}
