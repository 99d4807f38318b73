// Package opencv implements the vision capabilities with gocv.
package opencv

import (
	"context"
	"fmt"
	"image"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/vision"
	"gocv.io/x/gocv"
)

// Frame owns a BGR mat and a lazily computed grayscale copy.
type Frame struct {
	mat  gocv.Mat
	gray *gocv.Mat
}

func NewFrame(mat gocv.Mat) *Frame {
	return &Frame{mat: mat}
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.mat.Cols(), f.mat.Rows())
}

func (f *Frame) EncodeJPEG() ([]byte, error) {
	return encodeJPEG(f.mat)
}

func (f *Frame) Close() error {
	if f.gray != nil {
		f.gray.Close()
		f.gray = nil
	}
	return f.mat.Close()
}

// Gray returns the grayscale view. The mat stays owned by the frame.
func (f *Frame) Gray() gocv.Mat {
	if f.gray == nil {
		g := gocv.NewMat()
		gocv.CvtColor(f.mat, &g, gocv.ColorBGRToGray)
		f.gray = &g
	}
	return *f.gray
}

func asFrame(f vision.Frame) (*Frame, error) {
	cf, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("opencv: unsupported frame type %T", f)
	}
	return cf, nil
}

func encodeJPEG(m gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, m)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Camera reads mirrored frames from a capture device.
type Camera struct {
	vc     *gocv.VideoCapture
	mirror bool
}

// Opener returns a CameraOpener for the given device id.
func Opener(device int, mirror bool) vision.CameraOpener {
	return func(ctx context.Context) (vision.Camera, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vc, err := gocv.OpenVideoCapture(device)
		if err != nil {
			return nil, fmt.Errorf("open camera %d: %w: %v", device, common.ErrorResourceUnavailable, err)
		}
		if !vc.IsOpened() {
			vc.Close()
			return nil, fmt.Errorf("open camera %d: %w", device, common.ErrorResourceUnavailable)
		}
		return &Camera{vc: vc, mirror: mirror}, nil
	}
}

// Read blocks for the next frame. A failed grab or an empty frame ends the
// stream.
func (c *Camera) Read(ctx context.Context) (vision.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := gocv.NewMat()
	if ok := c.vc.Read(&m); !ok || m.Empty() {
		m.Close()
		return nil, vision.ErrEndOfStream
	}

	if c.mirror {
		flipped := gocv.NewMat()
		gocv.Flip(m, &flipped, 1)
		m.Close()
		m = flipped
	}

	return NewFrame(m), nil
}

func (c *Camera) Close() error {
	return c.vc.Close()
}
