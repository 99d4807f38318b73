// Package visiontest provides scripted stand-ins for the vision
// capabilities so that liveness, enrolment and login flows can be tested
// without a camera or OpenCV.
package visiontest

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/vision"
)

// Frame is a synthetic frame. Its fields tell the fakes what to "see".
type Frame struct {
	ID    int
	Faces []image.Rectangle
	// Ratio is reported by EyeOpenness for every eye region.
	Ratio float64
	// Prediction is returned by Matcher.Match for any face in the frame.
	Prediction vision.Prediction

	closed atomic.Bool
}

func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, 640, 480) }

func (f *Frame) EncodeJPEG() ([]byte, error) {
	return []byte(fmt.Sprintf("jpeg-%d", f.ID)), nil
}

func (f *Frame) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *Frame) Closed() bool { return f.closed.Load() }

// DefaultFace is a face rectangle large enough for eye extraction.
var DefaultFace = image.Rect(200, 100, 400, 300)

// EyeFrames builds one face frame per ratio.
func EyeFrames(ratios ...float64) []*Frame {
	frames := make([]*Frame, len(ratios))
	for i, r := range ratios {
		frames[i] = &Frame{Faces: []image.Rectangle{DefaultFace}, Ratio: r}
	}
	return frames
}

// EmptyFrames builds n frames without faces.
func EmptyFrames(n int) []*Frame {
	frames := make([]*Frame, n)
	for i := range frames {
		frames[i] = &Frame{}
	}
	return frames
}

// MatchFrames builds n face frames that all predict p.
func MatchFrames(n int, p vision.Prediction) []*Frame {
	frames := make([]*Frame, n)
	for i := range frames {
		frames[i] = &Frame{Faces: []image.Rectangle{DefaultFace}, Ratio: 0.5, Prediction: p}
	}
	return frames
}

// Camera replays a fixed list of frames, then reports end of stream.
type Camera struct {
	mu     sync.Mutex
	frames []*Frame
	pos    int
	closed bool
	reads  int
}

func NewCamera(frames ...[]*Frame) *Camera {
	c := &Camera{}
	for _, batch := range frames {
		c.frames = append(c.frames, batch...)
	}
	for i, f := range c.frames {
		f.ID = i + 1
	}
	return c
}

func (c *Camera) Read(ctx context.Context) (vision.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.closed {
		return nil, fmt.Errorf("camera closed")
	}
	if c.pos >= len(c.frames) {
		return nil, vision.ErrEndOfStream
	}
	f := c.frames[c.pos]
	c.pos++
	c.reads++
	return f, nil
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Camera) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Camera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Opener hands out cameras in order; once exhausted it fails like an
// unplugged device.
type Opener struct {
	mu      sync.Mutex
	cameras []*Camera
	opened  int
}

func NewOpener(cameras ...*Camera) *Opener {
	return &Opener{cameras: cameras}
}

func (o *Opener) Open(ctx context.Context) (vision.Camera, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.opened >= len(o.cameras) {
		return nil, fmt.Errorf("open camera 0: %w", common.ErrorResourceUnavailable)
	}
	c := o.cameras[o.opened]
	o.opened++
	return c, nil
}

func (o *Opener) Opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened
}

// Analyzer reads detections straight from Frame fields.
type Analyzer struct{}

func (Analyzer) DetectFaces(f vision.Frame) ([]image.Rectangle, error) {
	return f.(*Frame).Faces, nil
}

func (Analyzer) EyeOpenness(f vision.Frame, _ image.Rectangle) (float64, error) {
	return f.(*Frame).Ratio, nil
}

func (Analyzer) CropFace(f vision.Frame, _ image.Rectangle) ([]byte, error) {
	return []byte(fmt.Sprintf("face-%d", f.(*Frame).ID)), nil
}

// Matcher answers with the frame's scripted prediction.
type Matcher struct {
	calls atomic.Int32
}

func (m *Matcher) Match(f vision.Frame, _ image.Rectangle) (vision.Prediction, error) {
	m.calls.Add(1)
	return f.(*Frame).Prediction, nil
}

func (m *Matcher) Close() error { return nil }

func (m *Matcher) Calls() int { return int(m.calls.Load()) }

// Recognizer remembers what it was trained on.
type Recognizer struct {
	mu      sync.Mutex
	samples []vision.Sample
	trained bool
	Matcher *Matcher
}

func NewRecognizer() *Recognizer {
	return &Recognizer{Matcher: &Matcher{}}
}

func (r *Recognizer) Train(ctx context.Context, samples []vision.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(samples) == 0 {
		return common.ErrorNoTrainingData
	}
	r.samples = append([]vision.Sample(nil), samples...)
	r.trained = true
	return nil
}

func (r *Recognizer) Load(ctx context.Context) (vision.Matcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.trained {
		return nil, common.ErrorModelNotTrained
	}
	return r.Matcher, nil
}

func (r *Recognizer) Samples() []vision.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]vision.Sample(nil), r.samples...)
}

// Labels returns the distinct labels of the last training run.
func (r *Recognizer) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, s := range r.samples {
		if !seen[s.Label] {
			seen[s.Label] = true
			out = append(out, s.Label)
		}
	}
	return out
}
