package liveness

import (
	"context"
	"errors"
	"fmt"
	"image"
	"iter"

	"github.com/dmitrijs2005/faceguard/internal/vision"
)

var (
	leftEyeX  = [2]float64{0.15, 0.45}
	rightEyeX = [2]float64{0.55, 0.85}
	eyeY      = [2]float64{0.20, 0.50}
)

// EyeRegions returns the left and right eye boxes inside face.
func EyeRegions(face image.Rectangle) (left, right image.Rectangle) {
	left = vision.SubRegion(face, leftEyeX[0], leftEyeX[1], eyeY[0], eyeY[1])
	right = vision.SubRegion(face, rightEyeX[0], rightEyeX[1], eyeY[0], eyeY[1])
	return left, right
}

// Observe analyses one frame: the largest face, both eye boxes, and their
// mean openness.
func Observe(an vision.Analyzer, f vision.Frame) (Observation, error) {
	faces, err := an.DetectFaces(f)
	if err != nil {
		return Observation{}, fmt.Errorf("detect faces: %w", err)
	}
	face, ok := vision.Largest(faces)
	if !ok {
		return Observation{}, nil
	}

	left, right := EyeRegions(face)
	l, err := an.EyeOpenness(f, left)
	if err != nil {
		return Observation{}, fmt.Errorf("left eye: %w", err)
	}
	r, err := an.EyeOpenness(f, right)
	if err != nil {
		return Observation{}, fmt.Errorf("right eye: %w", err)
	}

	return Observation{FaceFound: true, Ratio: (l + r) / 2}, nil
}

// Check is a single liveness run over a camera. It is not restartable:
// Events may be ranged over once.
type Check struct {
	machine  *Machine
	cam      vision.Camera
	analyzer vision.Analyzer

	last    vision.Frame
	started bool
}

func NewCheck(cfg Config, cam vision.Camera, an vision.Analyzer) *Check {
	return &Check{machine: NewMachine(cfg), cam: cam, analyzer: an}
}

// Events reads frames until the machine reaches a terminal state and
// yields one event per frame. Context cancellation yields a final
// Cancelled event. A camera that runs dry ends the run as TimedOut.
// Breaking out of the loop early cancels the check.
func (c *Check) Events(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		if c.started {
			yield(Event{}, errors.New("liveness: check already run"))
			return
		}
		c.started = true

		for {
			if ctx.Err() != nil {
				yield(c.machine.Cancel(), nil)
				return
			}

			f, err := c.cam.Read(ctx)
			if err != nil {
				switch {
				case ctx.Err() != nil:
					yield(c.machine.Cancel(), nil)
				case errors.Is(err, vision.ErrEndOfStream):
					c.machine.state = TimedOut
					yield(c.machine.event(), nil)
				default:
					yield(c.machine.event(), fmt.Errorf("read frame: %w", err))
				}
				return
			}
			c.keep(f)

			obs, err := Observe(c.analyzer, f)
			if err != nil {
				yield(c.machine.event(), err)
				return
			}

			ev := c.machine.Step(obs)
			if !yield(ev, nil) {
				c.machine.Cancel()
				return
			}
			if ev.Terminal() {
				return
			}
		}
	}
}

// Run consumes all events and reports whether liveness passed.
func (c *Check) Run(ctx context.Context) (Event, error) {
	var last Event
	for ev, err := range c.Events(ctx) {
		if err != nil {
			return ev, err
		}
		last = ev
	}
	return last, nil
}

// LastFrameJPEG encodes the most recent frame, if any.
func (c *Check) LastFrameJPEG() ([]byte, bool) {
	if c.last == nil {
		return nil, false
	}
	b, err := c.last.EncodeJPEG()
	if err != nil {
		return nil, false
	}
	return b, true
}

// Close releases the retained frame. The camera belongs to the caller.
func (c *Check) Close() error {
	if c.last == nil {
		return nil
	}
	err := c.last.Close()
	c.last = nil
	return err
}

func (c *Check) keep(f vision.Frame) {
	if c.last != nil {
		_ = c.last.Close()
	}
	c.last = f
}
