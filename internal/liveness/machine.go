// Package liveness decides whether a live subject is in front of the
// camera by counting blinks.
//
// Machine is a pure state machine fed one Observation per frame. Run drives
// it from a camera and yields the resulting events lazily.
package liveness

import (
	"fmt"
)

type State int

const (
	AwaitingFace State = iota
	TrackingEyes
	Passed
	TimedOut
	Cancelled
)

func (s State) String() string {
	switch s {
	case AwaitingFace:
		return "awaiting_face"
	case TrackingEyes:
		return "tracking_eyes"
	case Passed:
		return "passed"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further frames will be consumed.
func (s State) Terminal() bool {
	return s == Passed || s == TimedOut || s == Cancelled
}

type Config struct {
	RequiredBlinks int
	MaxFrames      int
	// ConsecClosed is how many consecutive closed frames make a blink.
	ConsecClosed int
	// ClosedRatio: a smoothed openness below this counts as closed.
	ClosedRatio float64
	// HistoryLen is the moving-average window.
	HistoryLen int
}

func DefaultConfig() Config {
	return Config{
		RequiredBlinks: 2,
		MaxFrames:      300,
		ConsecClosed:   2,
		ClosedRatio:    0.23,
		HistoryLen:     4,
	}
}

// Observation is what one frame showed.
type Observation struct {
	FaceFound bool
	// Ratio is the mean openness of both eyes; ignored without a face.
	Ratio float64
}

// Event describes the machine after one step.
type Event struct {
	State    State
	Frame    int
	Blinks   int
	Smoothed float64
	Closed   bool
}

func (e Event) Terminal() bool { return e.State.Terminal() }

type Machine struct {
	cfg Config

	state        State
	frames       int
	blinks       int
	consecClosed int
	eyeWasOpen   bool
	history      []float64
	smoothed     float64
	closed       bool
}

func NewMachine(cfg Config) *Machine {
	return &Machine{
		cfg:        cfg,
		state:      AwaitingFace,
		eyeWasOpen: true,
		history:    make([]float64, 0, cfg.HistoryLen),
	}
}

func (m *Machine) State() State { return m.state }

// Step consumes one frame. After a terminal state it is a no-op.
func (m *Machine) Step(obs Observation) Event {
	if m.state.Terminal() {
		return m.event()
	}

	m.frames++

	if obs.FaceFound {
		m.state = TrackingEyes
		m.track(obs.Ratio)
	}

	switch {
	case m.blinks >= m.cfg.RequiredBlinks:
		m.state = Passed
	case m.frames >= m.cfg.MaxFrames:
		m.state = TimedOut
	}

	return m.event()
}

// Cancel stops the machine unless it already finished.
func (m *Machine) Cancel() Event {
	if !m.state.Terminal() {
		m.state = Cancelled
	}
	return m.event()
}

func (m *Machine) track(ratio float64) {
	if len(m.history) == m.cfg.HistoryLen {
		copy(m.history, m.history[1:])
		m.history = m.history[:len(m.history)-1]
	}
	m.history = append(m.history, ratio)

	var sum float64
	for _, r := range m.history {
		sum += r
	}
	m.smoothed = sum / float64(len(m.history))
	m.closed = m.smoothed < m.cfg.ClosedRatio

	if m.closed {
		m.consecClosed++
	} else {
		if m.consecClosed >= m.cfg.ConsecClosed && !m.eyeWasOpen {
			m.blinks++
			m.history = m.history[:0]
		}
		m.consecClosed = 0
	}

	m.eyeWasOpen = !m.closed
}

func (m *Machine) event() Event {
	return Event{
		State:    m.state,
		Frame:    m.frames,
		Blinks:   m.blinks,
		Smoothed: m.smoothed,
		Closed:   m.closed,
	}
}
