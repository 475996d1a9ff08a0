// Package timemap converts output frame indices into simulation time.
//
// A run mode is a tagged variant: [Full], [Preview] and [LoopCheck] each
// carry their own timing parameters and implement [Mode]. [Map] is the pure
// mapping function; [Mapper] binds one mode to its frame count so the
// orchestrator holds a single strategy object regardless of mode.
package timemap

import (
	"errors"
	"fmt"
)

// Mode is a run mode. The set of implementations is closed.
type Mode interface {
	// Name is the mode selector used on the command line ("full", ...).
	Name() string
	// Rate is the output frame rate.
	Rate() int
	// Seconds is the output video duration.
	Seconds() int
	// Validate reports invalid timing parameters.
	Validate() error

	at(frame, total int) float64
}

// Full renders one simulated second per output second.
type Full struct {
	FPS           int
	OutputSeconds int
}

// Preview compresses SceneSeconds of simulated time into OutputSeconds of
// output at a constant speed factor.
type Preview struct {
	FPS           int
	OutputSeconds int
	SceneSeconds  float64
}

// LoopCheck stitches the tail of one loop iteration to the head of the
// next. The first half of the frames covers [WindowStart, SceneEnd), the
// second half covers [0, SceneEnd-WindowStart). The midpoint frame is the
// loop point.
type LoopCheck struct {
	FPS           int
	OutputSeconds int
	WindowStart   float64
	SceneEnd      float64
}

func (Full) Name() string      { return "full" }
func (Preview) Name() string   { return "preview" }
func (LoopCheck) Name() string { return "loopcheck" }

func (m Full) Rate() int      { return m.FPS }
func (m Preview) Rate() int   { return m.FPS }
func (m LoopCheck) Rate() int { return m.FPS }

func (m Full) Seconds() int      { return m.OutputSeconds }
func (m Preview) Seconds() int   { return m.OutputSeconds }
func (m LoopCheck) Seconds() int { return m.OutputSeconds }

func (m Full) at(frame, _ int) float64 {
	return float64(frame) / float64(m.FPS)
}

func (m Preview) at(frame, total int) float64 {
	return float64(frame) * (m.SceneSeconds / float64(total))
}

func (m LoopCheck) at(frame, total int) float64 {
	half := total / 2
	window := m.SceneEnd - m.WindowStart
	if frame < half {
		return m.WindowStart + float64(frame)/float64(half)*window
	}
	return float64(frame-half) / float64(half) * window
}

// SpeedFactor is simulated seconds per output second.
func (m Preview) SpeedFactor() float64 {
	return m.SceneSeconds / float64(m.OutputSeconds)
}

var errRate = errors.New("fps and output duration must be positive")

func (m Full) Validate() error {
	if m.FPS <= 0 || m.OutputSeconds <= 0 {
		return errRate
	}
	return nil
}

func (m Preview) Validate() error {
	if m.FPS <= 0 || m.OutputSeconds <= 0 {
		return errRate
	}
	if m.SceneSeconds <= 0 {
		return errors.New("preview scene duration must be positive")
	}
	return nil
}

func (m LoopCheck) Validate() error {
	if m.FPS <= 0 || m.OutputSeconds <= 0 {
		return errRate
	}
	if total := m.FPS * m.OutputSeconds; total%2 != 0 {
		return fmt.Errorf("loopcheck needs an even frame count (got %d)", total)
	}
	if m.WindowStart < 0 || m.WindowStart >= m.SceneEnd {
		return fmt.Errorf("loopcheck window must satisfy 0 <= start < end (got %g..%g)", m.WindowStart, m.SceneEnd)
	}
	return nil
}
