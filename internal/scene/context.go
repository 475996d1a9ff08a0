package scene

import "github.com/backmassage/wallrender/internal/config"

// Context is the explicit scene state shared between the orchestrator and a
// [Source]. The orchestrator owns it and updates Frame and SimTime before
// each advance; sources read it and never retain it across calls.
type Context struct {
	RunID   string
	Walls   []config.Wall
	Quality float64 // JPEG quality in (0, 1].

	Frame   int     // Output frame being produced.
	SimTime float64 // Simulation instant of Frame, in seconds.
}

// NewContext returns a context positioned before the first frame.
func NewContext(runID string, walls []config.Wall, quality float64) *Context {
	return &Context{RunID: runID, Walls: walls, Quality: quality, Frame: -1}
}

// Seek positions the context at frame / t.
func (c *Context) Seek(frame int, t float64) {
	c.Frame = frame
	c.SimTime = t
}

// Wall returns the named wall definition.
func (c *Context) Wall(name string) (config.Wall, bool) {
	for _, w := range c.Walls {
		if w.Name == name {
			return w, true
		}
	}
	return config.Wall{}, false
}
