package encoder

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Set is the group of wall encoders of one run, in wall order.
type Set struct {
	handles []*Handle
}

// NewSet groups handles. Names must be unique.
func NewSet(handles ...*Handle) *Set {
	return &Set{handles: handles}
}

// Handles returns the handles in wall order.
func (s *Set) Handles() []*Handle { return s.handles }

// Len is the number of walls.
func (s *Set) Len() int { return len(s.handles) }

// WriteFrame forwards one captured frame to every wall concurrently. Each
// wall's backpressure is awaited independently; the call returns once every
// wall has accepted its frame or the first failure, which cancels the
// others' waits. frames must hold an image for every wall.
func (s *Set) WriteFrame(ctx context.Context, frames map[string][]byte) error {
	for _, h := range s.handles {
		if _, ok := frames[h.Name()]; !ok {
			return fmt.Errorf("no frame for wall %q", h.Name())
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range s.handles {
		frame := frames[h.Name()]
		g.Go(func() error {
			return h.WriteFrame(gctx, frame)
		})
	}
	return g.Wait()
}

// Finish finalizes every wall concurrently and returns their statuses in
// wall order with the first failure.
func (s *Set) Finish(ctx context.Context) ([]Status, error) {
	statuses := make([]Status, len(s.handles))
	var g errgroup.Group
	for i, h := range s.handles {
		g.Go(func() error {
			st, err := h.Finish(ctx)
			statuses[i] = st
			return err
		})
	}
	err := g.Wait()
	return statuses, err
}

// Terminate aborts every wall concurrently, each with the same grace.
// Handles already finalized keep their status.
func (s *Set) Terminate(grace time.Duration) []Status {
	statuses := make([]Status, len(s.handles))
	var g errgroup.Group
	for i, h := range s.handles {
		g.Go(func() error {
			statuses[i] = h.Terminate(grace)
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

// Statuses returns the current status of every wall keyed by name.
func (s *Set) Statuses() map[string]Status {
	out := make(map[string]Status, len(s.handles))
	for _, h := range s.handles {
		out[h.Name()] = h.Status()
	}
	return out
}
