package pipeline

import "time"

// RunStats tracks frame counters and byte totals across a run.
type RunStats struct {
	Total          int
	Frames         int // frames accepted by every encoder
	Started        time.Time
	RenderElapsed  time.Duration
	WallBytes      int64
	CompositeBytes int64
}

// AverageFPS is the frame throughput of the render loop so far.
func (s *RunStats) AverageFPS(now time.Time) float64 {
	el := s.RenderElapsed
	if el == 0 {
		el = now.Sub(s.Started)
	}
	if el <= 0 {
		return 0
	}
	return float64(s.Frames) / el.Seconds()
}
