package timemap

// TotalFrames is fps × output duration for the mode.
func TotalFrames(m Mode) int {
	return m.Rate() * m.Seconds()
}

// Map returns the simulation time for frame in a run of total frames.
// It is pure: equal inputs always yield equal outputs.
func Map(frame, total int, m Mode) float64 {
	return m.at(frame, total)
}

// Mapper is the time-mapping strategy for one run.
type Mapper struct {
	mode  Mode
	total int
}

// NewMapper validates m and binds it to its frame count.
func NewMapper(m Mode) (Mapper, error) {
	if err := m.Validate(); err != nil {
		return Mapper{}, err
	}
	return Mapper{mode: m, total: TotalFrames(m)}, nil
}

func (p Mapper) Mode() Mode { return p.mode }
func (p Mapper) Total() int { return p.total }
func (p Mapper) FPS() int   { return p.mode.Rate() }

// At is the simulation time of frame.
func (p Mapper) At(frame int) float64 {
	return Map(frame, p.total, p.mode)
}

// Phase labels which side of the loop point a frame is on in loop-check
// runs ("END" before the midpoint, "START" after). Other modes return "".
func (p Mapper) Phase(frame int) string {
	if _, ok := p.mode.(LoopCheck); !ok {
		return ""
	}
	if frame < p.total/2 {
		return "END"
	}
	return "START"
}

// LoopPoint is the midpoint frame index of a loop-check run, or -1.
func (p Mapper) LoopPoint() int {
	if _, ok := p.mode.(LoopCheck); !ok {
		return -1
	}
	return p.total / 2
}
