package pipeline

import (
	"fmt"
	"time"

	"github.com/backmassage/wallrender/internal/display"
	"github.com/backmassage/wallrender/internal/timemap"
)

// progress emits a PROGRESS line every `every` frames and on the last one.
type progress struct {
	log    Logger
	mapper timemap.Mapper
	every  int
	now    func() time.Time

	start     time.Time
	lastAt    time.Time
	lastFrame int
}

func newProgress(log Logger, mapper timemap.Mapper, every int, now func() time.Time) *progress {
	if every < 1 {
		every = 1
	}
	t := now()
	return &progress{log: log, mapper: mapper, every: every, now: now, start: t, lastAt: t}
}

// tick records that frames [0, done) are written.
func (p *progress) tick(done int) {
	total := p.mapper.Total()
	if done%p.every != 0 && done != total {
		return
	}
	now := p.now()
	avg := rate(done, now.Sub(p.start))
	inst := rate(done-p.lastFrame, now.Sub(p.lastAt))
	var eta time.Duration
	if avg > 0 {
		eta = time.Duration(float64(total-done) / avg * float64(time.Second))
	}
	frame := done - 1
	p.log.Progress("%s", progressLine(done, total, p.mapper.At(frame), p.mapper.Phase(frame), avg, inst, eta))
	p.lastAt, p.lastFrame = now, done
}

func rate(frames int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(frames) / d.Seconds()
}

// progressLine renders e.g.
// "frame 900/1800 (50.0%) | sim 29:30 END | 24.1 fps avg, 25.3 fps now | ETA 37s".
func progressLine(done, total int, sim float64, phase string, avg, inst float64, eta time.Duration) string {
	pct := 0.0
	if total > 0 {
		pct = float64(done) * 100 / float64(total)
	}
	clock := display.FormatClock(sim)
	if phase != "" {
		clock += " " + phase
	}
	return fmt.Sprintf("frame %d/%d (%.1f%%) | sim %s | %s fps avg, %s fps now | ETA %s",
		done, total, pct, clock, display.FormatRate(avg), display.FormatRate(inst), display.FormatETA(eta))
}
