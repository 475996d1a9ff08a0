package timemap

import (
	"math"
	"testing"
)

const eps = 1e-3

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestFull(t *testing.T) {
	m := Full{FPS: 30, OutputSeconds: 1800}
	if got := TotalFrames(m); got != 54000 {
		t.Fatalf("TotalFrames = %d, want 54000", got)
	}
	tests := []struct {
		frame int
		want  float64
	}{
		{0, 0.0},
		{29999, 999.9667},
		{53999, 1799.9667},
	}
	for _, tt := range tests {
		if got := Map(tt.frame, 54000, m); !near(got, tt.want) {
			t.Errorf("Map(%d) = %.4f, want %.4f", tt.frame, got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	m := Preview{FPS: 30, OutputSeconds: 60, SceneSeconds: 1800}
	total := TotalFrames(m)
	if total != 1800 {
		t.Fatalf("TotalFrames = %d, want 1800", total)
	}
	if m.SpeedFactor() != 30 {
		t.Errorf("SpeedFactor = %g, want 30", m.SpeedFactor())
	}
	if got := Map(900, total, m); got != 900.0 {
		t.Errorf("Map(900) = %g, want 900", got)
	}
	last := Map(1799, total, m)
	if last >= 1800.0 || last < 1798.0 {
		t.Errorf("Map(1799) = %g, want just below 1800", last)
	}
}

func TestLoopCheck(t *testing.T) {
	m := LoopCheck{FPS: 30, OutputSeconds: 60, WindowStart: 1770, SceneEnd: 1800}
	total := TotalFrames(m)
	if total != 1800 {
		t.Fatalf("TotalFrames = %d, want 1800", total)
	}
	if got := Map(0, total, m); got != 1770.0 {
		t.Errorf("Map(0) = %g, want 1770", got)
	}
	if got := Map(899, total, m); got >= 1800.0 || got < 1799.9 {
		t.Errorf("Map(899) = %g, want just below 1800", got)
	}
	if got := Map(900, total, m); got != 0.0 {
		t.Errorf("Map(900) = %g, want 0 (loop point)", got)
	}
	if got := Map(1799, total, m); got >= 30.0 || got < 29.9 {
		t.Errorf("Map(1799) = %g, want just below 30", got)
	}
}

func TestMap_Pure(t *testing.T) {
	modes := []Mode{
		Full{FPS: 30, OutputSeconds: 10},
		Preview{FPS: 30, OutputSeconds: 10, SceneSeconds: 300},
		LoopCheck{FPS: 30, OutputSeconds: 10, WindowStart: 290, SceneEnd: 300},
	}
	for _, m := range modes {
		total := TotalFrames(m)
		for _, f := range []int{0, 1, total / 2, total - 1} {
			a, b := Map(f, total, m), Map(f, total, m)
			if a != b {
				t.Errorf("%s: Map(%d) not deterministic: %g vs %g", m.Name(), f, a, b)
			}
		}
	}
}

func TestMapper_MonotonicWithinPhases(t *testing.T) {
	p, err := NewMapper(LoopCheck{FPS: 10, OutputSeconds: 6, WindowStart: 50, SceneEnd: 60})
	if err != nil {
		t.Fatal(err)
	}
	lp := p.LoopPoint()
	if lp != 30 {
		t.Fatalf("LoopPoint = %d, want 30", lp)
	}
	for i := 1; i < p.Total(); i++ {
		if i == lp {
			if p.At(i) >= p.At(i-1) {
				t.Errorf("expected discontinuity at loop point: %g -> %g", p.At(i-1), p.At(i))
			}
			continue
		}
		if p.At(i) <= p.At(i-1) {
			t.Errorf("time not increasing at %d: %g -> %g", i, p.At(i-1), p.At(i))
		}
	}
	if p.Phase(0) != "END" || p.Phase(lp) != "START" {
		t.Errorf("Phase labels = %q/%q", p.Phase(0), p.Phase(lp))
	}
}

func TestMapper_PhaseOnlyForLoopCheck(t *testing.T) {
	p, err := NewMapper(Full{FPS: 30, OutputSeconds: 2})
	if err != nil {
		t.Fatal(err)
	}
	if p.Phase(0) != "" || p.LoopPoint() != -1 {
		t.Errorf("full mode should have no phase/loop point")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		wantErr bool
	}{
		{"full ok", Full{FPS: 30, OutputSeconds: 1}, false},
		{"full zero fps", Full{FPS: 0, OutputSeconds: 1}, true},
		{"preview no scene", Preview{FPS: 30, OutputSeconds: 60}, true},
		{"loopcheck odd total", LoopCheck{FPS: 3, OutputSeconds: 1, WindowStart: 0, SceneEnd: 1}, true},
		{"loopcheck inverted window", LoopCheck{FPS: 30, OutputSeconds: 2, WindowStart: 10, SceneEnd: 5}, true},
		{"loopcheck ok", LoopCheck{FPS: 30, OutputSeconds: 60, WindowStart: 1770, SceneEnd: 1800}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapper(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMapper() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
