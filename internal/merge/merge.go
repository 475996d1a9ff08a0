// Package merge combines pairs of finished wall videos side by side into
// wide composites. A pairing is merged only after both of its walls
// finished cleanly; independent pairings run concurrently.
package merge

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/display"
	"github.com/backmassage/wallrender/internal/encoder"
	"github.com/backmassage/wallrender/internal/failure"
	"github.com/backmassage/wallrender/internal/ffmpeg"
	"github.com/backmassage/wallrender/internal/planner"
	"github.com/backmassage/wallrender/internal/probe"
)

// Runner executes one ffmpeg command line.
type Runner interface {
	Run(ctx context.Context, args []string) ffmpeg.ExecResult
}

// Prober inspects a finished video.
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.ProbeResult, error)
}

// Logger is the logging surface the stage needs.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Stage merges the pairings of one run.
type Stage struct {
	Codec    config.Codec
	FPS      int
	Parallel int  // concurrent merges; below 1 means 1
	Verify   bool // probe inputs and output durations
	Verbose  bool
	Runner   Runner // nil runs ffmpeg
	Prober   Prober // nil runs ffprobe
	Log      Logger
}

// Result describes one finished composite.
type Result struct {
	Pairing    string
	OutputPath string
	Duration   float64 // seconds; 0 when not verified
	Size       int64
	Elapsed    time.Duration
}

// Run merges every pairing. Before any merge starts, each pairing's walls
// must be present in statuses as a clean finish; otherwise nothing runs.
// Results are in merges order.
func (s *Stage) Run(ctx context.Context, merges []planner.MergePlan, statuses map[string]encoder.Status) ([]Result, error) {
	for _, m := range merges {
		if err := gate(m, statuses); err != nil {
			return nil, err
		}
	}
	if len(merges) == 0 {
		return nil, nil
	}

	runner, prober := s.Runner, s.Prober
	if runner == nil {
		runner = execRunner{verbose: s.Verbose}
	}
	if prober == nil {
		prober = ffprobe{}
	}

	results := make([]Result, len(merges))
	g, gctx := errgroup.WithContext(ctx)
	limit := s.Parallel
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, m := range merges {
		g.Go(func() error {
			r, err := s.mergeOne(gctx, runner, prober, m)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// No composite of a failed stage is kept, including finished ones.
		for _, m := range merges {
			s.discard(m.OutputPath)
		}
		return nil, err
	}
	return results, nil
}

// gate refuses a pairing unless both inputs finished cleanly at the
// planned paths.
func gate(m planner.MergePlan, statuses map[string]encoder.Status) error {
	for _, w := range []planner.WallPlan{m.Left, m.Right} {
		st, ok := statuses[w.Wall.Name]
		switch {
		case !ok:
			return failure.Merge(m.Pairing.Name, 0, fmt.Errorf("wall %q has no encoder status", w.Wall.Name))
		case !st.OK():
			return failure.Merge(m.Pairing.Name, 0, fmt.Errorf("wall %q did not finish cleanly (%s, exit %d)", w.Wall.Name, st.State, st.ExitCode))
		case st.Path != "" && filepath.Clean(st.Path) != filepath.Clean(w.OutputPath):
			return failure.Merge(m.Pairing.Name, 0, fmt.Errorf("wall %q finished at %s, planned %s", w.Wall.Name, st.Path, w.OutputPath))
		}
	}
	return nil
}

func (s *Stage) mergeOne(ctx context.Context, runner Runner, prober Prober, m planner.MergePlan) (Result, error) {
	name := m.Pairing.Name
	var inputDur float64
	if s.Verify {
		d, err := s.commonDuration(ctx, prober, m)
		if err != nil {
			return Result{}, err
		}
		inputDur = d
	}

	s.Log.Info("Merging %s: %s + %s", name, filepath.Base(m.Left.OutputPath), filepath.Base(m.Right.OutputPath))
	start := time.Now()
	args := ffmpeg.MergeArgs(s.Codec, m.Left.OutputPath, m.Right.OutputPath, m.OutputPath, s.Verbose)
	s.Log.Debug(s.Verbose, "ffmpeg %s", strings.Join(args[1:], " "))
	res := runner.Run(ctx, args)
	if res.Err != nil {
		s.discard(m.OutputPath)
		return Result{}, failure.Merge(name, res.ExitCode, describe(res))
	}

	r := Result{Pairing: name, OutputPath: m.OutputPath, Elapsed: time.Since(start)}
	if s.Verify {
		out, err := prober.Probe(ctx, m.OutputPath)
		if err != nil {
			s.discard(m.OutputPath)
			return Result{}, failure.Merge(name, 0, fmt.Errorf("probe composite: %w", err))
		}
		r.Duration = out.Duration()
		if !s.withinFrame(r.Duration, inputDur) {
			s.discard(m.OutputPath)
			return Result{}, failure.Merge(name, 0, fmt.Errorf("composite lasts %.3fs, inputs %.3fs", r.Duration, inputDur))
		}
	}
	if fi, err := os.Stat(m.OutputPath); err == nil {
		r.Size = fi.Size()
	}
	s.Log.Success("%s (%s) in %s", filepath.Base(m.OutputPath), display.FormatBytes(r.Size), r.Elapsed.Round(time.Second))
	return r, nil
}

// discard removes a composite that must not be kept.
func (s *Stage) discard(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		s.Log.Debug(s.Verbose, "Removed composite %s", path)
	case !os.IsNotExist(err):
		s.Log.Error("Cannot remove composite %s: %v", path, err)
	}
}

// commonDuration probes both inputs and requires equal durations.
func (s *Stage) commonDuration(ctx context.Context, prober Prober, m planner.MergePlan) (float64, error) {
	name := m.Pairing.Name
	left, err := prober.Probe(ctx, m.Left.OutputPath)
	if err != nil {
		return 0, failure.Merge(name, 0, fmt.Errorf("probe %s: %w", m.Left.Wall.Name, err))
	}
	right, err := prober.Probe(ctx, m.Right.OutputPath)
	if err != nil {
		return 0, failure.Merge(name, 0, fmt.Errorf("probe %s: %w", m.Right.Wall.Name, err))
	}
	ld, rd := left.Duration(), right.Duration()
	if !s.withinFrame(ld, rd) {
		return 0, failure.Merge(name, 0, fmt.Errorf("input durations differ: %s %.3fs, %s %.3fs",
			m.Left.Wall.Name, ld, m.Right.Wall.Name, rd))
	}
	if left.PrimaryVideo != nil && right.PrimaryVideo != nil && left.PrimaryVideo.Height != right.PrimaryVideo.Height {
		return 0, failure.Merge(name, 0, fmt.Errorf("input heights differ: %d vs %d",
			left.PrimaryVideo.Height, right.PrimaryVideo.Height))
	}
	return ld, nil
}

// withinFrame compares durations with a tolerance of one frame period.
func (s *Stage) withinFrame(a, b float64) bool {
	tol := 0.05
	if s.FPS > 0 {
		tol = 1 / float64(s.FPS)
	}
	return math.Abs(a-b) <= tol+1e-9
}

func describe(res ffmpeg.ExecResult) error {
	err := res.Err
	if hint := ffmpeg.Hint(res.Stderr); hint != "" {
		err = fmt.Errorf("%w (%s)", err, hint)
	}
	if lines := ffmpeg.LastLines(res.Stderr, 1); len(lines) > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(lines[0]))
	}
	return err
}

type execRunner struct{ verbose bool }

func (r execRunner) Run(ctx context.Context, args []string) ffmpeg.ExecResult {
	return ffmpeg.Execute(ctx, args, r.verbose)
}

type ffprobe struct{}

func (ffprobe) Probe(ctx context.Context, path string) (*probe.ProbeResult, error) {
	return probe.Probe(ctx, path)
}
