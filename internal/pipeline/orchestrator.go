package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/display"
	"github.com/backmassage/wallrender/internal/encoder"
	"github.com/backmassage/wallrender/internal/failure"
	"github.com/backmassage/wallrender/internal/merge"
	"github.com/backmassage/wallrender/internal/planner"
	"github.com/backmassage/wallrender/internal/scene"
)

// Logger is the logging surface the orchestrator needs. *logging.Logger
// satisfies it.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Progress(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// StartFunc starts the encoder for one wall.
type StartFunc func(w planner.WallPlan) (*encoder.Handle, error)

// Merger combines finished walls into composites.
type Merger interface {
	Run(ctx context.Context, merges []planner.MergePlan, statuses map[string]encoder.Status) ([]merge.Result, error)
}

// Publisher uploads finished outputs of a run.
type Publisher interface {
	Publish(ctx context.Context, runID string, paths []string) error
}

// Result summarizes a run. On failure it holds whatever was reached.
type Result struct {
	RunID      string
	Frames     int
	Walls      []encoder.Status
	Composites []merge.Result
	Stats      RunStats
}

// Orchestrator runs one plan against one source.
type Orchestrator struct {
	Plan   *planner.Plan
	Source scene.Source
	Scene  *scene.Context // nil: a fresh context for Plan
	Log    Logger

	Start        StartFunc // nil: ffmpeg wall encoders
	Merger       Merger    // nil: no merging
	Publisher    Publisher // nil: no publishing
	PublishWalls bool

	JPEGQuality     float64
	QueueDepth      int
	FrameTimeout    time.Duration // per advance or capture; 0 disables
	FinalizeTimeout time.Duration // grace before killing encoders on abort
	ProgressEvery   int
	Verbose         bool

	now func() time.Time
}

// New wires an orchestrator from cfg with an ffmpeg merge stage. Publisher
// is left for the caller.
func New(cfg *config.Config, plan *planner.Plan, src scene.Source, log Logger) *Orchestrator {
	o := &Orchestrator{
		Plan:            plan,
		Source:          src,
		Log:             log,
		JPEGQuality:     cfg.JPEGQuality,
		QueueDepth:      cfg.QueueDepth,
		FrameTimeout:    cfg.FrameTimeout,
		FinalizeTimeout: cfg.FinalizeTimeout,
		ProgressEvery:   cfg.ProgressEvery,
		PublishWalls:    cfg.PublishWalls,
		Verbose:         cfg.Verbose,
	}
	if len(plan.Merges) > 0 {
		o.Merger = &merge.Stage{
			Codec:    plan.Codec,
			FPS:      plan.FPS(),
			Parallel: cfg.MergeParallel,
			Verify:   cfg.VerifyDurations,
			Verbose:  cfg.Verbose,
			Log:      log,
		}
	}
	return o
}

// Run renders every frame, finalizes the walls, merges and publishes.
// The returned error is a *failure.Error for every classified failure, or
// wraps ctx.Err() when the run was interrupted.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if o.now == nil {
		o.now = time.Now
	}
	plan := o.Plan
	res := &Result{RunID: plan.RunID}
	stats := &res.Stats
	stats.Total = plan.Total()

	o.logHeader()
	set, err := o.startAll()
	if err != nil {
		return res, err
	}

	stats.Started = o.now()
	if err := o.render(ctx, set, stats); err != nil {
		res.Frames = stats.Frames
		o.Log.Error("Render stopped at frame %d/%d: %v", stats.Frames, stats.Total, err)
		res.Walls = o.abort(set)
		return res, err
	}
	stats.RenderElapsed = o.now().Sub(stats.Started)
	res.Frames = stats.Frames

	o.Log.Info("Finalizing %d wall encoders", set.Len())
	walls, err := set.Finish(ctx)
	if err != nil {
		o.Log.Error("Finalize failed: %v", err)
		res.Walls = o.abort(set)
		return res, err
	}
	res.Walls = walls
	for _, st := range walls {
		size := fileSize(st.Path)
		stats.WallBytes += size
		o.Log.Success("%s: %d frames (%s)", filepath.Base(st.Path), st.FramesWritten, display.FormatBytes(size))
	}

	if o.Merger != nil && len(plan.Merges) > 0 {
		composites, err := o.Merger.Run(ctx, plan.Merges, set.Statuses())
		if err != nil {
			o.Log.Error("Merge failed: %v", err)
			return res, err
		}
		res.Composites = composites
		for _, c := range composites {
			stats.CompositeBytes += c.Size
		}
	}

	if o.Publisher != nil {
		if err := o.Publisher.Publish(ctx, plan.RunID, o.publishPaths(res)); err != nil {
			o.Log.Error("Publish failed: %v", err)
			return res, err
		}
	}

	o.logSummary(res)
	return res, nil
}

func (o *Orchestrator) defaultStart(w planner.WallPlan) (*encoder.Handle, error) {
	return encoder.Start(w.Wall, w.OutputPath, o.Plan.Codec, encoder.Options{
		FPS:        o.Plan.FPS(),
		QueueDepth: o.QueueDepth,
		Verbose:    o.Verbose,
	})
}

// startAll starts one encoder per wall. If any start fails, the ones
// already running are terminated.
func (o *Orchestrator) startAll() (*encoder.Set, error) {
	start := o.Start
	if start == nil {
		start = o.defaultStart
	}
	handles := make([]*encoder.Handle, 0, len(o.Plan.Walls))
	for _, w := range o.Plan.Walls {
		h, err := start(w)
		if err != nil {
			o.abort(encoder.NewSet(handles...))
			var fe *failure.Error
			if !errors.As(err, &fe) {
				err = failure.Encode("start", w.Wall.Name, 0, err)
			}
			return nil, err
		}
		o.Log.Debug(o.Verbose, "Encoder started: %s -> %s", w.Wall.Name, w.OutputPath)
		handles = append(handles, h)
	}
	return encoder.NewSet(handles...), nil
}

// render produces frames 0..total-1 in order. It returns at the first
// failure without issuing further frames.
func (o *Orchestrator) render(ctx context.Context, set *encoder.Set, stats *RunStats) error {
	plan := o.Plan
	sc := o.Scene
	if sc == nil {
		walls := make([]config.Wall, len(plan.Walls))
		for i, w := range plan.Walls {
			walls[i] = w.Wall
		}
		sc = scene.NewContext(plan.RunID, walls, o.JPEGQuality)
	}
	prog := newProgress(o.Log, plan.Mapper, o.ProgressEvery, o.now)
	if lp := plan.Mapper.LoopPoint(); lp >= 0 {
		o.Log.Info("Loop point at frame %d", lp)
	}

	total := plan.Total()
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return interrupted(i, err)
		}
		t := plan.Mapper.At(i)
		sc.Seek(i, t)

		if err := o.advance(ctx, sc, t); err != nil {
			return err
		}
		frames := make(map[string][]byte, len(plan.Walls))
		for _, w := range plan.Walls {
			img, err := o.capture(ctx, sc, w.Wall.Name)
			if err != nil {
				return err
			}
			frames[w.Wall.Name] = img
		}
		if err := set.WriteFrame(ctx, frames); err != nil {
			return o.writeFailure(ctx, i, err)
		}
		stats.Frames = i + 1
		prog.tick(i + 1)
	}
	return nil
}

func (o *Orchestrator) frameContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.FrameTimeout > 0 {
		return context.WithTimeout(ctx, o.FrameTimeout)
	}
	return context.WithCancel(ctx)
}

func (o *Orchestrator) advance(ctx context.Context, sc *scene.Context, t float64) error {
	actx, cancel := o.frameContext(ctx)
	defer cancel()
	task := scene.Go(actx, func(c context.Context) (struct{}, error) {
		return struct{}{}, o.Source.Advance(c, sc, t)
	})
	if _, err := task.Wait(actx); err != nil {
		if ctx.Err() != nil {
			return interrupted(sc.Frame, ctx.Err())
		}
		return &failure.Error{Kind: failure.RenderTimeout, Stage: "advance", Frame: sc.Frame,
			Err: fmt.Errorf("scene did not reach t=%.3fs: %w", t, err)}
	}
	return nil
}

func (o *Orchestrator) capture(ctx context.Context, sc *scene.Context, wall string) ([]byte, error) {
	cctx, cancel := o.frameContext(ctx)
	defer cancel()
	task := scene.Go(cctx, func(c context.Context) ([]byte, error) {
		return o.Source.Capture(c, sc, wall)
	})
	img, err := task.Wait(cctx)
	if err == nil && len(img) == 0 {
		err = errors.New("empty image")
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, interrupted(sc.Frame, ctx.Err())
		}
		return nil, &failure.Error{Kind: failure.CaptureError, Stage: "capture", Stream: wall, Frame: sc.Frame, Err: err}
	}
	return img, nil
}

// writeFailure attaches the frame index to an encoder failure.
func (o *Orchestrator) writeFailure(ctx context.Context, frame int, err error) error {
	var fe *failure.Error
	switch {
	case errors.As(err, &fe):
		if fe.Frame == failure.NoFrame {
			fe.Frame = frame
		}
		return fe
	case ctx.Err() != nil:
		return interrupted(frame, ctx.Err())
	default:
		return &failure.Error{Kind: failure.EncodeFailure, Stage: "write", Frame: frame, Err: err}
	}
}

func interrupted(frame int, err error) error {
	return fmt.Errorf("interrupted at frame %d: %w", frame, err)
}

// abort terminates every encoder and removes their partial outputs.
func (o *Orchestrator) abort(set *encoder.Set) []encoder.Status {
	if set.Len() == 0 {
		return nil
	}
	o.Log.Warn("Terminating %d encoders (grace %s)", set.Len(), o.FinalizeTimeout)
	statuses := set.Terminate(o.FinalizeTimeout)
	for _, st := range statuses {
		err := os.Remove(st.Path)
		switch {
		case err == nil:
			o.Log.Debug(o.Verbose, "Removed partial output %s", st.Path)
		case !os.IsNotExist(err):
			o.Log.Warn("Cannot remove partial output %s: %v", st.Path, err)
		}
	}
	return statuses
}

func (o *Orchestrator) publishPaths(res *Result) []string {
	var paths []string
	for _, c := range res.Composites {
		paths = append(paths, c.OutputPath)
	}
	if o.PublishWalls || len(res.Composites) == 0 {
		for _, w := range res.Walls {
			paths = append(paths, w.Path)
		}
	}
	return paths
}

func (o *Orchestrator) logHeader() {
	plan := o.Plan
	o.Log.Info("Run %s: %s mode, %d frames at %d fps (%s)",
		plan.RunID, plan.Mode.Name(), plan.Total(), plan.FPS(),
		display.FormatClock(float64(plan.Mode.Seconds())))
	for _, w := range plan.Walls {
		o.Log.Info("  Wall %-6s %dx%d -> %s", w.Wall.Name, w.Wall.Width, w.Wall.Height, filepath.Base(w.OutputPath))
	}
	for _, m := range plan.Merges {
		o.Log.Info("  Pair %-6s %s + %s -> %s", m.Pairing.Name, m.Left.Wall.Name, m.Right.Wall.Name, filepath.Base(m.OutputPath))
	}
}

func (o *Orchestrator) logSummary(res *Result) {
	s := &res.Stats
	o.Log.Info("==============================")
	o.Log.Info("Done: %d frames x %d walls in %s (%s fps)",
		res.Frames, len(res.Walls), display.FormatETA(s.RenderElapsed), display.FormatRate(s.AverageFPS(o.now())))
	o.Log.Info("  Walls: %s", display.FormatBytes(s.WallBytes))
	if len(res.Composites) > 0 {
		o.Log.Success("  Composites: %d (%s)", len(res.Composites), display.FormatBytes(s.CompositeBytes))
	}
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
