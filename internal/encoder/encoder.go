// Package encoder runs one video encoder per wall and feeds it frames
// through a bounded queue.
//
// Each [Handle] owns a queue of at most QueueDepth frames and a single
// writer goroutine that drains it into the encoder's stdin. WriteFrame
// blocks while the queue is full, so a slow encoder suspends the producer
// instead of growing memory or dropping frames. Finish and Terminate share
// one exactly-once finalization: the handle becomes Finished once its input
// is closed and its process has exited.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/failure"
	"github.com/backmassage/wallrender/internal/ffmpeg"
)

// exitProbe bounds how long a failed write waits to learn the exit status.
const exitProbe = 2 * time.Second

// ErrClosed is returned by WriteFrame after the handle has been finalized.
var ErrClosed = errors.New("encoder input closed")

// State is the lifecycle state of a handle.
type State int

const (
	Running State = iota
	Finished
)

func (s State) String() string {
	if s == Finished {
		return "finished"
	}
	return "running"
}

// Status is a snapshot of one handle.
type Status struct {
	Wall           string
	Path           string
	State          State
	ExitCode       int // -1 when killed or unknown.
	FramesAccepted int
	FramesWritten  int
	Terminated     bool // Finalized by Terminate or killed.
	Err            error
}

// OK reports a clean finish: Finished, not terminated, exit status 0.
func (s Status) OK() bool {
	return s.State == Finished && !s.Terminated && s.ExitCode == 0 && s.Err == nil
}

// Options configures [Start].
type Options struct {
	FPS        int
	QueueDepth int
	Verbose    bool
}

// Handle is one running wall encoder.
type Handle struct {
	def  config.Wall
	path string
	sink Sink

	queue      chan []byte
	quit       chan struct{} // closed when finalization begins
	writerDone chan struct{}
	writeErr   error // set by the writer before writerDone closes
	aborted    atomic.Bool

	accepted atomic.Int64
	written  atomic.Int64

	sendMu sync.Mutex // serializes WriteFrame with closing the queue
	closed bool

	finalizeOnce sync.Once
	finalized    chan struct{}
	status       Status
}

// Start spawns an ffmpeg wall encoder writing to path.
func Start(def config.Wall, path string, codec config.Codec, opts Options) (*Handle, error) {
	sink, err := StartProcess(ffmpeg.WallArgs(codec, opts.FPS, path, opts.Verbose), opts.Verbose)
	if err != nil {
		return nil, failure.Encode("start", def.Name, 0, err)
	}
	return New(def, path, sink, opts.QueueDepth), nil
}

// New wraps an already-started sink. depth below 1 is treated as 1.
func New(def config.Wall, path string, sink Sink, depth int) *Handle {
	if depth < 1 {
		depth = 1
	}
	h := &Handle{
		def:        def,
		path:       path,
		sink:       sink,
		queue:      make(chan []byte, depth),
		quit:       make(chan struct{}),
		writerDone: make(chan struct{}),
		finalized:  make(chan struct{}),
	}
	go h.writeLoop()
	return h
}

// Name is the wall name.
func (h *Handle) Name() string { return h.def.Name }

// Path is the output video path.
func (h *Handle) Path() string { return h.path }

func (h *Handle) writeLoop() {
	defer close(h.writerDone)
	for frame := range h.queue {
		if h.aborted.Load() {
			continue
		}
		if _, err := h.sink.Write(frame); err != nil {
			h.writeErr = err
			return
		}
		h.written.Add(1)
	}
}

// WriteFrame queues one encoded image. It blocks while the queue is full
// until the writer frees a slot, the encoder stops accepting input, or ctx
// is done. Frames are written in call order. The handle keeps frame until
// written; callers must not modify it afterwards. Only one goroutine may
// call WriteFrame on a handle.
func (h *Handle) WriteFrame(ctx context.Context, frame []byte) error {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	if h.closed {
		return ErrClosed
	}
	select {
	case <-h.writerDone:
		return h.writerFailure()
	case <-h.quit:
		return ErrClosed
	default:
	}

	select {
	case h.queue <- frame:
		h.accepted.Add(1)
		return nil
	case <-h.writerDone:
		return h.writerFailure()
	case <-h.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writerFailure reports an encoder that stopped accepting input, with its
// exit status when the process has already exited.
func (h *Handle) writerFailure() error {
	code := 0
	exited := make(chan error, 1)
	go func() { exited <- h.sink.Wait() }()
	select {
	case err := <-exited:
		code = ffmpeg.ExitCode(err)
	case <-time.After(exitProbe):
	}
	return failure.Encode("write", h.def.Name, code, h.describe(fmt.Errorf("encoder stopped accepting frames: %w", h.writeErr)))
}

// Finish closes the input, waits for every queued frame to be written and
// the process to exit. A nonzero exit is an EncodeFailure. Cancelling ctx
// kills the process. Calling Finish after Terminate (or twice) returns the
// first finalization's status.
func (h *Handle) Finish(ctx context.Context) (Status, error) {
	st := h.finalize(ctx, false, 0)
	return st, st.Err
}

// Terminate aborts the encoder: queued frames are discarded, input is
// closed, and the process is killed if it has not exited within grace
// (grace 0 waits indefinitely).
func (h *Handle) Terminate(grace time.Duration) Status {
	return h.finalize(context.Background(), true, grace)
}

// Status returns the final status once finalized, otherwise a Running
// snapshot.
func (h *Handle) Status() Status {
	select {
	case <-h.finalized:
		return h.status
	default:
	}
	return Status{
		Wall:           h.def.Name,
		Path:           h.path,
		State:          Running,
		FramesAccepted: int(h.accepted.Load()),
		FramesWritten:  int(h.written.Load()),
	}
}

func (h *Handle) finalize(ctx context.Context, abort bool, grace time.Duration) Status {
	h.finalizeOnce.Do(func() {
		defer close(h.finalized)
		if abort {
			h.aborted.Store(true)
		}
		close(h.quit)
		h.sendMu.Lock()
		h.closed = true
		close(h.queue)
		h.sendMu.Unlock()

		if abort {
			// Unblocks a writer stuck on a full pipe.
			_ = h.sink.Close()
		}

		var closeErr error
		done := make(chan error, 1)
		go func() {
			<-h.writerDone
			if !abort {
				closeErr = h.sink.Close()
			}
			done <- h.sink.Wait()
		}()

		var timeout <-chan time.Time
		if grace > 0 {
			t := time.NewTimer(grace)
			defer t.Stop()
			timeout = t.C
		}

		var waitErr error
		killed := false
		select {
		case waitErr = <-done:
		case <-ctx.Done():
			_ = h.sink.Kill()
			killed = true
			waitErr = <-done
		case <-timeout:
			_ = h.sink.Kill()
			killed = true
			waitErr = <-done
		}

		st := Status{
			Wall:           h.def.Name,
			Path:           h.path,
			State:          Finished,
			ExitCode:       ffmpeg.ExitCode(waitErr),
			FramesAccepted: int(h.accepted.Load()),
			FramesWritten:  int(h.written.Load()),
			Terminated:     abort || killed,
		}
		if killed {
			st.ExitCode = -1
		}
		switch {
		case killed && !abort:
			st.Err = failure.Encode("finalize", h.def.Name, st.ExitCode, fmt.Errorf("encoder killed: %w", ctx.Err()))
		case h.writeErr != nil && !abort:
			st.Err = failure.Encode("finalize", h.def.Name, st.ExitCode, h.describe(fmt.Errorf("write frame: %w", h.writeErr)))
		case waitErr != nil && !killed:
			st.Err = failure.Encode("finalize", h.def.Name, st.ExitCode, h.describe(waitErr))
		case closeErr != nil:
			st.Err = failure.Encode("finalize", h.def.Name, st.ExitCode, fmt.Errorf("close input: %w", closeErr))
		}
		h.status = st
	})
	<-h.finalized
	return h.status
}

// describe appends the encoder's stderr hint and last line to err.
func (h *Handle) describe(err error) error {
	se, ok := h.sink.(stderrer)
	if !ok {
		return err
	}
	stderr := se.Stderr()
	var extra []string
	if hint := ffmpeg.Hint(stderr); hint != "" {
		extra = append(extra, hint)
	}
	if lines := ffmpeg.LastLines(stderr, 1); len(lines) > 0 {
		extra = append(extra, strings.TrimSpace(lines[0]))
	}
	if len(extra) == 0 {
		return err
	}
	return fmt.Errorf("%w (%s)", err, strings.Join(extra, "; "))
}
