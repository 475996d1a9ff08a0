package encoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/backmassage/wallrender/internal/ffmpeg"
)

// stderrTail is how much trailing encoder stderr is kept for diagnostics.
const stderrTail = 16 << 10

// Sink is the input side of one encoder.
//
// Write blocks while the encoder is not ready for more input. Close ends the
// input stream. Wait blocks until the encoder has exited and returns its
// exit error; it may be called more than once and from several goroutines,
// always returning the same result. Kill stops the encoder immediately and
// must unblock a pending Write.
type Sink interface {
	io.Writer
	Close() error
	Wait() error
	Kill() error
}

// processSink feeds an ffmpeg process through its stdin pipe.
type processSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *ffmpeg.TailBuffer

	closeOnce sync.Once
	closeErr  error
	waitOnce  sync.Once
	waitErr   error
}

// StartProcess spawns args (args[0] is the binary) with a stdin pipe. In
// verbose mode stderr is tee'd to os.Stderr.
func StartProcess(args []string, verbose bool) (Sink, error) {
	cmd := exec.Command(args[0], args[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	tail := ffmpeg.NewTailBuffer(stderrTail)
	if verbose {
		cmd.Stderr = io.MultiWriter(tail, os.Stderr)
	} else {
		cmd.Stderr = tail
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", args[0], err)
	}
	return &processSink{cmd: cmd, stdin: stdin, stderr: tail}, nil
}

func (s *processSink) Write(p []byte) (int, error) { return s.stdin.Write(p) }

func (s *processSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.stdin.Close()
		if errors.Is(s.closeErr, os.ErrClosed) {
			s.closeErr = nil
		}
	})
	return s.closeErr
}

func (s *processSink) Wait() error {
	s.waitOnce.Do(func() { s.waitErr = s.cmd.Wait() })
	return s.waitErr
}

func (s *processSink) Kill() error {
	err := s.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Stderr returns the retained tail of the encoder's stderr.
func (s *processSink) Stderr() string { return s.stderr.String() }

// stderrer is implemented by sinks that capture diagnostics.
type stderrer interface {
	Stderr() string
}
