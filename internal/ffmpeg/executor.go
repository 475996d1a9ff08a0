package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
)

// stderrTail is how much trailing stderr is kept per process.
const stderrTail = 16 << 10

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Stderr   string
	ExitCode int // -1 when the process did not run or was killed by a signal.
	Err      error
}

// Execute runs a one-shot command built by this package. args[0] is the
// binary. In verbose mode stderr is tee'd to os.Stderr in real time.
func Execute(ctx context.Context, args []string, verbose bool) ExecResult {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	tail := NewTailBuffer(stderrTail)
	if verbose {
		cmd.Stderr = io.MultiWriter(tail, os.Stderr)
	} else {
		cmd.Stderr = tail
	}

	err := cmd.Run()
	return ExecResult{
		Stderr:   tail.String(),
		ExitCode: ExitCode(err),
		Err:      err,
	}
}

// ExitCode extracts the process exit status from a Wait/Run error:
// 0 for nil, the status for an *exec.ExitError, -1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// TailBuffer is an io.Writer that keeps only the last max bytes written.
// Safe for concurrent use; exec copies stderr from its own goroutine.
type TailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

// NewTailBuffer returns a TailBuffer bounded to max bytes.
func NewTailBuffer(max int) *TailBuffer {
	return &TailBuffer{max: max}
}

func (b *TailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(p)
	if n >= b.max {
		b.buf = append(b.buf[:0], p[n-b.max:]...)
		return n, nil
	}
	if over := len(b.buf) + n - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

// String returns the retained bytes.
func (b *TailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
