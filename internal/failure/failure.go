// Package failure defines the run-level error taxonomy. Every fatal error
// that reaches the command entrypoint is a *Error carrying the stage, the
// wall (when one is involved), the frame index and the external tool's exit
// code, so a failed run can be diagnosed from its last log line.
package failure

import (
	"fmt"
	"strings"
)

// Kind classifies a fatal run error. Kind implements error so callers can
// match with errors.Is(err, failure.CaptureError).
type Kind string

const (
	SetupError     Kind = "setup error"
	RenderTimeout  Kind = "render timeout"
	CaptureError   Kind = "capture error"
	EncodeFailure  Kind = "encode failure"
	MergeFailure   Kind = "merge failure"
	PublishFailure Kind = "publish failure"
)

func (k Kind) Error() string { return string(k) }

// NoFrame marks errors not tied to a specific frame.
const NoFrame = -1

// Error is a classified fatal error.
type Error struct {
	Kind     Kind
	Stage    string // e.g. "preflight", "render", "finalize", "merge"
	Stream   string // wall or pairing name; empty when not applicable
	Frame    int    // NoFrame when not applicable
	ExitCode int    // external tool exit status; 0 when unknown or not applicable
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Stage != "" {
		b.WriteString(" during ")
		b.WriteString(e.Stage)
	}
	if e.Stream != "" {
		fmt.Fprintf(&b, " [%s]", e.Stream)
	}
	if e.Frame >= 0 {
		fmt.Fprintf(&b, " at frame %d", e.Frame)
	}
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit status %d)", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a Kind target against the error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New returns a classified error with no frame attached.
func New(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Frame: NoFrame, Err: err}
}

// Setup wraps a preflight error.
func Setup(err error) *Error {
	return New(SetupError, "preflight", err)
}

// Encode wraps an encoder error for one wall.
func Encode(stage, stream string, exitCode int, err error) *Error {
	return &Error{Kind: EncodeFailure, Stage: stage, Stream: stream, Frame: NoFrame, ExitCode: exitCode, Err: err}
}

// Merge wraps a merge error for one pairing.
func Merge(pairing string, exitCode int, err error) *Error {
	return &Error{Kind: MergeFailure, Stage: "merge", Stream: pairing, Frame: NoFrame, ExitCode: exitCode, Err: err}
}
