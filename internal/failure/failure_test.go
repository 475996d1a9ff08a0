package failure

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("run: %w", &Error{Kind: CaptureError, Stage: "render", Stream: "left", Frame: 12})
	if !errors.Is(err, CaptureError) {
		t.Error("expected errors.Is to match CaptureError")
	}
	if errors.Is(err, EncodeFailure) {
		t.Error("CaptureError must not match EncodeFailure")
	}
}

func TestError_UnwrapCause(t *testing.T) {
	cause := errors.New("pipe closed")
	err := Encode("render", "front", 0, cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			"capture with frame",
			&Error{Kind: CaptureError, Stage: "render", Stream: "left", Frame: 7, Err: errors.New("boom")},
			[]string{"capture error during render", "[left]", "at frame 7", ": boom"},
		},
		{
			"merge with exit code",
			Merge("top", 1, errors.New("ffmpeg failed")),
			[]string{"merge failure during merge", "[top]", "(exit status 1)"},
		},
		{
			"setup without frame",
			Setup(errors.New("ffmpeg not found on PATH")),
			[]string{"setup error during preflight", "ffmpeg not found"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, w := range tt.want {
				if !strings.Contains(msg, w) {
					t.Errorf("message %q missing %q", msg, w)
				}
			}
			if tt.err.Frame == NoFrame && strings.Contains(msg, "at frame") {
				t.Errorf("message %q should not mention a frame", msg)
			}
		})
	}
}
