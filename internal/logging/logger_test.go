package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/wallrender/internal/config"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	l.out, l.errOut = &out, &errOut
	return l, &out, &errOut
}

func TestNewLogger_NoFile(t *testing.T) {
	l, out, _ := newTestLogger(t)
	defer l.Close()
	l.Info("test message")
	if !strings.Contains(out.String(), "[INFO] test message") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "wallrender.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.out, l.errOut = &bytes.Buffer{}, &bytes.Buffer{}
	l.Progress("frame %d/%d", 100, 1800)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("[PROGRESS] frame 100/1800")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestLevels(t *testing.T) {
	l, out, errOut := newTestLogger(t)
	l.Success("done")
	l.Warn("careful")
	l.Error("broken")
	l.Debug(false, "hidden")
	l.Debug(true, "shown")

	if !strings.Contains(errOut.String(), "[ERROR] broken") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if strings.Contains(out.String(), "broken") {
		t.Error("errors should not go to stdout")
	}
	for _, want := range []string{"[SUCCESS] done", "[WARN] careful", "[DEBUG] shown"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q", want)
		}
	}
	if strings.Contains(out.String(), "hidden") {
		t.Error("non-verbose debug line was written")
	}
}
