package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/wallrender/internal/config"
)

func TestConfigure(t *testing.T) {
	Configure(config.ColorAlways)
	if !Enabled() || Green == "" {
		t.Error("ColorAlways should enable colors")
	}
	if got := Paint(Green, "ok"); got != Green+"ok"+NC {
		t.Errorf("Paint = %q", got)
	}

	Configure(config.ColorNever)
	if Enabled() || Red != "" {
		t.Error("ColorNever should disable colors")
	}
	if got := Paint(Green, "ok"); got != "ok" {
		t.Errorf("Paint with colors off = %q", got)
	}
}

func TestResolve_AutoOnRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if resolve(config.ColorAuto, f) {
		t.Error("auto mode should not enable colors for a regular file")
	}
	if IsTerminal(nil) {
		t.Error("IsTerminal(nil) = true")
	}
}

func TestResolve_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if resolve(config.ColorAuto, os.Stdout) {
		t.Error("NO_COLOR should disable auto colors")
	}
	if !resolve(config.ColorAlways, os.Stdout) {
		t.Error("ColorAlways should ignore NO_COLOR")
	}
}
