package check

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/failure"
)

// fakeTools replaces PATH lookups and test encodes for one test.
func fakeTools(t *testing.T, missing map[string]bool, encodeOK bool) {
	t.Helper()
	origLook, origRun := lookPath, runQuiet
	t.Cleanup(func() { lookPath, runQuiet = origLook, origRun })
	lookPath = func(name string) (string, error) {
		if missing[name] {
			return "", errors.New("executable file not found in $PATH")
		}
		return "/usr/bin/" + name, nil
	}
	runQuiet = func([]string) bool { return encodeOK }
}

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	scene := filepath.Join(t.TempDir(), "scene_full.html")
	if err := os.WriteFile(scene, []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Profile.Scene = scene
	return &cfg
}

func TestCheckDeps(t *testing.T) {
	tests := []struct {
		name     string
		missing  map[string]bool
		encodeOK bool
		mutate   func(*config.Config)
		want     error
	}{
		{name: "all present", encodeOK: true},
		{name: "no ffmpeg", missing: map[string]bool{"ffmpeg": true}, encodeOK: true, want: ErrFfmpegNotFound},
		{name: "no ffprobe", missing: map[string]bool{"ffprobe": true}, encodeOK: true, want: ErrFfprobeNotFound},
		{
			name: "no ffprobe without verification", missing: map[string]bool{"ffprobe": true}, encodeOK: true,
			mutate: func(c *config.Config) { c.VerifyDurations = false },
		},
		{
			name: "no ffprobe when merges skipped", missing: map[string]bool{"ffprobe": true}, encodeOK: true,
			mutate: func(c *config.Config) { c.SkipMerge = true },
		},
		{name: "encoder unusable", encodeOK: false, want: ErrEncoderUnusable},
		{
			name: "scene missing", encodeOK: true, want: ErrSceneNotFound,
			mutate: func(c *config.Config) { c.Profile.Scene = filepath.Join(t.TempDir(), "gone.html") },
		},
		{
			name: "slim missing when assembling", encodeOK: true, want: ErrSceneNotFound,
			mutate: func(c *config.Config) { c.Assemble = true },
		},
		{name: "renderer missing", missing: map[string]bool{"wallrender-host": true}, encodeOK: true, want: ErrRendererNotFound},
		{
			name: "test card needs no scene or renderer", missing: map[string]bool{"wallrender-host": true}, encodeOK: true,
			mutate: func(c *config.Config) {
				c.Source = config.SourceTestCard
				c.Profile.Scene = ""
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeTools(t, tt.missing, tt.encodeOK)
			cfg := baseConfig(t)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := CheckDeps(cfg)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("CheckDeps: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, failure.SetupError) {
				t.Errorf("err = %v is not a SetupError", err)
			}
		})
	}
}

type countLogger struct{ errors int }

func (*countLogger) Info(string, ...interface{})        {}
func (*countLogger) Success(string, ...interface{})     {}
func (*countLogger) Warn(string, ...interface{})        {}
func (l *countLogger) Error(string, ...interface{})     { l.errors++ }
func (*countLogger) Debug(bool, string, ...interface{}) {}

func TestRunCheck_ReportsWithoutStopping(t *testing.T) {
	fakeTools(t, map[string]bool{"ffmpeg": true, "wallrender-host": true}, false)
	log := &countLogger{}
	RunCheck(baseConfig(t), log)
	// ffmpeg missing, encoder test, renderer missing.
	if log.errors != 3 {
		t.Errorf("errors logged = %d, want 3", log.errors)
	}
}
