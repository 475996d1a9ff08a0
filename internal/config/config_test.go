package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/backmassage/wallrender/internal/timemap"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/renders/out", "/renders/out"},
		{"single trailing slash", "/renders/out/", "/renders/out"},
		{"multiple trailing slashes", "/renders/out///", "/renders/out"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadProfile(); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ActiveCRF != 14 || cfg.ActiveWallPreset != "medium" {
		t.Errorf("active codec = crf %d preset %q, want 14/medium", cfg.ActiveCRF, cfg.ActiveWallPreset)
	}
}

func TestValidate_Mode(t *testing.T) {
	tests := []struct {
		name    string
		mode    RunMode
		wantErr bool
	}{
		{"full is valid", ModeFull, false},
		{"preview is valid", ModePreview, false},
		{"loopcheck is valid", ModeLoopCheck, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "slowmo", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = tt.mode
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"jpeg quality zero", func(c *Config) { c.JPEGQuality = 0 }},
		{"jpeg quality above one", func(c *Config) { c.JPEGQuality = 1.5 }},
		{"queue depth zero", func(c *Config) { c.QueueDepth = 0 }},
		{"progress zero", func(c *Config) { c.ProgressEvery = 0 }},
		{"merge parallel zero", func(c *Config) { c.MergeParallel = 0 }},
		{"negative timeout", func(c *Config) { c.FrameTimeout = -time.Second }},
		{"empty renderer", func(c *Config) { c.RendererCmd = " " }},
		{"empty output", func(c *Config) { c.OutputDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunMode_PerMode(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Mode = ModeFull
	m, err := cfg.RunMode()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.(timemap.Full); !ok || timemap.TotalFrames(m) != 54000 {
		t.Errorf("full: got %#v (%d frames)", m, timemap.TotalFrames(m))
	}

	cfg.Mode = ModePreview
	m, err = cfg.RunMode()
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := m.(timemap.Preview); !ok || p.SpeedFactor() != 30 {
		t.Errorf("preview: got %#v", m)
	}

	cfg.Mode = ModeLoopCheck
	m, err = cfg.RunMode()
	if err != nil {
		t.Fatal(err)
	}
	lc, ok := m.(timemap.LoopCheck)
	if !ok || lc.WindowStart != 1770 || lc.SceneEnd != 1800 || timemap.TotalFrames(m) != 1800 {
		t.Errorf("loopcheck: got %#v", m)
	}
}

func TestRunMode_DurationOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModePreview
	cfg.SecondsOverride = 10
	m, err := cfg.RunMode()
	if err != nil {
		t.Fatal(err)
	}
	if timemap.TotalFrames(m) != 300 {
		t.Errorf("TotalFrames = %d, want 300", timemap.TotalFrames(m))
	}
}

func TestParseArgs(t *testing.T) {
	cfg := DefaultConfig()
	err := ParseArgs(&cfg, []string{"-o", "/tmp/out", "loopcheck", "--queue-depth", "4", "--no-merge", "--no-color"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Mode != ModeLoopCheck {
		t.Errorf("Mode = %q, want loopcheck", cfg.Mode)
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.QueueDepth != 4 {
		t.Errorf("QueueDepth = %d, want 4 (flag after positional)", cfg.QueueDepth)
	}
	if !cfg.SkipMerge || cfg.ColorMode != ColorNever {
		t.Errorf("negated flags not applied: SkipMerge=%v ColorMode=%q", cfg.SkipMerge, cfg.ColorMode)
	}
}

func TestParseArgs_DefaultModeAndErrors(t *testing.T) {
	cfg := DefaultConfig()
	if err := ParseArgs(&cfg, nil); err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModePreview {
		t.Errorf("default Mode = %q, want preview", cfg.Mode)
	}

	cfg = DefaultConfig()
	if err := ParseArgs(&cfg, []string{"full", "preview"}); err == nil {
		t.Error("expected error for two modes")
	}
	cfg = DefaultConfig()
	if err := ParseArgs(&cfg, []string{"sideways"}); err == nil {
		t.Error("expected error for unknown mode")
	}
	cfg = DefaultConfig()
	if err := ParseArgs(&cfg, []string{"--source", "webcam"}); err == nil {
		t.Error("expected error for unknown source")
	}
	cfg = DefaultConfig()
	if err := ParseArgs(&cfg, []string{"-h"}); !errors.Is(err, ErrHelp) {
		t.Errorf("expected ErrHelp, got %v", err)
	}
}

func TestLoadProfile_Overrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CRFOverride = "18"
	cfg.PresetOverride = "fast"
	cfg.FPSOverride = 24
	cfg.ScenePath = "other.html"
	if err := cfg.LoadProfile(); err != nil {
		t.Fatal(err)
	}
	if cfg.ActiveCRF != 18 || cfg.Profile.Codec.CRF != 18 {
		t.Errorf("CRF override not applied: %d", cfg.ActiveCRF)
	}
	if cfg.ActiveWallPreset != "fast" {
		t.Errorf("preset override not applied: %q", cfg.ActiveWallPreset)
	}
	if cfg.Profile.Timing.FPS != 24 || cfg.Profile.Scene != "other.html" {
		t.Errorf("profile overrides not applied: %+v", cfg.Profile)
	}

	cfg = DefaultConfig()
	cfg.CRFOverride = "high"
	if err := cfg.LoadProfile(); err == nil {
		t.Error("expected error for non-numeric CRF")
	}
}

func TestLoadProfile_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("name: small\nwalls:\n  - {name: a, width: 64, height: 32}\n  - {name: b, width: 32, height: 32}\npairings:\n  - {name: strip, left: a, right: b}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.ProfilePath = path
	if err := cfg.LoadProfile(); err != nil {
		t.Fatal(err)
	}
	if cfg.Profile.Name != "small" || len(cfg.Profile.Walls) != 2 {
		t.Errorf("profile not loaded: %+v", cfg.Profile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestS3FromEnv(t *testing.T) {
	t.Setenv("WALLRENDER_S3_ENDPOINT", "minio.local:9000")
	t.Setenv("WALLRENDER_S3_ACCESS_KEY", "ak")
	t.Setenv("WALLRENDER_S3_SECRET_KEY", "sk")
	t.Setenv("WALLRENDER_S3_USE_SSL", "false")
	s3, err := S3FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if s3.UseSSL || s3.Bucket != "renders" || s3.Region != "us-east-1" {
		t.Errorf("unexpected S3 config: %+v", s3)
	}

	t.Setenv("WALLRENDER_S3_ENDPOINT", "https://minio.local")
	if _, err := S3FromEnv(); err == nil {
		t.Error("expected error for endpoint with scheme")
	}
	t.Setenv("WALLRENDER_S3_USE_SSL", "maybe")
	if _, err := S3FromEnv(); err == nil {
		t.Error("expected error for unparsable bool")
	}
}
