// Package config holds runtime configuration: defaults, CLI flag parsing,
// the render profile (walls, pairings, timing, codec) and validation.
// Defaults reproduce the four-wall installation render.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backmassage/wallrender/internal/timemap"
)

// --- Enum types for validated string fields ---

// RunMode selects the time-mapping policy for a run.
type RunMode string

const (
	ModeFull      RunMode = "full"      // One simulated second per output second.
	ModePreview   RunMode = "preview"   // Whole scene compressed into a short clip (default).
	ModeLoopCheck RunMode = "loopcheck" // Loop tail stitched to loop head.
)

// SourceKind selects the frame source implementation.
type SourceKind string

const (
	SourceProcess  SourceKind = "process"  // External renderer host (default).
	SourceTestCard SourceKind = "testcard" // Synthetic frames, no renderer needed.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// mutated by [ParseFlags], completed by [Config.LoadProfile] and then
// passed by pointer to the packages that need it.
type Config struct {
	// Run selection.
	Mode        RunMode // Default: preview. Set from the positional argument.
	OutputDir   string  // Default: "output".
	ProfilePath string  // Optional YAML profile; built-in profile when empty.
	ScenePath   string  // Overrides the profile's scene document.

	// Frame source.
	Source       SourceKind
	RendererCmd  string        // Renderer host command line; the scene path is appended.
	JPEGQuality  float64       // Default: 0.98.
	ReadyTimeout time.Duration // Default: 3m. Scene asset readiness wait.

	// Pipeline behavior.
	QueueDepth      int           // Default: 8 frames buffered per wall.
	FrameTimeout    time.Duration // Default: 2m. Per render/capture await; 0 disables.
	FinalizeTimeout time.Duration // Default: 30s. Bounded wait before killing encoders on abort.
	ProgressEvery   int           // Default: 100 frames.
	MergeParallel   int           // Default: 2 concurrent merges.
	SkipMerge       bool
	VerifyDurations bool // Default: true. ffprobe inputs and composites after merge.
	Assemble        bool // Assemble the scene document from its assets before rendering.
	Publish         bool // Upload composites to object storage after a successful run.
	PublishWalls    bool // Also upload the per-wall videos.

	// Overrides applied on top of the profile (zero means "use profile").
	FPSOverride      int
	SecondsOverride  int
	CRFOverride      string
	PresetOverride   string
	ActiveCRF        int // Derived: the CRF in effect after precedence.
	ActiveWallPreset string

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode
	LogFile   string
	CheckOnly bool

	// Loaded state.
	Profile Profile
	S3      S3Config
}

// DefaultConfig returns a Config with all defaults. Used as the base
// before [ParseFlags] applies CLI overrides.
func DefaultConfig() Config {
	return Config{
		Mode:            ModePreview,
		OutputDir:       "output",
		Source:          SourceProcess,
		RendererCmd:     "wallrender-host",
		JPEGQuality:     0.98,
		ReadyTimeout:    3 * time.Minute,
		QueueDepth:      8,
		FrameTimeout:    2 * time.Minute,
		FinalizeTimeout: 30 * time.Second,
		ProgressEvery:   100,
		MergeParallel:   2,
		VerifyDurations: true,
		ColorMode:       ColorAuto,
		Profile:         DefaultProfile(),
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// LoadProfile replaces the built-in profile with the one at ProfilePath
// (when set), applies CLI overrides and loads the publish target from the
// environment.
func (c *Config) LoadProfile() error {
	if c.ProfilePath != "" {
		p, err := LoadProfile(c.ProfilePath)
		if err != nil {
			return err
		}
		c.Profile = p
	}
	if c.ScenePath != "" {
		c.Profile.Scene = c.ScenePath
	}
	if c.FPSOverride > 0 {
		c.Profile.Timing.FPS = c.FPSOverride
	}
	if err := applyCodecPrecedence(c); err != nil {
		return err
	}
	if c.Publish {
		s3, err := S3FromEnv()
		if err != nil {
			return err
		}
		c.S3 = s3
	}
	return nil
}

// Validate checks enum fields, numeric ranges and the profile.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeFull, ModePreview, ModeLoopCheck:
		// valid
	default:
		return fmt.Errorf("invalid mode %q (use 'full', 'preview' or 'loopcheck')", c.Mode)
	}

	switch c.Source {
	case SourceProcess, SourceTestCard:
		// valid
	default:
		return errors.New("invalid source (use 'process' or 'testcard')")
	}

	if c.CheckOnly {
		return nil
	}
	if c.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 1 {
		return fmt.Errorf("jpeg quality must be in (0, 1] (got %g)", c.JPEGQuality)
	}
	if c.QueueDepth < 1 {
		return errors.New("queue depth must be at least 1")
	}
	if c.ProgressEvery < 1 {
		return errors.New("progress interval must be at least 1 frame")
	}
	if c.MergeParallel < 1 {
		return errors.New("merge parallelism must be at least 1")
	}
	if c.FrameTimeout < 0 || c.FinalizeTimeout < 0 || c.ReadyTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Source == SourceProcess && strings.TrimSpace(c.RendererCmd) == "" {
		return errors.New("renderer command must not be empty for the process source")
	}
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if _, err := c.RunMode(); err != nil {
		return fmt.Errorf("%s mode: %w", c.Mode, err)
	}
	return nil
}

// RunMode builds the time-mapping mode selected by c.Mode from the
// profile timing and the duration override.
func (c *Config) RunMode() (timemap.Mode, error) {
	t := c.Profile.Timing
	var m timemap.Mode
	switch c.Mode {
	case ModeFull:
		secs := t.FullSeconds
		if c.SecondsOverride > 0 {
			secs = c.SecondsOverride
		}
		m = timemap.Full{FPS: t.FPS, OutputSeconds: secs}
	case ModePreview:
		secs := t.PreviewSeconds
		if c.SecondsOverride > 0 {
			secs = c.SecondsOverride
		}
		m = timemap.Preview{FPS: t.FPS, OutputSeconds: secs, SceneSeconds: t.SceneSeconds}
	case ModeLoopCheck:
		secs := t.LoopSeconds
		if c.SecondsOverride > 0 {
			secs = c.SecondsOverride
		}
		m = timemap.LoopCheck{
			FPS:           t.FPS,
			OutputSeconds: secs,
			WindowStart:   t.LoopWindowStart,
			SceneEnd:      t.SceneSeconds,
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", c.Mode)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
