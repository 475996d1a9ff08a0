package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into run, source, pipeline, encoding, display and utility.
// Negated flags (e.g. --no-verify) are applied after Parse so Config defaults hold unless set.

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Returned by [ParseArgs] when the user asked for help or the version.
var (
	ErrHelp    = errors.New("help requested")
	ErrVersion = errors.New("version requested")
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and exits.
// On error it returns non-nil (e.g. unknown flag, bad mode).
func ParseFlags(cfg *Config, version string) error {
	err := ParseArgs(cfg, os.Args[1:])
	switch {
	case errors.Is(err, ErrHelp):
		printUsage(version)
		os.Exit(0)
	case errors.Is(err, ErrVersion):
		fmt.Fprintln(os.Stdout, "wallrender v"+version)
		os.Exit(0)
	}
	return err
}

// ParseArgs parses args (without the program name) into cfg. The run mode
// is the single optional positional argument and may appear anywhere
// among the flags.
func ParseArgs(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("wallrender", flag.ContinueOnError)
	fs.Usage = func() {}
	fs.SetOutput(discard{})

	// Negated/override flags: we capture bools then apply to cfg after Parse,
	// so that defaults from DefaultConfig() hold unless the user passes the flag.
	var negated negatedFlags

	defineRunFlags(fs, cfg)
	defineSourceFlags(fs, cfg)
	definePipelineFlags(fs, cfg, &negated)
	defineEncodingFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	// flag stops at the first positional; keep parsing after it.
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		return ErrHelp
	}
	if negated.showVersion {
		return ErrVersion
	}
	return parsePositionalArgs(positional, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	noMerge     bool
	noVerify    bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineRunFlags registers -o/--output, --profile, --scene, --assemble.
func defineRunFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Output directory")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "Same as --output")
	fs.StringVar(&cfg.ProfilePath, "profile", "", "Render profile YAML")
	fs.StringVar(&cfg.ScenePath, "scene", "", "Scene document (overrides profile)")
	fs.BoolVar(&cfg.Assemble, "assemble", false, "Assemble the scene document from its assets first")
}

// defineSourceFlags registers --source, --renderer, --jpeg-quality, --ready-timeout.
func defineSourceFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&sourceValue{&cfg.Source}, "source", "Frame source: process | testcard")
	fs.StringVar(&cfg.RendererCmd, "renderer", cfg.RendererCmd, "Renderer host command")
	fs.Float64Var(&cfg.JPEGQuality, "jpeg-quality", cfg.JPEGQuality, "Capture JPEG quality (0-1]")
	fs.DurationVar(&cfg.ReadyTimeout, "ready-timeout", cfg.ReadyTimeout, "Scene readiness timeout")
}

// definePipelineFlags registers queue, timeout, progress, merge and publish flags.
func definePipelineFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.IntVar(&cfg.QueueDepth, "queue-depth", cfg.QueueDepth, "Frames buffered per wall encoder")
	fs.DurationVar(&cfg.FrameTimeout, "frame-timeout", cfg.FrameTimeout, "Render/capture timeout per frame (0 disables)")
	fs.DurationVar(&cfg.FinalizeTimeout, "finalize-timeout", cfg.FinalizeTimeout, "Encoder shutdown grace on abort")
	fs.IntVar(&cfg.ProgressEvery, "progress-every", cfg.ProgressEvery, "Progress line interval in frames")
	fs.IntVar(&cfg.MergeParallel, "merge-parallel", cfg.MergeParallel, "Concurrent merges")
	fs.BoolVar(&n.noMerge, "no-merge", false, "Skip merging walls into composites")
	fs.BoolVar(&n.noVerify, "no-verify", false, "Skip ffprobe duration verification")
	fs.BoolVar(&cfg.Publish, "publish", false, "Upload composites to object storage")
	fs.BoolVar(&cfg.PublishWalls, "publish-walls", false, "Also upload wall videos")
}

// defineEncodingFlags registers --fps, --duration, -q/--crf, -p/--preset.
func defineEncodingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.FPSOverride, "fps", 0, "Output frame rate (overrides profile)")
	fs.IntVar(&cfg.SecondsOverride, "duration", 0, "Output duration in seconds (overrides profile)")
	fs.StringVar(&cfg.CRFOverride, "crf", "", "x264 CRF (overrides profile)")
	fs.StringVar(&cfg.CRFOverride, "q", "", "Same as --crf")
	fs.StringVar(&cfg.PresetOverride, "preset", "", "x264 preset for wall encodes")
	fs.StringVar(&cfg.PresetOverride, "p", "", "Same as --preset")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
}

// defineUtilityFlags registers --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noMerge {
		cfg.SkipMerge = true
	}
	if n.noVerify {
		cfg.VerifyDurations = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets Mode from the optional positional argument.
func parsePositionalArgs(args []string, cfg *Config) error {
	switch len(args) {
	case 0:
		return nil
	case 1:
		var mv runModeValue
		mv.p = &cfg.Mode
		return mv.Set(args[0])
	default:
		return fmt.Errorf("expected at most one mode argument, got %q", strings.Join(args, " "))
	}
}

// applyCodecPrecedence sets the active CRF and wall preset.
// Precedence: --crf / --preset > profile codec settings.
func applyCodecPrecedence(cfg *Config) error {
	if cfg.CRFOverride != "" {
		q, err := parseInt(cfg.CRFOverride, "CRF")
		if err != nil {
			return err
		}
		cfg.Profile.Codec.CRF = q
	}
	if cfg.PresetOverride != "" {
		cfg.Profile.Codec.WallPreset = cfg.PresetOverride
	}
	cfg.ActiveCRF = cfg.Profile.Codec.CRF
	cfg.ActiveWallPreset = cfg.Profile.Codec.WallPreset
	return nil
}

// parseInt parses a string as an integer for CRF flags; returns a clear error on failure.
func parseInt(s, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number (got %q)", name, s)
	}
	return n, nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "wallrender v" + version + " - multi-wall scene renderer"},
		{"", ""},
		{"  wallrender [OPTIONS] [full|preview|loopcheck]", ""},
		{"", ""},
		{"Run", ""},
		{"  full", "Real-time render of the whole scene"},
		{"  preview", "Whole scene at speed, short output (default)"},
		{"  loopcheck", "Loop tail + loop head, to inspect the seam"},
		{"  -o, --output <dir>", "Output directory (default: output)"},
		{"  --profile <file.yaml>", "Render profile (default: built-in 4-wall)"},
		{"  --scene <file>", "Scene document (overrides profile)"},
		{"  --assemble", "Assemble the scene document from assets first"},
		{"", ""},
		{"Source", ""},
		{"  --source <process|testcard>", "Frame source (default: process)"},
		{"  --renderer <cmd>", "Renderer host command (default: wallrender-host)"},
		{"  --jpeg-quality <q>", "Capture JPEG quality (default: 0.98)"},
		{"  --ready-timeout <dur>", "Scene readiness timeout (default: 3m)"},
		{"", ""},
		{"Pipeline", ""},
		{"  --queue-depth <n>", "Frames buffered per wall (default: 8)"},
		{"  --frame-timeout <dur>", "Per-frame render/capture timeout (default: 2m)"},
		{"  --finalize-timeout <dur>", "Encoder shutdown grace on abort (default: 30s)"},
		{"  --progress-every <n>", "Progress interval in frames (default: 100)"},
		{"  --merge-parallel <n>", "Concurrent merges (default: 2)"},
		{"  --no-merge", "Skip composites"},
		{"  --no-verify", "Skip ffprobe duration verification"},
		{"  --publish", "Upload composites (WALLRENDER_S3_* env)"},
		{"  --publish-walls", "Also upload wall videos"},
		{"", ""},
		{"Encoding", ""},
		{"  --fps <n>", "Output frame rate (default: profile)"},
		{"  --duration <sec>", "Output duration (default: per mode)"},
		{"  -q, --crf <value>", "x264 CRF (default: 14)"},
		{"  -p, --preset <name>", "x264 preset for walls (default: medium)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, x264, ffprobe, renderer)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// discard swallows flag package error output; errors are returned instead.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// flag.Value adapters so we can use enum types (RunMode, SourceKind) with flag.Var.

type runModeValue struct{ p *RunMode }

func (m *runModeValue) String() string {
	if m.p == nil {
		return ""
	}
	return string(*m.p)
}
func (m *runModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "full":
		*m.p = ModeFull
	case "preview":
		*m.p = ModePreview
	case "loopcheck", "loop-check", "loop":
		*m.p = ModeLoopCheck
	default:
		return fmt.Errorf("invalid mode %q (use 'full', 'preview' or 'loopcheck')", s)
	}
	return nil
}

type sourceValue struct{ p *SourceKind }

func (v *sourceValue) String() string {
	if v.p == nil {
		return ""
	}
	return string(*v.p)
}
func (v *sourceValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "process":
		*v.p = SourceProcess
	case "testcard":
		*v.p = SourceTestCard
	default:
		return fmt.Errorf("invalid source %q (use 'process' or 'testcard')", s)
	}
	return nil
}
