// Package check provides system diagnostics (--check mode) and the
// pre-run dependency validation (CheckDeps): ffmpeg, ffprobe, the wall
// encoder, the scene document and the renderer host.
package check

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/failure"
	"github.com/backmassage/wallrender/internal/ffmpeg"
)

// Sentinel errors returned (wrapped in a SetupError) by CheckDeps.
var (
	ErrFfmpegNotFound   = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound  = errors.New("ffprobe not found on PATH")
	ErrEncoderUnusable  = errors.New("test encode failed")
	ErrSceneNotFound    = errors.New("scene document not found")
	ErrRendererNotFound = errors.New("renderer host not found on PATH")
)

// Replaced in tests.
var (
	lookPath = exec.LookPath
	runQuiet = runSilent
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow. It is informational only and
// does not stop on failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	checkFfmpeg(log)
	if _, err := lookPath("ffprobe"); err != nil {
		log.Warn("ffprobe not found (needed for --verify)")
	} else {
		log.Success("ffprobe found")
	}
	checkH264Encoders(log)

	enc := cfg.Profile.Codec.Encoder
	log.Info("Testing %s...", enc)
	if runQuiet(ffmpeg.TestEncodeArgs(enc)) {
		log.Success("%s works", enc)
	} else {
		log.Error("%s test encode failed", enc)
	}

	if cfg.Source == config.SourceProcess {
		if err := checkRenderer(cfg.RendererCmd); err != nil {
			log.Error("%v", err)
		} else {
			log.Success("Renderer host: %s", cfg.RendererCmd)
		}
	}
	if err := checkScene(cfg); err != nil {
		log.Warn("%v", err)
	} else {
		log.Success("Scene document: %s", sceneInput(cfg))
	}
	log.Info("Profile %q: %d walls, %d pairings", cfg.Profile.Name, len(cfg.Profile.Walls), len(cfg.Profile.Pairings))
}

// checkFfmpeg verifies ffmpeg is on PATH and logs its version string.
func checkFfmpeg(log Logger) {
	if _, err := lookPath(ffmpeg.Binary); err != nil {
		log.Error("ffmpeg not found")
		return
	}
	args := ffmpeg.VersionArgs()
	out, err := exec.Command(args[0], args[1:]...).Output()
	if err != nil {
		log.Warn("ffmpeg found but -version failed: %v", err)
		return
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("ffmpeg: %s", firstLine)
}

// checkH264Encoders lists the H.264 encoders reported by ffmpeg.
func checkH264Encoders(log Logger) {
	log.Info("H.264 encoders:")
	out, err := exec.Command(ffmpeg.Binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	for _, line := range strings.Split(string(out), "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "h264") || strings.Contains(lower, "264") {
			log.Info("  %s", strings.TrimSpace(line))
		}
	}
}

// CheckDeps is the pre-run validation. ffprobe is required only when
// merged durations are verified; the scene document and renderer host only
// for the process source. Every failure is a SetupError wrapping one of
// the sentinels above.
func CheckDeps(cfg *config.Config) error {
	if _, err := lookPath(ffmpeg.Binary); err != nil {
		return failure.Setup(ErrFfmpegNotFound)
	}
	if cfg.VerifyDurations && !cfg.SkipMerge && len(cfg.Profile.Pairings) > 0 {
		if _, err := lookPath("ffprobe"); err != nil {
			return failure.Setup(ErrFfprobeNotFound)
		}
	}
	enc := cfg.Profile.Codec.Encoder
	if !runQuiet(ffmpeg.TestEncodeArgs(enc)) {
		return failure.Setup(fmt.Errorf("%s: %w", enc, ErrEncoderUnusable))
	}
	if cfg.Source != config.SourceProcess {
		return nil
	}
	if err := checkScene(cfg); err != nil {
		return failure.Setup(err)
	}
	if err := checkRenderer(cfg.RendererCmd); err != nil {
		return failure.Setup(err)
	}
	return nil
}

// sceneInput is the file the run needs before rendering: the slim
// document when assembling, otherwise the scene itself.
func sceneInput(cfg *config.Config) string {
	if cfg.Assemble {
		return cfg.Profile.Assets.Slim
	}
	return cfg.Profile.Scene
}

func checkScene(cfg *config.Config) error {
	path := sceneInput(cfg)
	if path == "" {
		return fmt.Errorf("%w: no path configured", ErrSceneNotFound)
	}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrSceneNotFound, path)
	}
	return nil
}

func checkRenderer(command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty command", ErrRendererNotFound)
	}
	if _, err := lookPath(fields[0]); err != nil {
		return fmt.Errorf("%w: %s", ErrRendererNotFound, fields[0])
	}
	return nil
}

// runSilent runs args (args[0] is the binary) and reports a zero exit.
// Both stdout and stderr are discarded.
func runSilent(args []string) bool {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
