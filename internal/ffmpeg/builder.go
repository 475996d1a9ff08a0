package ffmpeg

import (
	"strconv"

	"github.com/backmassage/wallrender/internal/config"
)

// Binary is the ffmpeg executable name resolved on PATH.
const Binary = "ffmpeg"

// preamble returns the shared leading arguments. Loglevel is info when
// verbose, otherwise error, so the captured stderr stays short.
func preamble(verbose bool) []string {
	args := make([]string, 0, 32)
	args = append(args, Binary, "-hide_banner", "-y")
	if verbose {
		return append(args, "-loglevel", "info")
	}
	return append(args, "-loglevel", "error")
}

// appendVideoCodec adds the x264 encode section shared by walls and merges.
func appendVideoCodec(args []string, codec config.Codec, preset string) []string {
	return append(args,
		"-c:v", codec.Encoder,
		"-crf", strconv.Itoa(codec.CRF),
		"-preset", preset,
		"-pix_fmt", codec.PixFmt,
		"-movflags", "+faststart",
	)
}

// WallArgs builds the command for one wall encoder: a JPEG image stream on
// stdin at fps, encoded to outPath. -nostdin is deliberately absent.
func WallArgs(codec config.Codec, fps int, outPath string, verbose bool) []string {
	args := preamble(verbose)
	args = append(args,
		"-f", "image2pipe",
		"-framerate", strconv.Itoa(fps),
		"-i", "pipe:0",
	)
	args = appendVideoCodec(args, codec, codec.WallPreset)
	return append(args, outPath)
}

// MergeArgs builds the side-by-side merge of two finished wall videos.
// left occupies the left part of the output; heights must match.
func MergeArgs(codec config.Codec, left, right, outPath string, verbose bool) []string {
	args := preamble(verbose)
	args = append(args,
		"-nostdin",
		"-i", left,
		"-i", right,
		"-filter_complex", "[0:v][1:v]hstack=inputs=2[out]",
		"-map", "[out]",
	)
	args = appendVideoCodec(args, codec, codec.MergePreset)
	return append(args, outPath)
}

// VersionArgs is the preflight invocation.
func VersionArgs() []string {
	return []string{Binary, "-version"}
}

// TestEncodeArgs returns a minimal lavfi encode with the given encoder,
// used to verify it is usable before a run.
func TestEncodeArgs(encoder string) []string {
	return []string{
		Binary, "-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", encoder,
		"-pix_fmt", "yuv420p",
		"-f", "null", "-",
	}
}
