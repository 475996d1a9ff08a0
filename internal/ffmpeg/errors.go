package ffmpeg

import (
	"regexp"
	"strings"
)

// Pre-compiled regexes for classifying ffmpeg stderr. [Hint] checks them in
// order; the first match supplies a short operator-facing explanation.
var (
	reEncoderMissing = regexp.MustCompile(
		`(?i)Unknown encoder|Encoder .* not found|Requested encoder .* not available`)

	reBadFrame = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`mjpeg.*(error|invalid)|` +
			`Could not find codec parameters`)

	reHeightMismatch = regexp.MustCompile(
		`(?i)Input \d+ height \d+ does not match input \d+ height \d+`)

	reNoSpace = regexp.MustCompile(
		`(?i)No space left on device`)

	reOddDimensions = regexp.MustCompile(
		`(?i)(width|height) not divisible by 2`)
)

// Hint returns a short explanation for a known ffmpeg failure, or "".
func Hint(stderr string) string {
	switch {
	case reEncoderMissing.MatchString(stderr):
		return "encoder not available in this ffmpeg build"
	case reHeightMismatch.MatchString(stderr):
		return "merge inputs have different heights"
	case reOddDimensions.MatchString(stderr):
		return "frame dimensions must be even for yuv420p"
	case reNoSpace.MatchString(stderr):
		return "output disk is full"
	case reBadFrame.MatchString(stderr):
		return "frame data was not a decodable image"
	}
	return ""
}

// LastLines returns up to n trailing non-empty lines of stderr.
func LastLines(stderr string, n int) []string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
