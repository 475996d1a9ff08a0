package probe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatInfo is the container-level information.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64 // seconds
	Size       int64
	BitRate    int64
}

// VideoStream is one video stream.
type VideoStream struct {
	Index        int
	Codec        string
	PixFmt       string
	Width        int
	Height       int
	AvgFrameRate string // rational, e.g. "30/1"
	NbFrames     int64  // 0 when the container does not record it
	Duration     float64
}

// ProbeResult is the parsed ffprobe output for one file.
type ProbeResult struct {
	Format       FormatInfo
	PrimaryVideo *VideoStream
}

// Resolution returns "WxH" or "unknown".
func (r *ProbeResult) Resolution() string {
	if r.PrimaryVideo == nil || r.PrimaryVideo.Width <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", r.PrimaryVideo.Width, r.PrimaryVideo.Height)
}

// FrameRate parses the primary stream's average frame rate; 0 when unknown.
func (r *ProbeResult) FrameRate() float64 {
	if r.PrimaryVideo == nil {
		return 0
	}
	return parseRational(r.PrimaryVideo.AvgFrameRate)
}

// Duration prefers the video stream duration over the container's.
func (r *ProbeResult) Duration() float64 {
	if r.PrimaryVideo != nil && r.PrimaryVideo.Duration > 0 {
		return r.PrimaryVideo.Duration
	}
	return r.Format.Duration
}

// FrameCount returns the recorded frame count, or duration × frame rate
// rounded when the container does not record one.
func (r *ProbeResult) FrameCount() int64 {
	if r.PrimaryVideo == nil {
		return 0
	}
	if r.PrimaryVideo.NbFrames > 0 {
		return r.PrimaryVideo.NbFrames
	}
	return int64(math.Round(r.Duration() * r.FrameRate()))
}

func parseRational(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return parseFloat(num)
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
