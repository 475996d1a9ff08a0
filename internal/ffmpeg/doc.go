// Package ffmpeg builds the ffmpeg command lines used by the wall encoders,
// the merge stage and the preflight checks, and runs one-shot invocations
// with bounded stderr capture.
//
// Wall encodes read JPEG frames from stdin (image2pipe) and are long-lived;
// they are started by the encoder package from [WallArgs]. Merges and test
// encodes are one-shot and go through [Execute].
package ffmpeg
