// Package probe inspects finished videos with a single ffprobe JSON call:
// container duration and size, and the primary video stream's geometry,
// frame rate and frame count. The merge stage uses it to verify that wall
// videos and composites have the expected length.
package probe
