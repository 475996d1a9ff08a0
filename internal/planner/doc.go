// Package planner turns a validated configuration into the immutable plan
// of one run: the run ID, the time-mapping strategy and frame count, one
// output path per wall and one merge per pairing.
//
// Output layout (suffix is "" for full runs, "_preview" or "_loopcheck"):
//
//	<out>/wall_<name><suffix>.mp4
//	<out>/<prefix>_<position><suffix>.mp4
package planner
