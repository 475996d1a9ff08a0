// Package pipeline drives one render run end to end: it starts a wall
// encoder per wall, produces every output frame by advancing the scene and
// capturing each wall, feeds the encoders with backpressure, finalizes
// them and hands the finished walls to the merge stage.
//
// A single goroutine produces frames. It suspends while the scene advances
// or captures and while any encoder's queue is full. Any render, capture or
// encode failure aborts the run: encoders are terminated with a bounded
// grace, partial wall videos are removed and nothing is merged.
package pipeline
