package renderer

import "time"

type PhaseStat struct {
	// The phase name.
	Name string

	// Time spent in this phase.
	Time time.Duration
}

type FrameStats struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Samples taken per pixel.
	SamplesPerPixel uint32

	// Number of sampling tasks per pass.
	Threads int

	// Pixels whose primary ray hit the scene.
	CoveredPixels int

	// Number of checkpoints that were written.
	Checkpoints int

	// Individual phase stats in execution order.
	Phases []PhaseStat

	// Total render time for entire frame.
	RenderTime time.Duration
}
