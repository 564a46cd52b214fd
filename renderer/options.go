package renderer

import (
	"fmt"

	"github.com/yinxirun/Ray-Tracing-sub001/tracer"
)

type Options struct {
	// Number of samples.
	SamplesPerPixel uint32

	// Russian roulette continuation probability in (0, 1].
	RussianRoulette float32

	// Hard limit for path length.
	MaxDepth uint32

	// Number of sampling tasks per pass. Pixels are striped across tasks.
	// A zero value uses the scheduler concurrency.
	Threads uint32

	// Seed for the per task random number generators.
	Seed int64

	// Exposure for tonemapping.
	Exposure float32

	// Enable the denoiser and set the outlier clamp width in standard
	// deviations.
	Denoise  bool
	DenoiseK float32

	// Write intermediate images after 1, 2, 4, 8... samples. Enabled by
	// default.
	Checkpoints bool

	// Output directory for all generated images. If empty, no images are
	// written.
	OutputDir string

	// Width of an optional downscaled preview of the final frame.
	PreviewWidth uint32
}

// Get the default renderer options.
func DefaultOptions() Options {
	return Options{
		SamplesPerPixel: 16,
		RussianRoulette: 0.8,
		MaxDepth:        tracer.DefaultMaxDepth,
		Seed:            1,
		Exposure:        1.0,
		DenoiseK:        2.0,
		Checkpoints:     true,
		OutputDir:       ".",
	}
}

// Validate options.
func (o *Options) Validate() error {
	if o.SamplesPerPixel == 0 {
		return ErrNoSamples
	}
	if o.RussianRoulette <= 0 || o.RussianRoulette > 1 {
		return fmt.Errorf("renderer: russian roulette probability must be in (0, 1]; got %f", o.RussianRoulette)
	}
	if o.Exposure <= 0 {
		return fmt.Errorf("renderer: exposure must be greater than zero; got %f", o.Exposure)
	}
	if o.Denoise && o.DenoiseK <= 0 {
		return fmt.Errorf("renderer: denoise k must be greater than zero; got %f", o.DenoiseK)
	}
	return nil
}
