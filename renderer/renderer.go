package renderer

import (
	"image"
	"math/rand"
	"time"

	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/log"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
	"github.com/yinxirun/Ray-Tracing-sub001/tracer"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// Number of rows handed out per scheduler claim by the per-row passes.
const rowChunkSize = 4

type Renderer interface {
	// Render frame.
	Render() error

	// Release frame buffers.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

// The default renderer runs the following phases in order, each one
// completing before the next one starts: buffer setup, G-buffer pass,
// sampling loop, normalization, optional denoising, tone mapping and image
// output.
type defaultRenderer struct {
	logger log.Logger

	sched  *scheduler.Scheduler
	accel  tracer.Intersector
	camera *scene.Camera
	tracer *tracer.PathTracer
	opts   Options

	width, height int
	threads       int

	gb    *gBuffer
	accum []types.Vec3
	hdr   []types.Vec3
	frame *image.NRGBA

	stats FrameStats
}

// Create a new renderer for the scene represented by accel as seen by the
// camera. A nil scheduler runs all phases on the calling goroutine.
func NewDefault(accel tracer.Intersector, camera *scene.Camera, sched *scheduler.Scheduler, opts Options) (Renderer, error) {
	if accel == nil {
		return nil, ErrNoScene
	}
	if camera == nil {
		return nil, ErrNoCamera
	}
	if camera.Width == 0 || camera.Height == 0 {
		return nil, ErrInvalidFrameSize
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	threads := int(opts.Threads)
	if threads <= 0 {
		threads = sched.Concurrency()
	}

	return &defaultRenderer{
		logger:  log.New("renderer"),
		sched:   sched,
		accel:   accel,
		camera:  camera,
		tracer:  tracer.NewPathTracer(accel, opts.RussianRoulette, int(opts.MaxDepth)),
		opts:    opts,
		width:   int(camera.Width),
		height:  int(camera.Height),
		threads: threads,
	}, nil
}

// Render frame.
func (r *defaultRenderer) Render() error {
	start := time.Now()
	r.stats = FrameStats{
		FrameW:          uint32(r.width),
		FrameH:          uint32(r.height),
		SamplesPerPixel: r.opts.SamplesPerPixel,
		Threads:         r.threads,
	}

	r.logger.Infof("rendering %dx%d frame with %d spp using %d sampling tasks", r.width, r.height, r.opts.SamplesPerPixel, r.threads)
	r.runPhase("setup", r.setup)
	r.runPhase("g-buffer", r.gbufferPass)
	r.runPhase("sampling", r.samplingLoop)
	r.runPhase("finalize", r.finalize)
	if r.opts.Denoise {
		r.runPhase("denoise", func() {
			r.hdr = denoise(r.sched, r.gb, r.hdr, r.opts.DenoiseK)
		})
	}
	r.runPhase("tone map", func() {
		r.frame = toneMapFrame(r.sched, r.hdr, r.width, r.height, r.opts.Exposure)
	})

	var err error
	if r.opts.OutputDir != "" {
		r.runPhase("output", func() {
			err = r.writeOutputs()
		})
	}

	r.stats.RenderTime = time.Since(start)
	return err
}

// Release frame buffers.
func (r *defaultRenderer) Close() {
	r.gb = nil
	r.accum = nil
	r.hdr = nil
	r.frame = nil
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

// Execute a render phase and record its duration.
func (r *defaultRenderer) runPhase(name string, phase func()) {
	start := time.Now()
	phase()
	elapsed := time.Since(start)
	r.stats.Phases = append(r.stats.Phases, PhaseStat{Name: name, Time: elapsed})
	r.logger.Debugf("phase %q completed in %d ms", name, elapsed.Nanoseconds()/1e6)
}

func (r *defaultRenderer) setup() {
	r.gb = newGBuffer(r.width, r.height)
	r.accum = make([]types.Vec3, r.width*r.height)
	r.hdr = nil
	r.frame = nil
}

// Trace one primary ray through each pixel center and record the hit.
func (r *defaultRenderer) gbufferPass() {
	cam := newPinholeCamera(r.camera)
	r.sched.ParallelFor(func(y int) {
		for x := 0; x < r.width; x++ {
			p := y*r.width + x
			ray := cam.primaryRay(x, y)
			si, hit := r.accel.Intersect(&ray)
			if !hit {
				continue
			}

			r.gb.triangleID[p] = si.PrimitiveID
			r.gb.normal[p] = si.Normal
			r.gb.position[p] = si.Point
			r.gb.material[p] = si.Material
			r.gb.viewDir[p] = ray.Direction.Neg()
		}
	}, r.height, rowChunkSize)

	for p := range r.gb.triangleID {
		if r.gb.covered(p) {
			r.stats.CoveredPixels++
		}
	}
}

// Accumulate one path sample per covered pixel and pass. Pixels are striped
// across sampling tasks so that each task writes a disjoint pixel set.
func (r *defaultRenderer) samplingLoop() {
	numPixels := r.width * r.height
	spp := int(r.opts.SamplesPerPixel)

	for s := 0; s < spp; s++ {
		r.sched.ParallelFor(func(task int) {
			rng := rand.New(rand.NewSource(sampleSeed(r.opts.Seed, s, task)))
			for p := task; p < numPixels; p += r.threads {
				if !r.gb.covered(p) {
					continue
				}

				si := r.gb.interaction(p)
				radiance := r.tracer.Shade(&si, r.gb.viewDir[p], rng)
				if !finite(radiance) {
					continue
				}
				r.accum[p] = r.accum[p].Add(radiance)
			}
		}, r.threads, 1)

		if r.opts.Checkpoints && s&(s+1) == 0 {
			r.writeCheckpoint(s + 1)
		}
	}
}

// Normalize the accumulated radiance by the sample count.
func (r *defaultRenderer) finalize() {
	r.hdr = normalize(r.accum, int(r.opts.SamplesPerPixel))
}

func normalize(accum []types.Vec3, samples int) []types.Vec3 {
	out := make([]types.Vec3, len(accum))
	scale := 1 / float32(samples)
	for p, c := range accum {
		out[p] = c.Mul(scale)
	}
	return out
}

// Derive a per-task seed so that frames are reproducible regardless of how
// tasks are scheduled.
func sampleSeed(seed int64, sample, task int) int64 {
	h := mix64(uint64(seed) ^ uint64(sample)*0x9e3779b97f4a7c15)
	h = mix64(h ^ uint64(task)*0xbf58476d1ce4e5b9)
	return int64(h)
}

// The splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return z
}

func finite(v types.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
