package renderer

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/yinxirun/Ray-Tracing-sub001/asset/imageio"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
	"golang.org/x/sync/errgroup"
)

// A single image file written by the output stage.
type outputWrite struct {
	path  string
	write func(path string) error
}

func pngWrite(path string, img image.Image) outputWrite {
	return outputWrite{path: path, write: func(path string) error {
		return imageio.WritePNG(path, img)
	}}
}

func (r *defaultRenderer) exrWrite(path string, hdr []types.Vec3) outputWrite {
	return outputWrite{path: path, write: func(path string) error {
		return imageio.WriteEXR(path, r.width, r.height, hdr)
	}}
}

// Run writes concurrently and log every failure once they all complete.
// Returns the number of failed writes.
func (r *defaultRenderer) writeOptional(writes []outputWrite) int {
	errs := make([]error, len(writes))

	var g errgroup.Group
	for i, w := range writes {
		g.Go(func() error {
			errs[i] = w.write(w.path)
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return 0
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			r.logger.Warningf("%v", err)
			failed++
		}
	}
	return failed
}

// Write the debug visualizations and the final frame. All files are written
// concurrently. Failures to write anything but the final LDR frame are
// logged and do not fail the render.
func (r *defaultRenderer) writeOutputs() error {
	dir := r.opts.OutputDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "renderer: could not create output dir %s", dir)
	}

	finalPath := filepath.Join(dir, "final.png")
	var final errgroup.Group
	final.Go(func() error {
		return imageio.WritePNG(finalPath, r.frame)
	})

	optional := []outputWrite{
		pngWrite(filepath.Join(dir, "normal.png"), normalImage(r.gb)),
		pngWrite(filepath.Join(dir, "position.png"), positionImage(r.gb)),
		pngWrite(filepath.Join(dir, "triangle_id.png"), triangleIDImage(r.gb)),
		r.exrWrite(filepath.Join(dir, "final.exr"), r.hdr),
	}
	if r.opts.PreviewWidth > 0 {
		preview := imageio.Preview(r.frame, uint(r.opts.PreviewWidth))
		optional = append(optional, pngWrite(filepath.Join(dir, "preview.png"), preview))
	}
	if failed := r.writeOptional(optional); failed > 0 {
		r.logger.Warningf("%d of %d optional images could not be written", failed, len(optional))
	}

	if err := final.Wait(); err != nil {
		return err
	}
	r.logger.Noticef("wrote frame to %s", finalPath)
	return nil
}

// Tonemap the running sum after the given number of samples and write it
// out as an LDR and an HDR image. Only complete checkpoints are counted.
func (r *defaultRenderer) writeCheckpoint(samples int) {
	if r.opts.OutputDir == "" {
		return
	}
	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		r.logger.Warningf("skipping checkpoint after %d samples: %v", samples, err)
		return
	}

	hdr := normalize(r.accum, samples)
	ldr := toneMapFrame(r.sched, hdr, r.width, r.height, r.opts.Exposure)
	base := filepath.Join(r.opts.OutputDir, fmt.Sprintf("checkpoint_%04d", samples))

	failed := r.writeOptional([]outputWrite{
		pngWrite(base+".png", ldr),
		r.exrWrite(base+".exr", hdr),
	})
	if failed > 0 {
		r.logger.Warningf("checkpoint after %d samples is incomplete", samples)
		return
	}

	r.stats.Checkpoints++
	r.logger.Infof("wrote checkpoint after %d samples", samples)
}
