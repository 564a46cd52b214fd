package renderer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// Create a G-buffer for a flat surface facing +Z. The pixels listed in
// missing are marked as uncovered.
func flatGBuffer(width, height int, missing ...int) *gBuffer {
	gb := newGBuffer(width, height)
	for p := range gb.triangleID {
		gb.triangleID[p] = 0
		gb.normal[p] = types.Vec3{0, 0, 1}
		gb.position[p] = types.Vec3{float32(p % width), float32(p / width), 0}
	}
	for _, p := range missing {
		gb.triangleID[p] = missID
	}
	return gb
}

func constantFrame(n int, c types.Vec3) []types.Vec3 {
	frame := make([]types.Vec3, n)
	for p := range frame {
		frame[p] = c
	}
	return frame
}

func TestClampOutliers(t *testing.T) {
	const width, height = 9, 9
	gb := flatGBuffer(width, height)

	frame := constantFrame(width*height, types.Vec3{1, 1, 1})
	// Add mild noise so the window has a non-zero deviation
	for p := range frame {
		if p%2 == 0 {
			frame[p] = types.Vec3{1.1, 1.1, 1.1}
		}
	}
	center := 4*width + 4
	frame[center] = types.Vec3{50, 1, 1}

	out := clampOutliers(nil, gb, frame, 2)
	if out[center][0] >= frame[center][0] {
		t.Fatalf("expected outlier to be clamped; got %f", out[center][0])
	}
	if out[center][0] > 50 || out[center][0] < 1 {
		t.Fatalf("expected clamped value to stay within the window range; got %f", out[center][0])
	}
	if math32.Abs(out[center][1]-1) > 0.1 {
		t.Fatalf("expected unaffected channel to stay close to 1; got %f", out[center][1])
	}

	// The input frame is not modified
	if frame[center][0] != 50 {
		t.Fatal("expected input frame to be left untouched")
	}
}

func TestClampOutliersSkipsSparseWindows(t *testing.T) {
	const width, height = 3, 3

	// Only the center pixel is covered
	var missing []int
	for p := 0; p < width*height; p++ {
		if p != 4 {
			missing = append(missing, p)
		}
	}
	gb := flatGBuffer(width, height, missing...)

	frame := constantFrame(width*height, types.Vec3{})
	frame[4] = types.Vec3{100, 100, 100}

	out := clampOutliers(nil, gb, frame, 2)
	if out[4] != frame[4] {
		t.Fatalf("expected pixel without covered neighbors to be unchanged; got %v", out[4])
	}
}

func TestFilterPreservesConstantFrames(t *testing.T) {
	const width, height = 12, 10
	gb := flatGBuffer(width, height, 0, 5, 17)

	c := types.Vec3{0.25, 0.5, 2}
	frame := constantFrame(width*height, c)
	frame[0] = types.Vec3{9, 9, 9}

	sched := scheduler.New(3)
	sched.Init()
	defer sched.Shutdown()

	out := denoise(sched, gb, frame, 2)
	for p := range out {
		if !gb.covered(p) {
			if out[p] != frame[p] {
				t.Fatalf("expected uncovered pixel %d to be unchanged; got %v", p, out[p])
			}
			continue
		}
		for ch := 0; ch < 3; ch++ {
			if math32.Abs(out[p][ch]-c[ch]) > 1e-4 {
				t.Fatalf("expected pixel %d channel %d to stay %f; got %f", p, ch, c[ch], out[p][ch])
			}
		}
	}
}

func TestFilterRespectsNormalEdges(t *testing.T) {
	const width, height = 8, 8
	gb := flatGBuffer(width, height)

	// The right half faces a different direction and is much brighter
	frame := constantFrame(width*height, types.Vec3{1, 1, 1})
	for p := range frame {
		if p%width >= width/2 {
			gb.normal[p] = types.Vec3{1, 0, 0}
			frame[p] = types.Vec3{4, 4, 4}
		}
	}

	out := filterFrame(nil, gb, frame)
	for p := range out {
		exp := frame[p]
		if math32.Abs(out[p][0]-exp[0]) > 1e-3 {
			t.Fatalf("expected pixel %d to keep its value %f across the edge; got %f", p, exp[0], out[p][0])
		}
	}
}

func TestFilterSmoothsNoise(t *testing.T) {
	const width, height = 16, 16
	gb := flatGBuffer(width, height)

	frame := constantFrame(width*height, types.Vec3{1, 1, 1})
	for p := range frame {
		if (p/width+p%width)%2 == 0 {
			frame[p] = types.Vec3{1.2, 1.2, 1.2}
		}
	}

	variance := func(f []types.Vec3) float32 {
		var mean, sq float32
		for _, c := range f {
			mean += c[0]
		}
		mean /= float32(len(f))
		for _, c := range f {
			sq += (c[0] - mean) * (c[0] - mean)
		}
		return sq / float32(len(f))
	}

	out := filterFrame(nil, gb, frame)
	if variance(out) >= variance(frame) {
		t.Fatalf("expected filtering to reduce variance; got %f >= %f", variance(out), variance(frame))
	}
}
