package renderer

import (
	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
	"gonum.org/v1/gonum/stat"
)

const (
	// The denoiser window spans (2*denoiseRadius+1)^2 pixels.
	denoiseRadius = 3

	denoiseSpatialSigma float32 = 2.0
	denoiseColorSigma   float32 = 0.5
	denoisePlaneSigma   float32 = 0.1
	denoiseNormalPower  float32 = 32
)

// Denoise a frame by first clamping outliers and then applying an edge
// aware filter guided by the G-buffer. Pixels without a primary hit are
// left untouched and never contribute to their neighbors.
func denoise(sched *scheduler.Scheduler, gb *gBuffer, hdr []types.Vec3, k float32) []types.Vec3 {
	clamped := clampOutliers(sched, gb, hdr, k)
	return filterFrame(sched, gb, clamped)
}

// Clamp each channel of every covered pixel into [mean - k*σ, mean + k*σ]
// where the mean and standard deviation are calculated over the covered
// pixels of the surrounding window. Pixels with fewer than two covered
// neighbors are copied unchanged.
func clampOutliers(sched *scheduler.Scheduler, gb *gBuffer, in []types.Vec3, k float32) []types.Vec3 {
	out := make([]types.Vec3, len(in))
	copy(out, in)

	sched.ParallelFor(func(y int) {
		var window [3][]float64
		for c := range window {
			window[c] = make([]float64, 0, (2*denoiseRadius+1)*(2*denoiseRadius+1))
		}

		for x := 0; x < gb.width; x++ {
			p := y*gb.width + x
			if !gb.covered(p) {
				continue
			}

			for c := range window {
				window[c] = window[c][:0]
			}
			forEachNeighbor(gb, x, y, func(q, _, _ int) {
				for c := range window {
					window[c] = append(window[c], float64(in[q][c]))
				}
			})
			if len(window[0]) < 2 {
				continue
			}

			for c := range window {
				mean, stdDev := stat.MeanStdDev(window[c], nil)
				lo := float32(mean) - k*float32(stdDev)
				hi := float32(mean) + k*float32(stdDev)
				out[p][c] = math32.Min(math32.Max(in[p][c], lo), hi)
			}
		}
	}, gb.height, rowChunkSize)

	return out
}

// Replace each covered pixel with a weighted average over its covered
// neighbors. The weight of each neighbor is the product of a spatial
// gaussian, a color similarity term, a normal similarity term and a
// coplanarity term that penalizes neighbors lying off the tangent plane of
// the center pixel.
func filterFrame(sched *scheduler.Scheduler, gb *gBuffer, in []types.Vec3) []types.Vec3 {
	out := make([]types.Vec3, len(in))
	copy(out, in)

	sched.ParallelFor(func(y int) {
		for x := 0; x < gb.width; x++ {
			p := y*gb.width + x
			if !gb.covered(p) {
				continue
			}

			var sum types.Vec3
			var weightSum float32
			forEachNeighbor(gb, x, y, func(q, dx, dy int) {
				w := filterWeight(gb, in, p, q, dx, dy)
				sum = sum.Add(in[q].Mul(w))
				weightSum += w
			})

			if weightSum > 0 {
				out[p] = sum.Mul(1 / weightSum)
			}
		}
	}, gb.height, rowChunkSize)

	return out
}

func filterWeight(gb *gBuffer, in []types.Vec3, p, q, dx, dy int) float32 {
	spatial := math32.Exp(-float32(dx*dx+dy*dy) / (2 * denoiseSpatialSigma * denoiseSpatialSigma))

	colorDistSq := in[q].Sub(in[p]).LenSq()
	colorSim := math32.Exp(-colorDistSq / (2 * denoiseColorSigma * denoiseColorSigma))

	normalSim := math32.Pow(math32.Max(0, gb.normal[p].Dot(gb.normal[q])), denoiseNormalPower)

	var planeDist float32
	offset := gb.position[q].Sub(gb.position[p])
	if dist := offset.Len(); dist > 0 {
		planeDist = math32.Abs(gb.normal[p].Dot(offset)) / dist
	}
	coplanarity := math32.Exp(-planeDist * planeDist / (2 * denoisePlaneSigma * denoisePlaneSigma))

	return spatial * colorSim * normalSim * coplanarity
}

// Invoke fn for every covered pixel inside the window centered at (x, y),
// including the center pixel itself.
func forEachNeighbor(gb *gBuffer, x, y int, fn func(q, dx, dy int)) {
	for dy := -denoiseRadius; dy <= denoiseRadius; dy++ {
		ny := y + dy
		if ny < 0 || ny >= gb.height {
			continue
		}
		for dx := -denoiseRadius; dx <= denoiseRadius; dx++ {
			nx := x + dx
			if nx < 0 || nx >= gb.width {
				continue
			}
			q := ny*gb.width + nx
			if gb.covered(q) {
				fn(q, dx, dy)
			}
		}
	}
}
