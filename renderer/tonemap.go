package renderer

import (
	"image"
	"image/color"

	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// Filmic curve coefficients.
const (
	filmicA float32 = 2.51
	filmicB float32 = 0.03
	filmicC float32 = 2.43
	filmicD float32 = 0.59
	filmicE float32 = 0.14

	// Linear radiance is pre-scaled by this factor before applying the curve.
	filmicPreScale float32 = 1.3
)

// ToneMap converts a linear radiance value into an 8-bit display value
// using the filmic curve x(Ax+B) / (x(Cx+D)+E). The result is monotonically
// non-decreasing in x. Negative and NaN inputs map to 0 and +Inf maps to 255.
func ToneMap(x, exposure float32) uint8 {
	x *= filmicPreScale * exposure
	if !(x > 0) {
		return 0
	}

	y := x * (filmicA*x + filmicB) / (x*(filmicC*x+filmicD) + filmicE)
	v := y * 255
	if !(v < 255) {
		return 255
	}
	return uint8(v)
}

// Tonemap an HDR frame into an 8-bit RGB image. Rows are processed in
// parallel.
func toneMapFrame(sched *scheduler.Scheduler, hdr []types.Vec3, width, height int, exposure float32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	sched.ParallelFor(func(y int) {
		for x := 0; x < width; x++ {
			c := hdr[y*width+x]
			img.SetNRGBA(x, y, color.NRGBA{
				R: ToneMap(c[0], exposure),
				G: ToneMap(c[1], exposure),
				B: ToneMap(c[2], exposure),
				A: 255,
			})
		}
	}, height, rowChunkSize)
	return img
}
