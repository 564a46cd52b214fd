package renderer

import (
	"image"
	"image/color"

	"github.com/yinxirun/Ray-Tracing-sub001/geometry"
)

// Visualize G-buffer normals by mapping each component from [-1, 1] to
// [0, 255]. Uncovered pixels are black.
func normalImage(gb *gBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, gb.width, gb.height))
	for p := range gb.normal {
		if !gb.covered(p) {
			img.SetNRGBA(p%gb.width, p/gb.width, color.NRGBA{A: 255})
			continue
		}
		n := gb.normal[p]
		img.SetNRGBA(p%gb.width, p/gb.width, color.NRGBA{
			R: unitToByte(0.5*n[0] + 0.5),
			G: unitToByte(0.5*n[1] + 0.5),
			B: unitToByte(0.5*n[2] + 0.5),
			A: 255,
		})
	}
	return img
}

// Visualize G-buffer positions relative to the bounds of all covered
// positions. Uncovered pixels are black.
func positionImage(gb *gBuffer) *image.NRGBA {
	bounds := geometry.EmptyAABB()
	for p, pos := range gb.position {
		if gb.covered(p) {
			bounds = bounds.UnionPoint(pos)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, gb.width, gb.height))
	for p, pos := range gb.position {
		if !gb.covered(p) {
			img.SetNRGBA(p%gb.width, p/gb.width, color.NRGBA{A: 255})
			continue
		}
		o := bounds.Offset(pos)
		img.SetNRGBA(p%gb.width, p/gb.width, color.NRGBA{
			R: unitToByte(o[0]),
			G: unitToByte(o[1]),
			B: unitToByte(o[2]),
			A: 255,
		})
	}
	return img
}

// Visualize triangle IDs by hashing each ID to a color. Uncovered pixels
// are black.
func triangleIDImage(gb *gBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, gb.width, gb.height))
	for p, id := range gb.triangleID {
		if id == missID {
			img.SetNRGBA(p%gb.width, p/gb.width, color.NRGBA{A: 255})
			continue
		}
		h := uint32(id)*2654435761 + 0x9e3779b9
		img.SetNRGBA(p%gb.width, p/gb.width, color.NRGBA{
			R: uint8(h >> 24),
			G: uint8(h >> 16),
			B: uint8(h >> 8),
			A: 255,
		})
	}
	return img
}

func unitToByte(v float32) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v * 255)
}
