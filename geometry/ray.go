package geometry

import (
	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// A ray with a mutable upper bound. Intersection routines shrink TMax
// whenever a closer hit is found.
type Ray struct {
	Origin    types.Vec3
	Direction types.Vec3
	TMax      float32
}

// Create a ray with an unbounded TMax.
func NewRay(origin, direction types.Vec3) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction,
		TMax:      math32.Inf(1),
	}
}

// Get the point along the ray at distance t.
func (r *Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Get the reciprocal direction and per-axis sign flags used by slab tests.
func (r *Ray) InvDirection() (invDir types.Vec3, dirIsNeg [3]int) {
	for axis := 0; axis < 3; axis++ {
		invDir[axis] = 1.0 / r.Direction[axis]
		if invDir[axis] < 0 {
			dirIsNeg[axis] = 1
		}
	}
	return invDir, dirIsNeg
}
