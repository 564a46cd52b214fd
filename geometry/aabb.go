package geometry

import (
	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// Axis identifiers used by AABB.MaximumExtent and the bvh builder.
const (
	XAxis = iota
	YAxis
	ZAxis
)

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// EmptyAABB returns a box that acts as the identity element for Union.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: types.Vec3{inf, inf, inf},
		Max: types.Vec3{-inf, -inf, -inf},
	}
}

// NewAABB creates the smallest box containing both points.
func NewAABB(p0, p1 types.Vec3) AABB {
	return AABB{Min: types.MinVec3(p0, p1), Max: types.MaxVec3(p0, p1)}
}

// IsEmpty returns true if min > max along any axis.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Union returns a box that bounds both this box and another.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: types.MinVec3(b.Min, other.Min),
		Max: types.MaxVec3(b.Max, other.Max),
	}
}

// UnionPoint returns a box that bounds both this box and p.
func (b AABB) UnionPoint(p types.Vec3) AABB {
	return AABB{
		Min: types.MinVec3(b.Min, p),
		Max: types.MaxVec3(b.Max, p),
	}
}

// Centroid returns the center point of the box.
func (b AABB) Centroid() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Diagonal returns the extent of the box along each axis.
func (b AABB) Diagonal() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// SurfaceArea returns the surface area of the box; empty boxes have no area.
func (b AABB) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Diagonal()
	return 2.0 * (d[0]*d[1] + d[0]*d[2] + d[1]*d[2])
}

// MaximumExtent returns the axis along which the box is widest. Ties
// resolve towards the lower axis index.
func (b AABB) MaximumExtent() int {
	d := b.Diagonal()
	if d[0] > d[1] && d[0] > d[2] {
		return XAxis
	} else if d[1] > d[2] {
		return YAxis
	}
	return ZAxis
}

// Offset returns the position of p relative to the box corners, 0 at Min
// and 1 at Max. Axes along which the box is flat report 0.
func (b AABB) Offset(p types.Vec3) types.Vec3 {
	o := p.Sub(b.Min)
	for axis := 0; axis < 3; axis++ {
		if b.Max[axis] > b.Min[axis] {
			o[axis] /= b.Max[axis] - b.Min[axis]
		} else {
			o[axis] = 0
		}
	}
	return o
}

// IntersectP tests the ray against the box using the slab method. invDir
// and dirIsNeg are precomputed per ray. Only the [0, ray.TMax] interval is
// considered.
func (b AABB) IntersectP(ray *Ray, invDir types.Vec3, dirIsNeg [3]int) bool {
	bounds := [2]types.Vec3{b.Min, b.Max}

	tMin := (bounds[dirIsNeg[0]][0] - ray.Origin[0]) * invDir[0]
	tMax := (bounds[1-dirIsNeg[0]][0] - ray.Origin[0]) * invDir[0]
	tyMin := (bounds[dirIsNeg[1]][1] - ray.Origin[1]) * invDir[1]
	tyMax := (bounds[1-dirIsNeg[1]][1] - ray.Origin[1]) * invDir[1]

	// Pad the far distances to stay conservative under rounding
	tMax *= 1 + 2*gamma3
	tyMax *= 1 + 2*gamma3
	if tMin > tyMax || tyMin > tMax {
		return false
	}
	if tyMin > tMin {
		tMin = tyMin
	}
	if tyMax < tMax {
		tMax = tyMax
	}

	tzMin := (bounds[dirIsNeg[2]][2] - ray.Origin[2]) * invDir[2]
	tzMax := (bounds[1-dirIsNeg[2]][2] - ray.Origin[2]) * invDir[2]
	tzMax *= 1 + 2*gamma3
	if tMin > tzMax || tzMin > tMax {
		return false
	}
	if tzMin > tMin {
		tMin = tzMin
	}
	if tzMax < tMax {
		tMax = tzMax
	}
	return tMin < ray.TMax && tMax > 0
}

// Conservative rounding bound for three chained float32 operations.
const gamma3 = 3 * 0x1p-24 / (1 - 3*0x1p-24)
