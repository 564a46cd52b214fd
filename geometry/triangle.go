package geometry

import (
	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

const (
	// Rays whose direction is closer than this to the triangle plane are
	// treated as parallel to it.
	parallelEpsilon float32 = 1e-10

	// Hits closer than this distance to the ray origin are ignored.
	MinHitDistance float32 = 1e-5
)

// Triangle borrows its vertices and material from the scene it was created
// from. It never copies or owns them.
type Triangle struct {
	V        [3]*types.Vec3
	Material *scene.Material

	normal types.Vec3
	id     int32
}

// Create a new triangle. Vertices are expected in counter-clockwise order
// when looking at the front face.
func NewTriangle(v0, v1, v2 *types.Vec3, material *scene.Material, id int32) *Triangle {
	t := &Triangle{
		V:        [3]*types.Vec3{v0, v1, v2},
		Material: material,
		id:       id,
	}

	e1 := v1.Sub(*v0)
	e2 := v2.Sub(*v0)
	t.normal = e1.Cross(e2).Normalize()
	return t
}

func (t *Triangle) ID() int32 {
	return t.id
}

// Get the unit face normal.
func (t *Triangle) Normal() types.Vec3 {
	return t.normal
}

func (t *Triangle) WorldBound() AABB {
	return AABB{
		Min: types.MinVec3(*t.V[0], types.MinVec3(*t.V[1], *t.V[2])),
		Max: types.MaxVec3(*t.V[0], types.MaxVec3(*t.V[1], *t.V[2])),
	}
}

// Intersect implements the Möller-Trumbore test.
func (t *Triangle) Intersect(ray *Ray, si *SurfaceInteraction) bool {
	edge1 := t.V[1].Sub(*t.V[0])
	edge2 := t.V[2].Sub(*t.V[0])

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if det > -parallelEpsilon && det < parallelEpsilon {
		return false
	}

	f := 1.0 / det
	s := ray.Origin.Sub(*t.V[0])
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return false
	}

	dist := f * edge2.Dot(q)
	if dist < MinHitDistance || dist >= ray.TMax {
		return false
	}

	ray.TMax = dist
	si.Point = ray.At(dist)
	si.Normal = t.normal
	si.Material = t.Material
	si.PrimitiveID = t.id
	si.Time = dist
	return true
}

func (t *Triangle) Emissive() bool {
	return t.Material != nil && t.Material.IsEmissive()
}

func (t *Triangle) AsAreaLight() (AreaLight, bool) {
	if !t.Emissive() {
		return nil, false
	}
	return t, true
}

// Get the triangle area.
func (t *Triangle) Area() float32 {
	return 0.5 * t.V[1].Sub(*t.V[0]).Cross(t.V[2].Sub(*t.V[0])).Len()
}

// Get the emitted radiance. Non-emissive triangles emit nothing.
func (t *Triangle) Emission() types.Vec3 {
	if !t.Emissive() {
		return types.Vec3{}
	}
	return t.Material.Emission
}

// Map two uniform numbers to a point on the triangle using the square-root
// parameterization so that points are uniformly distributed by area.
func (t *Triangle) SamplePoint(u1, u2 float32) types.Vec3 {
	su := math32.Sqrt(u1)
	b0 := 1 - su
	b1 := u2 * su
	b2 := 1 - b0 - b1
	return t.V[0].Mul(b0).Add(t.V[1].Mul(b1)).Add(t.V[2].Mul(b2))
}
