package geometry

import (
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// The Primitive interface is implemented by all surfaces that can be stored
// in a bvh.
type Primitive interface {
	// Get the world space bounding box.
	WorldBound() AABB

	// Test the ray for an intersection closer than ray.TMax. On a hit, TMax
	// is updated and si is filled in.
	Intersect(ray *Ray, si *SurfaceInteraction) bool

	// Returns true if the primitive emits light.
	Emissive() bool

	// Get the primitive ID assigned when the scene was flattened.
	ID() int32

	// Query the area light capability of this primitive.
	AsAreaLight() (AreaLight, bool)
}

// The AreaLight interface is implemented by emissive primitives that can be
// sampled for direct lighting.
type AreaLight interface {
	Primitive

	// Get the surface area.
	Area() float32

	// Get the emitted radiance.
	Emission() types.Vec3

	// Get the unit normal of the emitting face.
	Normal() types.Vec3

	// Map two uniform numbers in [0, 1) to a point on the surface.
	SamplePoint(u1, u2 float32) types.Vec3
}

// A transient hit record.
type SurfaceInteraction struct {
	Point       types.Vec3
	Normal      types.Vec3
	Material    *scene.Material
	PrimitiveID int32

	// Parametric distance along the ray.
	Time float32
}
