package tracer

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/geometry"
	"github.com/yinxirun/Ray-Tracing-sub001/log"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

const (
	// The default hard limit for path length. Russian roulette normally
	// terminates paths long before this is reached.
	DefaultMaxDepth = 16

	// Spawned rays are offset along the surface normal by this amount to
	// avoid re-intersecting the surface they leave.
	rayEpsilon float32 = 1e-4
)

// The Intersector interface is implemented by acceleration structures that
// the tracer can query.
type Intersector interface {
	// Find the closest hit along the ray.
	Intersect(ray *geometry.Ray) (geometry.SurfaceInteraction, bool)

	// Get all emissive primitives.
	GetAllLights() []geometry.Primitive
}

// PathTracer estimates radiance with a recursive unidirectional path tracer
// that samples every light at each vertex and terminates paths with russian
// roulette. A PathTracer is immutable and may be shared by goroutines as
// long as each goroutine uses its own random number generator.
type PathTracer struct {
	logger log.Logger

	scene  Intersector
	lights []geometry.AreaLight

	// Probability of continuing a path after each vertex.
	rr float32

	// Hard path length limit.
	maxDepth int
}

// Create a new path tracer. The rr param is the russian roulette
// continuation probability and is clamped to (0, 1]. A maxDepth value <= 0
// selects DefaultMaxDepth.
func NewPathTracer(sc Intersector, rr float32, maxDepth int) *PathTracer {
	if rr <= 0 || rr > 1 {
		rr = 1
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	pt := &PathTracer{
		logger:   log.New("path tracer"),
		scene:    sc,
		rr:       rr,
		maxDepth: maxDepth,
	}

	for _, prim := range sc.GetAllLights() {
		if light, ok := prim.AsAreaLight(); ok {
			pt.lights = append(pt.lights, light)
		}
	}
	pt.logger.Debugf("tracing with %d area lights, rr: %.2f, max depth: %d", len(pt.lights), rr, maxDepth)
	return pt
}

// Get the area lights sampled by the tracer.
func (pt *PathTracer) Lights() []geometry.AreaLight {
	return pt.lights
}

// Shade estimates the radiance leaving the surface point described by si
// towards direction wo (pointing away from the surface).
func (pt *PathTracer) Shade(si *geometry.SurfaceInteraction, wo types.Vec3, rng *rand.Rand) types.Vec3 {
	return pt.shade(si, wo, rng, 0)
}

func (pt *PathTracer) shade(si *geometry.SurfaceInteraction, wo types.Vec3, rng *rand.Rand, depth int) types.Vec3 {
	mat := si.Material
	if mat == nil {
		return types.Vec3{}
	}
	if mat.IsEmissive() {
		return mat.Emission
	}

	normal := FaceForward(si.Normal, wo)
	direct := pt.DirectLight(si.Point, normal, mat, rng)

	if depth+1 >= pt.maxDepth {
		return direct
	}

	// Russian roulette
	if rng.Float32() > pt.rr {
		return direct
	}

	u1, u2 := rng.Float32(), rng.Float32()
	var wi types.Vec3
	var pdf float32
	if mat.Type == scene.DiffuseMaterial {
		wi, pdf = CosineSampleHemisphere(normal, u1, u2)
	} else {
		wi, pdf = UniformSampleHemisphere(normal, u1, u2)
	}

	cosTheta := wi.Dot(normal)
	if cosTheta <= 0 || pdf <= 0 {
		return direct
	}

	ray := geometry.NewRay(si.Point.Add(normal.Mul(rayEpsilon)), wi)
	next, hit := pt.scene.Intersect(&ray)

	// Emitters are accounted for by direct lighting
	if !hit || next.Material == nil || next.Material.IsEmissive() {
		return direct
	}

	li := pt.shade(&next, wi.Neg(), rng, depth+1)
	weight := BRDF(mat).Mul(cosTheta / pdf / pt.rr)
	return direct.Add(li.MulVec(weight))
}

// DirectLight estimates the radiance reflected at point due to each area
// light by sampling a single point on each light. Lights only emit from
// their front face. A light sample counts only if the shadow ray reaches
// the sampled light before any other primitive.
//
// Each light consumes two random numbers from rng in list order.
func (pt *PathTracer) DirectLight(point, normal types.Vec3, mat *scene.Material, rng *rand.Rand) types.Vec3 {
	var radiance types.Vec3
	brdf := BRDF(mat)
	origin := point.Add(normal.Mul(rayEpsilon))

	for _, light := range pt.lights {
		lightPoint := light.SamplePoint(rng.Float32(), rng.Float32())

		toLight := lightPoint.Sub(point)
		distSq := toLight.LenSq()
		if distSq <= 0 {
			continue
		}
		wi := toLight.Mul(1 / math32.Sqrt(distSq))

		cosSurface := normal.Dot(wi)
		if cosSurface <= 0 {
			continue
		}
		cosLight := light.Normal().Dot(wi.Neg())
		if cosLight <= 0 {
			continue
		}

		shadowRay := geometry.NewRay(origin, wi)
		occluder, hit := pt.scene.Intersect(&shadowRay)
		if !hit || occluder.PrimitiveID != light.ID() {
			continue
		}

		radiance = radiance.Add(
			light.Emission().MulVec(brdf).Mul(cosSurface * cosLight * light.Area() / distSq),
		)
	}

	return radiance
}
