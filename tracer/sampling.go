package tracer

import (
	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// BRDF returns the lambertian reflectance albedo/π. It is used for every
// non-emissive material type.
func BRDF(mat *scene.Material) types.Vec3 {
	return mat.Albedo.Mul(1 / math32.Pi)
}

// FaceForward flips n so that it lies in the same hemisphere as v.
func FaceForward(n, v types.Vec3) types.Vec3 {
	if n.Dot(v) < 0 {
		return n.Neg()
	}
	return n
}

// OrthonormalBasis builds two unit tangents that together with the unit
// normal n form a right-handed frame. The reference axis switches from X to
// Y when n is close to the X axis.
func OrthonormalBasis(n types.Vec3) (tangent, bitangent types.Vec3) {
	ref := types.Vec3{1, 0, 0}
	if math32.Abs(n[0]) > 0.9 {
		ref = types.Vec3{0, 1, 0}
	}
	tangent = ref.Cross(n).Normalize()
	bitangent = n.Cross(tangent)
	return tangent, bitangent
}

// CosineSampleHemisphere maps two uniform numbers to a direction in the
// hemisphere around n with a density proportional to the cosine of the
// angle to n. Returns the direction and its pdf.
func CosineSampleHemisphere(n types.Vec3, u1, u2 float32) (types.Vec3, float32) {
	phi := 2 * math32.Pi * u1
	r := math32.Sqrt(u2)
	x := r * math32.Cos(phi)
	y := r * math32.Sin(phi)
	z := math32.Sqrt(math32.Max(0, 1-u2))

	tangent, bitangent := OrthonormalBasis(n)
	dir := tangent.Mul(x).Add(bitangent.Mul(y)).Add(n.Mul(z))
	return dir, z / math32.Pi
}

// UniformSampleHemisphere maps two uniform numbers to a uniformly
// distributed direction in the hemisphere around n. Returns the direction
// and its pdf.
func UniformSampleHemisphere(n types.Vec3, u1, u2 float32) (types.Vec3, float32) {
	z := u1
	r := math32.Sqrt(math32.Max(0, 1-z*z))
	phi := 2 * math32.Pi * u2
	x := r * math32.Cos(phi)
	y := r * math32.Sin(phi)

	tangent, bitangent := OrthonormalBasis(n)
	dir := tangent.Mul(x).Add(bitangent.Mul(y)).Add(n.Mul(z))
	return dir, 1 / (2 * math32.Pi)
}
