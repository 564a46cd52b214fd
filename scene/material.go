package scene

import "github.com/yinxirun/Ray-Tracing-sub001/types"

type MaterialType uint8

const (
	DiffuseMaterial MaterialType = iota
	SpecularMaterial
	RefractiveMaterial
	EmissiveMaterial
)

func (t MaterialType) String() string {
	switch t {
	case DiffuseMaterial:
		return "diffuse"
	case SpecularMaterial:
		return "specular"
	case RefractiveMaterial:
		return "refractive"
	case EmissiveMaterial:
		return "emissive"
	}
	return "invalid"
}

// Defines a scene material.
type Material struct {
	Name string

	// The type of the material.
	Type MaterialType

	// Diffuse color.
	Albedo types.Vec3

	// Emissive radiance (if material is light).
	Emission types.Vec3

	// Index of refraction (refractive materials only)
	IOR float32
}

// Returns true if the material emits light.
func (m *Material) IsEmissive() bool {
	return m.Type == EmissiveMaterial
}
