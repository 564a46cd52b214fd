package geometry

import "github.com/yinxirun/Ray-Tracing-sub001/scene"

// FlattenScene creates a triangle primitive for each scene face. Primitive
// IDs match face indices. The returned triangles reference the scene vertex
// and material storage directly.
func FlattenScene(sc *scene.Scene) []Primitive {
	prims := make([]Primitive, len(sc.Faces))
	for index, face := range sc.Faces {
		prims[index] = NewTriangle(
			&sc.Vertices[face.Indices[0]],
			&sc.Vertices[face.Indices[1]],
			&sc.Vertices[face.Indices[2]],
			sc.Materials[face.Material],
			int32(index),
		)
	}
	return prims
}
