package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// A triangular face referencing three entries of the scene vertex list.
type Face struct {
	Indices  [3]int
	Material int
}

// The scene owns the vertex and material storage that primitives reference.
// Vertices must not be appended to once primitives have been created from
// the scene as they keep pointers into the vertex slice.
type Scene struct {
	Camera *Camera

	Vertices  []types.Vec3
	Materials []*Material
	Faces     []Face
}

func NewScene() *Scene {
	return &Scene{
		Camera:    NewCamera(45),
		Vertices:  make([]types.Vec3, 0),
		Materials: make([]*Material, 0),
		Faces:     make([]Face, 0),
	}
}

// Add a material to the scene and return its index.
func (s *Scene) AddMaterial(material *Material) (int, error) {
	for _, mat := range s.Materials {
		if mat == material {
			return -1, fmt.Errorf("scene: material already added")
		}
	}
	s.Materials = append(s.Materials, material)
	return len(s.Materials) - 1, nil
}

// Add a triangle face to the scene.
func (s *Scene) AddFace(face Face) error {
	for _, index := range face.Indices {
		if index < 0 || index >= len(s.Vertices) {
			return fmt.Errorf("scene: face references vertex %d; scene has %d vertices", index, len(s.Vertices))
		}
	}
	if face.Material < 0 || face.Material >= len(s.Materials) {
		return fmt.Errorf("scene: face references unknown material %d", face.Material)
	}
	s.Faces = append(s.Faces, face)
	return nil
}

// Count faces using an emissive material.
func (s *Scene) EmissiveFaceCount() int {
	count := 0
	for _, face := range s.Faces {
		if s.Materials[face.Material].IsEmissive() {
			count++
		}
	}
	return count
}

// Build a tabular representation of scene statistics.
func (s *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Count", "Size"})
	table.Append([]string{"Vertices", fmt.Sprintf("%d", len(s.Vertices)), fmtSize(s.Vertices)})
	table.Append([]string{"Faces", fmt.Sprintf("%d", len(s.Faces)), fmtSize(s.Faces)})
	table.Append([]string{"Emissive faces", fmt.Sprintf("%d", s.EmissiveFaceCount()), " "})
	table.Append([]string{"Materials", fmt.Sprintf("%d", len(s.Materials)), fmtSize(s.Materials)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(s.Vertices, s.Faces, s.Materials), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
