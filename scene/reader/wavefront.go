package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yinxirun/Ray-Tracing-sub001/asset"
	"github.com/yinxirun/Ray-Tracing-sub001/log"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// Name of the material assigned to faces parsed before any usemtl directive.
const defaultMaterialName = "default"

type wavefrontMaterial struct {
	Name string

	// Diffuse/Albedo color.
	Kd types.Vec3

	// Specular color.
	Ks types.Vec3

	// Emissive color.
	Ke types.Vec3

	// Index of refraction.
	Ni float32

	// True if this material is used by at least one face.
	Used bool
}

// Convert a parsed wavefront material into a scene material. Emission takes
// precedence; a specular color combined with an index of refraction yields a
// refractive material.
func (wf *wavefrontMaterial) sceneMaterial() *scene.Material {
	mat := &scene.Material{
		Name:   wf.Name,
		Albedo: wf.Kd,
	}

	isSpecular := wf.Ks.MaxComponent() > 0
	switch {
	case wf.Ke.MaxComponent() > 0:
		mat.Type = scene.EmissiveMaterial
		mat.Emission = wf.Ke
	case isSpecular && wf.Ni != 0:
		mat.Type = scene.RefractiveMaterial
		mat.Albedo = wf.Ks
		mat.IOR = wf.Ni
	case isSpecular:
		mat.Type = scene.SpecularMaterial
		mat.Albedo = wf.Ks
	default:
		mat.Type = scene.DiffuseMaterial
	}
	return mat
}

type wavefrontSceneReader struct {
	logger log.Logger

	// The scene being populated. Vertices are appended to it while parsing;
	// faces and materials are added once parsing completes.
	sc *scene.Scene

	// A map of material names to parsed wavefront materials
	matNameToIndex map[string]int

	// Index of the currently selected material or -1 if none is selected.
	curMaterial int

	// Parsed wavefront materials.
	materials []*wavefrontMaterial

	// Parsed faces. Their material indices point into materials.
	faces []scene.Face

	// Number of parsed uv and normal coordinates. Their values are not used
	// by the tracer but face definitions referencing them are validated.
	uvCount     int
	normalCount int

	// Camera target set by camera_look. Applied after parsing so that the
	// directive order does not matter.
	lookAt *types.Vec3

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new wavefront scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		sc:             scene.NewScene(),
		matNameToIndex: make(map[string]int, 0),
		curMaterial:    -1,
		materials:      make([]*wavefrontMaterial, 0),
		faces:          make([]scene.Face, 0),
		errStack:       make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	if err = r.processMaterials(); err != nil {
		return nil, err
	}

	if r.lookAt != nil {
		r.sc.Camera.LookAt(*r.lookAt)
	}

	r.logger.Noticef(
		"parsed scene in %d ms: %d vertices, %d faces, %d materials",
		time.Since(start).Nanoseconds()/1e6, len(r.sc.Vertices), len(r.sc.Faces), len(r.sc.Materials),
	)
	return r.sc, nil
}

// Convert the wavefront materials in use to scene materials and add the
// parsed faces to the scene using the remapped material indices.
func (r *wavefrontSceneReader) processMaterials() error {
	wfMaterialToSceneMaterial := make(map[int]int, 0)
	for wfIndex, wfMat := range r.materials {
		if !wfMat.Used {
			r.logger.Infof("skipping unused material %q", wfMat.Name)
			continue
		}

		sceneIndex, err := r.sc.AddMaterial(wfMat.sceneMaterial())
		if err != nil {
			return errors.Wrapf(err, "reader: could not add material %q", wfMat.Name)
		}
		wfMaterialToSceneMaterial[wfIndex] = sceneIndex
	}

	for _, face := range r.faces {
		face.Material = wfMaterialToSceneMaterial[face.Material]
		if err := r.sc.AddFace(face); err != nil {
			return errors.Wrap(err, "reader")
		}
	}
	return nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Select the default material, creating it on first use.
func (r *wavefrontSceneReader) defaultMaterial() int {
	matIndex, exists := r.matNameToIndex[""]
	if !exists {
		r.materials = append(r.materials, &wavefrontMaterial{
			Name: defaultMaterialName,
			Kd:   types.Vec3{0.7, 0.7, 0.7},
		})
		matIndex = len(r.materials) - 1
		r.matNameToIndex[""] = matIndex
	}
	return matIndex
}

// Open a resource referenced by res and run the supplied parser on it.
func (r *wavefrontSceneReader) parseInclude(res *asset.Resource, lineNum int, directive, target string, parseFn func(*asset.Resource) error) error {
	r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, directive))

	incRes, err := asset.NewResource(target, res)
	if err != nil {
		return r.emitError(res.Path(), lineNum, "%v", err)
	}
	err = parseFn(incRes)
	incRes.Close()
	if err != nil {
		return err
	}

	r.popFrame()
	return nil
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	// Positive indices in each object file are relative to the coordinates
	// defined by that file. Files pulled in via "call" are offset by the
	// coordinates parsed before them.
	relVertexOffset := len(r.sc.Vertices)
	relUvOffset := r.uvCount
	relNormalOffset := r.normalCount

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			parseFn := r.parse
			if lineTokens[0] == "mtllib" {
				parseFn = r.parseMaterials
			}
			if err = r.parseInclude(res, lineNum, lineTokens[0], lineTokens[1], parseFn); err != nil {
				return err
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matIndex, exists := r.matNameToIndex[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.curMaterial = matIndex
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
			r.sc.Vertices = append(r.sc.Vertices, v)
		case "vn":
			if _, err = parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
			r.normalCount++
		case "vt":
			if _, err = parseVec2(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
			r.uvCount++
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.logger.Debugf("parsing object %q", lineTokens[1])
		case "f":
			faces, err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
			r.faces = append(r.faces, faces...)
		case "camera_fov":
			r.sc.Camera.FOV, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
		case "camera_eye":
			r.sc.Camera.Position, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
		case "camera_look":
			target, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
			r.lookAt = &target
		case "camera_up":
			r.sc.Camera.Up, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "read failed: %v", err)
	}
	return nil
}

// Parse face definition. Each face definition consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the coordinate list.
//
// Quad faces are split into two triangles sharing the 0-2 diagonal.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) ([]scene.Face, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var indices [4]int
	var err error
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
			if expIndices > 3 {
				return nil, fmt.Errorf("face argument %d contains %d indices; expected at most 3", arg, expIndices)
			}
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		indices[arg], err = selectFaceCoordIndex(vTokens[0], len(r.sc.Vertices), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}

		if expIndices > 1 && vTokens[1] != "" {
			if _, err = selectFaceCoordIndex(vTokens[1], r.uvCount, relUvOffset); err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}

		if expIndices > 2 && vTokens[2] != "" {
			if _, err = selectFaceCoordIndex(vTokens[2], r.normalCount, relNormalOffset); err != nil {
				return nil, fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		}
	}

	// If no material defined select the default. Also flag the current material
	// as being in use so it gets added to the scene.
	if r.curMaterial < 0 {
		r.curMaterial = r.defaultMaterial()
	}
	r.materials[r.curMaterial].Used = true

	faces := []scene.Face{{
		Indices:  [3]int{indices[0], indices[1], indices[2]},
		Material: r.curMaterial,
	}}
	if len(lineTokens) == 5 {
		faces = append(faces, scene.Face{
			Indices:  [3]int{indices[0], indices[2], indices[3]},
			Material: r.curMaterial,
		})
	}
	return faces, nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *wavefrontMaterial = nil
	var matName string = ""

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName = lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			curMaterial = &wavefrontMaterial{Name: matName}
			r.materials = append(r.materials, curMaterial)
			r.matNameToIndex[matName] = len(r.materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			switch lineTokens[0] {
			case "include":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				baseMaterialIndex, exists := r.matNameToIndex[lineTokens[1]]
				if !exists {
					return r.emitError(res.Path(), lineNum, `could not include unknown material "%s"`, lineTokens[1])
				}

				// Overwrite material but keep the original name
				*curMaterial = *r.materials[baseMaterialIndex]
				curMaterial.Name = matName
				curMaterial.Used = false
			case "Kd":
				curMaterial.Kd, err = parseVec3(lineTokens)
			case "Ks":
				curMaterial.Ks, err = parseVec3(lineTokens)
			case "Ke":
				curMaterial.Ke, err = parseVec3(lineTokens)
			case "Ni":
				curMaterial.Ni, err = parseFloat32(lineTokens)
			}

			if err != nil {
				return r.emitError(res.Path(), lineNum, "%v", err)
			}
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "read failed: %v", err)
	}
	return nil
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if index == 0 || vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
