package renderer

import (
	"github.com/yinxirun/Ray-Tracing-sub001/geometry"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// Triangle ID stored for pixels whose primary ray misses the scene.
const missID int32 = -1

// gBuffer stores per-pixel geometric attributes of the primary hits. It is
// filled once per frame and read by all sampling passes.
type gBuffer struct {
	width, height int

	triangleID []int32
	normal     []types.Vec3
	position   []types.Vec3
	material   []*scene.Material

	// Unit direction from each primary hit back towards the camera.
	viewDir []types.Vec3
}

func newGBuffer(width, height int) *gBuffer {
	n := width * height
	gb := &gBuffer{
		width:      width,
		height:     height,
		triangleID: make([]int32, n),
		normal:     make([]types.Vec3, n),
		position:   make([]types.Vec3, n),
		material:   make([]*scene.Material, n),
		viewDir:    make([]types.Vec3, n),
	}
	for i := range gb.triangleID {
		gb.triangleID[i] = missID
	}
	return gb
}

// Returns true if the primary ray for pixel p hit the scene.
func (gb *gBuffer) covered(p int) bool {
	return gb.triangleID[p] != missID
}

// Rebuild the primary hit record for pixel p.
func (gb *gBuffer) interaction(p int) geometry.SurfaceInteraction {
	return geometry.SurfaceInteraction{
		Point:       gb.position[p],
		Normal:      gb.normal[p],
		Material:    gb.material[p],
		PrimitiveID: gb.triangleID[p],
	}
}

// pinholeCamera generates primary rays through pixel centers.
type pinholeCamera struct {
	position           types.Vec3
	forward, right, up types.Vec3
	tanHalfFOV, aspect float32
	near, far          float32
	frameW, frameH     float32
}

func newPinholeCamera(cam *scene.Camera) *pinholeCamera {
	forward, right, up := cam.Basis()
	return &pinholeCamera{
		position:   cam.Position,
		forward:    forward,
		right:      right,
		up:         up,
		tanHalfFOV: cam.TanHalfFOV(),
		aspect:     cam.Aspect(),
		near:       cam.Near,
		far:        cam.Far,
		frameW:     float32(cam.Width),
		frameH:     float32(cam.Height),
	}
}

// Generate the primary ray through the center of pixel (x, y). Row 0 is the
// top of the frame. Hits closer than the near plane or beyond the far plane
// are not reported.
func (c *pinholeCamera) primaryRay(x, y int) geometry.Ray {
	px := (2*(float32(x)+0.5)/c.frameW - 1) * c.aspect * c.tanHalfFOV
	py := (1 - 2*(float32(y)+0.5)/c.frameH) * c.tanHalfFOV
	dir := c.forward.Add(c.right.Mul(px)).Add(c.up.Mul(py)).Normalize()

	ray := geometry.NewRay(c.position.Add(dir.Mul(c.near)), dir)
	if c.far > c.near {
		ray.TMax = c.far - c.near
	}
	return ray
}
