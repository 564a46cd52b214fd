package scene

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// The camera type describes a pinhole camera. The renderer only reads it.
type Camera struct {
	Position types.Vec3
	Forward  types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Clip planes along the view direction.
	Near float32
	Far  float32

	// Frame dims in pixels.
	Width  uint32
	Height uint32
}

// Create a camera at the origin looking down -Z.
func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		Forward:  types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		Near:     1e-3,
		Far:      1e5,
		Width:    512,
		Height:   512,
	}
}

// Point the camera towards a target position.
func (c *Camera) LookAt(target types.Vec3) {
	c.Forward = target.Sub(c.Position).Normalize()
}

// Get the orthonormal camera basis. If up is parallel to forward a fallback
// axis is used so the basis never degenerates.
func (c *Camera) Basis() (forward, right, up types.Vec3) {
	forward = c.Forward.Normalize()
	right = forward.Cross(c.Up).Normalize()
	if right.IsZero() {
		right = forward.Cross(types.Vec3{1, 0, 0}).Normalize()
		if right.IsZero() {
			right = forward.Cross(types.Vec3{0, 0, 1}).Normalize()
		}
	}
	up = right.Cross(forward)
	return forward, right, up
}

// Get the aspect ratio of the frame.
func (c *Camera) Aspect() float32 {
	if c.Height == 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

// Get the tangent of half the vertical FOV.
func (c *Camera) TanHalfFOV() float32 {
	return math32.Tan(0.5 * c.FOV * math32.Pi / 180.0)
}

func (c *Camera) String() string {
	return fmt.Sprintf(
		"pos: (%3.3f, %3.3f, %3.3f) fwd: (%3.3f, %3.3f, %3.3f) up: (%3.3f, %3.3f, %3.3f) fov: %3.1f frame: %dx%d",
		c.Position[0], c.Position[1], c.Position[2],
		c.Forward[0], c.Forward[1], c.Forward[2],
		c.Up[0], c.Up[1], c.Up[2],
		c.FOV, c.Width, c.Height,
	)
}
