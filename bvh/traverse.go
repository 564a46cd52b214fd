package bvh

import "github.com/yinxirun/Ray-Tracing-sub001/geometry"

// Initial capacity of the traversal stack. Balanced trees over any
// realistic primitive count never exceed it; deeper trees spill to the heap.
const traversalStackSize = 64

// Find the closest intersection along the ray. Only hits in (0, ray.TMax)
// are reported and ray.TMax is shrunk to the distance of the closest hit.
// Intersect does not modify the accel and is safe for concurrent use with
// distinct rays.
func (a *Accel) Intersect(ray *geometry.Ray) (geometry.SurfaceInteraction, bool) {
	var si geometry.SurfaceInteraction
	if len(a.nodes) == 0 {
		return si, false
	}

	invDir, dirIsNeg := ray.InvDirection()

	var stackBuf [traversalStackSize]int32
	stack := stackBuf[:0]

	hit := false
	current := int32(0)
	for {
		node := &a.nodes[current]
		if node.Bounds.IntersectP(ray, invDir, dirIsNeg) {
			if node.IsLeaf() {
				for i := node.Offset; i < node.Offset+node.Count; i++ {
					if a.prims[i].Intersect(ray, &si) {
						hit = true
					}
				}
			} else {
				// Visit the near child first
				if dirIsNeg[node.Axis] == 1 {
					stack = append(stack, node.Left)
					current = node.Right
				} else {
					stack = append(stack, node.Right)
					current = node.Left
				}
				continue
			}
		}

		if len(stack) == 0 {
			break
		}
		current = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
	}

	return si, hit
}
