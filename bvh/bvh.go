package bvh

import (
	"fmt"
	"strings"
	"time"

	"github.com/yinxirun/Ray-Tracing-sub001/geometry"
	"github.com/yinxirun/Ray-Tracing-sub001/log"
	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// SplitMethod selects the partitioning strategy used by the builder.
type SplitMethod uint8

const (
	// Surface area heuristic using bucketed centroids.
	SAH SplitMethod = iota

	// Split at the midpoint of the centroid bounds.
	Middle

	// Split into two halves with equal primitive counts.
	EqualCounts

	// Parallel Morton code based construction with an SAH upper tree.
	HLBVH
)

func (m SplitMethod) String() string {
	switch m {
	case SAH:
		return "sah"
	case Middle:
		return "middle"
	case EqualCounts:
		return "equal"
	case HLBVH:
		return "hlbvh"
	}
	return fmt.Sprintf("SplitMethod(%d)", uint8(m))
}

// Lookup a split method by its name.
func ParseSplitMethod(name string) (SplitMethod, error) {
	switch strings.ToLower(name) {
	case "sah":
		return SAH, nil
	case "middle":
		return Middle, nil
	case "equal", "equalcounts":
		return EqualCounts, nil
	case "hlbvh":
		return HLBVH, nil
	}
	return 0, fmt.Errorf("bvh: unknown split method %q", name)
}

// NotImplementedError reports a construction path that has no
// implementation. The builder panics with it rather than returning a tree
// that could be wrong.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("bvh: %s is not implemented", e.Feature)
}

// Node is an entry in the flat node arena. Leaves have Count > 0 and refer
// to the primitive range [Offset, Offset+Count). Interior nodes refer to
// their children by arena index.
type Node struct {
	Bounds geometry.AABB

	Left, Right int32

	Offset, Count int32

	// Split axis for interior nodes.
	Axis uint8
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Count > 0
}

// Stats collects information about a built tree.
type Stats struct {
	Method        SplitMethod
	Primitives    int
	Nodes         int
	Leafs         int
	MaxDepth      int
	MaxLeafPrims  int
	Treelets      int
	BuildTime     time.Duration
	MaxPrimsLimit int
}

// Accel is an immutable bvh over a set of primitives. Node and primitive
// storage is owned by the accel; the primitives themselves belong to the
// caller.
type Accel struct {
	nodes  []Node
	prims  []geometry.Primitive
	lights []geometry.Primitive
	stats  Stats
}

// Get the flat node arena. The root is stored at index 0.
func (a *Accel) Nodes() []Node {
	return a.nodes
}

// Get the primitives in leaf order.
func (a *Accel) Primitives() []geometry.Primitive {
	return a.prims
}

// Get all emissive primitives in input order.
func (a *Accel) GetAllLights() []geometry.Primitive {
	return a.lights
}

// Get the world bounds of the tree.
func (a *Accel) WorldBound() geometry.AABB {
	if len(a.nodes) == 0 {
		return geometry.EmptyAABB()
	}
	return a.nodes[0].Bounds
}

// Get build statistics.
func (a *Accel) Stats() Stats {
	return a.stats
}

// Per-primitive data cached by the builder.
type buildPrimitive struct {
	index    int
	bounds   geometry.AABB
	centroid types.Vec3
}

type builder struct {
	logger log.Logger

	sched *scheduler.Scheduler

	prims           []geometry.Primitive
	maxPrimsPerLeaf int
	method          SplitMethod

	// Node arena and primitives in leaf order.
	nodes   []Node
	ordered []geometry.Primitive

	// Next free upper tree slot used when joining HLBVH treelets.
	upperCursor int32

	treelets int
}

// Build constructs a bvh from a list of primitives. The input slice is not
// modified; the accel keeps its own reordered copy of the primitive
// references so that the primitives of each leaf are contiguous.
//
// The maxPrimsPerLeaf param limits leaf size for the SAH and HLBVH methods.
// The scheduler is only used by the HLBVH method; a nil scheduler runs all
// work on the calling goroutine.
func Build(prims []geometry.Primitive, maxPrimsPerLeaf int, method SplitMethod, sched *scheduler.Scheduler) *Accel {
	if maxPrimsPerLeaf < 1 {
		maxPrimsPerLeaf = 1
	}
	if maxPrimsPerLeaf > 255 {
		maxPrimsPerLeaf = 255
	}

	accel := &Accel{
		stats: Stats{
			Method:        method,
			Primitives:    len(prims),
			MaxPrimsLimit: maxPrimsPerLeaf,
		},
	}
	for _, prim := range prims {
		if _, ok := prim.AsAreaLight(); ok {
			accel.lights = append(accel.lights, prim)
		}
	}
	if len(prims) == 0 {
		return accel
	}

	b := &builder{
		logger:          log.New("bvh builder"),
		sched:           sched,
		prims:           prims,
		maxPrimsPerLeaf: maxPrimsPerLeaf,
		method:          method,
	}

	info := make([]buildPrimitive, len(prims))
	for index, prim := range prims {
		bounds := prim.WorldBound()
		info[index] = buildPrimitive{
			index:    index,
			bounds:   bounds,
			centroid: bounds.Centroid(),
		}
	}

	start := time.Now()
	switch method {
	case SAH, Middle, EqualCounts:
		b.nodes = make([]Node, 0, 2*len(prims)-1)
		b.ordered = make([]geometry.Primitive, 0, len(prims))
		b.recursiveBuild(info, 0, len(info))
	case HLBVH:
		b.hlbvhBuild(info)
	default:
		panic(&NotImplementedError{Feature: fmt.Sprintf("split method %s", method)})
	}

	accel.nodes = b.nodes
	accel.prims = b.ordered
	accel.stats.Treelets = b.treelets
	accel.stats.BuildTime = time.Since(start)
	accel.collectStats(0, 0)

	b.logger.Debugf(
		"BVH tree build time: %d ms, method: %s, maxDepth: %d, nodes: %d, leafs: %d",
		accel.stats.BuildTime.Nanoseconds()/1e6, method,
		accel.stats.MaxDepth, accel.stats.Nodes, accel.stats.Leafs,
	)
	return accel
}

// Recursively collect tree statistics.
func (a *Accel) collectStats(nodeIndex int32, depth int) {
	a.stats.Nodes++
	if depth > a.stats.MaxDepth {
		a.stats.MaxDepth = depth
	}

	node := &a.nodes[nodeIndex]
	if node.IsLeaf() {
		a.stats.Leafs++
		if int(node.Count) > a.stats.MaxLeafPrims {
			a.stats.MaxLeafPrims = int(node.Count)
		}
		return
	}

	a.collectStats(node.Left, depth+1)
	a.collectStats(node.Right, depth+1)
}

// Make a leaf over a range of build primitives and append the referenced
// primitives to the ordered list. Used by the sequential builders.
func (b *builder) appendLeaf(info []buildPrimitive, bounds geometry.AABB) Node {
	offset := len(b.ordered)
	for _, bp := range info {
		b.ordered = append(b.ordered, b.prims[bp.index])
	}
	return Node{
		Bounds: bounds,
		Left:   -1,
		Right:  -1,
		Offset: int32(offset),
		Count:  int32(len(info)),
	}
}
