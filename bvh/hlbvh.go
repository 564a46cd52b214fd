package bvh

import (
	"sort"

	"github.com/yinxirun/Ray-Tracing-sub001/geometry"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

const (
	// Morton codes use 10 bits per axis.
	mortonBits  = 10
	mortonScale = 1 << mortonBits

	// Primitives whose codes share the top 12 bits are grouped into the
	// same treelet.
	treeletMask     uint32 = 0x3ffc0000
	firstTreeletBit        = 29 - 12

	// Radix sort configuration; 5 passes of 6 bits cover all 30 code bits.
	radixBitsPerPass = 6
	radixPasses      = 30 / radixBitsPerPass
	radixBuckets     = 1 << radixBitsPerPass
	radixMask        = radixBuckets - 1

	mortonChunkSize = 512
)

type mortonPrimitive struct {
	// Index into the build primitive list.
	index int32
	code  uint32
}

type treelet struct {
	start, count int
}

// Spread the lower 10 bits of x so that there are two zero bits between
// each pair of consecutive input bits.
func leftShift3(x uint32) uint32 {
	if x == mortonScale {
		x--
	}
	x = (x | (x << 16)) & 0x30000ff
	x = (x | (x << 8)) & 0x300f00f
	x = (x | (x << 4)) & 0x30c30c3
	x = (x | (x << 2)) & 0x9249249
	return x
}

// Interleave the bits of a point scaled to [0, 1024]^3. Bit i of the code
// belongs to axis i % 3.
func encodeMorton3(v types.Vec3) uint32 {
	return (leftShift3(uint32(v[2])) << 2) | (leftShift3(uint32(v[1])) << 1) | leftShift3(uint32(v[0]))
}

// Sort primitives by Morton code using an LSD radix sort.
func radixSort(v []mortonPrimitive) {
	temp := make([]mortonPrimitive, len(v))
	for pass := 0; pass < radixPasses; pass++ {
		lowBit := uint(pass * radixBitsPerPass)

		in, out := v, temp
		if pass&1 == 1 {
			in, out = temp, v
		}

		var bucketCount [radixBuckets]int
		for _, mp := range in {
			bucketCount[(mp.code>>lowBit)&radixMask]++
		}

		var outIndex [radixBuckets]int
		for i := 1; i < radixBuckets; i++ {
			outIndex[i] = outIndex[i-1] + bucketCount[i-1]
		}

		for _, mp := range in {
			bucket := (mp.code >> lowBit) & radixMask
			out[outIndex[bucket]] = mp
			outIndex[bucket]++
		}
	}

	if radixPasses&1 == 1 {
		copy(v, temp)
	}
}

// Nodes of a single treelet. Child indices are local to the arena until it
// is spliced into the final tree.
type treeletArena struct {
	nodes []Node
}

func (ta *treeletArena) alloc() int32 {
	ta.nodes = append(ta.nodes, Node{})
	return int32(len(ta.nodes) - 1)
}

// Build a tree by grouping Morton sorted primitives into treelets, building
// the treelets in parallel and finally joining their roots with an SAH
// split upper tree.
//
// The layout does not depend on worker scheduling: the upper tree occupies
// the first len(treelets)-1 slots and the treelet arenas follow in Morton
// order. Leafs reference primitives by their position in the Morton order.
func (b *builder) hlbvhBuild(info []buildPrimitive) {
	n := len(info)

	centroidBounds := geometry.EmptyAABB()
	for i := range info {
		centroidBounds = centroidBounds.UnionPoint(info[i].centroid)
	}

	morton := make([]mortonPrimitive, n)
	b.sched.ParallelFor(func(i int) {
		offset := centroidBounds.Offset(info[i].centroid).Mul(mortonScale)
		morton[i] = mortonPrimitive{
			index: int32(i),
			code:  encodeMorton3(offset),
		}
	}, n, mortonChunkSize)

	radixSort(morton)

	var treelets []treelet
	for start, end := 0, 1; end <= n; end++ {
		if end == n || morton[start].code&treeletMask != morton[end].code&treeletMask {
			treelets = append(treelets, treelet{start: start, count: end - start})
			start = end
		}
	}
	b.treelets = len(treelets)

	b.ordered = make([]geometry.Primitive, n)
	arenas := make([]treeletArena, len(treelets))
	b.sched.ParallelFor(func(i int) {
		tr := treelets[i]
		arenas[i].nodes = make([]Node, 0, 2*tr.count-1)
		b.emitLBVH(&arenas[i], info, morton[tr.start:tr.start+tr.count], tr.start, firstTreeletBit)
	}, len(treelets), 1)

	// Splice the arenas after the upper tree slots
	upperNodes := len(treelets) - 1
	total := upperNodes
	for i := range arenas {
		total += len(arenas[i].nodes)
	}
	b.nodes = make([]Node, upperNodes, total)

	roots := make([]int32, len(treelets))
	for i := range arenas {
		base := int32(len(b.nodes))
		roots[i] = base
		for _, node := range arenas[i].nodes {
			if !node.IsLeaf() {
				node.Left += base
				node.Right += base
			}
			b.nodes = append(b.nodes, node)
		}
	}

	if len(treelets) > 1 {
		b.upperCursor = 0
		b.buildUpperSAH(roots)
	}
}

// Build a treelet by recursively splitting Morton sorted primitives at the
// first position where bitIndex changes. The mortonStart argument is the
// position of morton[0] in the full Morton order and doubles as the offset
// of its primitive in the ordered list. Safe to call concurrently for
// disjoint treelets.
func (b *builder) emitLBVH(arena *treeletArena, info []buildPrimitive, morton []mortonPrimitive, mortonStart, bitIndex int) int32 {
	n := len(morton)
	if bitIndex == -1 || n < b.maxPrimsPerLeaf {
		nodeIndex := arena.alloc()

		bounds := geometry.EmptyAABB()
		for i, mp := range morton {
			bp := &info[mp.index]
			b.ordered[mortonStart+i] = b.prims[bp.index]
			bounds = bounds.Union(bp.bounds)
		}

		arena.nodes[nodeIndex] = Node{
			Bounds: bounds,
			Left:   -1,
			Right:  -1,
			Offset: int32(mortonStart),
			Count:  int32(n),
		}
		return nodeIndex
	}

	// All primitives fall on the same side of this plane
	mask := uint32(1) << uint(bitIndex)
	if morton[0].code&mask == morton[n-1].code&mask {
		return b.emitLBVH(arena, info, morton, mortonStart, bitIndex-1)
	}

	splitOffset := sort.Search(n, func(i int) bool {
		return morton[i].code&mask != morton[0].code&mask
	})

	nodeIndex := arena.alloc()
	left := b.emitLBVH(arena, info, morton[:splitOffset], mortonStart, bitIndex-1)
	right := b.emitLBVH(arena, info, morton[splitOffset:], mortonStart+splitOffset, bitIndex-1)
	arena.nodes[nodeIndex] = Node{
		Bounds: arena.nodes[left].Bounds.Union(arena.nodes[right].Bounds),
		Left:   left,
		Right:  right,
		Axis:   uint8(bitIndex % 3),
	}
	return nodeIndex
}

// Join treelet roots using SAH splits over their bounds. Interior nodes are
// taken in depth-first order from the slots reserved at the front of the
// arena so the upper tree root lands at index 0.
func (b *builder) buildUpperSAH(roots []int32) int32 {
	if len(roots) == 1 {
		return roots[0]
	}
	nodeIndex := b.upperCursor
	b.upperCursor++

	bounds := geometry.EmptyAABB()
	centroidBounds := geometry.EmptyAABB()
	for _, root := range roots {
		bounds = bounds.Union(b.nodes[root].Bounds)
		centroidBounds = centroidBounds.UnionPoint(b.nodes[root].Bounds.Centroid())
	}
	dim := centroidBounds.MaximumExtent()

	mid := -1
	if centroidBounds.Max[dim] > centroidBounds.Min[dim] {
		buckets := newBuckets()
		for _, root := range roots {
			rb := b.nodes[root].Bounds
			bi := bucketFor(centroidBounds, rb.Centroid(), dim)
			buckets[bi].count++
			buckets[bi].bounds = buckets[bi].bounds.Union(rb)
		}

		if minBucket, _ := minSplitCost(&buckets, bounds); minBucket >= 0 {
			mid = 0
			for i, root := range roots {
				if bucketFor(centroidBounds, b.nodes[root].Bounds.Centroid(), dim) <= minBucket {
					roots[i], roots[mid] = roots[mid], roots[i]
					mid++
				}
			}
		}
	}

	// Fall back to splitting the roots in two equal halves
	if mid <= 0 || mid >= len(roots) {
		mid = len(roots) / 2
	}

	left := b.buildUpperSAH(roots[:mid])
	right := b.buildUpperSAH(roots[mid:])
	b.nodes[nodeIndex] = Node{
		Bounds: bounds,
		Left:   left,
		Right:  right,
		Axis:   uint8(dim),
	}
	return nodeIndex
}
