package bvh

import (
	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/geometry"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// Number of centroid buckets evaluated by the surface area heuristic.
const sahBuckets = 12

type bucketInfo struct {
	count  int
	bounds geometry.AABB
}

func newBuckets() [sahBuckets]bucketInfo {
	var buckets [sahBuckets]bucketInfo
	for i := range buckets {
		buckets[i].bounds = geometry.EmptyAABB()
	}
	return buckets
}

// Map a centroid to its SAH bucket along dim.
func bucketFor(centroidBounds geometry.AABB, centroid types.Vec3, dim int) int {
	b := int(sahBuckets * centroidBounds.Offset(centroid)[dim])
	if b >= sahBuckets {
		b = sahBuckets - 1
	} else if b < 0 {
		b = 0
	}
	return b
}

// Evaluate the cost of splitting after each bucket and return the cheapest
// split. Ties resolve to the lowest bucket index. A negative bucket index is
// returned if the parent has no surface area to compare against.
//
// cost(i) = 1 + (count(0..i) * SA(0..i) + count(i+1..) * SA(i+1..)) / SA(parent)
func minSplitCost(buckets *[sahBuckets]bucketInfo, parentBounds geometry.AABB) (int, float32) {
	parentArea := parentBounds.SurfaceArea()
	if parentArea <= 0 {
		return -1, math32.Inf(1)
	}

	minBucket := -1
	minCost := math32.Inf(1)
	for i := 0; i < sahBuckets-1; i++ {
		b0, b1 := geometry.EmptyAABB(), geometry.EmptyAABB()
		count0, count1 := 0, 0
		for j := 0; j <= i; j++ {
			b0 = b0.Union(buckets[j].bounds)
			count0 += buckets[j].count
		}
		for j := i + 1; j < sahBuckets; j++ {
			b1 = b1.Union(buckets[j].bounds)
			count1 += buckets[j].count
		}

		cost := 1 + (float32(count0)*b0.SurfaceArea()+float32(count1)*b1.SurfaceArea())/parentArea
		if cost < minCost {
			minCost = cost
			minBucket = i
		}
	}
	return minBucket, minCost
}

// Build the subtree for info[start:end] and return its node index. Nodes are
// emitted in depth-first order so the root always lands at index 0.
func (b *builder) recursiveBuild(info []buildPrimitive, start, end int) int32 {
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{})

	bounds := geometry.EmptyAABB()
	centroidBounds := geometry.EmptyAABB()
	for i := start; i < end; i++ {
		bounds = bounds.Union(info[i].bounds)
		centroidBounds = centroidBounds.UnionPoint(info[i].centroid)
	}

	if end-start == 1 {
		b.nodes[nodeIndex] = b.appendLeaf(info[start:end], bounds)
		return nodeIndex
	}

	// All centroids coincide; no split can separate them
	dim := centroidBounds.MaximumExtent()
	if centroidBounds.Max[dim] == centroidBounds.Min[dim] {
		b.nodes[nodeIndex] = b.appendLeaf(info[start:end], bounds)
		return nodeIndex
	}

	mid := b.partition(info, start, end, dim, bounds, centroidBounds)
	if mid < 0 {
		b.nodes[nodeIndex] = b.appendLeaf(info[start:end], bounds)
		return nodeIndex
	}

	left := b.recursiveBuild(info, start, mid)
	right := b.recursiveBuild(info, mid, end)
	b.nodes[nodeIndex] = Node{
		Bounds: bounds,
		Left:   left,
		Right:  right,
		Axis:   uint8(dim),
	}
	return nodeIndex
}

// Reorder info[start:end] according to the configured split method and
// return the split point. A negative value means that a leaf should be
// created instead.
func (b *builder) partition(info []buildPrimitive, start, end, dim int, bounds, centroidBounds geometry.AABB) int {
	n := end - start
	items := info[start:end]

	switch b.method {
	case Middle:
		pmid := 0.5 * (centroidBounds.Min[dim] + centroidBounds.Max[dim])
		mid := start + partitionBy(items, func(bp *buildPrimitive) bool {
			return bp.centroid[dim] < pmid
		})
		if mid != start && mid != end {
			return mid
		}
	case SAH:
		if n <= 2 {
			break
		}

		buckets := newBuckets()
		for i := range items {
			bi := bucketFor(centroidBounds, items[i].centroid, dim)
			buckets[bi].count++
			buckets[bi].bounds = buckets[bi].bounds.Union(items[i].bounds)
		}

		minBucket, minCost := minSplitCost(&buckets, bounds)
		if minBucket < 0 {
			break
		}

		leafCost := float32(n)
		if n <= b.maxPrimsPerLeaf && minCost >= leafCost {
			return -1
		}

		mid := start + partitionBy(items, func(bp *buildPrimitive) bool {
			return bucketFor(centroidBounds, bp.centroid, dim) <= minBucket
		})
		if mid != start && mid != end {
			return mid
		}
	}

	// Equal counts; also used when the other methods fail to separate
	mid := n / 2
	nthElement(items, mid, dim)
	return start + mid
}

// Move all items matching pred to the front of the slice and return the
// number of matching items.
func partitionBy(items []buildPrimitive, pred func(*buildPrimitive) bool) int {
	mid := 0
	for i := range items {
		if pred(&items[i]) {
			items[i], items[mid] = items[mid], items[i]
			mid++
		}
	}
	return mid
}

// Partially sort items so that the item at index k is the one that would be
// there if the slice was sorted by centroid along dim; items before k are
// not greater and items after k are not smaller. The pivot choice is fixed
// so the result is deterministic.
func nthElement(items []buildPrimitive, k, dim int) {
	lo, hi := 0, len(items)-1
	for lo < hi {
		p := partitionAround(items, lo, hi, lo+(hi-lo)/2, dim)
		switch {
		case k == p:
			return
		case k < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func partitionAround(items []buildPrimitive, lo, hi, pivotIndex, dim int) int {
	pivot := items[pivotIndex].centroid[dim]
	items[pivotIndex], items[hi] = items[hi], items[pivotIndex]

	store := lo
	for i := lo; i < hi; i++ {
		if items[i].centroid[dim] < pivot {
			items[i], items[store] = items[store], items[i]
			store++
		}
	}
	items[store], items[hi] = items[hi], items[store]
	return store
}
