package bvh

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/yinxirun/Ray-Tracing-sub001/geometry"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/scheduler"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

var allMethods = []SplitMethod{SAH, Middle, EqualCounts, HLBVH}

func randomScene(count int, seed int64) *scene.Scene {
	rng := rand.New(rand.NewSource(seed))
	sc := scene.NewScene()
	diffuse, _ := sc.AddMaterial(&scene.Material{Type: scene.DiffuseMaterial, Albedo: types.Vec3{0.8, 0.8, 0.8}})
	light, _ := sc.AddMaterial(&scene.Material{Type: scene.EmissiveMaterial, Emission: types.Vec3{1, 1, 1}})

	for i := 0; i < count; i++ {
		center := types.Vec3{rng.Float32()*20 - 10, rng.Float32()*20 - 10, rng.Float32()*20 - 10}
		for v := 0; v < 3; v++ {
			jitter := types.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5}
			sc.Vertices = append(sc.Vertices, center.Add(jitter))
		}
	}

	for i := 0; i < count; i++ {
		mat := diffuse
		if i%10 == 0 {
			mat = light
		}
		_ = sc.AddFace(scene.Face{Indices: [3]int{3 * i, 3*i + 1, 3*i + 2}, Material: mat})
	}
	return sc
}

func randomRay(rng *rand.Rand) geometry.Ray {
	origin := types.Vec3{rng.Float32()*30 - 15, rng.Float32()*30 - 15, rng.Float32()*30 - 15}
	target := types.Vec3{rng.Float32()*20 - 10, rng.Float32()*20 - 10, rng.Float32()*20 - 10}
	return geometry.NewRay(origin, target.Sub(origin).Normalize())
}

func bruteForceIntersect(prims []geometry.Primitive, ray geometry.Ray) (geometry.SurfaceInteraction, bool) {
	var si geometry.SurfaceInteraction
	hit := false
	for _, prim := range prims {
		if prim.Intersect(&ray, &si) {
			hit = true
		}
	}
	return si, hit
}

func buildWithScheduler(prims []geometry.Primitive, maxPrims int, method SplitMethod) *Accel {
	sched := scheduler.New(4)
	sched.Init()
	defer sched.Shutdown()
	return Build(prims, maxPrims, method, sched)
}

func TestIntersectMatchesBruteForce(t *testing.T) {
	prims := geometry.FlattenScene(randomScene(500, 42))

	for _, method := range allMethods {
		for _, maxPrims := range []int{1, 4, 16} {
			accel := buildWithScheduler(prims, maxPrims, method)

			rng := rand.New(rand.NewSource(7))
			hits := 0
			for i := 0; i < 1000; i++ {
				ray := randomRay(rng)
				expSi, expHit := bruteForceIntersect(prims, ray)

				si, hit := accel.Intersect(&ray)
				if hit != expHit {
					t.Fatalf("[%s/%d] ray %d: expected hit to be %t; got %t", method, maxPrims, i, expHit, hit)
				}
				if !hit {
					continue
				}
				hits++
				if math32.Abs(si.Time-expSi.Time) > 1e-4 {
					t.Fatalf("[%s/%d] ray %d: expected hit time %f; got %f", method, maxPrims, i, expSi.Time, si.Time)
				}
				if ray.TMax != si.Time {
					t.Fatalf("[%s/%d] ray %d: expected ray TMax to equal hit time %f; got %f", method, maxPrims, i, si.Time, ray.TMax)
				}
			}

			if hits == 0 {
				t.Fatalf("[%s/%d] expected some rays to hit the scene", method, maxPrims)
			}
		}
	}
}

func TestIntersectRespectsTMax(t *testing.T) {
	prims := geometry.FlattenScene(randomScene(200, 3))
	rng := rand.New(rand.NewSource(11))

	for _, method := range allMethods {
		accel := Build(prims, 4, method, nil)
		for i := 0; i < 200; i++ {
			ray := randomRay(rng)
			expSi, expHit := bruteForceIntersect(prims, ray)
			if !expHit {
				continue
			}

			// Clamp the ray just before the closest hit
			ray.TMax = expSi.Time * 0.999
			if _, hit := accel.Intersect(&ray); hit {
				t.Fatalf("[%s] ray %d: expected no hit before TMax %f", method, i, ray.TMax)
			}
		}
	}
}

func TestTreeInvariants(t *testing.T) {
	prims := geometry.FlattenScene(randomScene(300, 99))

	for _, method := range allMethods {
		for _, maxPrims := range []int{1, 4, 8} {
			accel := buildWithScheduler(prims, maxPrims, method)
			nodes := accel.Nodes()
			stats := accel.Stats()

			if len(accel.Primitives()) != len(prims) {
				t.Fatalf("[%s/%d] expected %d ordered primitives; got %d", method, maxPrims, len(prims), len(accel.Primitives()))
			}
			if stats.Nodes != len(nodes) {
				t.Fatalf("[%s/%d] expected all %d arena nodes to be reachable from the root; reached %d", method, maxPrims, len(nodes), stats.Nodes)
			}
			if exp := 2*stats.Leafs - 1; len(nodes) != exp {
				t.Fatalf("[%s/%d] expected %d nodes for %d leafs; got %d", method, maxPrims, exp, stats.Leafs, len(nodes))
			}

			seen := make(map[int32]int)
			for index := range nodes {
				node := &nodes[index]
				if node.IsLeaf() {
					for i := node.Offset; i < node.Offset+node.Count; i++ {
						prim := accel.Primitives()[i]
						seen[prim.ID()]++
						if !contains(node.Bounds, prim.WorldBound()) {
							t.Fatalf("[%s/%d] leaf %d bounds do not contain primitive %d", method, maxPrims, index, prim.ID())
						}
					}
					continue
				}

				for _, child := range []int32{node.Left, node.Right} {
					if child <= 0 || int(child) >= len(nodes) {
						t.Fatalf("[%s/%d] node %d has invalid child index %d", method, maxPrims, index, child)
					}
					if !contains(node.Bounds, nodes[child].Bounds) {
						t.Fatalf("[%s/%d] node %d bounds do not contain child %d", method, maxPrims, index, child)
					}
				}
			}

			for _, prim := range prims {
				if seen[prim.ID()] != 1 {
					t.Fatalf("[%s/%d] expected primitive %d to appear in exactly one leaf; got %d", method, maxPrims, prim.ID(), seen[prim.ID()])
				}
			}
		}
	}
}

func TestLeafSizeLimit(t *testing.T) {
	prims := geometry.FlattenScene(randomScene(400, 5))

	for _, method := range []SplitMethod{SAH, HLBVH} {
		for _, maxPrims := range []int{2, 4, 8} {
			accel := Build(prims, maxPrims, method, nil)
			if accel.Stats().MaxLeafPrims > maxPrims {
				t.Fatalf("[%s] expected leafs to hold at most %d primitives; got %d", method, maxPrims, accel.Stats().MaxLeafPrims)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	prims := geometry.FlattenScene(randomScene(300, 17))

	for _, method := range allMethods {
		a := Build(prims, 4, method, nil)
		b := Build(prims, 4, method, nil)
		expSameTree(t, method.String(), a, b)
	}
}

func TestParallelHLBVHMatchesSequentialBuild(t *testing.T) {
	// Enough primitives to spread over many treelets and Morton chunks
	prims := geometry.FlattenScene(randomScene(20000, 23))

	sequential := Build(prims, 4, HLBVH, nil)
	if sequential.Stats().Treelets < 2 {
		t.Fatalf("expected multiple treelets; got %d", sequential.Stats().Treelets)
	}

	for _, workers := range []int{2, 4, 8} {
		sched := scheduler.New(workers)
		sched.Init()
		for run := 0; run < 3; run++ {
			parallel := Build(prims, 4, HLBVH, sched)
			expSameTree(t, fmt.Sprintf("hlbvh/%d workers/run %d", workers, run), sequential, parallel)
		}
		sched.Shutdown()
	}
}

func TestSeparatedPrimitives(t *testing.T) {
	sc := scene.NewScene()
	mat, _ := sc.AddMaterial(&scene.Material{Type: scene.DiffuseMaterial})
	corners := []types.Vec3{{-2, 0, -2}, {1, 0, -2}, {-2, 0, 1}, {1, 0, 1}}
	for _, c := range corners {
		sc.Vertices = append(sc.Vertices, c, c.Add(types.Vec3{1, 0, 0}), c.Add(types.Vec3{0, 1, 1}))
	}
	for i := range corners {
		_ = sc.AddFace(scene.Face{Indices: [3]int{3 * i, 3*i + 1, 3*i + 2}, Material: mat})
	}
	prims := geometry.FlattenScene(sc)

	for _, method := range allMethods {
		accel := Build(prims, 1, method, nil)
		stats := accel.Stats()
		if stats.Leafs != 4 {
			t.Fatalf("[%s] expected 4 leafs; got %d", method, stats.Leafs)
		}
		if stats.Nodes != 7 {
			t.Fatalf("[%s] expected 7 nodes; got %d", method, stats.Nodes)
		}
	}
}

func TestEmptyBuild(t *testing.T) {
	for _, method := range allMethods {
		accel := Build(nil, 4, method, nil)
		if len(accel.Nodes()) != 0 {
			t.Fatalf("[%s] expected empty tree; got %d nodes", method, len(accel.Nodes()))
		}
		if len(accel.GetAllLights()) != 0 {
			t.Fatalf("[%s] expected no lights", method)
		}
		if !accel.WorldBound().IsEmpty() {
			t.Fatalf("[%s] expected empty world bounds", method)
		}

		ray := geometry.NewRay(types.Vec3{}, types.Vec3{0, 0, -1})
		if _, hit := accel.Intersect(&ray); hit {
			t.Fatalf("[%s] expected empty tree not to report hits", method)
		}
	}
}

func TestSinglePrimitive(t *testing.T) {
	sc := scene.NewScene()
	mat, _ := sc.AddMaterial(&scene.Material{Type: scene.DiffuseMaterial})
	sc.Vertices = append(sc.Vertices, types.Vec3{-1, -1, 0}, types.Vec3{1, -1, 0}, types.Vec3{0, 1, 0})
	_ = sc.AddFace(scene.Face{Indices: [3]int{0, 1, 2}, Material: mat})
	prims := geometry.FlattenScene(sc)

	for _, method := range allMethods {
		accel := Build(prims, 4, method, nil)
		if len(accel.Nodes()) != 1 || !accel.Nodes()[0].IsLeaf() {
			t.Fatalf("[%s] expected a single leaf", method)
		}

		ray := geometry.NewRay(types.Vec3{0, 0, 3}, types.Vec3{0, 0, -1})
		si, hit := accel.Intersect(&ray)
		if !hit {
			t.Fatalf("[%s] expected ray to hit the primitive", method)
		}
		if math32.Abs(si.Time-3) > 1e-5 {
			t.Fatalf("[%s] expected hit time 3; got %f", method, si.Time)
		}
	}
}

func TestCoincidentCentroids(t *testing.T) {
	sc := scene.NewScene()
	mat, _ := sc.AddMaterial(&scene.Material{Type: scene.DiffuseMaterial})
	const count = 10
	for i := 0; i < count; i++ {
		sc.Vertices = append(sc.Vertices, types.Vec3{-1, -1, 0}, types.Vec3{1, -1, 0}, types.Vec3{0, 2, 0})
		_ = sc.AddFace(scene.Face{Indices: [3]int{3 * i, 3*i + 1, 3*i + 2}, Material: mat})
	}
	prims := geometry.FlattenScene(sc)

	for _, method := range []SplitMethod{SAH, Middle, EqualCounts} {
		accel := Build(prims, 1, method, nil)
		if len(accel.Nodes()) != 1 {
			t.Fatalf("[%s] expected coincident centroids to produce a single leaf; got %d nodes", method, len(accel.Nodes()))
		}
		if accel.Nodes()[0].Count != count {
			t.Fatalf("[%s] expected leaf to hold %d primitives; got %d", method, count, accel.Nodes()[0].Count)
		}
	}

	// Identical Morton codes exhaust all bits and end up in one leaf
	accel := Build(prims, 1, HLBVH, nil)
	if accel.Stats().Leafs != 1 {
		t.Fatalf("[hlbvh] expected a single leaf; got %d", accel.Stats().Leafs)
	}

	ray := geometry.NewRay(types.Vec3{0, 0, 1}, types.Vec3{0, 0, -1})
	if _, hit := accel.Intersect(&ray); !hit {
		t.Fatal("[hlbvh] expected ray to hit")
	}
}

func TestGetAllLights(t *testing.T) {
	prims := geometry.FlattenScene(randomScene(55, 1))

	for _, method := range allMethods {
		accel := Build(prims, 4, method, nil)
		lights := accel.GetAllLights()
		if len(lights) != 6 {
			t.Fatalf("[%s] expected 6 lights; got %d", method, len(lights))
		}
		for index, light := range lights {
			if exp := int32(index * 10); light.ID() != exp {
				t.Fatalf("[%s] expected light %d to have id %d; got %d", method, index, exp, light.ID())
			}
			if !light.Emissive() {
				t.Fatalf("[%s] expected light %d to be emissive", method, index)
			}
		}
	}
}

func TestUnknownSplitMethodPanics(t *testing.T) {
	prims := geometry.FlattenScene(randomScene(4, 1))

	defer func() {
		err, ok := recover().(*NotImplementedError)
		if !ok {
			t.Fatal("expected build to panic with a NotImplementedError")
		}
		if err.Error() == "" {
			t.Fatal("expected a non-empty error message")
		}
	}()
	Build(prims, 4, SplitMethod(42), nil)
}

func TestParseSplitMethod(t *testing.T) {
	type spec struct {
		in     string
		exp    SplitMethod
		expErr bool
	}
	specs := []spec{
		{"sah", SAH, false},
		{"SAH", SAH, false},
		{"middle", Middle, false},
		{"equal", EqualCounts, false},
		{"hlbvh", HLBVH, false},
		{"octree", 0, true},
	}

	for index, s := range specs {
		got, err := ParseSplitMethod(s.in)
		if s.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error", index)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if got != s.exp {
			t.Fatalf("[spec %d] expected %s; got %s", index, s.exp, got)
		}
		if got.String() != s.in && s.in != "SAH" {
			t.Fatalf("[spec %d] expected String() to round trip; got %s", index, got.String())
		}
	}
}

func contains(outer, inner geometry.AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if inner.Min[axis] < outer.Min[axis] || inner.Max[axis] > outer.Max[axis] {
			return false
		}
	}
	return true
}

// Compare two trees node by node and ordered primitive by ordered primitive.
func expSameTree(t *testing.T, label string, a, b *Accel) {
	t.Helper()

	if len(a.Nodes()) != len(b.Nodes()) {
		t.Fatalf("[%s] expected identical node counts; got %d and %d", label, len(a.Nodes()), len(b.Nodes()))
	}
	for i := range a.Nodes() {
		if a.Nodes()[i] != b.Nodes()[i] {
			t.Fatalf("[%s] expected node %d to match; got %v and %v", label, i, a.Nodes()[i], b.Nodes()[i])
		}
	}
	if len(a.Primitives()) != len(b.Primitives()) {
		t.Fatalf("[%s] expected identical primitive counts; got %d and %d", label, len(a.Primitives()), len(b.Primitives()))
	}
	for i := range a.Primitives() {
		if a.Primitives()[i].ID() != b.Primitives()[i].ID() {
			t.Fatalf("[%s] expected ordered primitive %d to match; got %d and %d", label, i, a.Primitives()[i].ID(), b.Primitives()[i].ID())
		}
	}
}
