package bvh

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

func TestEncodeMorton3(t *testing.T) {
	type spec struct {
		in  types.Vec3
		exp uint32
	}
	specs := []spec{
		{types.Vec3{0, 0, 0}, 0},
		{types.Vec3{1, 0, 0}, 1},
		{types.Vec3{0, 1, 0}, 2},
		{types.Vec3{0, 0, 1}, 4},
		{types.Vec3{1, 1, 1}, 7},
		{types.Vec3{2, 0, 0}, 8},
		{types.Vec3{3, 0, 0}, 9},
		// 1024 is clamped to 1023
		{types.Vec3{1024, 1024, 1024}, 1<<30 - 1},
		{types.Vec3{1023, 1023, 1023}, 1<<30 - 1},
	}

	for index, s := range specs {
		if got := encodeMorton3(s.in); got != s.exp {
			t.Fatalf("[spec %d] expected code %030b; got %030b", index, s.exp, got)
		}
	}
}

func TestLeftShift3(t *testing.T) {
	for x := uint32(0); x < 1024; x++ {
		got := leftShift3(x)
		for bit := uint(0); bit < 10; bit++ {
			expBit := (x >> bit) & 1
			if gotBit := (got >> (3 * bit)) & 1; gotBit != expBit {
				t.Fatalf("expected bit %d of %d to move to bit %d", bit, x, 3*bit)
			}
		}
		if got&^0x9249249 != 0 {
			t.Fatalf("expected only every third bit to be set for %d; got %030b", x, got)
		}
	}
}

func TestRadixSort(t *testing.T) {
	type spec struct {
		count int
	}
	specs := []spec{{0}, {1}, {2}, {64}, {1000}, {10000}}

	rng := rand.New(rand.NewSource(1))
	for index, s := range specs {
		in := make([]mortonPrimitive, s.count)
		for i := range in {
			// Draw from a small range to produce duplicate codes
			in[i] = mortonPrimitive{index: int32(i), code: uint32(rng.Intn(1 << 30))}
			if i%3 == 0 {
				in[i].code = uint32(rng.Intn(16))
			}
		}

		exp := make([]mortonPrimitive, len(in))
		copy(exp, in)
		sort.SliceStable(exp, func(i, j int) bool { return exp[i].code < exp[j].code })

		radixSort(in)
		for i := range in {
			if in[i] != exp[i] {
				t.Fatalf("[spec %d] expected entry %d to be %v; got %v", index, i, exp[i], in[i])
			}
		}
	}
}
