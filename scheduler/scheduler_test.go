package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestParallelForVisitsEachIndexOnce(t *testing.T) {
	type spec struct {
		concurrency int
		count       int
		chunkSize   int
	}
	specs := []spec{
		{4, 0, 1},
		{4, 1, 1},
		{4, 31, 32},
		{4, 32, 32},
		{4, 1000, 32},
		{4, 1001, 7},
		{8, 5000, 1},
		{3, 257, 0},
		{1, 500, 16},
	}

	for index, s := range specs {
		sch := New(s.concurrency)
		sch.Init()

		visits := make([]int32, s.count)
		sch.ParallelFor(func(i int) {
			atomic.AddInt32(&visits[i], 1)
		}, s.count, s.chunkSize)
		sch.Shutdown()

		for i, v := range visits {
			if v != 1 {
				t.Fatalf("[spec %d] expected index %d to be visited once; got %d", index, i, v)
			}
		}
	}
}

func TestParallelForSequentialFallback(t *testing.T) {
	type spec struct {
		concurrency int
		count       int
		chunkSize   int
	}
	specs := []spec{
		// count < chunkSize
		{4, 20, 32},
		// concurrency 1
		{1, 100, 4},
	}

	for index, s := range specs {
		sch := New(s.concurrency)
		sch.Init()

		// The body is only ever called from this goroutine so no locking is required.
		order := make([]int, 0, s.count)
		sch.ParallelFor(func(i int) {
			order = append(order, i)
		}, s.count, s.chunkSize)
		sch.Shutdown()

		if len(order) != s.count {
			t.Fatalf("[spec %d] expected %d invocations; got %d", index, s.count, len(order))
		}
		for i, v := range order {
			if v != i {
				t.Fatalf("[spec %d] expected invocation %d to process index %d; got %d", index, i, i, v)
			}
		}
	}
}

func TestParallelForAscendingWithinChunk(t *testing.T) {
	const (
		count     = 4096
		chunkSize = 64
	)

	sch := New(4)
	sch.Init()
	defer sch.Shutdown()

	// Record the order in which each chunk's indices were processed.
	var mu sync.Mutex
	lastSeen := make(map[int]int)
	violations := 0
	sch.ParallelFor(func(i int) {
		chunk := i / chunkSize
		mu.Lock()
		if last, ok := lastSeen[chunk]; ok && last != i-1 {
			violations++
		}
		lastSeen[chunk] = i
		mu.Unlock()
	}, count, chunkSize)

	if violations != 0 {
		t.Fatalf("expected indices to be processed in ascending order within each chunk; got %d violations", violations)
	}
	if len(lastSeen) != count/chunkSize {
		t.Fatalf("expected %d chunks; got %d", count/chunkSize, len(lastSeen))
	}
}

func TestParallelForWithoutInit(t *testing.T) {
	sch := New(4)

	var sum int64
	sch.ParallelFor(func(i int) {
		sum += int64(i)
	}, 1000, 8)

	if exp := int64(999 * 1000 / 2); sum != exp {
		t.Fatalf("expected sum %d; got %d", exp, sum)
	}
}

func TestConcurrentParallelForCalls(t *testing.T) {
	sch := New(4)
	sch.Init()
	defer sch.Shutdown()

	const loops = 8
	var wg sync.WaitGroup
	totals := make([]int64, loops)
	for l := 0; l < loops; l++ {
		wg.Add(1)
		go func(l int) {
			defer wg.Done()
			sch.ParallelFor(func(i int) {
				atomic.AddInt64(&totals[l], 1)
			}, 10000, 16)
		}(l)
	}
	wg.Wait()

	for l, total := range totals {
		if total != 10000 {
			t.Fatalf("expected loop %d to process 10000 indices; got %d", l, total)
		}
	}
}

func TestInitShutdownLifecycle(t *testing.T) {
	sch := New(2)
	sch.Shutdown()
	sch.Init()
	sch.Init()
	sch.Shutdown()
	sch.Shutdown()

	// A scheduler can be restarted after a shutdown.
	sch.Init()
	defer sch.Shutdown()

	var count int32
	sch.ParallelFor(func(int) {
		atomic.AddInt32(&count, 1)
	}, 100, 1)
	if count != 100 {
		t.Fatalf("expected 100 invocations; got %d", count)
	}
}
