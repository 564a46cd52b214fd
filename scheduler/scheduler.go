package scheduler

import (
	"runtime"
	"sync"

	"github.com/yinxirun/Ray-Tracing-sub001/log"
)

// The default number of loop indices handed out by a single claim.
const DefaultChunkSize = 32

// A parallel loop that is being drained by the worker pool.
type loop struct {
	body      func(index int)
	count     int
	chunkSize int

	// The next unclaimed index and the number of in-flight claims. Both are
	// guarded by the scheduler mutex.
	next   int
	active int

	done chan struct{}
}

// Returns true if all indices have been handed out.
func (l *loop) exhausted() bool {
	return l.next >= l.count
}

// Scheduler runs chunked parallel loops on a persistent pool of worker
// goroutines. The goroutine calling ParallelFor also drains its own loop.
type Scheduler struct {
	logger log.Logger

	concurrency int

	mu   sync.Mutex
	cond *sync.Cond

	// Loops with unclaimed indices in submission order.
	pending []*loop

	running  bool
	shutdown bool
	wg       sync.WaitGroup
}

// Create a new scheduler. A concurrency value <= 0 selects the number of
// available CPUs. Workers are not started until Init is called.
func New(concurrency int) *Scheduler {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	s := &Scheduler{
		logger:      log.New("scheduler"),
		concurrency: concurrency,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Get the number of goroutines (workers plus the caller) that participate
// in a parallel loop.
func (s *Scheduler) Concurrency() int {
	if s == nil {
		return 1
	}
	return s.concurrency
}

// Spawn concurrency-1 worker goroutines. Calling Init on a running
// scheduler is a no-op.
func (s *Scheduler) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.shutdown = false

	for i := 0; i < s.concurrency-1; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.logger.Debugf("started %d workers", s.concurrency-1)
}

// Stop all workers and wait for them to exit. Loops that are still being
// executed by their callers complete on the calling goroutine.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Debug("workers stopped")
}

// ParallelFor invokes body once for every index in [0, count). Indices are
// split into contiguous chunks of chunkSize that are processed in ascending
// order; chunks may run concurrently on different goroutines. If the
// scheduler runs with a concurrency of 1, is not initialized or count is
// less than chunkSize, all indices are processed sequentially on the
// calling goroutine. ParallelFor returns once every index has been processed.
func (s *Scheduler) ParallelFor(body func(index int), count, chunkSize int) {
	if count <= 0 {
		return
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if s == nil || s.concurrency == 1 || count < chunkSize || !s.isRunning() {
		for index := 0; index < count; index++ {
			body(index)
		}
		return
	}

	l := &loop{
		body:      body,
		count:     count,
		chunkSize: chunkSize,
		done:      make(chan struct{}),
	}

	// Publish loop and wake up workers
	s.mu.Lock()
	s.pending = append(s.pending, l)
	s.cond.Broadcast()

	// Participate until all indices are claimed
	for !l.exhausted() {
		start, end := s.claim(l)
		s.mu.Unlock()
		s.run(l, start, end)
		s.mu.Lock()
		s.release(l)
	}
	s.mu.Unlock()

	<-l.done
}

func (s *Scheduler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.shutdown
}

// The worker loop. Workers pick the oldest loop with unclaimed indices.
func (s *Scheduler) worker() {
	defer s.wg.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		for len(s.pending) == 0 && !s.shutdown {
			s.cond.Wait()
		}
		if s.shutdown {
			return
		}

		l := s.pending[0]
		start, end := s.claim(l)
		s.mu.Unlock()
		s.run(l, start, end)
		s.mu.Lock()
		s.release(l)
	}
}

// Claim the next chunk of a loop. Must be called with the mutex held. Once
// the last chunk is claimed the loop is removed from the pending queue.
func (s *Scheduler) claim(l *loop) (start, end int) {
	start = l.next
	end = start + l.chunkSize
	if end > l.count {
		end = l.count
	}
	l.next = end
	l.active++

	if l.exhausted() {
		s.dequeue(l)
	}
	return start, end
}

// Release a claim. Must be called with the mutex held. The loop is marked
// as done when it has no unclaimed indices and no active claims.
func (s *Scheduler) release(l *loop) {
	l.active--
	if l.exhausted() && l.active == 0 {
		close(l.done)
	}
}

func (s *Scheduler) dequeue(l *loop) {
	for index, pl := range s.pending {
		if pl == l {
			s.pending = append(s.pending[:index], s.pending[index+1:]...)
			return
		}
	}
}

func (s *Scheduler) run(l *loop, start, end int) {
	for index := start; index < end; index++ {
		l.body(index)
	}
}
