// Package pool implements the bounded-queue thread pool: a fixed number of
// worker goroutines draining a fixed-capacity queue, with block-or-discard
// backpressure on a full queue and atomic overload accounting.
package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/searchktools/netcore/serr"
	"github.com/searchktools/netcore/sync2"
)

// Task is one unit of work. Init and Cleanup are optional; Work is not.
type Task struct {
	Init    func()
	Work    func()
	Cleanup func()
}

// Stats reports the pool's atomic overload counters.
type Stats struct {
	Added     uint64
	Blocked   uint64
	Discarded uint64
}

// Pool is a fixed-size worker pool draining a fixed-capacity FIFO queue of
// Tasks, mirroring threadpool.c's mutex-plus-three-condvar state machine --
// here the queue storage and wait/wake half of that state machine is
// sync2.FIFO/WLock, and queue-capacity admission is delegated to a weighted
// semaphore sized to maxQueueSize: Add acquires one unit before appending, a
// worker releases it the instant it dequeues, which is exactly the
// "capacity -> capacity-1" transition threadpool.c signals queue_not_full on.
type Pool struct {
	queue       *sync2.FIFO[Task]
	lock        *sync2.WLock
	queueClosed bool
	shutdown    bool

	blockWhenFull bool
	sem           *semaphore.Weighted
	ctx           context.Context
	cancel        context.CancelFunc

	added     atomic.Uint64
	blocked   atomic.Uint64
	discarded atomic.Uint64

	wg sync.WaitGroup
}

// New starts nthreads workers draining a queue with the given capacity.
// blockWhenFull selects Add's behavior when the queue is saturated: block
// until space frees up, or fail immediately with a Resource-kind error.
func New(nthreads, maxQueueSize int, blockWhenFull bool) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	queue := sync2.NewFIFO[Task](maxQueueSize)
	p := &Pool{
		queue:         queue,
		lock:          queue.Lock(),
		blockWhenFull: blockWhenFull,
		sem:           semaphore.NewWeighted(int64(maxQueueSize)),
		ctx:           ctx,
		cancel:        cancel,
	}

	for i := 0; i < nthreads; i++ {
		p.wg.Add(1)
		go p.workerLoop()
	}
	return p
}

// Add enqueues t. If the queue is full and the pool isn't configured to
// block, Add fails immediately and increments Discarded. If it is
// configured to block, Add waits for a semaphore unit to free up,
// incrementing Blocked once per call that observed a full queue; a
// concurrent Destroy unblocks it with a shutdown error.
func (p *Pool) Add(t Task) error {
	if !p.sem.TryAcquire(1) {
		if !p.blockWhenFull {
			p.discarded.Add(1)
			return serr.ErrQueueFull
		}

		p.blocked.Add(1)
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return serr.ErrShuttingDown
		}
	}

	p.lock.Lock()
	if p.shutdown {
		p.lock.Unlock()
		p.sem.Release(1)
		return serr.ErrShuttingDown
	}
	if p.queueClosed {
		p.lock.Unlock()
		p.sem.Release(1)
		return serr.ErrQueueClosed
	}

	p.queue.AddLocked(t)
	p.lock.Signal()
	p.lock.Unlock()

	p.added.Add(1)
	return nil
}

func (p *Pool) workerLoop() {
	defer p.wg.Done()

	for {
		p.lock.Lock()
		for p.queue.LenLocked() == 0 && !p.shutdown {
			p.lock.Wait()
		}

		if p.queue.LenLocked() == 0 {
			p.lock.Unlock()
			return
		}

		t, _ := p.queue.GetLocked()
		if p.queue.LenLocked() == 0 {
			// Wakes a concurrent Destroy(true) waiting for the drain to
			// finish; harmless for idle sibling workers, which just
			// recheck their own wait condition and go back to sleep.
			p.lock.Broadcast()
		}
		p.lock.Unlock()
		p.sem.Release(1)

		if t.Init != nil {
			t.Init()
		}
		if t.Work != nil {
			t.Work()
		}
		if t.Cleanup != nil {
			t.Cleanup()
		}
	}
}

// Destroy closes the queue to new work, optionally waits for it to drain,
// then signals every worker to exit and joins them. Workers exit only once
// the queue is empty, so even with drain false Destroy does not return
// until every task already queued has run; drain only decides whether the
// queue empties before or after the shutdown flag is set.
func (p *Pool) Destroy(drain bool) {
	p.lock.Lock()
	p.queueClosed = true
	if drain {
		for p.queue.LenLocked() != 0 {
			p.lock.Wait()
		}
	}
	p.shutdown = true
	p.lock.Broadcast()
	p.lock.Unlock()

	p.cancel()
	p.wg.Wait()
}

// Stats returns a snapshot of the pool's overload counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Added:     p.added.Load(),
		Blocked:   p.blocked.Load(),
		Discarded: p.discarded.Load(),
	}
}
