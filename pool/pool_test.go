package pool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/searchktools/netcore/serr"
)

func TestPool_RunsEveryTask(t *testing.T) {
	p := New(4, 16, true)

	var completed atomic.Int64
	for i := 0; i < 50; i++ {
		if err := p.Add(Task{Work: func() { completed.Add(1) }}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for completed.Load() < 50 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	p.Destroy(true)

	if got := completed.Load(); got != 50 {
		t.Fatalf("completed: got %d, want 50", got)
	}
	if got := p.Stats().Added; got != 50 {
		t.Fatalf("Added: got %d, want 50", got)
	}
}

func TestPool_DiscardsWhenFullNoBlock(t *testing.T) {
	release := make(chan struct{})
	p := New(1, 2, false)

	// Occupy the single worker so the queue actually fills up.
	p.Add(Task{Work: func() { <-release }})
	time.Sleep(20 * time.Millisecond)

	results := make([]error, 0, 4)
	for i := 0; i < 4; i++ {
		results = append(results, p.Add(Task{Work: func() {}}))
	}
	close(release)
	p.Destroy(true)

	var discarded int
	for _, err := range results {
		if err != nil {
			if !serr.Is(err, serr.Resource) {
				t.Fatalf("rejection error kind: got %v, want Resource", err)
			}
			discarded++
		}
	}
	if discarded == 0 {
		t.Fatal("expected at least one discarded task once the queue filled up")
	}
	if got := p.Stats().Discarded; got != uint64(discarded) {
		t.Fatalf("Discarded stat: got %d, want %d", got, discarded)
	}
}

func TestPool_InitWorkCleanupOrder(t *testing.T) {
	p := New(2, 8, true)
	var order []string
	done := make(chan struct{})

	p.Add(Task{
		Init:    func() { order = append(order, "init") },
		Work:    func() { order = append(order, "work") },
		Cleanup: func() { order = append(order, "cleanup"); close(done) },
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never completed")
	}
	p.Destroy(true)

	want := []string{"init", "work", "cleanup"}
	if len(order) != len(want) {
		t.Fatalf("order: got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order: got %v, want %v", order, want)
		}
	}
}
