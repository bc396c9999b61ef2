package sync2

import (
	"testing"
	"time"
)

func TestFIFO_RoundTrip(t *testing.T) {
	f := NewFIFO[int](4)

	for _, v := range []int{1, 2, 3, 4} {
		if !f.Add(v) {
			t.Fatalf("Add(%d) failed under capacity", v)
		}
	}

	if f.Add(5) {
		t.Fatal("Add beyond capacity should fail")
	}

	for _, want := range []int{1, 2, 3, 4} {
		got, ok := f.Get()
		if !ok || got != want {
			t.Fatalf("Get: got (%d, %v), want (%d, true)", got, ok, want)
		}
	}

	if _, ok := f.Get(); ok {
		t.Fatal("Get on empty queue should return ok=false")
	}
}

func TestFIFO_AddBeyondCapacityLeavesStateIntact(t *testing.T) {
	f := NewFIFO[int](2)
	f.Add(1)
	f.Add(2)

	if f.Add(3) {
		t.Fatal("Add should fail when full")
	}
	if got := f.Len(); got != 2 {
		t.Fatalf("Len: got %d, want 2", got)
	}

	v, ok := f.Get()
	if !ok || v != 1 {
		t.Fatalf("Get: got (%d, %v), want (1, true)", v, ok)
	}
}

func TestFIFO_WriteSignalWakesWaiter(t *testing.T) {
	f := NewFIFO[string](1)
	woke := make(chan bool, 1)

	go func() {
		ok := f.WaitCond()
		woke <- ok
		if ok {
			f.Lock().Unlock()
		}
	}()

	time.Sleep(20 * time.Millisecond)
	if !f.WriteSignal("hello") {
		t.Fatal("WriteSignal should succeed")
	}

	select {
	case ok := <-woke:
		if !ok {
			t.Fatal("waiter should have woken with ok=true")
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}

	v, ok := f.Get()
	if !ok || v != "hello" {
		t.Fatalf("Get: got (%q, %v), want (\"hello\", true)", v, ok)
	}
}

func TestFIFO_WakeReleasesWaiterWithoutData(t *testing.T) {
	f := NewFIFO[int](1)
	result := make(chan bool, 1)

	go func() {
		result <- f.WaitCond()
	}()

	time.Sleep(20 * time.Millisecond)
	f.Wake()

	select {
	case ok := <-result:
		if ok {
			t.Fatal("Wake with no data should resolve WaitCond with ok=false")
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never woke from Wake")
	}
}
