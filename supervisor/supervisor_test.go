package supervisor

import (
	"errors"
	"testing"
	"time"
)

func TestSupervisor_DoOrderAndUndoOnFailure(t *testing.T) {
	var doOrder []string
	var undoOrder []string

	s := New("test-app", 10)
	s.Register(Subsystem{
		Name: "a",
		Do:   func() error { doOrder = append(doOrder, "a"); return nil },
		Undo: func() error { undoOrder = append(undoOrder, "a"); return nil },
		Run:  func() error { return nil },
	})
	s.Register(Subsystem{
		Name: "b",
		Do:   func() error { doOrder = append(doOrder, "b"); return nil },
		Undo: func() error { undoOrder = append(undoOrder, "b"); return nil },
		Run:  func() error { return nil },
	})
	s.Register(Subsystem{
		Name: "c",
		Do:   func() error { doOrder = append(doOrder, "c"); return errors.New("boom") },
		Run:  func() error { return nil },
	})

	err := s.Start()
	if err == nil {
		t.Fatal("Start should fail when a subsystem's Do fails")
	}

	if len(doOrder) != 3 || doOrder[0] != "a" || doOrder[1] != "b" || doOrder[2] != "c" {
		t.Fatalf("Do order: got %v, want [a b c]", doOrder)
	}
	if len(undoOrder) != 2 || undoOrder[0] != "b" || undoOrder[1] != "a" {
		t.Fatalf("Undo order: got %v, want [b a] (reverse of successfully-started)", undoOrder)
	}
}

func TestSupervisor_ShutdownCallsEveryShutdownInOrder(t *testing.T) {
	var shutdownOrder []string
	shutdownMu := make(chan struct{}, 1)
	shutdownMu <- struct{}{}

	record := func(name string) func() error {
		return func() error {
			<-shutdownMu
			shutdownOrder = append(shutdownOrder, name)
			shutdownMu <- struct{}{}
			return nil
		}
	}

	s := New("test-app", 10)
	s.Register(Subsystem{
		Name:     "a",
		Do:       func() error { return nil },
		Run:      func() error { return nil },
		Shutdown: record("a"),
	})
	s.Register(Subsystem{
		Name:     "b",
		Do:       func() error { return nil },
		Run:      func() error { return nil },
		Shutdown: record("b"),
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.Shutdown()

	select {
	case <-s.shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown goroutine never completed")
	}

	if err := s.WaitForShutdown(); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}

	if len(shutdownOrder) != 2 || shutdownOrder[0] != "a" || shutdownOrder[1] != "b" {
		t.Fatalf("Shutdown order: got %v, want [a b]", shutdownOrder)
	}
	if !s.ShuttingDown() {
		t.Fatal("ShuttingDown should report true after shutdown")
	}
}

func TestSupervisor_RegisterFailsPastCap(t *testing.T) {
	s := New("test-app", 1)
	if err := s.Register(Subsystem{Name: "a", Run: func() error { return nil }}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := s.Register(Subsystem{Name: "b", Run: func() error { return nil }}); err == nil {
		t.Fatal("Register should fail once the cap is reached")
	}
}
