// Package supervisor implements the process supervisor: staged do/undo
// startup in registration order, a dedicated SIGTERM-handling shutdown
// goroutine, and ordered teardown of registered subsystems.
package supervisor

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/searchktools/netcore/serr"
)

// Subsystem is one registered unit: Do/Undo bracket startup, Run executes
// for the subsystem's lifetime on its own goroutine, and Shutdown must be
// idempotent and safe to call before Run has even started.
type Subsystem struct {
	Name     string
	Do       func() error
	Undo     func() error
	Run      func() error
	Shutdown func() error
}

type registered struct {
	sub     Subsystem
	exitErr error
	started bool
}

// Supervisor coordinates registration-ordered startup (with reverse-order
// undo when a do step fails), a SIGTERM-driven shutdown goroutine, and
// registration-order teardown. Subsystem Run functions
// are joined with an errgroup.Group: it already does exactly what
// meta_process.c's per-subsystem pthread_join loop did by hand (wait for
// every goroutine, surface the first error).
type Supervisor struct {
	appName string
	cap     int

	mu           sync.Mutex
	objects      []*registered
	shuttingDown bool

	shutdownDone chan struct{}
	runGroup     *errgroup.Group
}

// New returns a Supervisor for appName (used for the pid file name) that
// accepts up to cap registered subsystems. cap replaces the original
// library's hardcoded 200-object array bound; Go has no static-array
// reason to cap registration, so this constructor argument is purely a
// sanity limit the caller chooses.
func New(appName string, cap int) *Supervisor {
	return &Supervisor{appName: appName, cap: cap, shutdownDone: make(chan struct{})}
}

// Register appends a subsystem. It fails once the configured cap is
// reached.
func (s *Supervisor) Register(sub Subsystem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.objects) >= s.cap {
		return serr.ErrRegistryFull
	}
	s.objects = append(s.objects, &registered{sub: sub})
	return nil
}

// RegisterServer is a convenience for subsystems shaped like a TCP or HTTP
// server: its Start/Shutdown methods are used directly as do/shutdown, with
// Run blocking until Shutdown unblocks it (mirroring
// tcp_server_start_via_process, where the server registers itself as a
// process subsystem without a dedicated adapter function).
func (s *Supervisor) RegisterServer(name string, start func() error, shutdown func() error) error {
	stopped := make(chan struct{})
	return s.Register(Subsystem{
		Name: name,
		Do:   start,
		Run: func() error {
			<-stopped
			return nil
		},
		Shutdown: func() error {
			err := shutdown()
			select {
			case <-stopped:
			default:
				close(stopped)
			}
			return err
		},
	})
}

// Start runs do() on every registered subsystem in registration order. On
// the first failure it calls undo() on every previously-succeeded
// subsystem in reverse and returns the failure. On success it installs the
// SIGTERM-handling shutdown goroutine and spawns one worker goroutine per
// subsystem running its Run function.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	objs := append([]*registered(nil), s.objects...)
	s.mu.Unlock()

	for i, r := range objs {
		if r.sub.Do == nil {
			continue
		}
		if err := r.sub.Do(); err != nil {
			s.undo(objs[:i])
			return fmt.Errorf("starting %s: %w", r.sub.Name, err)
		}
	}

	s.installShutdownHandler(objs)

	var g errgroup.Group
	for _, r := range objs {
		r := r
		r.started = true
		g.Go(func() error {
			if r.sub.Run != nil {
				r.exitErr = r.sub.Run()
			}
			return r.exitErr
		})
	}
	s.runGroup = &g

	return nil
}

func (s *Supervisor) undo(started []*registered) {
	for i := len(started) - 1; i >= 0; i-- {
		if started[i].sub.Undo != nil {
			started[i].sub.Undo()
		}
	}
}

// installShutdownHandler blocks SIGTERM process-wide except for a single
// dedicated goroutine, writes the pid file, and waits for SIGTERM to call
// Shutdown on every subsystem in order.
func (s *Supervisor) installShutdownHandler(objs []*registered) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)

	s.writePidFile()

	go func() {
		defer close(s.shutdownDone)
		<-sigCh

		s.mu.Lock()
		s.shuttingDown = true
		s.mu.Unlock()

		for _, r := range objs {
			if r.sub.Shutdown != nil {
				r.sub.Shutdown()
			}
		}
	}()
}

func (s *Supervisor) writePidFile() {
	path := fmt.Sprintf("/var/run/%s.pid", s.appName)
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%d", os.Getpid())
}

// Shutdown triggers the same path as receiving SIGTERM, for callers that
// want to shut down programmatically (e.g. tests) instead of via a signal.
func (s *Supervisor) Shutdown() {
	syscall.Kill(os.Getpid(), syscall.SIGTERM)
}

// ShuttingDown reports whether the shutdown goroutine has fired.
func (s *Supervisor) ShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

// WaitForShutdown blocks until the shutdown goroutine has run to
// completion, then waits for every subsystem's Run goroutine to return via
// the errgroup, returning the first non-nil exit error if any.
func (s *Supervisor) WaitForShutdown() error {
	<-s.shutdownDone

	s.mu.Lock()
	g := s.runGroup
	s.mu.Unlock()

	if g == nil {
		return nil
	}
	return g.Wait()
}

// ExitCode returns the error (if any) a named subsystem's Run function
// returned, valid only after WaitForShutdown has returned.
func (s *Supervisor) ExitCode(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.objects {
		if r.sub.Name == name {
			return r.exitErr
		}
	}
	return nil
}
