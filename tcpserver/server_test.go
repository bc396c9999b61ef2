//go:build unix

package tcpserver

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/searchktools/netcore/conn"
	"github.com/searchktools/netcore/socket"
)

func baseConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		Kind:            socket.KindTCP,
		Backlog:         8,
		QueueSize:       8,
		WorkerThreads:   4,
		BlockWhenFull:   true,
		ReadBufSize:     256,
		WriteBufSize:    256,
		AcceptTimeoutMs: 100,
		ReadTimeoutMs:   1000,
		WriteTimeoutMs:  1000,
		ReadRetries:     3,
		WriteRetries:    3,
	}
}

func dialServer(t *testing.T, s *Server) socket.Socket {
	t.Helper()
	type portGetter interface{ LocalPort() (int, error) }
	port, err := s.sock.(portGetter).LocalPort()
	if err != nil {
		t.Fatalf("LocalPort: %v", err)
	}
	cli := socket.NewTCP()
	if err := cli.Connect("127.0.0.1", port, 2000); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return cli
}

func TestServer_AcceptsAndServices(t *testing.T) {
	var served atomic.Int64
	srv := New(baseConfig(), nil, func(c *conn.Connection) {
		served.Add(1)
		c.Close()
	})

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown()

	cli := dialServer(t, srv)
	defer cli.Close()

	deadline := time.Now().Add(2 * time.Second)
	for served.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if served.Load() == 0 {
		t.Fatal("service function never ran")
	}
}

func TestServer_DeniesFilteredClient(t *testing.T) {
	filter := NewAllowlistFilter("10.0.0.1")
	srv := New(baseConfig(), filter, func(c *conn.Connection) { c.Close() })
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown()

	cli := dialServer(t, srv)
	defer cli.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Counters().DeniedClients == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := srv.Counters().DeniedClients; got != 1 {
		t.Fatalf("DeniedClients: got %d, want 1", got)
	}
}

func TestServer_ShutdownStopsAcceptLoop(t *testing.T) {
	srv := New(baseConfig(), nil, func(c *conn.Connection) { c.Close() })
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return in time")
	}
}
