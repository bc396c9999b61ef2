//go:build unix

package httpserver

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/searchktools/netcore/httpmsg"
	"github.com/searchktools/netcore/socket"
	"github.com/searchktools/netcore/tcpserver"
)

func baseConfig() Config {
	return Config{
		TCP: tcpserver.Config{
			Host:            "127.0.0.1",
			Port:            0,
			Kind:            socket.KindTCP,
			Backlog:         8,
			QueueSize:       8,
			WorkerThreads:   4,
			BlockWhenFull:   true,
			ReadBufSize:     4096,
			WriteBufSize:    4096,
			AcceptTimeoutMs: 100,
			ReadTimeoutMs:   2000,
			WriteTimeoutMs:  2000,
			ReadRetries:     3,
			WriteRetries:    3,
		},
		MaxPages:   64,
		MaxContent: 1 << 20,
	}
}

func dial(t *testing.T, s *Server) net.Conn {
	t.Helper()
	type portGetter interface{ LocalPort() (int, error) }
	port, err := s.tcp.ListenSocket().(portGetter).LocalPort()
	if err != nil {
		t.Fatalf("LocalPort: %v", err)
	}
	c, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	c.SetDeadline(time.Now().Add(2 * time.Second))
	return c
}

func TestServer_PlaintextGETEchoesURIPath(t *testing.T) {
	srv := New(baseConfig(), nil, nil)
	srv.RegisterPage("/echo", func(req *httpmsg.Request, resp *httpmsg.Response) httpmsg.Status {
		resp.WriteBody([]byte(req.Path))
		return httpmsg.StatusOK
	}, PageAttributes{})

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown()

	c := dial(t, srv)
	defer c.Close()

	c.Write([]byte("GET /echo HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))

	buf := make([]byte, 4096)
	n, err := c.Read(buf)
	if err != nil && n == 0 {
		t.Fatalf("Read: %v", err)
	}
	resp := string(buf[:n])
	if !contains(resp, "200 OK") || !contains(resp, "Content-Length: 5") || !contains(resp, "/echo") {
		t.Fatalf("unexpected response: %q", resp)
	}
}

func TestServer_NotFoundForUnregisteredPath(t *testing.T) {
	srv := New(baseConfig(), nil, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown()

	c := dial(t, srv)
	defer c.Close()
	c.Write([]byte("GET /missing HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))

	buf := make([]byte, 4096)
	n, _ := c.Read(buf)
	resp := string(buf[:n])
	if !contains(resp, "404") {
		t.Fatalf("expected 404, got %q", resp)
	}
}

func TestServer_NotModifiedWhenIfModifiedSinceMatches(t *testing.T) {
	lastMod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	srv := New(baseConfig(), nil, nil)
	srv.RegisterPage("/cached", func(req *httpmsg.Request, resp *httpmsg.Response) httpmsg.Status {
		if req.Request.IfModifiedSince != nil && !req.Request.IfModifiedSince.Before(lastMod) {
			return httpmsg.StatusNotModified
		}
		resp.WriteBody([]byte("fresh"))
		return httpmsg.StatusOK
	}, PageAttributes{})

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown()

	c := dial(t, srv)
	defer c.Close()
	req := "GET /cached HTTP/1.1\r\nHost: x\r\nIf-Modified-Since: " +
		lastMod.Format("Mon, 02 Jan 2006 15:04:05 GMT") + "\r\nConnection: close\r\n\r\n"
	c.Write([]byte(req))

	buf := make([]byte, 4096)
	n, _ := c.Read(buf)
	resp := string(buf[:n])
	if !contains(resp, "304") {
		t.Fatalf("expected 304, got %q", resp)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
