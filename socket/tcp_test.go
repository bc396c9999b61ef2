//go:build unix

package socket

import (
	"testing"
	"time"

	"github.com/searchktools/netcore/serr"
)

func isPeerClosed(err error) bool { return serr.Is(err, serr.PeerClosed) }

func TestTCPSocket_BindListenAcceptRoundTrip(t *testing.T) {
	srv := NewTCP().(*tcpSocket)
	if err := srv.Bind("127.0.0.1", 0); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer srv.Close()

	if err := srv.Listen(16); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	port, err := srv.LocalPort()
	if err != nil {
		t.Fatalf("LocalPort: %v", err)
	}

	accepted := make(chan Socket, 1)
	acceptErr := make(chan error, 1)
	go func() {
		c, err := srv.Accept(5000)
		accepted <- c
		acceptErr <- err
	}()

	cli := NewTCP().(*tcpSocket)
	if err := cli.Connect("127.0.0.1", port, 2000); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Close()

	if err := <-acceptErr; err != nil {
		t.Fatalf("Accept: %v", err)
	}
	peer := <-accepted
	defer peer.Close()

	msg := []byte("hello, server")
	if err := cli.Write(msg, 2000, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 64)
	n, err := peer.Read(buf, 2000, 3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != string(msg) {
		t.Fatalf("Read: got %q, want %q", buf[:n], msg)
	}
}

func TestTCPSocket_AcceptTimesOutWithNoConnection(t *testing.T) {
	srv := NewTCP().(*tcpSocket)
	if err := srv.Bind("127.0.0.1", 0); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer srv.Close()
	if err := srv.Listen(4); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	start := time.Now()
	_, err := srv.Accept(50)
	if err == nil {
		t.Fatal("Accept should time out with no pending connection")
	}
	if !errIsAgain(err) {
		t.Fatalf("Accept error kind: got %v, want Again", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Accept took too long to time out: %v", elapsed)
	}
}

func TestTCPSocket_ReadReturnsPeerClosed(t *testing.T) {
	srv := NewTCP().(*tcpSocket)
	srv.Bind("127.0.0.1", 0)
	defer srv.Close()
	srv.Listen(4)
	port, _ := srv.LocalPort()

	go func() {
		c, err := srv.Accept(2000)
		if err == nil {
			c.Close()
		}
	}()

	cli := NewTCP().(*tcpSocket)
	if err := cli.Connect("127.0.0.1", port, 2000); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Close()

	buf := make([]byte, 16)
	_, err := cli.Read(buf, 2000, 3)
	if !isPeerClosed(err) {
		t.Fatalf("Read after peer close: got %v, want PeerClosed", err)
	}
}
