//go:build unix

package httpwire

import (
	"testing"

	"github.com/searchktools/netcore/conn"
	"github.com/searchktools/netcore/socket"
)

// pairConnections returns two buffered Connections wired together over a
// loopback TCP socket, for HTTP round-trip tests.
func pairConnections(t *testing.T) (client, server *conn.Connection) {
	t.Helper()

	srv := socket.NewTCP()
	if err := srv.Bind("127.0.0.1", 0); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := srv.Listen(4); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	port, err := srv.(interface{ LocalPort() (int, error) }).LocalPort()
	if err != nil {
		t.Fatalf("LocalPort: %v", err)
	}

	accepted := make(chan socket.Socket, 1)
	go func() {
		c, _ := srv.Accept(2000)
		accepted <- c
	}()

	cliSock := socket.NewTCP()
	if err := cliSock.Connect("127.0.0.1", port, 2000); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	srvSock := <-accepted
	srv.Close()

	policy := conn.Policy{ReadTimeoutMs: 2000, WriteTimeoutMs: 2000, ReadRetries: 3, WriteRetries: 3}
	client = conn.New(cliSock, 4096, 4096, policy)
	server = conn.New(srvSock, 4096, 4096, policy)

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	return client, server
}
