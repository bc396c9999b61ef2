// Package socket implements the unified plaintext/TLS socket abstraction:
// one interface over two variants, with poll-then-IO readiness, bounded
// retries and a distinct "again" error kind for timeouts.
package socket

import (
	"fmt"

	"github.com/searchktools/netcore/serr"
)

// Kind selects which concrete variant a Socket constructor builds.
type Kind int

const (
	KindTCP Kind = iota
	KindTLS
)

func (k Kind) String() string {
	if k == KindTLS {
		return "tls"
	}
	return "tcp"
}

// Socket unifies plaintext TCP and TLS behind poll-based readiness, bounded
// retries and timeouts. Every blocking method takes its own timeout so a
// caller never parks forever on a slow or hostile peer.
type Socket interface {
	// Bind associates the socket with a local address. host == "" means
	// INADDR_ANY.
	Bind(host string, port int) error

	// Listen marks a bound socket as passive with the given backlog.
	Listen(backlog int) error

	// Accept blocks (up to timeoutMs, 0 meaning no timeout) for an
	// incoming connection and returns a new Socket wrapping it.
	Accept(timeoutMs int) (Socket, error)

	// Connect establishes an outbound connection within timeoutMs.
	Connect(host string, port int, timeoutMs int) error

	// Read returns data as soon as any is available; callers must not
	// assume a full fill. A zero-byte result with a nil error cannot
	// happen — peer close surfaces as serr.PeerClosed.
	Read(buf []byte, timeoutMs, retries int) (int, error)

	// Write retries partial writes by advancing the buffer pointer until
	// all of buf is written or the retry budget is exhausted.
	Write(buf []byte, timeoutMs, retries int) error

	// Close performs a best-effort shutdown then close. TLS sockets
	// attempt a bidirectional close_notify first.
	Close() error

	SetNonblock() error
	ClearNonblock() error

	// WaitForData polls for readability without consuming any bytes.
	WaitForData(timeoutMs int) error
	// WaitForWritability polls for writability.
	WaitForWritability(timeoutMs int) error

	// Fd returns the underlying file descriptor, -1 if not applicable
	// (used by the poller and by diagnostics, not by application code).
	Fd() int

	// PeerAddr returns the remote address of a connected/accepted socket,
	// for client-admission checks and logging.
	PeerAddr() (string, error)
}

func errAgain(op string) error {
	return serr.New(serr.Again, op, nil)
}

func errPeerClosed(op string) error {
	return serr.New(serr.PeerClosed, op, nil)
}

func errIO(op string, err error) error {
	return serr.New(serr.IO, op, err)
}

func errConfiguration(op string, detail string) error {
	return serr.New(serr.Configuration, op, fmt.Errorf("%s", detail))
}
