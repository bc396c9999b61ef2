package socket

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// TLSMaterial names the certificate chain, private key and optional CA
// directory used to build a *tls.Config, mirroring sslsocket.c's
// ctx_private_key/ctx_cert_chain_file/ctx_ca_directory setters.
type TLSMaterial struct {
	CertChainFile string
	PrivateKey    string
	CADirectory   string
}

// LoadTLSConfig builds a server-side *tls.Config from TLSMaterial. This is
// the one corner of the socket package that leans on the standard library
// alone: crypto/tls and crypto/x509 already do exactly what's needed here.
func LoadTLSConfig(m TLSMaterial) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(m.CertChainFile, m.PrivateKey)
	if err != nil {
		return nil, errConfiguration("tls_config", fmt.Sprintf("load key pair: %v", err))
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if m.CADirectory != "" {
		pool, err := loadCAPool(m.CADirectory)
		if err != nil {
			return nil, errConfiguration("tls_config", fmt.Sprintf("load CA directory: %v", err))
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.VerifyClientCertIfGiven
	}

	return cfg, nil
}

func loadCAPool(dir string) (*x509.CertPool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	pool := x509.NewCertPool()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(dir + "/" + e.Name())
		if err != nil {
			continue
		}
		pool.AppendCertsFromPEM(data)
	}
	return pool, nil
}

// tlsSocket is the TLS variant. Unlike tcpSocket it's built on net.Conn and
// tls.Conn, since crypto/tls owns the handshake and record layer state
// machine, and "wants read"/"wants write" renegotiation is handled
// internally by the standard library's Read/Write, matching sslsocket.c's
// retry-on-WANT_* behavior up to the given retry budget. Readiness still
// goes through the same unix.Poll pollFor as tcpSocket: WaitForData/
// WaitForWritability reach into the listening socket's or connection's raw
// fd via SyscallConn rather than faking readiness with a zero-length Read
// (crypto/tls.Conn.Read(nil) returns (0, nil) immediately without polling
// anything, so it can't stand in for a poll).
type tlsSocket struct {
	rawListener *net.TCPListener // kept for Bind-time polling/deadlines, before Accept wraps it
	listener    net.Listener     // tls.NewListener(rawListener, cfg); what Accept actually calls
	conn        *tls.Conn
	cfg         *tls.Config
	fd          int
}

// NewTLSServer returns an unbound TLS server socket configured with cfg.
func NewTLSServer(cfg *tls.Config) Socket {
	return &tlsSocket{cfg: cfg, fd: -1}
}

func (s *tlsSocket) Bind(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	lst, err := net.Listen("tcp", addr)
	if err != nil {
		return errIO("bind", err)
	}
	tl, ok := lst.(*net.TCPListener)
	if !ok {
		lst.Close()
		return errConfiguration("bind", "listener is not a *net.TCPListener")
	}
	s.rawListener = tl
	s.listener = tls.NewListener(tl, s.cfg)
	return nil
}

func (s *tlsSocket) Listen(backlog int) error {
	// net.Listen already creates a listening socket with the kernel's
	// default backlog; there is no portable way to change it after the
	// fact via net.Listener, so this is a no-op kept for interface parity.
	return nil
}

func (s *tlsSocket) Accept(timeoutMs int) (Socket, error) {
	if s.rawListener != nil && timeoutMs > 0 {
		s.rawListener.SetDeadline(time.Now().Add(time.Duration(timeoutMs) * time.Millisecond))
	}

	c, err := s.listener.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, errAgain("accept")
		}
		return nil, errIO("accept", err)
	}

	tc, ok := c.(*tls.Conn)
	if !ok {
		c.Close()
		return nil, errIO("accept", fmt.Errorf("accepted connection is not TLS"))
	}

	if err := tc.Handshake(); err != nil {
		tc.Close()
		return nil, errIO("accept", err)
	}

	return &tlsSocket{conn: tc, fd: -1}, nil
}

func (s *tlsSocket) Connect(host string, port int, timeoutMs int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	dialer := &net.Dialer{Timeout: time.Duration(timeoutMs) * time.Millisecond}
	c, err := tls.DialWithDialer(dialer, "tcp", addr, s.cfg)
	if err != nil {
		return errIO("connect", err)
	}
	s.conn = c
	return nil
}

func (s *tlsSocket) Read(buf []byte, timeoutMs, retries int) (int, error) {
	for attempt := 0; attempt <= retries; attempt++ {
		if timeoutMs > 0 {
			s.conn.SetReadDeadline(time.Now().Add(time.Duration(timeoutMs) * time.Millisecond))
		}

		n, err := s.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if err.Error() == "EOF" {
				return 0, errPeerClosed("read")
			}
			return n, errIO("read", err)
		}
		if n == 0 {
			return 0, errPeerClosed("read")
		}
		return n, nil
	}
	return 0, errAgain("read")
}

func (s *tlsSocket) Write(buf []byte, timeoutMs, retries int) error {
	written := 0
	for attempt := 0; attempt <= retries && written < len(buf); {
		if timeoutMs > 0 {
			s.conn.SetWriteDeadline(time.Now().Add(time.Duration(timeoutMs) * time.Millisecond))
		}

		n, err := s.conn.Write(buf[written:])
		written += n
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				attempt++
				continue
			}
			return errIO("write", err)
		}
	}

	if written < len(buf) {
		return errAgain("write")
	}
	return nil
}

func (s *tlsSocket) Close() error {
	if s.conn != nil {
		s.conn.CloseWrite()
		err := s.conn.Close()
		if err != nil {
			return errIO("close", err)
		}
		return nil
	}
	if s.listener != nil {
		return errIO("close", s.listener.Close())
	}
	return nil
}

func (s *tlsSocket) SetNonblock() error { return nil }

func (s *tlsSocket) ClearNonblock() error { return nil }

// WaitForData polls for readability on whichever raw fd this socket
// currently owns: the listening socket before Accept, or the established
// connection's fd afterward. Neither tls.Listener nor tls.Conn expose their
// fd directly, so this reaches through SyscallConn the same way net/http's
// own internals do when they need raw fd access under a TLS listener.
func (s *tlsSocket) WaitForData(timeoutMs int) error {
	switch {
	case s.conn != nil:
		sc, ok := s.conn.NetConn().(syscall.Conn)
		if !ok {
			return errConfiguration("wait_for_data", "connection does not expose a raw fd")
		}
		return pollConnReadable(sc, "wait_for_data", timeoutMs)
	case s.rawListener != nil:
		return pollConnReadable(s.rawListener, "wait_for_data", timeoutMs)
	default:
		return errConfiguration("wait_for_data", "socket has no listener or connection")
	}
}

func (s *tlsSocket) WaitForWritability(timeoutMs int) error {
	if s.conn == nil {
		return errConfiguration("wait_for_writability", "socket has no active connection")
	}
	sc, ok := s.conn.NetConn().(syscall.Conn)
	if !ok {
		return errConfiguration("wait_for_writability", "connection does not expose a raw fd")
	}
	return pollConnWritable(sc, "wait_for_writability", timeoutMs)
}

// pollConnReadable/pollConnWritable reach into a syscall.Conn's raw fd and
// run it through the same unix.Poll-based waitReadable/waitWritable
// poll_unix.go uses for plaintext sockets.
func pollConnReadable(nc syscall.Conn, op string, timeoutMs int) error {
	return withRawFd(nc, op, func(fd int) error { return waitReadable(fd, op, timeoutMs) })
}

func pollConnWritable(nc syscall.Conn, op string, timeoutMs int) error {
	return withRawFd(nc, op, func(fd int) error { return waitWritable(fd, op, timeoutMs) })
}

// withRawFd runs fn with nc's underlying file descriptor, the standard
// SyscallConn dance for reaching into a net.Conn/net.Listener that doesn't
// expose Fd() directly.
func withRawFd(nc syscall.Conn, op string, fn func(fd int) error) error {
	rc, err := nc.SyscallConn()
	if err != nil {
		return errIO(op, err)
	}

	var opErr error
	if ctrlErr := rc.Control(func(fd uintptr) { opErr = fn(int(fd)) }); ctrlErr != nil {
		return errIO(op, ctrlErr)
	}
	return opErr
}

func (s *tlsSocket) Fd() int { return s.fd }

func (s *tlsSocket) PeerAddr() (string, error) {
	if s.conn == nil {
		return "", errConfiguration("peer_addr", "socket has no active connection")
	}
	addr := s.conn.RemoteAddr()
	if addr == nil {
		return "", errIO("peer_addr", fmt.Errorf("no remote address"))
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), nil
	}
	return host, nil
}
