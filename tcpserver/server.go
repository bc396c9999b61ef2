// Package tcpserver implements the TCP server: it owns the listening
// socket, loops accept with poll-based timeouts, enforces client
// admission, and hands each accepted connection to a worker pool running
// the configured service function.
package tcpserver

import (
	"sync"
	"sync/atomic"

	"github.com/searchktools/netcore/conn"
	"github.com/searchktools/netcore/pool"
	"github.com/searchktools/netcore/serr"
	"github.com/searchktools/netcore/socket"
)

// ClientFilter decides whether a peer address is allowed to connect.
// A nil filter admits every client.
type ClientFilter interface {
	Admits(peerAddr string) bool
}

// ServiceFunc owns an accepted connection for its lifetime and must close
// it before returning.
type ServiceFunc func(*conn.Connection)

// Config collects the options a Server needs that SPEC_FULL's typed option
// table also exposes (host/port, queue sizing, buffer sizes, timeouts).
type Config struct {
	Host string
	Port int
	Kind socket.Kind

	Backlog int

	QueueSize     int
	WorkerThreads int
	BlockWhenFull bool

	ReadBufSize  int
	WriteBufSize int

	AcceptTimeoutMs int
	ReadTimeoutMs   int
	WriteTimeoutMs  int
	ReadRetries     int
	WriteRetries    int

	TLSMaterial socket.TLSMaterial
}

// Server is a TCP server: listening socket + admission filter + worker
// pool, dispatching accepted connections to a user-supplied ServiceFunc.
type Server struct {
	cfg     Config
	sock    socket.Socket
	filter  ClientFilter
	service ServiceFunc
	pool    *pool.Pool

	shuttingDown atomic.Bool
	acceptWg     sync.WaitGroup

	pollIntr      atomic.Uint64
	pollAgain     atomic.Uint64
	acceptFailed  atomic.Uint64
	deniedClients atomic.Uint64
}

// Counters is a snapshot of the server's atomic, monotonic overload and
// admission counters, combined with the pool's own Added/Blocked/Discarded.
type Counters struct {
	Added         uint64
	Blocked       uint64
	Discarded     uint64
	PollIntr      uint64
	PollAgain     uint64
	AcceptFailed  uint64
	DeniedClients uint64
}

// New builds a Server. service is invoked once per accepted, admitted
// connection; filter may be nil to admit every client.
func New(cfg Config, filter ClientFilter, service ServiceFunc) *Server {
	return &Server{
		cfg:     cfg,
		filter:  filter,
		service: service,
		pool:    pool.New(cfg.WorkerThreads, cfg.QueueSize, cfg.BlockWhenFull),
	}
}

// getRootResources creates the listening socket, loading the TLS context
// from the configured material when cfg.Kind is TLS.
func (s *Server) getRootResources() error {
	var sock socket.Socket
	if s.cfg.Kind == socket.KindTLS {
		tlsCfg, err := socket.LoadTLSConfig(s.cfg.TLSMaterial)
		if err != nil {
			return err
		}
		sock = socket.NewTLSServer(tlsCfg)
	} else {
		sock = socket.NewTCP()
	}

	if err := sock.Bind(s.cfg.Host, s.cfg.Port); err != nil {
		return err
	}
	if err := sock.Listen(s.cfg.Backlog); err != nil {
		return err
	}

	s.sock = sock
	return nil
}

// Start allocates the listening socket and spawns the accept loop in a new
// goroutine. It returns once the listener is ready to accept.
func (s *Server) Start() error {
	if err := s.getRootResources(); err != nil {
		return err
	}

	s.acceptWg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.acceptWg.Done()

	for !s.shuttingDown.Load() {
		err := s.sock.WaitForData(s.cfg.AcceptTimeoutMs)
		if err != nil {
			if serr.Is(err, serr.Again) {
				s.pollAgain.Add(1)
			} else {
				s.acceptFailed.Add(1)
			}
			continue
		}

		peer, err := s.sock.Accept(s.cfg.AcceptTimeoutMs)
		if err != nil {
			if serr.Is(err, serr.Again) {
				s.pollAgain.Add(1)
			} else {
				s.acceptFailed.Add(1)
			}
			continue
		}

		peerAddr := peerAddrOf(peer)
		if s.filter != nil && !s.filter.Admits(peerAddr) {
			peer.Close()
			s.deniedClients.Add(1)
			continue
		}

		c := conn.New(peer, s.cfg.ReadBufSize, s.cfg.WriteBufSize, conn.Policy{
			ReadTimeoutMs:  s.cfg.ReadTimeoutMs,
			WriteTimeoutMs: s.cfg.WriteTimeoutMs,
			ReadRetries:    s.cfg.ReadRetries,
			WriteRetries:   s.cfg.WriteRetries,
		})

		if err := s.pool.Add(pool.Task{Work: func() { s.service(c) }}); err != nil {
			c.Close()
		}
	}
}

// Shutdown stops accepting, closes the listening socket to unblock the
// accept loop, and drains the worker pool.
func (s *Server) Shutdown() error {
	s.shuttingDown.Store(true)

	var closeErr error
	if s.sock != nil {
		closeErr = s.sock.Close()
	}
	s.acceptWg.Wait()
	s.pool.Destroy(true)
	return closeErr
}

// ListenSocket returns the server's listening socket, valid after Start
// returns. Used by callers that bound to port 0 and need the kernel-assigned
// port (tests, log lines).
func (s *Server) ListenSocket() socket.Socket {
	return s.sock
}

// Counters returns a snapshot combining the server's own counters with the
// pool's enqueue counters.
func (s *Server) Counters() Counters {
	ps := s.pool.Stats()
	return Counters{
		Added:         ps.Added,
		Blocked:       ps.Blocked,
		Discarded:     ps.Discarded,
		PollIntr:      s.pollIntr.Load(),
		PollAgain:     s.pollAgain.Load(),
		AcceptFailed:  s.acceptFailed.Load(),
		DeniedClients: s.deniedClients.Load(),
	}
}

func peerAddrOf(s socket.Socket) string {
	addr, err := s.PeerAddr()
	if err != nil {
		return ""
	}
	return addr
}
