package httpserver

import (
	"log"
	"time"

	"github.com/searchktools/netcore/conn"
	"github.com/searchktools/netcore/httpmsg"
	"github.com/searchktools/netcore/httpwire"
	"github.com/searchktools/netcore/serr"
	"github.com/searchktools/netcore/tcpserver"
)

// Config collects the options the HTTP server itself needs beyond what it
// hands straight through to the underlying tcpserver.Server.
type Config struct {
	TCP tcpserver.Config

	MaxPages     int
	MaxContent   int
	DefaultAttrs PageAttributes
}

// Server owns an underlying tcpserver.Server, registering itself as its
// ServiceFunc, plus the page registry and default-attribute template
// applied to every response.
type Server struct {
	cfg Config
	reg *registry
	tcp *tcpserver.Server
	log *log.Logger
}

// New builds an HTTP server over a fresh tcpserver.Server, with filter as
// the client admission policy (nil admits everyone).
func New(cfg Config, filter tcpserver.ClientFilter, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg: cfg,
		reg: newRegistry(cfg.MaxPages),
		log: logger,
	}
	s.tcp = tcpserver.New(cfg.TCP, filter, s.serve)
	return s
}

// RegisterPage binds handler (with attrs) to path, failing once MaxPages
// distinct paths are registered.
func (s *Server) RegisterPage(path string, handler Handler, attrs PageAttributes) error {
	return s.reg.Register(path, handler, attrs)
}

// SetDefaultHandler installs the fallback invoked when no page matches the
// request path.
func (s *Server) SetDefaultHandler(handler Handler, attrs PageAttributes) {
	s.reg.SetDefault(handler, attrs)
}

// Start spawns the underlying TCP server's accept loop.
func (s *Server) Start() error {
	s.log.Printf("httpserver: starting on %s:%d", s.cfg.TCP.Host, s.cfg.TCP.Port)
	return s.tcp.Start()
}

// Shutdown stops accepting and drains the worker pool, finishing in-flight
// requests before returning.
func (s *Server) Shutdown() error {
	s.log.Printf("httpserver: shutting down")
	return s.tcp.Shutdown()
}

// Counters returns the underlying TCP server's admission/overload counters.
func (s *Server) Counters() tcpserver.Counters {
	return s.tcp.Counters()
}

// serve is the tcpserver.ServiceFunc: it owns c for its lifetime, running
// the request/response lifecycle loop of spec.md §4.11 until the
// connection is no longer persistent or an unrecoverable error occurs.
func (s *Server) serve(c *conn.Connection) {
	defer c.Close()

	var req *httpmsg.Request
	var resp *httpmsg.Response

	for {
		if req == nil {
			req = httpmsg.NewRequest()
			resp = httpmsg.NewResponse()
		} else {
			req.Recycle()
			resp.Recycle()
		}

		if !s.receiveRequest(c, req, resp) {
			return
		}

		// The request's Connection header is the parser's best-effort
		// signal; seed the response with it so a handler that never
		// touches persistence itself still honors a client's
		// "Connection: close". A handler may still override this.
		resp.SetPersistent(req.IsPersistent())

		status, attrs := s.dispatch(req, resp)
		resp.SetStatus(status)
		s.applyDefaultAttributes(resp, attrs)

		start := time.Now()
		if err := httpwire.SendResponse(c, resp); err != nil {
			s.log.Printf("httpserver: send response: %v", err)
			return
		}
		s.logAccess(req, resp, time.Since(start))

		if !req.IsPersistent() || !resp.IsPersistent() {
			return
		}
	}
}

// receiveRequest parses one request off c, translating a Protocol error
// into a 400 response written back to the client before returning false
// (the connection is then closed rather than kept alive, since the parser
// left the stream in an unknown state). A peer-closed or timed-out (Again)
// read on an otherwise idle keep-alive connection is the normal way a
// client ends the connection and is not logged as a failure; other errors
// are logged.
func (s *Server) receiveRequest(c *conn.Connection, req *httpmsg.Request, resp *httpmsg.Response) bool {
	err := httpwire.ReceiveRequest(c, req, s.cfg.MaxContent)
	if err == nil {
		return true
	}

	if serr.Is(err, serr.Protocol) {
		resp.SetStatus(httpmsg.StatusBadRequest)
		resp.WriteBody([]byte(err.Error()))
		resp.SetPersistent(false)
		if sendErr := httpwire.SendResponse(c, resp); sendErr != nil {
			s.log.Printf("httpserver: send error response: %v", sendErr)
		}
		return false
	}

	if !serr.Is(err, serr.PeerClosed) && !serr.Is(err, serr.Again) {
		s.log.Printf("httpserver: receive request: %v", err)
	}
	return false
}

// dispatch looks up the registered page for req.Path, falling back to the
// default handler, and runs it with panic recovery translating any
// uncaught failure into a 500 (spec.md §7: "nothing in the core calls
// exit... any uncaught error into 500").
func (s *Server) dispatch(req *httpmsg.Request, resp *httpmsg.Response) (status httpmsg.Status, attrs PageAttributes) {
	handler, attrs, found := s.reg.Lookup(req.Path)
	if !found {
		return httpmsg.StatusNotFound, attrs
	}

	if attrs.RequireAuth && req.Request.Authorization == nil {
		challenge := "Basic"
		resp.Response.WWWAuthenticate = &challenge
		return httpmsg.StatusUnauthorized, attrs
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("httpserver: handler panic on %s: %v", req.Path, r)
			status = httpmsg.StatusInternalServerError
		}
	}()

	return handler(req, resp), attrs
}

func (s *Server) applyDefaultAttributes(resp *httpmsg.Response, attrs PageAttributes) {
	if attrs.CacheControl == "" {
		attrs.CacheControl = s.cfg.DefaultAttrs.CacheControl
	}
	if attrs.CacheControl != "" && resp.General.CacheControl == nil {
		cc := attrs.CacheControl
		resp.General.CacheControl = &cc
	}
	for k, v := range s.cfg.DefaultAttrs.DefaultHeaders {
		if _, ok := resp.Header(k); !ok {
			resp.SetExtraHeader(k, v)
		}
	}
	for k, v := range attrs.DefaultHeaders {
		resp.SetExtraHeader(k, v)
	}
}

func (s *Server) logAccess(req *httpmsg.Request, resp *httpmsg.Response, elapsed time.Duration) {
	s.log.Printf("%s %s %d %s %v", req.Method, req.URI, int(resp.Status), resp.Version, elapsed)
}
