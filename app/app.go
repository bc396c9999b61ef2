// Package app wires the typed option table, the HTTP server, and the
// process supervisor into one runnable unit, mirroring the teacher's
// app.App (cfg + engine) generalized to this core's supervisor-driven
// startup/shutdown instead of a single blocking engine.Run call.
package app

import (
	"log"

	"github.com/searchktools/netcore/config"
	"github.com/searchktools/netcore/httpserver"
	"github.com/searchktools/netcore/supervisor"
	"github.com/searchktools/netcore/tcpserver"
)

// App owns the configured HTTP server and the supervisor that starts it,
// waits for SIGTERM, and tears it down.
type App struct {
	opts       *config.Options
	httpServer *httpserver.Server
	sup        *supervisor.Supervisor
	log        *log.Logger
}

// New builds an App from opts. filter may be nil to admit every client.
// logger defaults to log.Default() when nil.
func New(opts *config.Options, filter tcpserver.ClientFilter, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	ApplyGC(opts.GOGC)

	return &App{
		opts:       opts,
		httpServer: httpserver.New(opts.HTTPConfig(), filter, logger),
		sup:        supervisor.New("netcore", 32),
		log:        logger,
	}
}

// Server returns the underlying HTTP server so the caller can register
// pages before Run starts accepting connections.
func (a *App) Server() *httpserver.Server {
	return a.httpServer
}

// Run registers the HTTP server as a supervised subsystem, starts it, and
// blocks until a SIGTERM-driven shutdown (or a programmatic Shutdown call)
// completes, returning the first subsystem error if any.
func (a *App) Run() error {
	if err := a.sup.RegisterServer("httpserver", a.httpServer.Start, a.httpServer.Shutdown); err != nil {
		return err
	}
	if err := a.sup.Start(); err != nil {
		return err
	}

	a.log.Printf("netcore: listening on %s:%d", a.opts.Host, a.opts.Port)
	return a.sup.WaitForShutdown()
}

// Shutdown triggers the same path SIGTERM would, for callers (tests,
// embedders) that want to stop the app programmatically.
func (a *App) Shutdown() {
	a.sup.Shutdown()
}
