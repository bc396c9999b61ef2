// Package config implements the typed option table the serving core is
// configured from (host/port, queue sizing, buffer sizes, timeouts, TLS
// material, page limits), loaded from flags, plus a Manager overlay for
// JSON/env-sourced values on top of those defaults.
package config

import (
	"flag"

	"github.com/searchktools/netcore/httpserver"
	"github.com/searchktools/netcore/socket"
	"github.com/searchktools/netcore/tcpserver"
)

// Options is the full typed configuration surface spec.md §6 describes:
// host/port, queue sizing, worker threads, buffer sizes, timeouts, retries,
// the request-body limit ("post_limit"), TLS material, the static document
// root, and default page attributes.
type Options struct {
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

	MaxPages  int
	PostLimit int

	TLSCertChainFile string
	TLSPrivateKey    string
	TLSCADirectory   string

	DocumentRoot string

	DefaultCacheControl string

	GOGC int
}

// New parses Options from command-line flags, matching the teacher's
// config.New flag idiom but generalized to this core's full option set.
func New() *Options {
	o := &Options{}

	flag.StringVar(&o.Host, "host", "0.0.0.0", "bind address")
	flag.IntVar(&o.Port, "port", 8080, "listen port")
	flag.IntVar(&o.Backlog, "backlog", 128, "listen backlog")
	flag.IntVar(&o.QueueSize, "queue-size", 256, "worker pool queue capacity")
	flag.IntVar(&o.WorkerThreads, "worker-threads", 8, "worker pool size")
	flag.BoolVar(&o.BlockWhenFull, "block-when-full", true, "block Add when the worker queue is full instead of discarding")
	flag.IntVar(&o.ReadBufSize, "read-buf-size", 8192, "per-connection read buffer size")
	flag.IntVar(&o.WriteBufSize, "write-buf-size", 8192, "per-connection write buffer size")
	flag.IntVar(&o.AcceptTimeoutMs, "accept-timeout-ms", 1000, "accept poll timeout in milliseconds")
	flag.IntVar(&o.ReadTimeoutMs, "read-timeout-ms", 30000, "read timeout in milliseconds")
	flag.IntVar(&o.WriteTimeoutMs, "write-timeout-ms", 30000, "write timeout in milliseconds")
	flag.IntVar(&o.ReadRetries, "read-retries", 3, "read retry budget on Again")
	flag.IntVar(&o.WriteRetries, "write-retries", 3, "write retry budget on Again")
	flag.IntVar(&o.MaxPages, "max-pages", 1024, "maximum registered page handlers")
	flag.IntVar(&o.PostLimit, "post-limit", 1<<20, "maximum request body size in bytes")
	flag.StringVar(&o.TLSCertChainFile, "tls-cert", "", "TLS certificate chain file (enables TLS)")
	flag.StringVar(&o.TLSPrivateKey, "tls-key", "", "TLS private key file")
	flag.StringVar(&o.TLSCADirectory, "tls-ca", "", "TLS client CA directory (optional mTLS)")
	flag.StringVar(&o.DocumentRoot, "document-root", "", "static document root, if the registered handlers serve one")
	flag.StringVar(&o.DefaultCacheControl, "default-cache-control", "", "default Cache-Control applied when a page doesn't set one")
	flag.IntVar(&o.GOGC, "gogc", 100, "GOGC percentage applied at startup")

	flag.Parse()

	if o.TLSCertChainFile != "" {
		o.Kind = socket.KindTLS
	} else {
		o.Kind = socket.KindTCP
	}

	return o
}

// TCPConfig builds a tcpserver.Config from the option table.
func (o *Options) TCPConfig() tcpserver.Config {
	return tcpserver.Config{
		Host:            o.Host,
		Port:            o.Port,
		Kind:            o.Kind,
		Backlog:         o.Backlog,
		QueueSize:       o.QueueSize,
		WorkerThreads:   o.WorkerThreads,
		BlockWhenFull:   o.BlockWhenFull,
		ReadBufSize:     o.ReadBufSize,
		WriteBufSize:    o.WriteBufSize,
		AcceptTimeoutMs: o.AcceptTimeoutMs,
		ReadTimeoutMs:   o.ReadTimeoutMs,
		WriteTimeoutMs:  o.WriteTimeoutMs,
		ReadRetries:     o.ReadRetries,
		WriteRetries:    o.WriteRetries,
		TLSMaterial: socket.TLSMaterial{
			CertChainFile: o.TLSCertChainFile,
			PrivateKey:    o.TLSPrivateKey,
			CADirectory:   o.TLSCADirectory,
		},
	}
}

// HTTPConfig builds an httpserver.Config from the option table.
func (o *Options) HTTPConfig() httpserver.Config {
	return httpserver.Config{
		TCP:        o.TCPConfig(),
		MaxPages:   o.MaxPages,
		MaxContent: o.PostLimit,
		DefaultAttrs: httpserver.PageAttributes{
			CacheControl: o.DefaultCacheControl,
		},
	}
}
