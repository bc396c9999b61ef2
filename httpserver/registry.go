// Package httpserver implements the HTTP server: the page registry, the
// default handler, and the per-connection request/response lifecycle bound
// to a tcpserver.Server, per spec.md §4.11.
package httpserver

import (
	"sync"

	"github.com/searchktools/netcore/httpmsg"
	"github.com/searchktools/netcore/serr"
)

// Handler is a synchronous per-request callback. A zero return Status means
// the handler already set the status itself on resp; any other value is a
// standard HTTP status code the server applies via resp.SetStatus.
type Handler func(req *httpmsg.Request, resp *httpmsg.Response) httpmsg.Status

// PageAttributes is the metadata template spec.md §GLOSSARY calls "page
// attributes": cache policy, default headers, and an authentication
// requirement, applied to a response before it's sent.
type PageAttributes struct {
	CacheControl   string
	RequireAuth    bool
	DefaultHeaders map[string]string
}

type pageEntry struct {
	handler Handler
	attrs   PageAttributes
}

// registry maps absolute URI paths (unique keys) to a handler and its page
// attributes, capped at maxPages entries, plus an optional default handler
// invoked when no exact match exists.
type registry struct {
	mu       sync.RWMutex
	pages    map[string]pageEntry
	maxPages int

	defaultHandler Handler
	defaultAttrs   PageAttributes
}

func newRegistry(maxPages int) *registry {
	return &registry{pages: make(map[string]pageEntry), maxPages: maxPages}
}

// Register adds or replaces the handler for path. It fails once maxPages
// distinct paths are registered (replacing an existing path never counts
// against the cap).
func (r *registry) Register(path string, h Handler, attrs PageAttributes) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pages[path]; !exists && len(r.pages) >= r.maxPages {
		return serr.ErrRegistryFull
	}
	r.pages[path] = pageEntry{handler: h, attrs: attrs}
	return nil
}

// SetDefault installs the fallback handler invoked when no path matches.
func (r *registry) SetDefault(h Handler, attrs PageAttributes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
	r.defaultAttrs = attrs
}

// Lookup returns the handler and attributes bound to path, or the default
// handler (possibly nil) when path has no exact registration.
func (r *registry) Lookup(path string) (Handler, PageAttributes, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.pages[path]; ok {
		return e.handler, e.attrs, true
	}
	return r.defaultHandler, r.defaultAttrs, r.defaultHandler != nil
}
