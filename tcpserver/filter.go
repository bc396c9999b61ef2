package tcpserver

// AllowlistFilter admits only the exact peer addresses it was built with,
// mirroring tcp_server_allow_clients's IP filter. An empty allowlist
// admits nobody; pass a nil *AllowlistFilter (or no filter at all) to admit
// everybody.
type AllowlistFilter struct {
	allowed map[string]struct{}
}

// NewAllowlistFilter builds a filter admitting exactly the given addresses.
func NewAllowlistFilter(addrs ...string) *AllowlistFilter {
	f := &AllowlistFilter{allowed: make(map[string]struct{}, len(addrs))}
	for _, a := range addrs {
		f.allowed[a] = struct{}{}
	}
	return f
}

// Admits reports whether peerAddr is in the allowlist.
func (f *AllowlistFilter) Admits(peerAddr string) bool {
	if f == nil {
		return true
	}
	_, ok := f.allowed[peerAddr]
	return ok
}
