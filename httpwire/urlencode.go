// Package httpwire implements the HTTP/1.1 parser and emitter: byte-wire to
// httpmsg.Request/Response conversion over a conn.Connection, chunked
// transfer decoding, and the configured max_content size limit (spec.md
// §4.10).
package httpwire

import (
	"fmt"
	"strings"

	"github.com/searchktools/netcore/serr"
)

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	return false
}

// encodeURLComponent percent-encodes every byte that isn't alphanumeric
// per RFC 1738: %HH with uppercase hex, everything else passed through.
func encodeURLComponent(s string) string {
	var needsEscape bool
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	const hex = "0123456789ABCDEF"
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0xf])
	}
	return b.String()
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decodePathComponent reverses RFC 1738 percent-encoding for a URI path
// segment, where a literal '+' is just a '+' -- net/url.PathUnescape draws
// this same line, reserving the '+'-means-space convention for the query
// and form-body side only. Every '%' must be followed by exactly two hex
// digits; malformed encoding is a Protocol error, per spec.md §6.
func decodePathComponent(s string) (string, error) {
	return decodeURLComponent(s, false)
}

// decodeFormComponent reverses RFC 1738 percent-encoding for a query
// string or application/x-www-form-urlencoded body, where '+' decodes to a
// space (net/url.QueryUnescape's convention).
func decodeFormComponent(s string) (string, error) {
	return decodeURLComponent(s, true)
}

func decodeURLComponent(s string, plusAsSpace bool) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			if plusAsSpace {
				b.WriteByte(' ')
			} else {
				b.WriteByte('+')
			}
		case '%':
			if i+2 >= len(s) {
				return "", serr.New(serr.Protocol, "url_decode", fmt.Errorf("truncated escape %q", s[i:]))
			}
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if !ok1 || !ok2 {
				return "", serr.New(serr.Protocol, "url_decode", fmt.Errorf("invalid escape %q", s[i:i+3]))
			}
			b.WriteByte(hi<<4 | lo)
			i += 2
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}
