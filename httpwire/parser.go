package httpwire

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/searchktools/netcore/buffer"
	"github.com/searchktools/netcore/conn"
	"github.com/searchktools/netcore/httpmsg"
	"github.com/searchktools/netcore/serr"
)

// maxLineLen bounds a single request-line or header-line read; exceeding it
// is a Protocol error rather than an unbounded memory grow.
const maxLineLen = 64 * 1024

// ReceiveRequest reads one HTTP request off c: the request line, headers
// until the blank line, and the body (chunked, Content-Length-bounded, or
// absent), per spec.md §4.10. maxContent bounds the body regardless of
// framing. req.DeferredRead, when already set by the caller before calling
// ReceiveRequest, skips body consumption entirely and leaves it to the
// handler to drain c itself.
func ReceiveRequest(c *conn.Connection, req *httpmsg.Request, maxContent int) error {
	line, err := readLine(c)
	if err != nil {
		return err
	}
	if err := parseRequestLine(req, line); err != nil {
		return err
	}

	if err := parseHeaderLines(c, req.SetHeaderField, req.SetCookieHeader); err != nil {
		return err
	}

	applyRequestPersistence(req)

	if req.DeferredRead {
		return nil
	}
	if err := receiveBody(c, req, maxContent); err != nil {
		return err
	}
	return parseFormBody(req)
}

// ReceiveResponse reads one HTTP response off c: the status line, headers,
// and a Content-Length-bounded body (if any). Used by the client-role
// Connection (tests, and any future outbound collaborator); the server
// itself only ever sends responses, never receives them.
func ReceiveResponse(c *conn.Connection, resp *httpmsg.Response, maxContent int) error {
	line, err := readLine(c)
	if err != nil {
		return err
	}
	if err := parseStatusLine(resp, line); err != nil {
		return err
	}

	if err := parseHeaderLines(c, resp.SetHeaderField, func(string) {}); err != nil {
		return err
	}

	if resp.Entity.ContentLength == nil {
		return nil
	}
	n := *resp.Entity.ContentLength
	if n > uint64(maxContent) {
		return serr.New(serr.Protocol, "content_length", fmt.Errorf("content length %d exceeds max_content %d", n, maxContent))
	}
	if n == 0 {
		return nil
	}

	buf := buffer.New(int(n))
	scratch := make([]byte, n)
	read, err := c.Read(scratch)
	if err != nil {
		return err
	}
	if uint64(read) < n {
		return serr.New(serr.Protocol, "content", fmt.Errorf("short body: got %d of %d bytes", read, n))
	}
	buf.Write(scratch)
	resp.Body = buf
	return nil
}

func parseStatusLine(resp *httpmsg.Response, line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return serr.New(serr.Protocol, "status_line", fmt.Errorf("malformed status line %q", line))
	}

	ver, err := parseVersion(strings.TrimPrefix(parts[0], "HTTP/"))
	if err != nil {
		return err
	}
	resp.Version = ver

	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return serr.New(serr.Protocol, "status_line", fmt.Errorf("malformed status code %q", parts[1]))
	}
	resp.Status = httpmsg.Status(code)
	return nil
}

// parseFormBody decodes the body as application/x-www-form-urlencoded into
// req.FormFields when Content-Type says so, per spec.md §4.9.
func parseFormBody(req *httpmsg.Request) error {
	if req.Entity.ContentType == nil || req.Content == nil {
		return nil
	}
	if !strings.HasPrefix(strings.ToLower(*req.Entity.ContentType), "application/x-www-form-urlencoded") {
		return nil
	}
	return parseQueryString(&req.FormFields, string(req.Content.Data()))
}

func parseRequestLine(req *httpmsg.Request, line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return serr.New(serr.Protocol, "request_line", fmt.Errorf("malformed request line %q", line))
	}

	req.Method = httpmsg.Method(parts[0])

	ver, err := parseVersion(parts[2])
	if err != nil {
		return err
	}
	req.Version = ver

	uri := parts[1]
	req.URI = uri
	path := uri
	if idx := strings.IndexByte(uri, '?'); idx != -1 {
		path = uri[:idx]
		if err := parseQueryString(&req.Query, uri[idx+1:]); err != nil {
			return err
		}
	}
	decodedPath, err := decodePathComponent(path)
	if err != nil {
		return err
	}
	req.Path = decodedPath

	return nil
}

func parseVersion(s string) (httpmsg.Version, error) {
	s = strings.TrimPrefix(s, "HTTP/")
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return httpmsg.Version{}, serr.New(serr.Protocol, "version", fmt.Errorf("malformed HTTP version %q", s))
	}
	maj, err1 := strconv.Atoi(major)
	min, err2 := strconv.Atoi(minor)
	if err1 != nil || err2 != nil {
		return httpmsg.Version{}, serr.New(serr.Protocol, "version", fmt.Errorf("malformed HTTP version %q", s))
	}
	return httpmsg.Version{Major: maj, Minor: min}, nil
}

func parseQueryString(p *httpmsg.Params, raw string) error {
	if raw == "" {
		return nil
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		dn, err := decodeFormComponent(name)
		if err != nil {
			return err
		}
		dv, err := decodeFormComponent(value)
		if err != nil {
			return err
		}
		p.Add(dn, dv)
	}
	return nil
}

// parseHeaderLines reads header lines until the blank line, handling
// SP/HTAB continuation folding, validating field name/value grammar with
// httpguts, and dispatching each to setField (typed tables) or setCookie
// (Cookie header only).
func parseHeaderLines(c *conn.Connection, setField func(name, value string), setCookie func(value string)) error {
	var lastName, lastValue string
	for {
		line, err := readLine(c)
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}

		if (line[0] == ' ' || line[0] == '\t') && lastName != "" {
			// Continuation of the previous header's value.
			lastValue += " " + strings.TrimSpace(line)
			setField(lastName, lastValue)
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return serr.New(serr.Protocol, "header", fmt.Errorf("malformed header line %q", line))
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
			return serr.New(serr.Protocol, "header", fmt.Errorf("invalid header field %q", name))
		}

		if strings.EqualFold(name, "Cookie") {
			setCookie(value)
		} else {
			setField(name, value)
		}
		lastName = name
		lastValue = value
	}
}

// applyRequestPersistence resolves the Connection header plus protocol
// version into the request's persistence hint: HTTP/1.1 defaults
// persistent unless Connection says "close"; HTTP/1.0 defaults
// non-persistent unless Connection says "keep-alive".
func applyRequestPersistence(req *httpmsg.Request) {
	connHeader := ""
	if req.General.Connection != nil {
		connHeader = strings.ToLower(*req.General.Connection)
	}

	if req.Version.Major == 1 && req.Version.Minor >= 1 {
		req.SetPersistent(!strings.Contains(connHeader, "close"))
	} else {
		req.SetPersistent(strings.Contains(connHeader, "keep-alive"))
	}
}

// receiveBody dispatches on Transfer-Encoding/Content-Length, bounding
// either framing by maxContent.
func receiveBody(c *conn.Connection, req *httpmsg.Request, maxContent int) error {
	chunked := req.General.TransferEncoding != nil && strings.Contains(strings.ToLower(*req.General.TransferEncoding), "chunked")

	switch {
	case chunked:
		return receiveChunked(c, req, maxContent)
	case req.Entity.ContentLength != nil:
		n := *req.Entity.ContentLength
		if n > uint64(maxContent) {
			return serr.New(serr.Protocol, "content_length", fmt.Errorf("content length %d exceeds max_content %d", n, maxContent))
		}
		return receiveFixed(c, req, int(n))
	default:
		return nil
	}
}

func receiveFixed(c *conn.Connection, req *httpmsg.Request, n int) error {
	if n == 0 {
		return nil
	}
	buf := buffer.New(n)
	scratch := make([]byte, n)
	read, err := c.Read(scratch)
	if err != nil {
		return err
	}
	if read < n {
		return serr.New(serr.Protocol, "content", fmt.Errorf("short body: got %d of %d bytes", read, n))
	}
	buf.Write(scratch)
	req.Content = buf
	req.ContentLen = uint64(n)
	return nil
}

// receiveChunked reads the RFC 2616 §3.6.1 chunked stream: hex size,
// optional ";extension" (ignored), CRLF, chunk data, CRLF, repeating until
// a zero-size chunk terminates the stream, followed by optional trailer
// headers and the final blank line.
func receiveChunked(c *conn.Connection, req *httpmsg.Request, maxContent int) error {
	var body []byte

	for {
		sizeLine, err := readLine(c)
		if err != nil {
			return err
		}
		sizeStr := sizeLine
		if idx := strings.IndexByte(sizeLine, ';'); idx != -1 {
			sizeStr = sizeLine[:idx]
		}
		size, err := strconv.ParseUint(strings.TrimSpace(sizeStr), 16, 64)
		if err != nil {
			return serr.New(serr.Protocol, "chunk_size", fmt.Errorf("malformed chunk size %q", sizeLine))
		}

		if size == 0 {
			break
		}
		if len(body)+int(size) > maxContent {
			return serr.New(serr.Protocol, "chunk_size", fmt.Errorf("chunked body exceeds max_content %d", maxContent))
		}

		chunk := make([]byte, size)
		if _, err := c.Read(chunk); err != nil {
			return err
		}
		body = append(body, chunk...)

		trailingCRLF, err := readLine(c)
		if err != nil {
			return err
		}
		if trailingCRLF != "" {
			return serr.New(serr.Protocol, "chunk_trailer", fmt.Errorf("expected CRLF after chunk data"))
		}
	}

	// Trailer headers (if any) until the terminating blank line; this core
	// doesn't expose trailers to handlers, so they're parsed and discarded.
	for {
		line, err := readLine(c)
		if err != nil {
			return err
		}
		if line == "" {
			break
		}
	}

	buf := buffer.New(len(body))
	buf.Write(body)
	req.Content = buf
	req.ContentLen = uint64(len(body))
	return nil
}

// readLine reads one CRLF- or LF-terminated line from c, growing its
// internal scratch buffer across multiple Gets calls when a line doesn't
// fit in one, up to maxLineLen.
func readLine(c *conn.Connection) (string, error) {
	var line []byte
	scratch := make([]byte, 4096)

	for {
		n, err := c.Gets(scratch)
		if err != nil {
			return "", err
		}
		if n == 0 {
			break
		}
		line = append(line, scratch[:n]...)
		if scratch[n-1] == '\n' {
			break
		}
		if len(line) > maxLineLen {
			return "", serr.New(serr.Protocol, "read_line", fmt.Errorf("line exceeds %d bytes", maxLineLen))
		}
	}

	return strings.TrimRight(string(line), "\r\n"), nil
}
