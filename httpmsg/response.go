package httpmsg

import "github.com/searchktools/netcore/buffer"

// Status is an HTTP status code. The parser/emitter and the handlers this
// core dispatches to both use the plain RFC 2616 numeric codes; Reason
// returns the standard reason phrase for the ones this core emits itself.
type Status int

const (
	StatusOK                  Status = 200
	StatusNotModified         Status = 304
	StatusBadRequest          Status = 400
	StatusUnauthorized        Status = 401
	StatusNotFound            Status = 404
	StatusInternalServerError Status = 500
)

// Reason returns the RFC 2616 reason phrase for the status codes this core
// emits; unrecognized codes get a generic phrase so the status line is
// always well-formed.
func (s Status) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotModified:
		return "Not Modified"
	case StatusBadRequest:
		return "Bad Request"
	case StatusUnauthorized:
		return "Unauthorized"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// Response is the value object for one HTTP response: version, status, the
// header tables, cookies to attach, and the body. Allocated once per
// persistent-connection lifetime and reused via Recycle.
type Response struct {
	Version Version
	Status  Status

	General  GeneralHeaders
	Entity   EntityHeaders
	Response ResponseHeaders

	extra map[string]string

	cookies []Cookie

	Body          *buffer.Buffer
	ContentLength uint64
	// bodyOwned is true when Body was allocated by this Response (and so
	// Recycle should Reset it rather than discard it) rather than supplied
	// by the caller for a single transaction.
	bodyOwned bool
	// bodyBacking is the pooled byte slice WriteBody wrapped Body around,
	// non-nil only when bodyOwned; it goes back to the tiered pool once
	// WriteBody outgrows it or SetBody replaces it outright.
	bodyBacking *[]byte

	persistent bool
}

// NewResponse allocates a fresh Response defaulting to HTTP/1.1 200 OK,
// persistent.
func NewResponse() *Response {
	return &Response{
		Version:    Version{Major: 1, Minor: 1},
		Status:     StatusOK,
		persistent: true,
	}
}

// SetStatus sets the response status code. A zero Status means "the
// handler already set the status itself", matching the HTTP server's
// handler-return convention; SetStatus(0) is a no-op.
func (resp *Response) SetStatus(status Status) {
	if status != 0 {
		resp.Status = status
	}
}

// SetExtraHeader records a header name the typed tables don't enumerate.
func (resp *Response) SetExtraHeader(name, value string) {
	if resp.extra == nil {
		resp.extra = make(map[string]string)
	}
	resp.extra[name] = value
}

// Header looks up an unrecognized (extra) header by name.
func (resp *Response) Header(name string) (string, bool) {
	v, ok := resp.extra[name]
	return v, ok
}

// ExtraHeaders returns the header names the typed tables don't enumerate,
// for the emitter to write verbatim alongside the typed fields.
func (resp *Response) ExtraHeaders() map[string]string {
	return resp.extra
}

// SetCookie attaches a cookie to be emitted as one Set-Cookie header line.
func (resp *Response) SetCookie(c Cookie) {
	resp.cookies = append(resp.cookies, c)
}

// Cookies returns the cookies attached so far, in attachment order.
func (resp *Response) Cookies() []Cookie {
	return resp.cookies
}

// SetBody attaches buf as the response body and sets Content-Length to its
// length. The caller retains ownership; Recycle will not reset it.
func (resp *Response) SetBody(buf *buffer.Buffer) {
	resp.releaseBacking()
	resp.Body = buf
	resp.bodyOwned = false
	resp.ContentLength = uint64(buf.CanRead())
}

// WriteBody copies b into a body buffer sized at least len(b), drawing the
// backing storage from the tiered response-buffer pool rather than
// allocating fresh each time the body outgrows what's already attached.
func (resp *Response) WriteBody(b []byte) {
	if resp.Body == nil || resp.Body.Size() < len(b) {
		resp.releaseBacking()
		backing := acquireBody(len(b))
		resp.bodyBacking = backing
		resp.Body = buffer.Wrap(*backing)
		resp.bodyOwned = true
	}
	resp.Body.Reset()
	resp.Body.Write(b)
	resp.ContentLength = uint64(len(b))
}

// releaseBacking returns any pooled backing array this Response owns to
// its tier, leaving Body/bodyOwned untouched for the caller to reassign.
func (resp *Response) releaseBacking() {
	if resp.bodyOwned && resp.bodyBacking != nil {
		releaseBody(resp.bodyBacking)
		resp.bodyBacking = nil
	}
}

// SetPersistent sets whether this response's transaction may be followed by
// another one on the same connection. Per SPEC_FULL's resolution of the
// spec's persistence open question, this flag -- not the request's, not the
// raw Connection header text -- is the single source of truth the HTTP
// server loop consults after sending each response.
func (resp *Response) SetPersistent(v bool) { resp.persistent = v }

// IsPersistent reports the current keep-alive decision for this response.
func (resp *Response) IsPersistent() bool { return resp.persistent }

// Recycle resets resp to its initial state for reuse across a persistent
// connection's next transaction, keeping an owned body buffer's allocation
// (and its pooled backing array) rather than returning it to the pool just
// to immediately draw another one next request.
func (resp *Response) Recycle() {
	body, owned, backing := resp.Body, resp.bodyOwned, resp.bodyBacking
	*resp = Response{
		Version:    Version{Major: 1, Minor: 1},
		Status:     StatusOK,
		persistent: true,
	}
	if owned && body != nil {
		body.Reset()
		resp.Body = body
		resp.bodyOwned = true
		resp.bodyBacking = backing
	}
}
