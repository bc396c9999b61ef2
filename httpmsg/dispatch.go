package httpmsg

import (
	"strconv"
	"strings"
)

// Field is one "Name: value" header line as emitted on the wire.
type Field struct {
	Name  string
	Value string
}

// setGeneral tries to set name/value into g's typed slots, reporting
// whether name was recognized as a general header.
func setGeneral(g *GeneralHeaders, name, value string) bool {
	switch strings.ToLower(name) {
	case "cache-control":
		g.CacheControl = &value
	case "connection":
		g.Connection = &value
	case "date":
		if t, ok := parseHTTPDate(value); ok {
			g.Date = &t
		}
	case "pragma":
		g.Pragma = &value
	case "trailer":
		g.Trailer = &value
	case "transfer-encoding":
		g.TransferEncoding = &value
	case "upgrade":
		g.Upgrade = &value
	case "via":
		g.Via = &value
	case "warning":
		g.Warning = &value
	default:
		return false
	}
	return true
}

// fields returns g's set slots as wire-ready Fields, in a stable
// declaration order.
func (g *GeneralHeaders) fields() []Field {
	var fs []Field
	if g.CacheControl != nil {
		fs = append(fs, Field{"Cache-Control", *g.CacheControl})
	}
	if g.Connection != nil {
		fs = append(fs, Field{"Connection", *g.Connection})
	}
	if g.Date != nil {
		fs = append(fs, Field{"Date", httpDate(*g.Date)})
	}
	if g.Pragma != nil {
		fs = append(fs, Field{"Pragma", *g.Pragma})
	}
	if g.Trailer != nil {
		fs = append(fs, Field{"Trailer", *g.Trailer})
	}
	if g.TransferEncoding != nil {
		fs = append(fs, Field{"Transfer-Encoding", *g.TransferEncoding})
	}
	if g.Upgrade != nil {
		fs = append(fs, Field{"Upgrade", *g.Upgrade})
	}
	if g.Via != nil {
		fs = append(fs, Field{"Via", *g.Via})
	}
	if g.Warning != nil {
		fs = append(fs, Field{"Warning", *g.Warning})
	}
	return fs
}

func setEntity(e *EntityHeaders, name, value string) bool {
	switch strings.ToLower(name) {
	case "allow":
		e.Allow = &value
	case "content-encoding":
		e.ContentEncoding = &value
	case "content-language":
		e.ContentLanguage = &value
	case "content-length":
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			e.ContentLength = &n
		}
	case "content-location":
		e.ContentLocation = &value
	case "content-md5":
		e.ContentMD5 = &value
	case "content-range":
		e.ContentRange = &value
	case "content-type":
		e.ContentType = &value
	case "etag":
		e.ETag = &value
	case "expires":
		if t, ok := parseHTTPDate(value); ok {
			e.Expires = &t
		}
	case "last-modified":
		if t, ok := parseHTTPDate(value); ok {
			e.LastModified = &t
		}
	default:
		return false
	}
	return true
}

func (e *EntityHeaders) fields() []Field {
	var fs []Field
	if e.Allow != nil {
		fs = append(fs, Field{"Allow", *e.Allow})
	}
	if e.ContentEncoding != nil {
		fs = append(fs, Field{"Content-Encoding", *e.ContentEncoding})
	}
	if e.ContentLanguage != nil {
		fs = append(fs, Field{"Content-Language", *e.ContentLanguage})
	}
	if e.ContentLength != nil {
		fs = append(fs, Field{"Content-Length", strconv.FormatUint(*e.ContentLength, 10)})
	}
	if e.ContentLocation != nil {
		fs = append(fs, Field{"Content-Location", *e.ContentLocation})
	}
	if e.ContentMD5 != nil {
		fs = append(fs, Field{"Content-MD5", *e.ContentMD5})
	}
	if e.ContentRange != nil {
		fs = append(fs, Field{"Content-Range", *e.ContentRange})
	}
	if e.ContentType != nil {
		fs = append(fs, Field{"Content-Type", *e.ContentType})
	}
	if e.ETag != nil {
		fs = append(fs, Field{"ETag", *e.ETag})
	}
	if e.Expires != nil {
		fs = append(fs, Field{"Expires", httpDate(*e.Expires)})
	}
	if e.LastModified != nil {
		fs = append(fs, Field{"Last-Modified", httpDate(*e.LastModified)})
	}
	return fs
}

func setRequestHeader(r *RequestHeaders, name, value string) bool {
	switch strings.ToLower(name) {
	case "accept":
		r.Accept = &value
	case "accept-charset":
		r.AcceptCharset = &value
	case "accept-encoding":
		r.AcceptEncoding = &value
	case "accept-language":
		r.AcceptLanguage = &value
	case "authorization":
		r.Authorization = &value
	case "expect":
		r.Expect = &value
	case "from":
		r.From = &value
	case "host":
		r.Host = &value
	case "if-match":
		r.IfMatch = &value
	case "if-modified-since":
		if t, ok := parseHTTPDate(value); ok {
			r.IfModifiedSince = &t
		}
	case "if-none-match":
		r.IfNoneMatch = &value
	case "if-range":
		r.IfRange = &value
	case "if-unmodified-since":
		if t, ok := parseHTTPDate(value); ok {
			r.IfUnmodifiedSince = &t
		}
	case "max-forwards":
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			r.MaxForwards = &n
		}
	case "proxy-authorization":
		r.ProxyAuthorization = &value
	case "range":
		r.Range = &value
	case "referer":
		r.Referer = &value
	case "te":
		r.TE = &value
	case "user-agent":
		r.UserAgent = &value
	default:
		return false
	}
	return true
}

func setResponseHeader(r *ResponseHeaders, name, value string) bool {
	switch strings.ToLower(name) {
	case "accept-ranges":
		r.AcceptRanges = &value
	case "age":
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			r.Age = &n
		}
	case "location":
		r.Location = &value
	case "proxy-authenticate":
		r.ProxyAuthenticate = &value
	case "retry-after":
		r.RetryAfter = &value
	case "server":
		r.Server = &value
	case "vary":
		r.Vary = &value
	case "www-authenticate":
		r.WWWAuthenticate = &value
	default:
		return false
	}
	return true
}

func (r *ResponseHeaders) fields() []Field {
	var fs []Field
	if r.AcceptRanges != nil {
		fs = append(fs, Field{"Accept-Ranges", *r.AcceptRanges})
	}
	if r.Age != nil {
		fs = append(fs, Field{"Age", strconv.FormatUint(*r.Age, 10)})
	}
	if r.Location != nil {
		fs = append(fs, Field{"Location", *r.Location})
	}
	if r.ProxyAuthenticate != nil {
		fs = append(fs, Field{"Proxy-Authenticate", *r.ProxyAuthenticate})
	}
	if r.RetryAfter != nil {
		fs = append(fs, Field{"Retry-After", *r.RetryAfter})
	}
	if r.Server != nil {
		fs = append(fs, Field{"Server", *r.Server})
	}
	if r.Vary != nil {
		fs = append(fs, Field{"Vary", *r.Vary})
	}
	if r.WWWAuthenticate != nil {
		fs = append(fs, Field{"WWW-Authenticate", *r.WWWAuthenticate})
	}
	return fs
}

// SetHeaderField looks up name in the general table, then the request
// table, then the entity table, setting whichever one recognizes it;
// unrecognized names are retained verbatim as an extra header. This is the
// "Each name is looked up in the general/entity/request tables" step of the
// receive path (spec.md §4.10).
func (r *Request) SetHeaderField(name, value string) {
	switch {
	case setGeneral(&r.General, name, value):
	case setRequestHeader(&r.Request, name, value):
	case setEntity(&r.Entity, name, value):
	default:
		r.SetExtraHeader(name, value)
	}
}

// Fields returns this request's set header slots in general -> request ->
// entity order, the stable emission order spec.md §5 requires (used when a
// Request is re-emitted by a client-role connection, and by tests that
// round-trip a request).
func (r *Request) Fields() []Field {
	fs := r.General.fields()
	fs = append(fs, requestFields(&r.Request)...)
	fs = append(fs, r.Entity.fields()...)
	return fs
}

func requestFields(r *RequestHeaders) []Field {
	var fs []Field
	if r.Accept != nil {
		fs = append(fs, Field{"Accept", *r.Accept})
	}
	if r.AcceptCharset != nil {
		fs = append(fs, Field{"Accept-Charset", *r.AcceptCharset})
	}
	if r.AcceptEncoding != nil {
		fs = append(fs, Field{"Accept-Encoding", *r.AcceptEncoding})
	}
	if r.AcceptLanguage != nil {
		fs = append(fs, Field{"Accept-Language", *r.AcceptLanguage})
	}
	if r.Authorization != nil {
		fs = append(fs, Field{"Authorization", *r.Authorization})
	}
	if r.Expect != nil {
		fs = append(fs, Field{"Expect", *r.Expect})
	}
	if r.From != nil {
		fs = append(fs, Field{"From", *r.From})
	}
	if r.Host != nil {
		fs = append(fs, Field{"Host", *r.Host})
	}
	if r.IfMatch != nil {
		fs = append(fs, Field{"If-Match", *r.IfMatch})
	}
	if r.IfModifiedSince != nil {
		fs = append(fs, Field{"If-Modified-Since", httpDate(*r.IfModifiedSince)})
	}
	if r.IfNoneMatch != nil {
		fs = append(fs, Field{"If-None-Match", *r.IfNoneMatch})
	}
	if r.IfRange != nil {
		fs = append(fs, Field{"If-Range", *r.IfRange})
	}
	if r.IfUnmodifiedSince != nil {
		fs = append(fs, Field{"If-Unmodified-Since", httpDate(*r.IfUnmodifiedSince)})
	}
	if r.MaxForwards != nil {
		fs = append(fs, Field{"Max-Forwards", strconv.FormatUint(*r.MaxForwards, 10)})
	}
	if r.ProxyAuthorization != nil {
		fs = append(fs, Field{"Proxy-Authorization", *r.ProxyAuthorization})
	}
	if r.Range != nil {
		fs = append(fs, Field{"Range", *r.Range})
	}
	if r.Referer != nil {
		fs = append(fs, Field{"Referer", *r.Referer})
	}
	if r.TE != nil {
		fs = append(fs, Field{"TE", *r.TE})
	}
	if r.UserAgent != nil {
		fs = append(fs, Field{"User-Agent", *r.UserAgent})
	}
	return fs
}

// SetHeaderField is the response-side counterpart of Request.SetHeaderField,
// used when this core plays the client role (its own test harness, or a
// future reverse-proxy component) and needs to parse a received response.
func (resp *Response) SetHeaderField(name, value string) {
	switch {
	case setGeneral(&resp.General, name, value):
	case setResponseHeader(&resp.Response, name, value):
	case setEntity(&resp.Entity, name, value):
	default:
		resp.SetExtraHeader(name, value)
	}
}

// Fields returns this response's set header slots in general -> response ->
// entity order, per spec.md §4.10's "general header set-slots, then the
// message-specific header set-slots, then entity header set-slots".
func (resp *Response) Fields() []Field {
	fs := resp.General.fields()
	fs = append(fs, resp.Response.fields()...)
	fs = append(fs, resp.Entity.fields()...)
	return fs
}
