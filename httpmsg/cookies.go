package httpmsg

import (
	"strings"
	"time"
)

// Cookie carries the one attribute set http_request.h/http_response.h used:
// name, value, domain, path, expires, secure, httponly. Requests populate
// only Name/Value (everything else a client sends back is stripped by the
// Cookie header grammar); responses build the full set via NewCookie and
// the With* builders before attaching it with Response.SetCookie.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
}

// NewCookie returns a minimal response cookie with just name and value set;
// chain the With* builders to add the rest.
func NewCookie(name, value string) Cookie {
	return Cookie{Name: name, Value: value}
}

func (c Cookie) WithDomain(domain string) Cookie { c.Domain = domain; return c }
func (c Cookie) WithPath(path string) Cookie     { c.Path = path; return c }
func (c Cookie) WithExpires(t time.Time) Cookie  { c.Expires = t; return c }
func (c Cookie) WithSecure() Cookie              { c.Secure = true; return c }
func (c Cookie) WithHTTPOnly() Cookie            { c.HTTPOnly = true; return c }

// String renders c as the value of one Set-Cookie header line.
func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if !c.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(httpDate(c.Expires))
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	return b.String()
}

// parseCookieHeader parses one Cookie request-header value into an ordered
// list of name/value cookies: "name=value; name=value" (no attributes
// travel on the request side).
func parseCookieHeader(value string) []Cookie {
	var cookies []Cookie
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		cookies = append(cookies, Cookie{Name: strings.TrimSpace(name), Value: val})
	}
	return cookies
}
