package httpwire

import (
	"fmt"
	"strings"

	"github.com/searchktools/netcore/conn"
	"github.com/searchktools/netcore/httpmsg"
)

// SendResponse writes resp to c as a status line, the general/response/
// entity header set-slots (in that stable order), any attached cookies as
// Set-Cookie lines, the terminating CRLF, and the body, then flushes c.
// Chunked responses are never produced here; spec.md §4.10 reserves
// chunked framing for the receive path only.
func SendResponse(c *conn.Connection, resp *httpmsg.Response) error {
	statusLine := fmt.Sprintf("%s %d %s\r\n", resp.Version, int(resp.Status), resp.Status.Reason())
	if err := c.Puts(statusLine); err != nil {
		return err
	}

	if resp.Body != nil {
		resp.Entity.ContentLength = &resp.ContentLength
	} else {
		var zero uint64
		resp.Entity.ContentLength = &zero
	}

	if err := writeFields(c, resp.Fields()); err != nil {
		return err
	}
	for _, ck := range resp.Cookies() {
		if err := c.Puts(fmt.Sprintf("Set-Cookie: %s\r\n", ck.String())); err != nil {
			return err
		}
	}
	if err := writeExtraHeaders(c, resp.ExtraHeaders()); err != nil {
		return err
	}

	if err := c.Puts("\r\n"); err != nil {
		return err
	}

	if resp.Body != nil && resp.Body.CanRead() > 0 {
		if err := c.Write(resp.Body.Data()); err != nil {
			return err
		}
	}

	return c.Flush()
}

// SendRequest writes req to c as a request line, the general/request/entity
// header set-slots, any cookies as one Cookie header, the terminating
// CRLF, and the body. Used by the client-role Connection (tests, and any
// future outbound collaborator), not by the server's response path.
func SendRequest(c *conn.Connection, req *httpmsg.Request) error {
	uri := encodeURLComponent(req.Path)
	if req.Query.Count() > 0 {
		var q strings.Builder
		for i := 0; i < req.Query.Count(); i++ {
			if i > 0 {
				q.WriteByte('&')
			}
			q.WriteString(encodeURLComponent(req.Query.NameAt(i)))
			q.WriteByte('=')
			q.WriteString(encodeURLComponent(req.Query.ValueAt(i)))
		}
		uri += "?" + q.String()
	}

	requestLine := fmt.Sprintf("%s %s %s\r\n", req.Method, uri, req.Version)
	if err := c.Puts(requestLine); err != nil {
		return err
	}

	if req.Content != nil {
		n := uint64(req.Content.CanRead())
		req.Entity.ContentLength = &n
	}

	if err := writeFields(c, req.Fields()); err != nil {
		return err
	}
	if len(req.Cookies) > 0 {
		parts := make([]string, len(req.Cookies))
		for i, ck := range req.Cookies {
			parts[i] = ck.Name + "=" + ck.Value
		}
		if err := c.Puts(fmt.Sprintf("Cookie: %s\r\n", strings.Join(parts, "; "))); err != nil {
			return err
		}
	}

	if err := c.Puts("\r\n"); err != nil {
		return err
	}

	if req.Content != nil && req.Content.CanRead() > 0 {
		if err := c.Write(req.Content.Data()); err != nil {
			return err
		}
	}

	return c.Flush()
}

func writeFields(c *conn.Connection, fields []httpmsg.Field) error {
	for _, f := range fields {
		if err := c.Puts(fmt.Sprintf("%s: %s\r\n", f.Name, f.Value)); err != nil {
			return err
		}
	}
	return nil
}

func writeExtraHeaders(c *conn.Connection, extra map[string]string) error {
	for name, value := range extra {
		if err := c.Puts(fmt.Sprintf("%s: %s\r\n", name, value)); err != nil {
			return err
		}
	}
	return nil
}
