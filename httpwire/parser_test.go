//go:build unix

package httpwire

import (
	"testing"

	"github.com/searchktools/netcore/httpmsg"
)

func TestReceiveRequest_PlaintextGET(t *testing.T) {
	client, server := pairConnections(t)

	raw := "GET /echo?x=1&y=2 HTTP/1.1\r\nHost: example.com\r\nUser-Agent: test\r\n\r\n"
	if err := client.Puts(raw); err != nil {
		t.Fatalf("write request: %v", err)
	}
	client.Flush()

	req := httpmsg.NewRequest()
	if err := ReceiveRequest(server, req, 1<<20); err != nil {
		t.Fatalf("ReceiveRequest: %v", err)
	}

	if req.Method != httpmsg.MethodGET {
		t.Errorf("Method: got %q, want GET", req.Method)
	}
	if req.Path != "/echo" {
		t.Errorf("Path: got %q, want /echo", req.Path)
	}
	if v, ok := req.Query.ValueOf("x"); !ok || v != "1" {
		t.Errorf("Query[x]: got %q, %v", v, ok)
	}
	if v, ok := req.Query.ValueOf("y"); !ok || v != "2" {
		t.Errorf("Query[y]: got %q, %v", v, ok)
	}
	if req.Request.Host == nil || *req.Request.Host != "example.com" {
		t.Errorf("Host: got %v", req.Request.Host)
	}
	if !req.IsPersistent() {
		t.Error("HTTP/1.1 request without Connection: close should be persistent")
	}
}

func TestReceiveRequest_ChunkedBody(t *testing.T) {
	client, server := pairConnections(t)

	raw := "POST /p HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	client.Puts(raw)
	client.Flush()

	req := httpmsg.NewRequest()
	if err := ReceiveRequest(server, req, 1<<20); err != nil {
		t.Fatalf("ReceiveRequest: %v", err)
	}

	if req.Content == nil {
		t.Fatal("Content should be set")
	}
	got := string(req.Content.Data())
	if got != "hello world" {
		t.Fatalf("body: got %q, want %q", got, "hello world")
	}
	if req.ContentLen != 11 {
		t.Fatalf("ContentLen: got %d, want 11", req.ContentLen)
	}
}

func TestReceiveRequest_ContentLengthBody(t *testing.T) {
	client, server := pairConnections(t)

	body := "name=value"
	raw := "POST /form HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\nContent-Length: " +
		"10\r\n\r\n" + body
	client.Puts(raw)
	client.Flush()

	req := httpmsg.NewRequest()
	if err := ReceiveRequest(server, req, 1<<20); err != nil {
		t.Fatalf("ReceiveRequest: %v", err)
	}

	if v, ok := req.FormFields.ValueOf("name"); !ok || v != "value" {
		t.Fatalf("form field: got %q, %v", v, ok)
	}
}

func TestReceiveRequest_MalformedRequestLineIsProtocolError(t *testing.T) {
	client, server := pairConnections(t)

	client.Puts("GARBAGE\r\n\r\n")
	client.Flush()

	req := httpmsg.NewRequest()
	err := ReceiveRequest(server, req, 1<<20)
	if err == nil {
		t.Fatal("expected a protocol error for a malformed request line")
	}
}

func TestReceiveRequest_OverMaxContentIsProtocolError(t *testing.T) {
	client, server := pairConnections(t)

	raw := "POST /p HTTP/1.1\r\nContent-Length: 100\r\n\r\n"
	client.Puts(raw)
	client.Flush()

	req := httpmsg.NewRequest()
	err := ReceiveRequest(server, req, 10)
	if err == nil {
		t.Fatal("expected a protocol error when Content-Length exceeds max_content")
	}
}
