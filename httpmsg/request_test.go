package httpmsg

import (
	"testing"

	"github.com/searchktools/netcore/buffer"
)

func TestRequest_NewRequestDefaultsPersistent(t *testing.T) {
	req := NewRequest()
	if !req.IsPersistent() {
		t.Error("a fresh Request should default to persistent")
	}
}

func TestRequest_SetCookieHeaderAppendsInWireOrder(t *testing.T) {
	req := NewRequest()
	req.SetCookieHeader("a=1; b=2")
	req.SetCookieHeader("c=3")

	want := []Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}, {Name: "c", Value: "3"}}
	if len(req.Cookies) != len(want) {
		t.Fatalf("Cookies = %+v, want %+v", req.Cookies, want)
	}
	for i, c := range want {
		if req.Cookies[i].Name != c.Name || req.Cookies[i].Value != c.Value {
			t.Errorf("Cookies[%d] = %+v, want %+v", i, req.Cookies[i], c)
		}
	}
}

func TestRequest_ExtraHeaders(t *testing.T) {
	req := NewRequest()
	req.SetExtraHeader("X-Custom", "value")

	v, ok := req.Header("X-Custom")
	if !ok || v != "value" {
		t.Fatalf("Header(%q) = %q, %v; want value, true", "X-Custom", v, ok)
	}
	if _, ok := req.Header("X-Missing"); ok {
		t.Error("Header on an unset name should report false")
	}
}

func TestRequest_RecycleKeepsContentBufferButResetsState(t *testing.T) {
	req := NewRequest()
	req.Method = MethodPOST
	req.Path = "/upload"
	req.SetPersistent(false)
	req.Content = buffer.New(32)
	req.Content.Write([]byte("body"))
	content := req.Content

	req.Recycle()

	if req.Method != "" || req.Path != "" {
		t.Errorf("Recycle should clear Method/Path, got %q/%q", req.Method, req.Path)
	}
	if !req.IsPersistent() {
		t.Error("Recycle should reset persistence to true")
	}
	if req.Content != content {
		t.Error("Recycle should keep the same Content buffer rather than discarding it")
	}
	if req.Content.CanRead() != 0 {
		t.Error("Recycle should reset the kept Content buffer's contents")
	}
}

func TestVersion_String(t *testing.T) {
	cases := []struct {
		v    Version
		want string
	}{
		{Version{1, 0}, "HTTP/1.0"},
		{Version{1, 1}, "HTTP/1.1"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("Version%+v.String() = %q, want %q", c.v, got, c.want)
		}
	}
}
