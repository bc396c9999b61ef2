package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManager_SetGet(t *testing.T) {
	m := NewManager()
	if _, ok := m.Get("missing"); ok {
		t.Fatalf("Get on empty Manager: got ok=true, want false")
	}

	m.Set("worker.threads", 4)
	v, ok := m.Get("worker.threads")
	if !ok || v != 4 {
		t.Fatalf("Get(%q) = %v, %v; want 4, true", "worker.threads", v, ok)
	}
}

func TestManager_LoadFromEnv(t *testing.T) {
	t.Setenv("NETCORE_WORKER_THREADS", "16")
	t.Setenv("NETCORE_HOST", "127.0.0.1")
	t.Setenv("OTHERPREFIX_IGNORED", "nope")

	m := NewManager()
	m.LoadFromEnv("NETCORE_")

	if v, ok := m.Get("worker.threads"); !ok || v != "16" {
		t.Fatalf("worker.threads = %v, %v; want 16, true", v, ok)
	}
	if v, ok := m.Get("host"); !ok || v != "127.0.0.1" {
		t.Fatalf("host = %v, %v; want 127.0.0.1, true", v, ok)
	}
	if _, ok := m.Get("ignored"); ok {
		t.Fatalf("key from unrelated prefix leaked into overlay")
	}
}

func TestManager_LoadFromJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	const doc = `{
		"host": "10.0.0.1",
		"port": 9090,
		"tls": {
			"cert": "/etc/tls/cert.pem"
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := NewManager()
	if err := m.LoadFromJSON(path); err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}

	if v, ok := m.Get("host"); !ok || v != "10.0.0.1" {
		t.Fatalf("host = %v, %v; want 10.0.0.1, true", v, ok)
	}
	if v, ok := m.Get("port"); !ok || v != float64(9090) {
		t.Fatalf("port = %v, %v; want 9090, true", v, ok)
	}
	if v, ok := m.Get("tls.cert"); !ok || v != "/etc/tls/cert.pem" {
		t.Fatalf("tls.cert = %v, %v; want /etc/tls/cert.pem, true", v, ok)
	}
}

func TestManager_LoadFromJSON_MissingFile(t *testing.T) {
	m := NewManager()
	if err := m.LoadFromJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("LoadFromJSON on a missing file: got nil error, want one")
	}
}

func TestManager_Unmarshal(t *testing.T) {
	m := NewManager()
	m.Set("host", "192.168.1.1")
	m.Set("workerthreads", 32)
	m.Set("blockwhenfull", false)

	opts := &Options{
		Host:          "0.0.0.0",
		WorkerThreads: 8,
		BlockWhenFull: true,
		Port:          8080,
	}
	if err := m.Unmarshal("", opts); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if opts.Host != "192.168.1.1" {
		t.Errorf("Host = %q, want %q", opts.Host, "192.168.1.1")
	}
	if opts.WorkerThreads != 32 {
		t.Errorf("WorkerThreads = %d, want 32", opts.WorkerThreads)
	}
	if opts.BlockWhenFull {
		t.Error("BlockWhenFull = true, want false")
	}
	if opts.Port != 8080 {
		t.Errorf("Port = %d, want unchanged 8080", opts.Port)
	}
}

func TestManager_Unmarshal_RequiresStructPointer(t *testing.T) {
	m := NewManager()
	var notAStruct int
	if err := m.Unmarshal("", &notAStruct); err == nil {
		t.Fatal("Unmarshal into *int: got nil error, want one")
	}
	if err := m.Unmarshal("", Options{}); err == nil {
		t.Fatal("Unmarshal into non-pointer: got nil error, want one")
	}
}
