package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemKVRoundTrip(t *testing.T) {
	kv := NewMemKV()
	if _, ok, _ := kv.Get("missing"); ok {
		t.Fatalf("missing key must report absent")
	}
	if err := kv.Set("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set("k", "v2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := kv.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("get: %q ok=%v err=%v", v, ok, err)
	}
}

func TestFileKVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok, _ := kv.Get("missing"); ok {
		t.Fatalf("missing key must report absent")
	}
	if err := kv.Set("consent", `[{"meeting_id":"m1"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := kv.Get("consent")
	if err != nil || !ok || v != `[{"meeting_id":"m1"}]` {
		t.Fatalf("get: %q ok=%v err=%v", v, ok, err)
	}
	// No temp files may linger after a write.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestFileKVRequiresDir(t *testing.T) {
	if _, err := NewFileKV(""); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
