package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoadCache(t *testing.T) {
	b := &Builder{workspaceDir: t.TempDir()}

	now := time.Now().Truncate(time.Second)
	cache := &buildCache{}
	cache.set("abc", &buildEntry{Keg: "/usr/local/Cellar/macvim/7.4-72", BuildTime: now})

	if err := b.saveCache("macvim", cache); err != nil {
		t.Fatalf("saveCache failed: %v", err)
	}

	loaded, err := b.loadCache("macvim")
	if err != nil {
		t.Fatalf("loadCache failed: %v", err)
	}
	entry, ok := loaded.get("abc")
	if !ok {
		t.Fatal("entry abc missing")
	}
	if entry.Keg != "/usr/local/Cellar/macvim/7.4-72" {
		t.Errorf("Keg mismatch: got %q", entry.Keg)
	}
	if !entry.BuildTime.Truncate(time.Second).Equal(now) {
		t.Errorf("BuildTime mismatch: got %v, want %v", entry.BuildTime, now)
	}
}

func TestLoadCache_NotExist(t *testing.T) {
	b := &Builder{workspaceDir: t.TempDir()}
	cache, err := b.loadCache("macvim")
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if _, ok := cache.get("abc"); ok {
		t.Error("empty cache has an entry")
	}
}

func TestLoadCache_InvalidJSON(t *testing.T) {
	b := &Builder{workspaceDir: t.TempDir()}
	dir := b.cacheDir("macvim")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, cacheFile), []byte("invalid json"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := b.loadCache("macvim"); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}
