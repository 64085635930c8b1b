package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/inspectra/internal/model"
)

func TestPageKey(t *testing.T) {
	a := PageKey([]byte("%PDF-1.4 data"), "pdf")
	if a != PageKey([]byte("%PDF-1.4 data"), "pdf") {
		t.Error("Expected stable key for identical input")
	}
	if a == PageKey([]byte("%PDF-1.4 data"), "text") {
		t.Error("Expected adapter name to change the key")
	}
	if a == PageKey([]byte("%PDF-1.4 other"), "pdf") {
		t.Error("Expected content to change the key")
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	value := []byte("abc")
	_ = c.Set("k", value, 0)
	value[0] = 'x'

	got, ok := c.Get("k")
	if !ok || string(got) != "abc" {
		t.Fatalf("Expected stored copy, got %q, %v", got, ok)
	}
	got[1] = 'y'
	again, _ := c.Get("k")
	if string(again) != "abc" {
		t.Errorf("Get must return a copy, got %q", again)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}
}

func TestDiskCache_SetGetExpire(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("inspectra:pages/a", []byte("pages"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, ok := c.Get("inspectra:pages/a"); !ok || string(got) != "pages" {
		t.Errorf("Expected hit, got %q, %v", got, ok)
	}

	if err := c.Set("old", []byte("x"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get("old"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "old.cache")); !os.IsNotExist(err) {
		t.Error("Expected expired entry to be removed on read")
	}

	if err := c.Delete("missing"); err != nil {
		t.Errorf("Deleting a missing entry must not fail: %v", err)
	}
}

func TestDiskCache_Prune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("fresh", []byte("1"), 0)
	_ = c.Set("stale", []byte("2"), -time.Minute)
	if err := os.WriteFile(filepath.Join(dir, "broken.cache"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	removed, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed entries, got %d", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("Fresh entry must survive pruning")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("Unrelated files must be left alone")
	}

	if n, err := NewDiskCache(filepath.Join(dir, "absent"), time.Hour).Prune(); err != nil || n != 0 {
		t.Errorf("Pruning a missing dir: got %d, %v", n, err)
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	_ = NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0)

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Expected disk hit, got %q, %v", got, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("Expected value promoted to memory")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after Clear")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(model.CacheConfig{Enabled: false}).(Nop); !ok {
		t.Error("Disabled cache must be Nop")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Cache without dir must be memory only")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("Cache with dir must be layered")
	}
}

func TestPageStore(t *testing.T) {
	store := NewPageStore(NewMemoryCache(time.Minute, time.Minute), 0)
	pages := []model.Page{{Number: 2, Lines: []string{"С5 стол"}}}

	if err := store.Put("key", pages); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, ok := store.Get("key")
	if !ok || len(got) != 1 || got[0].Number != 2 || got[0].Lines[0] != "С5 стол" {
		t.Errorf("Unexpected pages %+v, %v", got, ok)
	}

	mem := NewMemoryCache(time.Minute, time.Minute)
	_ = mem.Set("bad", []byte("not json"), 0)
	if _, ok := NewPageStore(mem, 0).Get("bad"); ok {
		t.Error("Undecodable entry must be a miss")
	}
	if _, ok := mem.Get("bad"); ok {
		t.Error("Undecodable entry must be dropped")
	}

	if _, ok := NewPageStore(nil, 0).Get("key"); ok {
		t.Error("Nil cache must never hit")
	}
}

func TestDiskCache_ClearKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	_ = c.Set("a", []byte("1"), 0)
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Expected entry removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "README")); err != nil {
		t.Error("Clear must not remove unrelated files")
	}
	if err := NewDiskCache(filepath.Join(dir, "absent"), time.Hour).Clear(); err != nil {
		t.Errorf("Clearing a missing dir: %v", err)
	}
}
