package cache

import (
	"bytes"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func newTestCache(t *testing.T, dir string, capacity int64) *DiskCache {
	t.Helper()
	dc, err := NewDiskCache(dir, capacity, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewDiskCache() error = %v", err)
	}
	t.Cleanup(func() { dc.Close() })
	return dc
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dc := newTestCache(t, dir, 0)

	value := bytes.Repeat([]byte("pcm"), 1000)
	if err := dc.Put("a", value); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := dc.Get("a")
	if !ok || !bytes.Equal(got, value) {
		t.Fatalf("Get() = %d bytes, %v", len(got), ok)
	}
	if _, ok := dc.Get("b"); ok {
		t.Errorf("Get(b) hit on empty key")
	}
	if dc.Size() >= int64(len(value)) {
		t.Errorf("Size() = %d, want compressed below %d", dc.Size(), len(value))
	}

	stats := dc.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.ItemCount != 1 || stats.HitRate != 0.5 {
		t.Errorf("Stats() = %+v", stats)
	}

	reopened := newTestCache(t, dir, 0)
	if got, ok := reopened.Get("a"); !ok || !bytes.Equal(got, value) {
		t.Errorf("entry lost after reopen")
	}
}

func TestDiskCacheEviction(t *testing.T) {
	dc := newTestCache(t, t.TempDir(), 0)
	if err := dc.Put("probe", []byte("x")); err != nil {
		t.Fatal(err)
	}
	unit := dc.Size()
	dc.Clear()

	dc.capacity = unit * 2
	for _, k := range []string{"one", "two"} {
		if err := dc.Put(k, []byte("x")); err != nil {
			t.Fatalf("Put(%s) error = %v", k, err)
		}
	}
	// Age "two" so it becomes least recently used.
	for name, e := range dc.index {
		if name == fileName("two") {
			e.LastAccess = time.Now().Add(-time.Hour)
		}
	}
	if err := dc.Put("three", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if _, ok := dc.Get("two"); ok {
		t.Errorf("least recently used entry survived eviction")
	}
	for _, k := range []string{"one", "three"} {
		if _, ok := dc.Get(k); !ok {
			t.Errorf("entry %s evicted", k)
		}
	}
	if dc.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", dc.Stats().Evictions)
	}

	if err := dc.Put("big", noise(4096)); err != ErrItemTooLarge {
		t.Errorf("Put(big) error = %v, want ErrItemTooLarge", err)
	}
}

// noise returns n incompressible bytes.
func noise(n int) []byte {
	out := make([]byte, 0, n+sha256.Size)
	sum := sha256.Sum256(nil)
	for len(out) < n {
		sum = sha256.Sum256(sum[:])
		out = append(out, sum[:]...)
	}
	return out[:n]
}

func TestDiskCacheCorruptEntry(t *testing.T) {
	dc := newTestCache(t, t.TempDir(), 0)
	if err := dc.Put("k", []byte("value")); err != nil {
		t.Fatal(err)
	}
	path := dc.index[fileName("k")].FilePath
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := dc.Get("k"); ok {
		t.Fatalf("corrupt entry returned")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("corrupt file kept: %v", err)
	}
}

func TestScanRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "ab", "partial.zst.tmp")
	if err := os.MkdirAll(filepath.Dir(tmp), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tmp, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dc := newTestCache(t, dir, 0)
	if dc.Stats().ItemCount != 0 {
		t.Errorf("temp file indexed")
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("temp file not removed")
	}
}

func TestKey(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Errorf("Key collides on shifted boundaries")
	}
	if Key("x", "y") != Key("x", "y") {
		t.Errorf("Key not stable")
	}
}
