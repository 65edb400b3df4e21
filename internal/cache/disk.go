package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const fileExt = ".zst"

// DiskCache is a persistent store for audio blobs. Every value is zstd
// compressed; the index is rebuilt from the directory on open, with file
// modification times standing in for last access.
type DiskCache struct {
	basePath string
	capacity int64 // Maximum size in bytes, 0 for unbounded
	size     int64 // Current size in bytes

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskCacheEntry

	mu     sync.Mutex
	stats  CacheStats
	logger *log.Logger
}

type diskCacheEntry struct {
	FilePath   string
	Size       int64 // Size on disk (compressed)
	LastAccess time.Time
}

// NewDiskCache opens or creates a cache rooted at basePath.
func NewDiskCache(basePath string, capacity int64, logger *log.Logger) (*DiskCache, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		encoder:  enc,
		decoder:  dec,
		index:    make(map[string]*diskCacheEntry),
		stats:    CacheStats{Capacity: capacity},
		logger:   logger.WithPrefix("cache"),
	}
	if err := dc.scan(); err != nil {
		return nil, err
	}
	return dc, nil
}

// Get retrieves a value from the disk cache.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	name := fileName(key)
	entry, ok := dc.index[name]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.FilePath)
	if err == nil {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		dc.logger.Warn("Dropping unreadable cache entry", "file", entry.FilePath, "err", err)
		dc.remove(name)
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	entry.LastAccess = now
	_ = os.Chtimes(entry.FilePath, now, now)

	dc.stats.Hits++
	dc.stats.LastAccess = now
	return data, true
}

// Put stores a value in the disk cache, evicting the least recently used
// entries until it fits.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data := dc.encoder.EncodeAll(value, nil)
	diskSize := int64(len(data))
	if dc.capacity > 0 && diskSize > dc.capacity {
		return ErrItemTooLarge
	}

	name := fileName(key)
	if _, ok := dc.index[name]; ok {
		dc.remove(name)
	}
	for dc.capacity > 0 && dc.size+diskSize > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	path := filepath.Join(dc.basePath, name[:2], name)
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	dc.index[name] = &diskCacheEntry{FilePath: path, Size: diskSize, LastAccess: time.Now()}
	dc.size += diskSize
	return nil
}

// Delete removes an entry from the disk cache.
func (dc *DiskCache) Delete(key string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.remove(fileName(key))
}

// Clear removes all entries from the disk cache.
func (dc *DiskCache) Clear() {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	for name := range dc.index {
		dc.remove(name)
	}
}

// Size returns the current cache size in bytes.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() CacheStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.ItemCount = int64(len(dc.index))
	if stats.Hits+stats.Misses > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	}
	return stats
}

// Close releases the compression resources.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	return dc.encoder.Close()
}

func (dc *DiskCache) remove(name string) {
	entry, ok := dc.index[name]
	if !ok {
		return
	}
	if err := os.Remove(entry.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		dc.logger.Debug("Could not remove cache file", "file", entry.FilePath, "err", err)
	}
	dc.size -= entry.Size
	delete(dc.index, name)
}

func (dc *DiskCache) evictOldest() {
	var oldest string
	var oldestTime time.Time
	for name, entry := range dc.index {
		if oldest == "" || entry.LastAccess.Before(oldestTime) {
			oldest = name
			oldestTime = entry.LastAccess
		}
	}
	if oldest != "" {
		dc.remove(oldest)
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) scan() error {
	return filepath.WalkDir(dc.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".tmp") {
			_ = os.Remove(path)
			return nil
		}
		if !strings.HasSuffix(name, fileExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		dc.index[name] = &diskCacheEntry{FilePath: path, Size: info.Size(), LastAccess: info.ModTime()}
		dc.size += info.Size()
		return nil
	})
}

func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + fileExt
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// Write to temp file first, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}
