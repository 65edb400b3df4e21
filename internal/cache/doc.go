// Package cache stores synthesized audio on disk, compressed with zstd and
// bounded by a byte capacity with least recently used eviction.
package cache
