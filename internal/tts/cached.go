package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/cache"
)

// Store is the byte store behind Cached. *cache.DiskCache satisfies it.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Cached memoizes a Synthesizer by engine, voice, speed and text.
type Cached struct {
	next   Synthesizer
	store  Store
	logger *log.Logger
}

// NewCached wraps next with store.
func NewCached(next Synthesizer, store Store, logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{next: next, store: store, logger: logger.WithPrefix("tts-cache")}
}

func (c *Cached) key(req Request) string {
	info := c.next.Info()
	return cache.Key(info.Name, info.Version, req.Voice, strconv.FormatFloat(req.Speed, 'f', 3, 64), req.Text)
}

// Synthesize returns cached segments when present and stores fresh results.
// Cache failures never fail the request.
func (c *Cached) Synthesize(ctx context.Context, req Request) ([]Segment, error) {
	key := c.key(req)
	if data, ok := c.store.Get(key); ok {
		segs, err := decodeSegments(data)
		if err == nil {
			return segs, nil
		}
		c.logger.Warn("Ignoring malformed cache entry", "err", err)
	}

	segs, err := c.next.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(segs) > 0 {
		if err := c.store.Put(key, encodeSegments(segs)); err != nil {
			c.logger.Debug("Could not cache segments", "err", err)
		}
	}
	return segs, nil
}

func (c *Cached) Info() EngineInfo { return c.next.Info() }

func (c *Cached) Close() error { return c.next.Close() }

func encodeSegments(segs []Segment) []byte {
	var buf bytes.Buffer
	putString := func(s string) {
		buf.Write(binary.AppendUvarint(nil, uint64(len(s))))
		buf.WriteString(s)
	}
	buf.Write(binary.AppendUvarint(nil, uint64(len(segs))))
	for _, s := range segs {
		putString(s.Graphemes)
		putString(s.Phonemes)
		pcm := audio.EncodePCM16LE(s.Samples)
		buf.Write(binary.AppendUvarint(nil, uint64(len(pcm))))
		buf.Write(pcm)
	}
	return buf.Bytes()
}

func decodeSegments(data []byte) ([]Segment, error) {
	r := bytes.NewReader(data)
	readBytes := func() ([]byte, error) {
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		if n > uint64(r.Len()) {
			return nil, io.ErrUnexpectedEOF
		}
		b := make([]byte, n)
		_, err = io.ReadFull(r, b)
		return b, err
	}

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrCacheCorrupted, err)
	}
	if count > uint64(len(data)) {
		return nil, cache.ErrCacheCorrupted
	}
	segs := make([]Segment, 0, count)
	for range count {
		var fields [3][]byte
		for i := range fields {
			if fields[i], err = readBytes(); err != nil {
				return nil, fmt.Errorf("%w: %v", cache.ErrCacheCorrupted, err)
			}
		}
		segs = append(segs, Segment{
			Graphemes: string(fields[0]),
			Phonemes:  string(fields[1]),
			Samples:   audio.DecodePCM16LE(fields[2]),
		})
	}
	if r.Len() != 0 {
		return nil, cache.ErrCacheCorrupted
	}
	return segs, nil
}
