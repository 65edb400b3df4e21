package tts

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/epub2tts/internal/cache"
)

type countingEngine struct {
	calls int
	fail  error
}

func (e *countingEngine) Synthesize(_ context.Context, req Request) ([]Segment, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	return []Segment{
		{Graphemes: req.Text, Phonemes: "hə", Samples: []int16{1, -2, 3}},
		{Graphemes: "", Samples: []int16{32767, -32768}},
	}, nil
}

func (e *countingEngine) Info() EngineInfo { return EngineInfo{Name: "counting", SampleRate: 24000} }
func (e *countingEngine) Close() error     { return nil }

type mapStore map[string][]byte

func (m mapStore) Get(key string) ([]byte, bool) { v, ok := m[key]; return v, ok }
func (m mapStore) Put(key string, v []byte) error { m[key] = v; return nil }

func TestCached(t *testing.T) {
	eng := &countingEngine{}
	store := mapStore{}
	c := NewCached(eng, store, log.New(io.Discard))
	ctx := context.Background()
	req := Request{Text: "Hello.", Voice: "af_heart", Speed: 1.3}

	first, err := c.Synthesize(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Synthesize(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if eng.calls != 1 {
		t.Errorf("engine called %d times, want 1", eng.calls)
	}
	if len(second) != 2 || second[0].Graphemes != "Hello." || second[0].Phonemes != "hə" {
		t.Fatalf("cached segments = %+v", second)
	}
	for i := range first {
		if len(first[i].Samples) != len(second[i].Samples) {
			t.Fatalf("segment %d length differs", i)
		}
		for j := range first[i].Samples {
			if first[i].Samples[j] != second[i].Samples[j] {
				t.Errorf("segment %d sample %d = %d, want %d", i, j, second[i].Samples[j], first[i].Samples[j])
			}
		}
	}

	if _, err := c.Synthesize(ctx, Request{Text: "Hello.", Voice: "af_heart", Speed: 1.0}); err != nil {
		t.Fatal(err)
	}
	if eng.calls != 2 {
		t.Errorf("speed change served from cache")
	}
}

func TestCachedCorruptEntry(t *testing.T) {
	eng := &countingEngine{}
	store := mapStore{}
	c := NewCached(eng, store, log.New(io.Discard))
	req := Request{Text: "x", Voice: "af_heart", Speed: 1}
	store[c.key(req)] = []byte{0xff}

	if _, err := c.Synthesize(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if eng.calls != 1 {
		t.Errorf("corrupt entry served")
	}
	if _, err := decodeSegments([]byte{1, 200}); !errors.Is(err, cache.ErrCacheCorrupted) {
		t.Errorf("decodeSegments() error = %v", err)
	}
}

func TestCachedErrorNotStored(t *testing.T) {
	eng := &countingEngine{fail: errors.New("boom")}
	store := mapStore{}
	c := NewCached(eng, store, log.New(io.Discard))
	if _, err := c.Synthesize(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatal("error swallowed")
	}
	if len(store) != 0 {
		t.Errorf("failure cached")
	}
}
