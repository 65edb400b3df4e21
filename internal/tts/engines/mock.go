package engines

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// MockEngine produces deterministic audio without a model. Each word yields
// WordDuration of a constant sample value derived from the word count, so
// outputs are reproducible and distinguishable.
type MockEngine struct {
	WordDuration time.Duration

	// FailOn makes Synthesize fail for any text containing it.
	FailOn string
	// Empty makes Synthesize return no segments.
	Empty bool

	mu       sync.Mutex
	requests []tts.Request
}

// NewMockEngine returns a mock emitting 50ms per word.
func NewMockEngine() *MockEngine {
	return &MockEngine{WordDuration: 50 * time.Millisecond}
}

func (m *MockEngine) Synthesize(ctx context.Context, req tts.Request) ([]tts.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeCanceled, "synthesis canceled", err)
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.FailOn != "" && strings.Contains(req.Text, m.FailOn) {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, "injected failure", nil)
	}
	if m.Empty {
		return nil, nil
	}

	words := strings.Fields(req.Text)
	n := audio.FramesFor(time.Duration(len(words))*m.WordDuration, audio.SampleRate)
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(len(words))
	}
	return []tts.Segment{{Graphemes: req.Text, Phonemes: strings.ToLower(req.Text), Samples: samples}}, nil
}

// Calls returns the number of Synthesize calls so far.
func (m *MockEngine) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received, in order.
func (m *MockEngine) Requests() []tts.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tts.Request(nil), m.requests...)
}

func (m *MockEngine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:       string(tts.EngineMock),
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		BitDepth:   audio.BitDepth,
		Device:     tts.DeviceCPU,
	}
}

func (m *MockEngine) Close() error { return nil }

var _ tts.Synthesizer = (*MockEngine)(nil)
