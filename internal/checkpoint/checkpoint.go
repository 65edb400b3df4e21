// Package checkpoint records which audio artifacts of a run are complete and
// what inputs produced them. File presence stays the primary resume signal;
// the ledger adds fingerprints so stale artifacts can be detected.
package checkpoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Granularity is the artifact level an entry describes.
type Granularity string

const (
	Chapter   Granularity = "chapter"
	Paragraph Granularity = "paragraph"
)

// State of an artifact.
type State int

const (
	Pending State = iota
	InProgress
	Complete
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case InProgress:
		return "in-progress"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Key identifies one artifact. Paragraph is zero for chapter entries.
type Key struct {
	Granularity Granularity
	Chapter     int
	Paragraph   int
}

func (k Key) String() string {
	if k.Granularity == Chapter {
		return fmt.Sprintf("chapter %d", k.Chapter)
	}
	return fmt.Sprintf("chapter %d paragraph %d", k.Chapter, k.Paragraph)
}

// Entry is a ledger row.
type Entry struct {
	Key
	Path        string
	Fingerprint string
	State       State
	Updated     time.Time
}

// Ledger persists entries. Implementations must be safe for a single writer.
type Ledger interface {
	Lookup(ctx context.Context, k Key) (Entry, bool, error)
	Record(ctx context.Context, e Entry) error
	Forget(ctx context.Context, k Key) error
	Close() error
}

// Fingerprint hashes the inputs that determine an artifact's content.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Memory is a ledger that lives only as long as the process. It backs runs
// where no ledger file is wanted, leaving file presence as the only signal.
type Memory struct {
	mu      sync.Mutex
	entries map[Key]Entry
}

// NewMemory returns an empty in-process ledger.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Key]Entry)}
}

func (m *Memory) Lookup(_ context.Context, k Key) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[k]
	return e, ok, nil
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Updated.IsZero() {
		e.Updated = time.Now().UTC()
	}
	m.entries[e.Key] = e
	return nil
}

func (m *Memory) Forget(_ context.Context, k Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, k)
	return nil
}

func (m *Memory) Close() error { return nil }
