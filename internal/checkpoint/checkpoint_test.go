package checkpoint

import (
	"context"
	"path/filepath"
	"testing"
)

func exerciseLedger(t *testing.T, l Ledger) {
	t.Helper()
	ctx := context.Background()
	k := Key{Granularity: Paragraph, Chapter: 2, Paragraph: 3}

	if _, ok, err := l.Lookup(ctx, k); err != nil || ok {
		t.Fatalf("Lookup() on empty ledger = %v, %v", ok, err)
	}

	e := Entry{Key: k, Path: "pgraphs3.wav", Fingerprint: "abc", State: InProgress}
	if err := l.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	e.State = Complete
	e.Fingerprint = "def"
	if err := l.Record(ctx, e); err != nil {
		t.Fatalf("Record() update error = %v", err)
	}
	if err := l.Record(ctx, Entry{Key: Key{Granularity: Chapter, Chapter: 2}, Path: "part2.wav", State: Complete}); err != nil {
		t.Fatal(err)
	}

	got, ok, err := l.Lookup(ctx, k)
	if err != nil || !ok {
		t.Fatalf("Lookup() = %v, %v", ok, err)
	}
	if got.Path != "pgraphs3.wav" || got.Fingerprint != "def" || got.State != Complete || got.Updated.IsZero() {
		t.Errorf("Lookup() = %+v", got)
	}

	if err := l.Forget(ctx, k); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := l.Lookup(ctx, k); ok {
		t.Errorf("entry survived Forget()")
	}
	if _, ok, _ := l.Lookup(ctx, Key{Granularity: Chapter, Chapter: 2}); !ok {
		t.Errorf("Forget() removed the chapter entry")
	}
}

func TestMemory(t *testing.T) {
	exerciseLedger(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".epub2tts", "checkpoint.db")
	l, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	exerciseLedger(t, l)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	entries, err := reopened.Entries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path != "part2.wav" || entries[0].Granularity != Chapter {
		t.Errorf("Entries() after reopen = %+v", entries)
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("a", "bc") == Fingerprint("ab", "c") {
		t.Errorf("Fingerprint() ignores boundaries")
	}
	if Fingerprint("mock", "af_heart", "1.3") != Fingerprint("mock", "af_heart", "1.3") {
		t.Errorf("Fingerprint() unstable")
	}
	if len(Fingerprint()) != 32 {
		t.Errorf("Fingerprint() length = %d", len(Fingerprint()))
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Pending: "pending", InProgress: "in-progress", Complete: "complete", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q", int(s), s.String())
		}
	}
}
