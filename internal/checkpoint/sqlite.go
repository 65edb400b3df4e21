package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the ledger location relative to the working directory.
const DefaultPath = ".epub2tts/checkpoint.db"

// SQLite is a ledger stored in a SQLite database.
type SQLite struct {
	db    *sql.DB
	clock func() time.Time
}

// OpenSQLite opens or creates the ledger at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLite{db: db, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS artifacts (
    granularity TEXT NOT NULL,
    chapter INTEGER NOT NULL,
    paragraph INTEGER NOT NULL,
    path TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    state INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (granularity, chapter, paragraph)
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *SQLite) Lookup(ctx context.Context, k Key) (Entry, bool, error) {
	e := Entry{Key: k}
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT path, fingerprint, state, updated_at FROM artifacts
		 WHERE granularity = ? AND chapter = ? AND paragraph = ?`,
		string(k.Granularity), k.Chapter, k.Paragraph,
	).Scan(&e.Path, &e.Fingerprint, &e.State, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup %s: %w", k, err)
	}
	e.Updated = time.Unix(0, updated).UTC()
	return e, true, nil
}

func (s *SQLite) Record(ctx context.Context, e Entry) error {
	if e.Updated.IsZero() {
		e.Updated = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts(granularity, chapter, paragraph, path, fingerprint, state, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(granularity, chapter, paragraph) DO UPDATE SET
		   path=excluded.path, fingerprint=excluded.fingerprint,
		   state=excluded.state, updated_at=excluded.updated_at`,
		string(e.Granularity), e.Chapter, e.Paragraph, e.Path, e.Fingerprint, int(e.State), e.Updated.UnixNano())
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Key, err)
	}
	return nil
}

func (s *SQLite) Forget(ctx context.Context, k Key) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM artifacts WHERE granularity = ? AND chapter = ? AND paragraph = ?`,
		string(k.Granularity), k.Chapter, k.Paragraph)
	return err
}

// Entries lists every row ordered by chapter then paragraph.
func (s *SQLite) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT granularity, chapter, paragraph, path, fingerprint, state, updated_at
		 FROM artifacts ORDER BY chapter, paragraph, granularity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var g string
		var updated int64
		if err := rows.Scan(&g, &e.Chapter, &e.Paragraph, &e.Path, &e.Fingerprint, &e.State, &updated); err != nil {
			return nil, err
		}
		e.Granularity = Granularity(g)
		e.Updated = time.Unix(0, updated).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases underlying resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}
