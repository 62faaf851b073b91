package memory

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Index is a full-text search index over a store snapshot, backed by SQLite
// FTS5. It is derived data: Rebuild replaces its contents wholesale and the
// JSON file stays the source of truth.
type Index struct {
	db      *sql.DB
	entries map[string]Entry
}

// OpenIndex opens an index at path. An empty path keeps the index in memory.
func OpenIndex(path string) (*Index, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("index: open database: %w", err)
	}
	// One connection: an in-memory database is private to its connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("index: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			id UNINDEXED,
			kind,
			content
		);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index: migration: %w", err)
	}

	return &Index{db: db, entries: map[string]Entry{}}, nil
}

// Close closes the underlying database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Rebuild replaces the index contents with the entries of s.
func (ix *Index) Rebuild(s Store) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("index: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM entries_fts"); err != nil {
		return fmt.Errorf("index: clear: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO entries_fts (id, kind, content) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("index: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	entries := make(map[string]Entry, len(s.Entries))
	for _, e := range s.Entries {
		if _, err := stmt.Exec(e.ID, string(e.Kind), e.Content); err != nil {
			return fmt.Errorf("index: insert %s: %w", e.ID, err)
		}
		entries[e.ID] = e
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: commit: %w", err)
	}
	ix.entries = entries
	return nil
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Search returns up to limit entries matching query, best FTS5 rank first.
// A query with no searchable words returns nil; a query that matches nothing
// returns an empty, non-nil slice.
func (ix *Index) Search(query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := ix.db.Query(
		"SELECT id FROM entries_fts WHERE entries_fts MATCH ? ORDER BY rank LIMIT ?",
		ftsQuery, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Entry{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("index: scan: %w", err)
		}
		if e, ok := ix.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out, rows.Err()
}

// sanitizeFTS wraps each word in quotes so FTS5 doesn't choke on special chars.
// Words without a letter or digit carry no token and are dropped.
// "fix auth bug" → `"fix" "auth" "bug"`
func sanitizeFTS(query string) string {
	var words []string
	for _, w := range strings.Fields(query) {
		w = strings.ReplaceAll(w, `"`, "")
		if !strings.ContainsFunc(w, isWordRune) {
			continue
		}
		words = append(words, `"`+w+`"`)
	}
	return strings.Join(words, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
