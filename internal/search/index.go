// Package search maintains the full-text index over the document corpus.
//
// It uses SQLite with FTS5: a sections table holds one row per heading with
// that section's own body text, and an external-content FTS table kept in
// sync by triggers provides bm25-ranked matches with snippets.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/docweave/docweave/internal/document"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const (
	defaultLimit     = 10
	maxSearchResults = 50
)

// Options holds filters for FTS5 search queries.
type Options struct {
	SearchIn        []string `json:"search_in,omitempty"` // title, content, path
	Fuzzy           bool     `json:"fuzzy,omitempty"`
	MatchAny        bool     `json:"match_any,omitempty"` // OR tokens instead of AND
	GroupByDocument bool     `json:"group_by_document,omitempty"`
	BoostTitle      float64  `json:"boost_title,omitempty"`
	Namespace       string   `json:"namespace,omitempty"`
	Limit           int      `json:"limit,omitempty"`
}

// Match is a single section-level hit.
type Match struct {
	Slug    string  `json:"slug"`
	Title   string  `json:"title"`
	Depth   int     `json:"depth"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Result groups the matches belonging to one document.
type Result struct {
	DocumentPath  string  `json:"document_path"`
	DocumentTitle string  `json:"document_title"`
	Namespace     string  `json:"namespace"`
	Matches       []Match `json:"matches,omitempty"`
}

// Stats holds aggregate index statistics.
type Stats struct {
	Documents   int    `json:"documents"`
	Sections    int    `json:"sections"`
	LastIndexed string `json:"last_indexed,omitempty"`
}

// Corpus is the slice of the document manager the indexer needs.
// Abstracted for testability (DIP).
type Corpus interface {
	ListDocuments() ([]string, error)
	GetDocument(path string) (*document.Snapshot, error)
}

// Index is the persistent full-text index backed by SQLite + FTS5.
type Index struct {
	db *sql.DB
}

// New opens (or creates) the index database at dbPath, applies the
// performance pragmas, and runs migrations.
func New(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("search: create data dir: %w", err)
	}

	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("search: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("search: pragma %q: %w", p, err)
		}
	}

	ix := &Index{db: db}
	if err := ix.migrate(); err != nil {
		return nil, fmt.Errorf("search: migration: %w", err)
	}
	return ix, nil
}

// Close closes the underlying database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			path        TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			namespace   TEXT NOT NULL,
			modified_at TEXT NOT NULL,
			indexed_at  TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS sections (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_path TEXT    NOT NULL,
			slug     TEXT    NOT NULL,
			title    TEXT    NOT NULL,
			depth    INTEGER NOT NULL,
			content  TEXT    NOT NULL,
			FOREIGN KEY (doc_path) REFERENCES documents(path) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_sections_doc  ON sections(doc_path);
		CREATE INDEX IF NOT EXISTS idx_docs_ns       ON documents(namespace);
		CREATE INDEX IF NOT EXISTS idx_docs_modified ON documents(modified_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS sections_fts USING fts5(
			title,
			content,
			doc_path,
			content='sections',
			content_rowid='id'
		);
	`
	if _, err := ix.db.Exec(schema); err != nil {
		return err
	}

	// Create FTS triggers (idempotent)
	var name string
	err := ix.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='sections_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER sections_fts_insert AFTER INSERT ON sections BEGIN
				INSERT INTO sections_fts(rowid, title, content, doc_path)
				VALUES (new.id, new.title, new.content, new.doc_path);
			END;

			CREATE TRIGGER sections_fts_delete AFTER DELETE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, title, content, doc_path)
				VALUES ('delete', old.id, old.title, old.content, old.doc_path);
			END;

			CREATE TRIGGER sections_fts_update AFTER UPDATE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, title, content, doc_path)
				VALUES ('delete', old.id, old.title, old.content, old.doc_path);
				INSERT INTO sections_fts(rowid, title, content, doc_path)
				VALUES (new.id, new.title, new.content, new.doc_path);
			END;
		`
		if _, err := ix.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// IndexDocument replaces every index row for the snapshot's document.
// Each heading contributes one row holding only its own body text (not the
// subtree), so a match reports the most specific section.
func (ix *Index) IndexDocument(snap *document.Snapshot) error {
	meta := document.Meta(snap)

	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("indexing %s: %w", snap.Address.Path, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(
		`INSERT INTO documents (path, title, namespace, modified_at, indexed_at)
		 VALUES (?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(path) DO UPDATE SET
		   title       = excluded.title,
		   namespace   = excluded.namespace,
		   modified_at = excluded.modified_at,
		   indexed_at  = excluded.indexed_at`,
		snap.Address.Path, meta.Title, meta.Namespace,
		snap.ModTime.UTC().Format("2006-01-02 15:04:05"),
	); err != nil {
		return fmt.Errorf("indexing %s: %w", snap.Address.Path, err)
	}
	if _, err := tx.Exec(`DELETE FROM sections WHERE doc_path = ?`, snap.Address.Path); err != nil {
		return fmt.Errorf("indexing %s: %w", snap.Address.Path, err)
	}

	insert := func(slug, title string, depth int, content string) error {
		_, err := tx.Exec(
			`INSERT INTO sections (doc_path, slug, title, depth, content) VALUES (?, ?, ?, ?, ?)`,
			snap.Address.Path, slug, title, depth, content,
		)
		return err
	}

	headings := snap.Index.Headings
	if len(headings) == 0 {
		if err := insert("", meta.Title, 0, snap.Body()); err != nil {
			return fmt.Errorf("indexing %s: %w", snap.Address.Path, err)
		}
		return tx.Commit()
	}

	if pre := ownBody(snap, snap.BodyLine, headings[0].Line); strings.TrimSpace(pre) != "" {
		if err := insert("", meta.Title, 0, pre); err != nil {
			return fmt.Errorf("indexing %s: %w", snap.Address.Path, err)
		}
	}
	for i, h := range headings {
		end := len(snap.Lines)
		if i+1 < len(headings) {
			end = headings[i+1].Line
		}
		if err := insert(h.Slug, h.Title, h.Depth, ownBody(snap, h.BodyLine, end)); err != nil {
			return fmt.Errorf("indexing %s: %w", snap.Address.Path, err)
		}
	}

	return tx.Commit()
}

func ownBody(snap *document.Snapshot, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(snap.Lines) {
		end = len(snap.Lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(snap.Lines[start:end], "\n")
}

// RemoveDocument drops a document and its sections from the index.
func (ix *Index) RemoveDocument(path string) error {
	if _, err := ix.db.Exec(`DELETE FROM sections WHERE doc_path = ?`, path); err != nil {
		return fmt.Errorf("removing %s from index: %w", path, err)
	}
	if _, err := ix.db.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("removing %s from index: %w", path, err)
	}
	return nil
}

// Reindex walks the whole corpus and rebuilds the index, pruning documents
// that no longer exist on disk. Unreadable documents are skipped. Returns
// the number of documents indexed.
func (ix *Index) Reindex(ctx context.Context, corpus Corpus) (int, error) {
	paths, err := corpus.ListDocuments()
	if err != nil {
		return 0, fmt.Errorf("reindex: listing documents: %w", err)
	}

	onDisk := make(map[string]bool, len(paths))
	indexed := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		onDisk[p] = true
		snap, err := corpus.GetDocument(p)
		if err != nil {
			continue // skip unreadable documents
		}
		if err := ix.IndexDocument(snap); err != nil {
			continue
		}
		indexed++
	}

	stale, err := ix.indexedPaths(ctx)
	if err != nil {
		return indexed, nil
	}
	for _, p := range stale {
		if !onDisk[p] {
			_ = ix.RemoveDocument(p)
		}
	}
	return indexed, nil
}

func (ix *Index) indexedPaths(ctx context.Context) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT path FROM documents`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Search performs full-text search across sections. An empty or
// whitespace-only query falls back to the most recently modified documents.
func (ix *Index) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxSearchResults {
		limit = maxSearchResults
	}

	match := buildMatchQuery(query, opts)
	if match == "" {
		return ix.searchRecent(ctx, opts, limit)
	}

	boost := opts.BoostTitle
	if boost <= 0 {
		boost = 2.0
	}

	sqlStr := `
		SELECT s.doc_path, d.title, d.namespace, s.slug, s.title, s.depth,
		       snippet(sections_fts, 1, '**', '**', '…', 12),
		       bm25(sections_fts, ?, 1.0, 0.5) AS rank
		FROM sections_fts
		JOIN sections s ON s.id = sections_fts.rowid
		JOIN documents d ON d.path = s.doc_path
		WHERE sections_fts MATCH ?
	`
	args := []any{boost, match}

	if opts.Namespace != "" {
		sqlStr += " AND d.namespace = ?"
		args = append(args, opts.Namespace)
	}

	sqlStr += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := ix.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var flat []Result
	for rows.Next() {
		var r Result
		var m Match
		var rank float64
		if err := rows.Scan(&r.DocumentPath, &r.DocumentTitle, &r.Namespace,
			&m.Slug, &m.Title, &m.Depth, &m.Snippet, &rank); err != nil {
			return nil, err
		}
		m.Score = -rank // bm25 is a cost, lower is better
		r.Matches = []Match{m}
		flat = append(flat, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if opts.GroupByDocument {
		return groupByDocument(flat), nil
	}
	return flat, nil
}

// searchRecent returns the most recently modified documents without FTS,
// used as fallback when the query is empty.
func (ix *Index) searchRecent(ctx context.Context, opts Options, limit int) ([]Result, error) {
	sqlStr := `SELECT path, title, namespace FROM documents`
	var args []any

	if opts.Namespace != "" {
		sqlStr += " WHERE namespace = ?"
		args = append(args, opts.Namespace)
	}

	sqlStr += " ORDER BY modified_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := ix.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.DocumentPath, &r.DocumentTitle, &r.Namespace); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Stats returns aggregate index statistics.
func (ix *Index) Stats() (*Stats, error) {
	st := &Stats{}
	_ = ix.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&st.Documents)
	_ = ix.db.QueryRow("SELECT COUNT(*) FROM sections").Scan(&st.Sections)

	var last sql.NullString
	_ = ix.db.QueryRow("SELECT MAX(indexed_at) FROM documents").Scan(&last)
	if last.Valid {
		st.LastIndexed = last.String
	}
	return st, nil
}

// buildMatchQuery sanitizes the raw query into an FTS5 MATCH expression:
// each token is quoted (with a prefix star when fuzzy), and SearchIn
// restricts matching to the named columns.
func buildMatchQuery(query string, opts Options) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		w = strings.Trim(w, `"`)
		if opts.Fuzzy {
			words[i] = `"` + w + `"*`
		} else {
			words[i] = `"` + w + `"`
		}
	}
	sep := " "
	if opts.MatchAny {
		sep = " OR "
	}
	expr := strings.Join(words, sep)

	cols := searchColumns(opts.SearchIn)
	if len(cols) > 0 {
		expr = "{" + strings.Join(cols, " ") + "}: " + expr
	}
	return expr
}

func searchColumns(searchIn []string) []string {
	var cols []string
	for _, s := range searchIn {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "title":
			cols = append(cols, "title")
		case "content":
			cols = append(cols, "content")
		case "path":
			cols = append(cols, "doc_path")
		}
	}
	return cols
}

func groupByDocument(flat []Result) []Result {
	var out []Result
	byPath := map[string]int{}
	for _, r := range flat {
		if i, ok := byPath[r.DocumentPath]; ok {
			out[i].Matches = append(out[i].Matches, r.Matches...)
			continue
		}
		byPath[r.DocumentPath] = len(out)
		out = append(out, r)
	}
	return out
}
