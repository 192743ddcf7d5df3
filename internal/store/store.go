// Package store implements the persistent Index Store (spec.md §3, §6):
// a single self-contained SQLite file holding documents, terms, and
// postings, with transactional, durable mutation and snapshot reads.
package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no cgo

	"github.com/syedafeezu/sx/pkg/models"
)

// Store wraps a single-file SQLite database implementing the Index
// Store contract of spec.md §4.C. SQLite only supports one writer at a
// time, so the store pins a single connection.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path and applies Schema. It performs
// no migration between schema versions: a store whose recorded
// schema_version differs from SchemaVersion is rejected with ErrStoreCorrupt.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: pragma %q: %v", ErrStoreUnavailable, p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	if _, err := s.db.Exec(initMeta, strconv.Itoa(SchemaVersion)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	var version string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	if version != strconv.Itoa(SchemaVersion) {
		return fmt.Errorf("%w: schema version %s != %d", ErrStoreCorrupt, version, SchemaVersion)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the on-disk path of the store.
func (s *Store) Path() string { return s.path }

// IsEmpty reports whether the store holds no documents (N == 0), which is
// the case for a store that has never been indexed.
func (s *Store) IsEmpty() bool {
	n, _ := s.N()
	return n == 0
}

// N returns the total document count.
func (s *Store) N() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'n'`).Scan(&n)
	return n, err
}

// Globals returns (N, sum of document lengths).
func (s *Store) Globals() (n int64, sumLen int64, err error) {
	row := s.db.QueryRow(`
		SELECT
			(SELECT value FROM meta WHERE key = 'n'),
			(SELECT value FROM meta WHERE key = 'sum_len')
	`)
	err = row.Scan(&n, &sumLen)
	return
}

// TokenizerOptions returns the stem/stopwords options the index was
// built with, as persisted in meta.
func (s *Store) TokenizerOptions() (stem bool, stopwords bool, err error) {
	var stemStr, stopStr string
	if err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'stem'`).Scan(&stemStr); err != nil {
		return
	}
	if err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'stopwords'`).Scan(&stopStr); err != nil {
		return
	}
	return stemStr == "true", stopStr == "true", nil
}

// SetTokenizerOptions persists the tokenizer options used for a full
// rebuild, plus the indexed root.
func (s *Store) SetTokenizerOptions(root string, stem, stopwords bool) error {
	_, err := s.db.Exec(`
		UPDATE meta SET value = ? WHERE key = 'indexed_root';
	`, root)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE meta SET value = ? WHERE key = 'stem'`, boolStr(stem))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE meta SET value = ? WHERE key = 'stopwords'`, boolStr(stopwords))
	return err
}

// IndexedRoot returns the absolute path of the tree at last successful index.
func (s *Store) IndexedRoot() (string, error) {
	var root string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'indexed_root'`).Scan(&root)
	return root, err
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// GetDocMeta fetches prior metadata for path, or ok=false if absent.
func (s *Store) GetDocMeta(path string) (doc models.Document, ok bool, err error) {
	row := s.db.QueryRow(`SELECT doc_id, mtime, size, length FROM docs WHERE path = ?`, path)
	err = row.Scan(&doc.DocID, &doc.MTime, &doc.Size, &doc.Length)
	if err == sql.ErrNoRows {
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, err
	}
	doc.Path = path
	return doc, true, nil
}

// ListDocPaths returns every path currently indexed.
func (s *Store) ListDocPaths() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM docs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// GetDoc resolves a doc_id to (path, length).
func (s *Store) GetDoc(docID int64) (path string, length int, err error) {
	row := s.db.QueryRow(`SELECT path, length FROM docs WHERE doc_id = ?`, docID)
	err = row.Scan(&path, &length)
	return
}

// MatchTermsRegex compiles pattern and returns the term ids of every
// term whose text matches. A compile failure returns (nil, err) so the
// caller can treat it as a non-fatal BadQuery per spec.md §7.
func (s *Store) MatchTermsRegex(pattern string) ([]int64, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT term_id, term FROM terms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		var term string
		if err := rows.Scan(&id, &term); err != nil {
			return nil, err
		}
		if re.MatchString(term) {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// LookupTerm resolves a term string to its id, if it exists.
func (s *Store) LookupTerm(term string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`SELECT term_id FROM terms WHERE term = ?`, term).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// TermDF returns a term's document frequency.
func (s *Store) TermDF(termID int64) (int64, error) {
	var df int64
	err := s.db.QueryRow(`SELECT df FROM terms WHERE term_id = ?`, termID).Scan(&df)
	return df, err
}

// TermText resolves a term id back to its text.
func (s *Store) TermText(termID int64) (string, error) {
	var t string
	err := s.db.QueryRow(`SELECT term FROM terms WHERE term_id = ?`, termID).Scan(&t)
	return t, err
}

// PostingRow is one (doc_id, tf) pair for a term's posting list.
type PostingRow struct {
	DocID int64
	TF    int64
}

// IterPostings returns every posting for term_id.
func (s *Store) IterPostings(termID int64) ([]PostingRow, error) {
	rows, err := s.db.Query(`SELECT doc_id, tf FROM postings WHERE term_id = ?`, termID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PostingRow
	for rows.Next() {
		var r PostingRow
		if err := rows.Scan(&r.DocID, &r.TF); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
