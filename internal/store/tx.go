package store

import (
	"database/sql"

	"github.com/syedafeezu/sx/pkg/models"
)

// Tx is a single mutating transaction over the store. The Indexer wraps
// one full index run in a Tx (spec.md §4.D step 9); all mutations
// become durable only on Commit.
type Tx struct {
	tx *sql.Tx
}

// Begin starts a new transaction. The caller must Commit or Rollback.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Commit durably applies all mutations made through this Tx.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback discards all mutations made through this Tx.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// TruncateAll clears docs, terms, and postings and resets N/sum_len,
// used for mode=full (spec.md §4.D step 1).
func (t *Tx) TruncateAll() error {
	for _, stmt := range []string{
		`DELETE FROM postings`,
		`DELETE FROM terms`,
		`DELETE FROM docs`,
		`UPDATE meta SET value = '0' WHERE key = 'n'`,
		`UPDATE meta SET value = '0' WHERE key = 'sum_len'`,
	} {
		if _, err := t.tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SetIndexedRoot records the tree root and tokenizer options for this run.
func (t *Tx) SetIndexedRoot(root string, stem, stopwords bool) error {
	if _, err := t.tx.Exec(`UPDATE meta SET value = ? WHERE key = 'indexed_root'`, root); err != nil {
		return err
	}
	if _, err := t.tx.Exec(`UPDATE meta SET value = ? WHERE key = 'stem'`, boolStr(stem)); err != nil {
		return err
	}
	_, err := t.tx.Exec(`UPDATE meta SET value = ? WHERE key = 'stopwords'`, boolStr(stopwords))
	return err
}

// InternTerm idempotently returns the term_id for term, creating a row
// with df=0 if it doesn't exist yet.
func (t *Tx) InternTerm(term string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(`SELECT term_id FROM terms WHERE term = ?`, term).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := t.tx.Exec(`INSERT INTO terms (term, df) VALUES (?, 0)`, term)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpsertDocument creates or updates a document's mtime/size and returns its
// doc_id. It never touches docs.length or meta.sum_len — WritePostings is
// the sole owner of both, since it's the only call that knows both the
// document's prior length (read fresh from docs, before any overwrite) and
// its new length.
func (t *Tx) UpsertDocument(path string, mtime float64, size int64) (int64, error) {
	var docID int64
	err := t.tx.QueryRow(`SELECT doc_id FROM docs WHERE path = ?`, path).Scan(&docID)
	if err == nil {
		_, err = t.tx.Exec(`UPDATE docs SET mtime = ?, size = ? WHERE doc_id = ?`,
			mtime, size, docID)
		return docID, err
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := t.tx.Exec(`INSERT INTO docs (path, mtime, size, length) VALUES (?, ?, ?, 0)`,
		path, mtime, size)
	if err != nil {
		return 0, err
	}
	docID, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := t.tx.Exec(`UPDATE meta SET value = CAST(value AS INTEGER) + 1 WHERE key = 'n'`); err != nil {
		return 0, err
	}
	return docID, nil
}

// WritePostings replaces any prior postings for doc_id with termFreqs,
// updating df for every inserted/removed term and adjusting sum_len by
// the document's length delta.
func (t *Tx) WritePostings(docID int64, termFreqs map[int64]int64, newLength int) error {
	prevRows, err := t.tx.Query(`SELECT term_id FROM postings WHERE doc_id = ?`, docID)
	if err != nil {
		return err
	}
	var prevTerms []int64
	for prevRows.Next() {
		var id int64
		if err := prevRows.Scan(&id); err != nil {
			prevRows.Close()
			return err
		}
		prevTerms = append(prevTerms, id)
	}
	prevRows.Close()
	if err := prevRows.Err(); err != nil {
		return err
	}

	var prevLength int
	if err := t.tx.QueryRow(`SELECT length FROM docs WHERE doc_id = ?`, docID).Scan(&prevLength); err != nil {
		return err
	}

	if _, err := t.tx.Exec(`DELETE FROM postings WHERE doc_id = ?`, docID); err != nil {
		return err
	}
	for _, termID := range prevTerms {
		if _, stillPresent := termFreqs[termID]; stillPresent {
			continue
		}
		if _, err := t.tx.Exec(`UPDATE terms SET df = df - 1 WHERE term_id = ?`, termID); err != nil {
			return err
		}
	}

	prevSet := make(map[int64]struct{}, len(prevTerms))
	for _, id := range prevTerms {
		prevSet[id] = struct{}{}
	}

	for termID, tf := range termFreqs {
		if _, err := t.tx.Exec(`INSERT INTO postings (term_id, doc_id, tf) VALUES (?, ?, ?)`, termID, docID, tf); err != nil {
			return err
		}
		if _, existed := prevSet[termID]; !existed {
			if _, err := t.tx.Exec(`UPDATE terms SET df = df + 1 WHERE term_id = ?`, termID); err != nil {
				return err
			}
		}
	}

	if _, err := t.tx.Exec(`UPDATE docs SET length = ? WHERE doc_id = ?`, newLength, docID); err != nil {
		return err
	}
	delta := newLength - prevLength
	if delta != 0 {
		if _, err := t.tx.Exec(`UPDATE meta SET value = CAST(value AS INTEGER) + ? WHERE key = 'sum_len'`, delta); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDocument cascades: removes postings, updates df for affected
// terms, and updates N and sum_len.
func (t *Tx) DeleteDocument(docID int64) error {
	var length int
	err := t.tx.QueryRow(`SELECT length FROM docs WHERE doc_id = ?`, docID).Scan(&length)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	rows, err := t.tx.Query(`SELECT term_id FROM postings WHERE doc_id = ?`, docID)
	if err != nil {
		return err
	}
	var termIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		termIDs = append(termIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := t.tx.Exec(`DELETE FROM postings WHERE doc_id = ?`, docID); err != nil {
		return err
	}
	for _, termID := range termIDs {
		if _, err := t.tx.Exec(`UPDATE terms SET df = df - 1 WHERE term_id = ?`, termID); err != nil {
			return err
		}
	}
	if _, err := t.tx.Exec(`DELETE FROM docs WHERE doc_id = ?`, docID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(`UPDATE meta SET value = CAST(value AS INTEGER) - 1 WHERE key = 'n'`); err != nil {
		return err
	}
	_, err = t.tx.Exec(`UPDATE meta SET value = CAST(value AS INTEGER) - ? WHERE key = 'sum_len'`, length)
	return err
}

// ListDocPaths returns every path currently indexed, as seen by this
// transaction (used by the Indexer, which holds the store's sole
// connection for the duration of a run).
func (t *Tx) ListDocPaths() ([]string, error) {
	rows, err := t.tx.Query(`SELECT path FROM docs`)
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

// GetDocMeta fetches prior metadata for path within this transaction,
// or ok=false if absent.
func (t *Tx) GetDocMeta(path string) (doc models.Document, ok bool, err error) {
	row := t.tx.QueryRow(`SELECT doc_id, mtime, size, length FROM docs WHERE path = ?`, path)
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

// DocIDByPath resolves a path to its doc_id, for the indexer's deletion pass.
func (t *Tx) DocIDByPath(path string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRow(`SELECT doc_id FROM docs WHERE path = ?`, path).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
