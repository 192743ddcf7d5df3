package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.sqlite")
	st, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_InitializesEmptyStore(t *testing.T) {
	st := openTestStore(t)
	require.True(t, st.IsEmpty())

	n, sumLen, err := st.Globals()
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, sumLen)
}

func TestTx_UpsertDocumentAndPostings(t *testing.T) {
	st := openTestStore(t)

	tx, err := st.Begin()
	require.NoError(t, err)

	termID, err := tx.InternTerm("cache")
	require.NoError(t, err)

	docID, err := tx.UpsertDocument("a.go", 100.0, 42)
	require.NoError(t, err)
	require.NoError(t, tx.WritePostings(docID, map[int64]int64{termID: 2}, 3))
	require.NoError(t, tx.SetIndexedRoot("/root", false, true))
	require.NoError(t, tx.Commit())

	require.False(t, st.IsEmpty())

	n, sumLen, err := st.Globals()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.EqualValues(t, 3, sumLen)

	df, err := st.TermDF(termID)
	require.NoError(t, err)
	require.EqualValues(t, 1, df)

	postings, err := st.IterPostings(termID)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	require.EqualValues(t, 2, postings[0].TF)

	root, err := st.IndexedRoot()
	require.NoError(t, err)
	require.Equal(t, "/root", root)
}

func TestTx_DeleteDocumentAdjustsDFAndLength(t *testing.T) {
	st := openTestStore(t)

	tx, err := st.Begin()
	require.NoError(t, err)
	termID, err := tx.InternTerm("widget")
	require.NoError(t, err)
	docID, err := tx.UpsertDocument("b.go", 1.0, 10)
	require.NoError(t, err)
	require.NoError(t, tx.WritePostings(docID, map[int64]int64{termID: 4}, 5))
	require.NoError(t, tx.Commit())

	tx2, err := st.Begin()
	require.NoError(t, err)
	require.NoError(t, tx2.DeleteDocument(docID))
	require.NoError(t, tx2.Commit())

	n, sumLen, err := st.Globals()
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, sumLen)

	df, err := st.TermDF(termID)
	require.NoError(t, err)
	require.Zero(t, df)
}

func TestTx_WritePostingsReplacesPriorTermsAndUpdatesDF(t *testing.T) {
	st := openTestStore(t)

	tx, err := st.Begin()
	require.NoError(t, err)
	oldTerm, err := tx.InternTerm("old")
	require.NoError(t, err)
	docID, err := tx.UpsertDocument("c.go", 1.0, 10)
	require.NoError(t, err)
	require.NoError(t, tx.WritePostings(docID, map[int64]int64{oldTerm: 1}, 2))
	require.NoError(t, tx.Commit())

	// Reindex through the same UpsertDocument -> WritePostings sequence the
	// indexer itself uses, not WritePostings alone.
	tx2, err := st.Begin()
	require.NoError(t, err)
	_, err = tx2.UpsertDocument("c.go", 2.0, 10)
	require.NoError(t, err)
	newTerm, err := tx2.InternTerm("new")
	require.NoError(t, err)
	require.NoError(t, tx2.WritePostings(docID, map[int64]int64{newTerm: 5}, 6))
	require.NoError(t, tx2.Commit())

	oldDF, err := st.TermDF(oldTerm)
	require.NoError(t, err)
	require.Zero(t, oldDF)

	newDF, err := st.TermDF(newTerm)
	require.NoError(t, err)
	require.EqualValues(t, 1, newDF)

	_, sumLen, err := st.Globals()
	require.NoError(t, err)
	require.EqualValues(t, 6, sumLen)
}

// TestTx_ReindexChangedFileKeepsSumLenConsistent guards the invariant
// sum_len == sum of docs.length across the exact UpsertDocument ->
// WritePostings sequence the Indexer uses on an incremental reindex of a
// file whose token count changed.
func TestTx_ReindexChangedFileKeepsSumLenConsistent(t *testing.T) {
	st := openTestStore(t)

	tx, err := st.Begin()
	require.NoError(t, err)
	termA, err := tx.InternTerm("alpha")
	require.NoError(t, err)
	docID, err := tx.UpsertDocument("d.go", 1.0, 10)
	require.NoError(t, err)
	require.NoError(t, tx.WritePostings(docID, map[int64]int64{termA: 3}, 10))
	require.NoError(t, tx.Commit())

	_, sumLen, err := st.Globals()
	require.NoError(t, err)
	require.EqualValues(t, 10, sumLen)

	tx2, err := st.Begin()
	require.NoError(t, err)
	sameID, err := tx2.UpsertDocument("d.go", 2.0, 25)
	require.NoError(t, err)
	require.Equal(t, docID, sameID)
	termB, err := tx2.InternTerm("beta")
	require.NoError(t, err)
	require.NoError(t, tx2.WritePostings(sameID, map[int64]int64{termA: 3, termB: 4}, 25))
	require.NoError(t, tx2.Commit())

	_, sumLen, err = st.Globals()
	require.NoError(t, err)
	require.EqualValues(t, 25, sumLen)

	_, length, err := st.GetDoc(docID)
	require.NoError(t, err)
	require.Equal(t, 25, length)
}

func TestLookupTerm_UnknownTermNotFound(t *testing.T) {
	st := openTestStore(t)
	_, ok, err := st.LookupTerm("nonexistent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMatchTermsRegex_BadPatternReturnsError(t *testing.T) {
	st := openTestStore(t)
	_, err := st.MatchTermsRegex("[unterminated")
	require.Error(t, err)
}
