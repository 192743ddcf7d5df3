package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syedafeezu/sx/internal/scan"
	"github.com/syedafeezu/sx/internal/store"
	"github.com/syedafeezu/sx/internal/token"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func defaultTestOptions() Options {
	return Options{
		Tokenizer: token.DefaultOptions(),
		Scan:      scan.DefaultOptions(),
		Workers:   2,
	}
}

func TestIndex_FullBuildThenIncrementalNoop(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\nfunc Run() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package b\nfunc Other() {}\n"), 0644))

	st := newTestStore(t)

	stats, err := Index(context.Background(), st, root, defaultTestOptions(), Full, nil)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Indexed)
	require.Equal(t, 0, stats.Unchanged)
	require.EqualValues(t, 2, stats.TotalDocs)

	stats2, err := Index(context.Background(), st, root, defaultTestOptions(), Incremental, nil)
	require.NoError(t, err)
	require.Equal(t, 0, stats2.Indexed)
	require.Equal(t, 2, stats2.Unchanged)
}

func TestIndex_IncrementalDetectsModificationAndDeletion(t *testing.T) {
	root := t.TempDir()
	pathA := filepath.Join(root, "a.go")
	pathB := filepath.Join(root, "b.go")
	require.NoError(t, os.WriteFile(pathA, []byte("package a\n"), 0644))
	require.NoError(t, os.WriteFile(pathB, []byte("package b\n"), 0644))

	st := newTestStore(t)
	_, err := Index(context.Background(), st, root, defaultTestOptions(), Full, nil)
	require.NoError(t, err)

	// mtime resolution in the filesystem can be coarse; force a visible change.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(pathA, []byte("package a\nfunc Changed() {}\n"), 0644))
	require.NoError(t, os.Chtimes(pathA, future, future))
	require.NoError(t, os.Remove(pathB))

	stats, err := Index(context.Background(), st, root, defaultTestOptions(), Incremental, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Indexed)
	require.Equal(t, 1, stats.Deleted)
	require.EqualValues(t, 1, stats.TotalDocs)
}

func TestIndex_TokenizerMismatchRejectsIncremental(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0644))

	st := newTestStore(t)
	opts := defaultTestOptions()
	opts.Tokenizer = token.Options{Stem: false, Stopwords: true}
	_, err := Index(context.Background(), st, root, opts, Full, nil)
	require.NoError(t, err)

	opts.Tokenizer = token.Options{Stem: true, Stopwords: true}
	_, err = Index(context.Background(), st, root, opts, Incremental, nil)
	require.ErrorIs(t, err, ErrTokenizerMismatch)
}

func TestIndex_UnreadableFileRecordedAsNonFatalError(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good.go")
	bad := filepath.Join(root, "bad.go")
	require.NoError(t, os.WriteFile(good, []byte("package good\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("package bad\n"), 0644))
	require.NoError(t, os.Chmod(bad, 0000))
	t.Cleanup(func() { os.Chmod(bad, 0644) })

	st := newTestStore(t)
	stats, err := Index(context.Background(), st, root, defaultTestOptions(), Full, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Indexed)
	if os.Geteuid() != 0 {
		require.NotNil(t, stats.Errors)
	}
}
