package query

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syedafeezu/sx/internal/store"
	"github.com/syedafeezu/sx/internal/token"
)

// seedStore builds a tiny store with a few hand-picked postings, bypassing
// the Indexer so ranking math can be checked against known inputs.
func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tx, err := st.Begin()
	require.NoError(t, err)

	cacheID, err := tx.InternTerm("cache")
	require.NoError(t, err)
	widgetID, err := tx.InternTerm("widget")
	require.NoError(t, err)

	docA, err := tx.UpsertDocument("internal/cache/store.go", 1, 10)
	require.NoError(t, err)
	require.NoError(t, tx.WritePostings(docA, map[int64]int64{cacheID: 5}, 20))

	docB, err := tx.UpsertDocument("pkg/widget/render.go", 1, 10)
	require.NoError(t, err)
	require.NoError(t, tx.WritePostings(docB, map[int64]int64{widgetID: 2, cacheID: 1}, 40))

	require.NoError(t, tx.SetIndexedRoot("/proj", false, true))
	require.NoError(t, tx.Commit())
	return st
}

func TestPlan_SingleGroupResolvesKnownTerms(t *testing.T) {
	st := seedStore(t)
	groups, union, err := Plan(st, "cache", token.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, union, 1)
}

func TestPlan_AlternationUnionsGroups(t *testing.T) {
	st := seedStore(t)
	groups, union, err := Plan(st, "cache|widget", token.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Len(t, union, 2)
}

func TestPlan_UnknownTermYieldsEmptyGroup(t *testing.T) {
	st := seedStore(t)
	groups, union, err := Plan(st, "zzz_nonexistent", token.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Empty(t, groups[0].TermIDs)
	require.Empty(t, union)
}

func TestSearch_RanksByBM25AndAppliesPathBoost(t *testing.T) {
	st := seedStore(t)
	params := DefaultParams()
	hits, err := Search(st, "cache", token.DefaultOptions(), params)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// internal/cache/store.go should outrank pkg/widget/render.go: higher
	// tf, shorter length, and a path-boosted "cache" term.
	require.Equal(t, "internal/cache/store.go", hits[0].Path)
}

func TestSearch_PathFilterExcludesNonMatching(t *testing.T) {
	st := seedStore(t)
	params := DefaultParams()
	params.PathFilter = "widget"
	hits, err := Search(st, "cache", token.DefaultOptions(), params)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "pkg/widget/render.go", hits[0].Path)
}

func TestSearch_NoMatchingTermsReturnsEmpty(t *testing.T) {
	st := seedStore(t)
	hits, err := Search(st, "zzz_nonexistent", token.DefaultOptions(), DefaultParams())
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSearch_KLimitsResultCount(t *testing.T) {
	st := seedStore(t)
	params := DefaultParams()
	params.K = 1
	hits, err := Search(st, "cache|widget", token.DefaultOptions(), params)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}
