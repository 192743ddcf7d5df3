package query

import (
	"container/heap"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/syedafeezu/sx/internal/store"
	"github.com/syedafeezu/sx/internal/token"
)

// Params configures the BM25 Ranker (spec.md §4.F).
type Params struct {
	K          int
	K1         float64
	B          float64
	PathBoost  float64
	PathFilter string
	ExtFilter  []string // allow-list of extensions, e.g. [".go", ".md"]; empty = no filter
}

// DefaultParams mirrors spec.md's defaults.
func DefaultParams() Params {
	return Params{K: 10, K1: 1.2, B: 0.75, PathBoost: 1.5}
}

// Hit is one ranked search result.
type Hit struct {
	DocID        int64
	Score        float64
	Path         string
	MatchedTerms []string
}

type docInfo struct {
	path    string
	length  int
	dropped bool
	checked bool
}

// Search ranks documents containing at least one term of the query's
// effective term set T* and returns the top Params.K.
func Search(st *store.Store, rawQuery string, tokOpts token.Options, params Params) ([]Hit, error) {
	if params.K <= 0 {
		params = mergeDefaults(params)
	}

	_, union, err := Plan(st, rawQuery, tokOpts)
	if err != nil {
		return nil, err
	}
	if len(union) == 0 {
		return nil, nil
	}

	n, sumLen, err := st.Globals()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	avgdl := float64(sumLen) / float64(maxInt64(n, 1))

	docs := make(map[int64]*docInfo)
	scores := make(map[int64]float64)
	matched := make(map[int64]map[string]struct{})

	for termID := range union {
		df, err := st.TermDF(termID)
		if err != nil {
			return nil, err
		}
		if df <= 0 {
			continue // df==0 terms must never reach the ranker
		}
		termText, err := st.TermText(termID)
		if err != nil {
			return nil, err
		}
		idf := math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)

		postings, err := st.IterPostings(termID)
		if err != nil {
			return nil, err
		}

		for _, p := range postings {
			info, ok := docs[p.DocID]
			if !ok {
				path, length, err := st.GetDoc(p.DocID)
				if err != nil {
					continue
				}
				info = &docInfo{path: path, length: length}
				docs[p.DocID] = info
			}
			if !info.checked {
				info.checked = true
				info.dropped = !passesFilters(info.path, params)
			}
			if info.dropped || info.length == 0 {
				continue
			}

			tf := float64(p.TF)
			norm := tf + params.K1*(1-params.B+params.B*float64(info.length)/avgdl)
			base := idf * (tf * (params.K1 + 1)) / norm

			boost := 1.0
			if pathBoosted(info.path, termText) {
				boost = params.PathBoost
			}

			scores[p.DocID] += base * boost
			if matched[p.DocID] == nil {
				matched[p.DocID] = make(map[string]struct{})
			}
			matched[p.DocID][termText] = struct{}{}
		}
	}

	h := &hitHeap{}
	heap.Init(h)
	for docID, score := range scores {
		info := docs[docID]
		terms := make([]string, 0, len(matched[docID]))
		for t := range matched[docID] {
			terms = append(terms, t)
		}
		sort.Strings(terms)

		hit := Hit{DocID: docID, Score: score, Path: info.path, MatchedTerms: terms}
		heap.Push(h, hit)
		if h.Len() > params.K {
			heap.Pop(h)
		}
	}

	out := make([]Hit, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Hit)
	}
	return out, nil
}

func mergeDefaults(p Params) Params {
	d := DefaultParams()
	if p.K <= 0 {
		p.K = d.K
	}
	if p.K1 == 0 {
		p.K1 = d.K1
	}
	if p.B == 0 {
		p.B = d.B
	}
	if p.PathBoost == 0 {
		p.PathBoost = d.PathBoost
	}
	return p
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func passesFilters(path string, params Params) bool {
	if params.PathFilter != "" && !strings.Contains(path, params.PathFilter) {
		return false
	}
	if len(params.ExtFilter) > 0 {
		ext := strings.ToLower(filepath.Ext(path))
		found := false
		for _, e := range params.ExtFilter {
			if strings.ToLower(e) == ext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// pathBoosted reports whether term appears, case-insensitively, as a
// substring of one of path's identifier-split tokens (spec.md §4.F,
// §9 open question: path-only matches are never boosted, only terms
// already matched in the document body).
func pathBoosted(path, term string) bool {
	pathTokens := token.Tokenize(path, token.Options{Stem: false, Stopwords: false})
	for _, pt := range pathTokens {
		if strings.Contains(pt, term) {
			return true
		}
	}
	return false
}

// hitHeap is a min-heap of Hit ordered by ascending score, with ties
// broken by descending path so that popping the heap's minimum removes
// the weakest (lowest score, then highest path) candidate first.
type hitHeap []Hit

func (h hitHeap) Len() int { return len(h) }
func (h hitHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Path > h[j].Path
}
func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any) {
	*h = append(*h, x.(Hit))
}
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
