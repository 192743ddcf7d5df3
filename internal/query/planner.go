// Package query implements the Query Planner (spec.md §4.E) and the
// BM25 Ranker (spec.md §4.F).
package query

import (
	"fmt"
	"strings"

	"github.com/syedafeezu/sx/internal/store"
	"github.com/syedafeezu/sx/internal/sxlog"
	"github.com/syedafeezu/sx/internal/token"
)

// Group is one `|`-separated alternative, expanded to a set of term ids.
type Group struct {
	Source  string
	TermIDs map[int64]struct{}
}

// Plan parses a raw query string into alternative groups and their
// union, resolving terms against st using the tokenizer options the
// index was built with. Options that differ from those persisted in the
// store are refused with an error.
func Plan(st *store.Store, rawQuery string, opts token.Options) (groups []Group, union map[int64]struct{}, err error) {
	log := sxlog.New("planner")

	stem, stopwords, err := st.TokenizerOptions()
	if err != nil {
		return nil, nil, err
	}
	if stem != opts.Stem || stopwords != opts.Stopwords {
		return nil, nil, fmt.Errorf("query tokenizer options (stem=%v, stopwords=%v) differ from the index's (stem=%v, stopwords=%v)",
			opts.Stem, opts.Stopwords, stem, stopwords)
	}

	alternatives := strings.Split(rawQuery, "|")
	union = make(map[int64]struct{})

	for _, alt := range alternatives {
		group := Group{Source: alt, TermIDs: make(map[int64]struct{})}

		for _, term := range token.Tokenize(alt, opts) {
			id, ok, err := st.LookupTerm(term)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}
			group.TermIDs[id] = struct{}{}
		}

		// Regex augmentation: a compile failure is a non-fatal BadQuery,
		// dropped rather than surfaced (spec.md §4.E step 2c, §7).
		ids, rerr := st.MatchTermsRegex(alt)
		if rerr != nil {
			log.WithField("alternative", alt).WithError(rerr).Debug("regex augmentation skipped")
		} else {
			for _, id := range ids {
				group.TermIDs[id] = struct{}{}
			}
		}

		for id := range group.TermIDs {
			union[id] = struct{}{}
		}
		groups = append(groups, group)
	}

	return groups, union, nil
}
