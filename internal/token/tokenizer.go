// Package token implements the tokenization pipeline: a pure function
// from text to an ordered sequence of normalized terms.
//
// The same Options must be used at indexing time and at query time —
// the Index Store persists them in its meta table so a mismatch can be
// detected (see internal/store).
package token

import (
	"regexp"
	"strings"
	"unicode"
)

// Options configures the tokenizer. Stopwords defaults on; Stem defaults off.
type Options struct {
	Stem      bool
	Stopwords bool
}

// DefaultOptions mirrors the spec's defaults: stopwords on, stemming off.
func DefaultOptions() Options {
	return Options{Stem: false, Stopwords: true}
}

var reRawToken = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Tokenize extracts maximal [A-Za-z0-9_] runs from text and emits, for
// each raw token, both the lowercased whole token and its identifier
// sub-tokens (split on underscores, camelCase/PascalCase boundaries,
// and digit<->letter boundaries). Sub-tokens equal to the whole token
// are not duplicated. Output preserves input order.
func Tokenize(text string, opts Options) []string {
	raws := reRawToken.FindAllString(text, -1)
	out := make([]string, 0, len(raws)*2)

	for _, raw := range raws {
		whole := strings.ToLower(raw)

		parts := splitIdentifier(raw)
		sameAsWhole := len(parts) == 1 && strings.ToLower(parts[0]) == whole

		out = append(out, whole)
		if !sameAsWhole {
			for _, p := range parts {
				if p == "" {
					continue
				}
				out = append(out, strings.ToLower(p))
			}
		}
	}

	if opts.Stopwords {
		out = removeStopwords(out)
	}
	if opts.Stem {
		for i, t := range out {
			out[i] = stem(t)
		}
	}
	return out
}

// splitIdentifier splits on underscores, camelCase/PascalCase boundaries,
// and digit<->letter boundaries.
func splitIdentifier(raw string) []string {
	underscoreParts := strings.Split(raw, "_")
	var parts []string
	for _, up := range underscoreParts {
		if up == "" {
			continue
		}
		parts = append(parts, splitCaseAndDigits(up)...)
	}
	if len(parts) == 0 {
		return []string{raw}
	}
	return parts
}

// splitCaseAndDigits splits a single underscore-free run on:
//   - lowercase -> uppercase transitions ("fooBar" -> "foo", "Bar")
//   - a run of uppercase letters followed by lowercase ("HTTPServer" -> "HTTP", "Server")
//   - digit <-> letter boundaries
func splitCaseAndDigits(s string) []string {
	runes := []rune(s)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var parts []string
	start := 0
	for i := 1; i < n; i++ {
		prev, cur := runes[i-1], runes[i]

		boundary := false
		switch {
		case isDigit(prev) != isDigit(cur) && (isLetter(prev) || isLetter(cur)):
			boundary = true
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < n && unicode.IsLower(runes[i+1]):
			boundary = true
		}

		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}

func isDigit(r rune) bool  { return unicode.IsDigit(r) }
func isLetter(r rune) bool { return unicode.IsLetter(r) }

// stopwords is a fixed built-in English stopword set.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"to": {}, "was": {}, "were": {}, "will": {}, "with": {}, "this": {},
	"but": {}, "not": {}, "you": {}, "your": {}, "i": {}, "we": {}, "they": {},
	"them": {}, "their": {}, "have": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "can": {}, "could": {}, "should": {}, "would": {}, "if": {},
	"so": {}, "than": {}, "then": {}, "there": {}, "these": {}, "those": {},
	"all": {}, "any": {}, "into": {}, "no": {}, "nor": {}, "such": {}, "too": {},
}

func removeStopwords(in []string) []string {
	out := in[:0:0]
	for _, t := range in {
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// stem applies a deterministic light stemmer: strips -ing, -ed, -es, -s
// in that order, only when the residue is >= 3 characters.
func stem(t string) string {
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if strings.HasSuffix(t, suffix) && len(t)-len(suffix) >= 3 {
			return t[:len(t)-len(suffix)]
		}
	}
	return t
}
