package token

import (
	"testing"
)

func TestTokenize_IdentifierSplitting(t *testing.T) {
	cases := []struct {
		name  string
		input string
		opts  Options
		want  []string
	}{
		{
			name:  "camelCase",
			input: "getUserId",
			opts:  Options{Stem: false, Stopwords: false},
			want:  []string{"getuserid", "get", "user", "id"},
		},
		{
			name:  "PascalCase with acronym",
			input: "HTTPServer",
			opts:  Options{Stem: false, Stopwords: false},
			want:  []string{"httpserver", "http", "server"},
		},
		{
			name:  "snake_case",
			input: "max_retry_count",
			opts:  Options{Stem: false, Stopwords: false},
			want:  []string{"max_retry_count", "max", "retry", "count"},
		},
		{
			name:  "digit boundary",
			input: "v2Client",
			opts:  Options{Stem: false, Stopwords: false},
			want:  []string{"v2client", "v", "2", "client"},
		},
		{
			name:  "single lowercase word unaffected",
			input: "cache",
			opts:  Options{Stem: false, Stopwords: false},
			want:  []string{"cache"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.input, tc.opts)
			if !equalSlices(got, tc.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestTokenize_StopwordsRemoved(t *testing.T) {
	got := Tokenize("the quick fox and the dog", Options{Stopwords: true})
	for _, tok := range got {
		if tok == "the" || tok == "and" {
			t.Errorf("stopword %q leaked into output: %v", tok, got)
		}
	}
}

func TestTokenize_Stemming(t *testing.T) {
	got := Tokenize("running runs cached", Options{Stem: true, Stopwords: false})
	want := []string{"runn", "run", "cach"}
	if !equalSlices(got, want) {
		t.Errorf("stemmed tokens = %v, want %v", got, want)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize("", DefaultOptions()); len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %v, want empty", got)
	}
	if got := Tokenize("   !!! ### ", DefaultOptions()); len(got) != 0 {
		t.Errorf("Tokenize of punctuation-only = %v, want empty", got)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
