// Package snippet implements the Snippet Builder (spec.md §4.G):
// locating the best-matching line in a document and returning the
// match spans, with highlighting delegated to the caller.
package snippet

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// Span is a byte range [Start, End) within the chosen line.
type Span struct {
	Start int
	End   int
}

// Result is the data the Snippet Builder returns; rendering (color,
// truncation for terminal width) is the caller's responsibility.
type Result struct {
	LineNumber int // 1-based
	LineText   string
	Spans      []Span
}

// Build streams path line by line and selects the line maximizing the
// count of distinct matchedTerms occurring as whole words
// (case-insensitive), ties broken by earliest line number.
func Build(path string, matchedTerms []string) (Result, bool, error) {
	if len(matchedTerms) == 0 {
		return Result{}, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, false, err
	}
	defer f.Close()

	patterns := make([]*regexp.Regexp, 0, len(matchedTerms))
	for _, t := range matchedTerms {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t)+`\b`))
	}

	var best Result
	bestCount := -1

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		var spans []Span
		distinct := 0
		for _, re := range patterns {
			locs := re.FindAllStringIndex(line, -1)
			if len(locs) > 0 {
				distinct++
			}
			for _, loc := range locs {
				spans = append(spans, Span{Start: loc[0], End: loc[1]})
			}
		}

		if distinct > bestCount {
			bestCount = distinct
			best = Result{LineNumber: lineNum, LineText: line, Spans: spans}
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, false, err
	}

	if bestCount <= 0 {
		return Result{}, false, nil
	}
	return best, true, nil
}

// Truncate returns line unchanged when it is at most width bytes long;
// otherwise it keeps the first width bytes, trims surrounding whitespace,
// and appends "..." to mark the cut. Used by CLI shells rendering narrow
// terminals.
func Truncate(line string, width int) string {
	if width <= 0 || len(line) <= width {
		return line
	}
	return strings.TrimSpace(line[:width]) + "..."
}
