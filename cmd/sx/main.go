// Command sx is the CLI shell over the Index Store, Indexer, Query
// Planner, BM25 Ranker, and Snippet Builder.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/syedafeezu/sx/internal/config"
	"github.com/syedafeezu/sx/internal/indexer"
	"github.com/syedafeezu/sx/internal/query"
	"github.com/syedafeezu/sx/internal/scan"
	"github.com/syedafeezu/sx/internal/snippet"
	"github.com/syedafeezu/sx/internal/store"
	"github.com/syedafeezu/sx/internal/sxlog"
	"github.com/syedafeezu/sx/internal/token"
)

// Exit codes per the CLI's external interface contract (spec.md §6):
// 0 success (including a search with no results), 1 usage error,
// 2 store/IO error, 3 the index hasn't been built yet.
const (
	exitOK         = 0
	exitUsage      = 1
	exitError      = 2
	exitNotIndexed = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	args, debug := extractDebugFlag(args)
	sxlog.SetDebug(debug)

	if len(args) == 0 {
		printUsage()
		return exitUsage
	}

	cfgPath, _ := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sx: loading config: %v\n", err)
		return exitError
	}

	switch args[0] {
	case "index":
		return runIndex(cfg, args[1:])
	case "search":
		return runSearch(cfg, args[1:])
	case "status":
		return runStatus(cfg, args[1:])
	case "-h", "--help", "help":
		printUsage()
		return exitOK
	default:
		// Shorthand: `sx "query" [path]` implies search.
		return runSearch(cfg, args)
	}
}

func printUsage() {
	fmt.Println(`sx - local full-text search over a directory tree

Usage:
  sx [--debug] index [path] [--full] [--workers N] [--out FILE] [--stem] [--no-stopwords] [--no-progress]
  sx [--debug] search <query> [--out FILE] [--k N] [--k1 F] [--b F] [--path-boost F]
                     [--path SUBSTR] [--ext .go,.md] [--json] [--snippet] [--color]
  sx [--debug] status [--out FILE]
  sx "<query>" [path]   # shorthand for search`)
}

// extractDebugFlag removes every --debug flag from args, wherever it
// appears, so it can be accepted before or after the subcommand name
// without each subcommand's FlagSet having to declare it individually.
func extractDebugFlag(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	debug := false
	for _, a := range args {
		if a == "--debug" {
			debug = true
			continue
		}
		out = append(out, a)
	}
	return out, debug
}

func openStore(path string) (*store.Store, int) {
	st, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sx: opening index %s: %v\n", path, err)
		return nil, exitError
	}
	return st, exitOK
}

func runIndex(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	full := fs.Bool("full", false, "force a full rebuild")
	workers := fs.Int("workers", cfg.Workers, "parser worker count (0 = NumCPU)")
	out := fs.String("out", cfg.IndexPath, "index file path")
	stem := fs.Bool("stem", cfg.Stem, "enable light suffix stemming")
	noStopwords := fs.Bool("no-stopwords", cfg.NoStopwords, "disable stopword removal")
	noProgress := fs.Bool("no-progress", false, "suppress progress output")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	st, code := openStore(*out)
	if st == nil {
		return code
	}
	defer st.Close()

	mode := indexer.Incremental
	if *full {
		mode = indexer.Full
	}

	opts := indexer.Options{
		Tokenizer: token.Options{Stem: *stem, Stopwords: !*noStopwords},
		Scan:      scan.DefaultOptions(),
		Workers:   *workers,
	}

	var progress indexer.ProgressSink
	if !*noProgress && isTTY() {
		progress = func(done, total int, path string) {
			fmt.Fprintf(os.Stderr, "\rindexing %d/%d: %-60s", done, total, truncatePath(path, 60))
		}
	}

	start := time.Now()
	stats, err := indexer.Index(context.Background(), st, root, opts, mode, progress)
	if progress != nil {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sx: index failed: %v\n", err)
		return exitError
	}

	elapsed := time.Since(start)
	style := lipgloss.NewStyle().Bold(true)
	if useColor(cfg) {
		fmt.Printf("%s indexed=%d unchanged=%d deleted=%d total=%d (%s)\n",
			style.Render("done"), stats.Indexed, stats.Unchanged, stats.Deleted, stats.TotalDocs, elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("done indexed=%d unchanged=%d deleted=%d total=%d (%s)\n",
			stats.Indexed, stats.Unchanged, stats.Deleted, stats.TotalDocs, elapsed.Round(time.Millisecond))
	}
	if stats.Errors != nil {
		fmt.Fprintf(os.Stderr, "sx: %d file(s) skipped:\n%v\n", stats.Errors.Len(), stats.Errors)
	}
	return exitOK
}

type jsonHit struct {
	Path    string   `json:"path"`
	Score   float64  `json:"score"`
	Terms   []string `json:"matched_terms"`
	Line    int      `json:"line,omitempty"`
	Snippet string   `json:"snippet,omitempty"`
}

func runSearch(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	out := fs.String("out", cfg.IndexPath, "index file path")
	k := fs.Int("k", cfg.K, "max results")
	k1 := fs.Float64("k1", cfg.K1, "BM25 k1")
	b := fs.Float64("b", cfg.B, "BM25 b")
	pathBoost := fs.Float64("path-boost", cfg.PathBoost, "multiplicative boost for path-matched terms")
	pathFilter := fs.String("path", "", "only paths containing this substring")
	ext := fs.String("ext", "", "comma-separated extension allow-list, e.g. .go,.md")
	asJSON := fs.Bool("json", false, "emit JSON")
	withSnippet := fs.Bool("snippet", true, "include a best-line snippet")
	stem := fs.Bool("stem", cfg.Stem, "tokenize the query with stemming")
	noStopwords := fs.Bool("no-stopwords", cfg.NoStopwords, "tokenize the query without removing stopwords")
	colorFlag := fs.Bool("color", cfg.Color, "colorize terminal output")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "sx: search requires a query")
		printUsage()
		return exitUsage
	}
	rawQuery := fs.Arg(0)
	if fs.NArg() > 1 && *pathFilter == "" {
		*pathFilter = fs.Arg(1)
	}

	st, code := openStore(*out)
	if st == nil {
		return code
	}
	defer st.Close()

	if st.IsEmpty() {
		fmt.Fprintln(os.Stderr, "sx: index is empty; run `sx index` first")
		return exitNotIndexed
	}

	var extFilter []string
	if *ext != "" {
		for _, e := range strings.Split(*ext, ",") {
			extFilter = append(extFilter, strings.TrimSpace(e))
		}
	}

	params := query.Params{
		K:          *k,
		K1:         *k1,
		B:          *b,
		PathBoost:  *pathBoost,
		PathFilter: *pathFilter,
		ExtFilter:  extFilter,
	}
	tokOpts := token.Options{Stem: *stem, Stopwords: !*noStopwords}

	hits, err := query.Search(st, rawQuery, tokOpts, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sx: search failed: %v\n", err)
		return exitError
	}

	if len(hits) == 0 {
		if *asJSON {
			fmt.Println("[]")
		} else {
			fmt.Println("no results")
		}
		return exitOK
	}

	cfg.Color = *colorFlag
	if *asJSON {
		return printJSON(hits, *withSnippet)
	}
	printHuman(hits, *withSnippet, useColor(cfg))
	return exitOK
}

func printJSON(hits []query.Hit, withSnippet bool) int {
	out := make([]jsonHit, 0, len(hits))
	for _, h := range hits {
		jh := jsonHit{Path: h.Path, Score: h.Score, Terms: h.MatchedTerms}
		if withSnippet {
			if res, ok, err := snippet.Build(h.Path, h.MatchedTerms); err == nil && ok {
				jh.Line = res.LineNumber
				jh.Snippet = res.LineText
			}
		}
		out = append(out, jh)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "sx: encoding JSON: %v\n", err)
		return exitError
	}
	return exitOK
}

func printHuman(hits []query.Hit, withSnippet, color bool) {
	pathStyle := lipgloss.NewStyle().Bold(true)
	scoreStyle := lipgloss.NewStyle().Faint(true)

	for i, h := range hits {
		path, score := h.Path, fmt.Sprintf("%.3f", h.Score)
		if color {
			path = pathStyle.Render(path)
			score = scoreStyle.Render(score)
		}
		fmt.Printf("%d. %s  (%s)\n", i+1, path, score)
		if withSnippet {
			if res, ok, err := snippet.Build(h.Path, h.MatchedTerms); err == nil && ok {
				fmt.Printf("   %d: %s\n", res.LineNumber, snippet.Truncate(res.LineText, 120))
			}
		}
	}
}

func runStatus(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	out := fs.String("out", cfg.IndexPath, "index file path")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	st, code := openStore(*out)
	if st == nil {
		return code
	}
	defer st.Close()

	if st.IsEmpty() {
		fmt.Println("index is empty")
		return exitNotIndexed
	}

	n, sumLen, err := st.Globals()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sx: reading index status: %v\n", err)
		return exitError
	}
	root, _ := st.IndexedRoot()
	stem, stopwords, _ := st.TokenizerOptions()

	fmt.Printf("path:       %s\n", st.Path())
	fmt.Printf("root:       %s\n", root)
	fmt.Printf("documents:  %d\n", n)
	fmt.Printf("avg length: %.1f\n", float64(sumLen)/float64(maxInt64(n, 1)))
	fmt.Printf("stem:       %v\n", stem)
	fmt.Printf("stopwords:  %v\n", stopwords)
	return exitOK
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func useColor(cfg config.Config) bool {
	return cfg.Color && term.IsTerminal(int(os.Stdout.Fd()))
}

func truncatePath(p string, width int) string {
	if len(p) <= width {
		return p
	}
	return "..." + p[len(p)-width+3:]
}
