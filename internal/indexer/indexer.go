// Package indexer orchestrates the incremental update of the Index
// Store: scan -> diff -> parallel parse -> serialized commit
// (spec.md §4.D).
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/syedafeezu/sx/internal/scan"
	"github.com/syedafeezu/sx/internal/store"
	"github.com/syedafeezu/sx/internal/sxlog"
	"github.com/syedafeezu/sx/internal/token"
)

// Mode selects a full rebuild or an incremental update.
type Mode int

const (
	Incremental Mode = iota
	Full
)

// ProgressSink receives (filesDone, filesTotal, currentPath) triples.
// The Indexer must remain functional when the sink is nil.
type ProgressSink func(filesDone, filesTotal int, currentPath string)

// ErrTokenizerMismatch is returned when an incremental run requests
// tokenizer options that differ from what the store was built with.
var ErrTokenizerMismatch = errors.New("tokenizer options differ from indexed store; use a full rebuild")

// Options configures one index run.
type Options struct {
	Tokenizer token.Options
	Scan      scan.Options
	Workers   int // default: runtime.NumCPU()
}

// Stats summarizes one index run.
type Stats struct {
	TotalDocs int64
	Indexed   int
	Unchanged int
	Deleted   int
	Errors    *multierror.Error // per-file FileReadError, non-fatal
}

type candidate struct {
	rel string
	abs string
}

type parseResult struct {
	rel    string
	err    error
	mtime  float64
	size   int64
	tf     map[string]int64
	length int
}

// Index performs one full or incremental update of root against st.
func Index(ctx context.Context, st *store.Store, root string, opts Options, mode Mode, progress ProgressSink) (Stats, error) {
	var stats Stats
	runID := uuid.NewString()
	log := sxlog.New("indexer").WithField("run_id", runID)

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return stats, fmt.Errorf("resolving root: %w", err)
	}

	if mode == Incremental && !st.IsEmpty() {
		stem, stopwords, err := st.TokenizerOptions()
		if err != nil {
			return stats, fmt.Errorf("%w: %v", store.ErrStoreCorrupt, err)
		}
		if stem != opts.Tokenizer.Stem || stopwords != opts.Tokenizer.Stopwords {
			return stats, ErrTokenizerMismatch
		}
	}

	candidates, err := scan.Scan(absRoot, opts.Scan)
	if err != nil {
		return stats, fmt.Errorf("scanning %s: %w", absRoot, err)
	}

	byRel := make(map[string]string, len(candidates))
	for _, abs := range candidates {
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil {
			rel = abs
		}
		byRel[rel] = abs
	}

	tx, err := st.Begin()
	if err != nil {
		return stats, fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if mode == Full {
		if err := tx.TruncateAll(); err != nil {
			return stats, err
		}
	}

	existing, err := tx.ListDocPaths()
	if err != nil {
		return stats, err
	}
	for _, p := range existing {
		if _, stillPresent := byRel[p]; stillPresent {
			continue
		}
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
		docID, ok, err := tx.DocIDByPath(p)
		if err != nil {
			return stats, err
		}
		if !ok {
			continue
		}
		if err := tx.DeleteDocument(docID); err != nil {
			return stats, err
		}
		stats.Deleted++
	}

	var toProcess []candidate
	for rel, abs := range byRel {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		prior, ok, err := tx.GetDocMeta(rel)
		if err != nil {
			return stats, err
		}
		if !ok {
			toProcess = append(toProcess, candidate{rel: rel, abs: abs})
			continue
		}

		info, err := os.Stat(abs)
		if err != nil {
			stats.Unchanged++
			continue
		}
		if float64(info.ModTime().Unix()) != prior.MTime || info.Size() != prior.Size {
			toProcess = append(toProcess, candidate{rel: rel, abs: abs})
			continue
		}
		stats.Unchanged++
	}

	total := len(toProcess)
	results := make(chan parseResult, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, c := range toProcess {
		c := c
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r := parseFile(c, opts.Tokenizer)
			results <- r
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		progress(done, total, r.rel)

		if r.err != nil {
			log.WithField("path", r.rel).WithError(r.err).Warn("skipping unreadable file")
			stats.Errors = multierror.Append(stats.Errors, fmt.Errorf("%s: %w", r.rel, r.err))
			continue
		}

		termIDs := make(map[int64]int64, len(r.tf))
		for term, tf := range r.tf {
			id, err := tx.InternTerm(term)
			if err != nil {
				return stats, err
			}
			termIDs[id] = tf
		}

		docID, err := tx.UpsertDocument(r.rel, r.mtime, r.size)
		if err != nil {
			return stats, err
		}
		if err := tx.WritePostings(docID, termIDs, r.length); err != nil {
			return stats, err
		}
		stats.Indexed++
	}

	if err := <-waitErr; err != nil {
		return stats, fmt.Errorf("indexing run %s cancelled: %w", runID, err)
	}

	if err := tx.SetIndexedRoot(absRoot, opts.Tokenizer.Stem, opts.Tokenizer.Stopwords); err != nil {
		return stats, err
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing index run %s: %w", runID, err)
	}
	committed = true

	if n, _, err := st.Globals(); err == nil {
		stats.TotalDocs = n
	}

	log.WithField("indexed", stats.Indexed).WithField("unchanged", stats.Unchanged).
		WithField("deleted", stats.Deleted).Info("index run complete")

	return stats, nil
}

// parseFile reads and tokenizes a single candidate. It never returns a
// process-fatal error: read/stat failures are reported as data on the
// result (spec.md §7 FileReadError), consumed by the single writer.
func parseFile(c candidate, opts token.Options) parseResult {
	info, err := os.Stat(c.abs)
	if err != nil {
		return parseResult{rel: c.rel, err: err}
	}

	f, err := os.Open(c.abs)
	if err != nil {
		return parseResult{rel: c.rel, err: err}
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return parseResult{rel: c.rel, err: err}
	}

	terms := token.Tokenize(string(content), opts)
	tf := make(map[string]int64, len(terms))
	for _, t := range terms {
		tf[t]++
	}

	return parseResult{
		rel:    c.rel,
		mtime:  float64(info.ModTime().Unix()),
		size:   info.Size(),
		tf:     tf,
		length: len(terms),
	}
}
