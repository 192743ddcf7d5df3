// Package scan walks an index root and yields candidate file paths,
// applying include/exclude rules and a binary sniff.
package scan

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Options configures the File Scanner.
type Options struct {
	// Extensions is the include set (e.g. ".go", ".md"). An empty set
	// means "all text files subject to binary sniffing".
	Extensions map[string]struct{}
	// Basenames is the include set of exact basenames (e.g. "README", "Makefile").
	Basenames map[string]struct{}
	// MaxSize is the size ceiling in bytes; files larger are skipped.
	MaxSize int64
	// BinaryThreshold is the fraction (0-1) of non-printable bytes in the
	// first kilobyte above which a file is considered binary.
	BinaryThreshold float64
}

// DefaultExtensions covers common source/code/markdown extensions.
func DefaultExtensions() map[string]struct{} {
	exts := []string{
		".c", ".h", ".cc", ".cpp", ".hpp", ".py", ".md", ".txt", ".rs", ".go",
		".js", ".ts", ".jsx", ".tsx", ".java", ".rb", ".php", ".sh", ".yaml",
		".yml", ".json", ".toml", ".sql", ".cs", ".swift", ".kt",
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[e] = struct{}{}
	}
	return set
}

// DefaultBasenames covers common extensionless files.
func DefaultBasenames() map[string]struct{} {
	names := []string{"README", "Makefile", "Dockerfile", "LICENSE", "CHANGELOG"}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// DefaultOptions returns the scanner's default configuration.
func DefaultOptions() Options {
	return Options{
		Extensions:      DefaultExtensions(),
		Basenames:       DefaultBasenames(),
		MaxSize:         2 * 1024 * 1024,
		BinaryThreshold: 0.30,
	}
}

// skipDirs is the fixed set of directories opaque to search, including
// dotted build caches. Hidden files under non-skipped directories are
// still included — only these directory names are pruned.
var skipDirs = map[string]struct{}{
	".git": {}, "node_modules": {}, ".venv": {}, "venv": {}, "__pycache__": {},
	"vendor": {}, "dist": {}, "build": {}, "target": {},
	".hg": {}, ".svn": {}, ".idea": {}, ".vscode": {}, ".cache": {}, ".tox": {},
	".mypy_cache": {}, ".pytest_cache": {}, ".terraform": {},
}

// Scan walks root and returns the finite, unordered, duplicate-free set
// of absolute candidate paths.
func Scan(root string, opts Options) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, don't abort the walk
		}
		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		if !included(path, opts) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if opts.MaxSize > 0 && info.Size() > opts.MaxSize {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}

		if isBinary(abs, opts.BinaryThreshold) {
			return nil
		}

		out = append(out, abs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func included(path string, opts Options) bool {
	base := filepath.Base(path)
	if _, ok := opts.Basenames[base]; ok {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	if len(opts.Extensions) == 0 {
		return true // no extension filter: all text files subject to binary sniffing
	}
	_, ok := opts.Extensions[ext]
	return ok
}

// isBinary reads the first kilobyte and rejects the file if it contains
// a NUL byte or if the ratio of non-printable bytes exceeds threshold.
func isBinary(path string, threshold float64) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 1024)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return true
	}
	buf = buf[:n]

	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	if n == 0 {
		return false
	}

	nonPrintable := 0
	for _, b := range buf {
		if b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		if b < 0x20 || b == 0x7f {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(n) > threshold
}
