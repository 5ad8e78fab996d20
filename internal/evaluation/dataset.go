package evaluation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/doceval/constants"
)

// Document is one evaluation input found under a category directory.
type Document struct {
	ID       string // file stem
	Path     string
	Category string
}

// DatasetStats summarizes a category scan.
type DatasetStats struct {
	Scanned uint32
	Matched uint32
}

// ResolveCategories expands category patterns against the sub-directories of base.
// Patterns use filepath.Match syntax, so "*" selects every sub-directory. A plain
// name is kept even if the directory does not exist; listing it then yields nothing.
// Hidden directories never match a pattern.
func ResolveCategories(base string, patterns []string, logger *slog.Logger) ([]string, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("data base path is required")
	}
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}

	var dirs []string
	loaded := false
	seen := map[string]struct{}{}
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !hasMeta(p) {
			add(p)
			continue
		}
		if !loaded {
			entries, err := os.ReadDir(base)
			if err != nil {
				return nil, fmt.Errorf("read data dir: %w", err)
			}
			for _, e := range entries {
				if e.IsDir() && !isHidden(e.Name()) {
					dirs = append(dirs, e.Name())
				}
			}
			sort.Strings(dirs)
			loaded = true
		}
		matched := 0
		for _, d := range dirs {
			ok, err := filepath.Match(p, d)
			if err != nil {
				return nil, fmt.Errorf("category pattern %q: %w", p, err)
			}
			if ok {
				add(d)
				matched++
			}
		}
		if matched == 0 {
			logger.Warn("dataset.no_category_match", "pattern", p, "dir", base)
		}
	}
	return out, nil
}

// ListDocuments returns the documents directly under base/category, sorted by file name.
// A missing category directory yields no documents.
func ListDocuments(base, category string) ([]Document, DatasetStats, error) {
	var stats DatasetStats
	dir := filepath.Join(base, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, nil
		}
		return nil, stats, fmt.Errorf("read category %s: %w", category, err)
	}

	var docs []Document
	for _, e := range entries {
		stats.Scanned++
		if e.IsDir() || isHidden(e.Name()) {
			continue
		}
		if !constants.IsDocumentExt(filepath.Ext(e.Name())) {
			continue
		}
		stats.Matched++
		docs = append(docs, Document{
			ID:       strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path:     filepath.Join(dir, e.Name()),
			Category: category,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, stats, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[\`)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
