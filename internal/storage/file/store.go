package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/document"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

// ErrNotFound reports that no valid document exists for a slug.
var ErrNotFound = errors.New("document not found")

const fileExt = ".json"

// Options configures the file store.
type Options struct {
	// Dir is the directory holding one <slug>.json per document. Created on
	// demand by writes.
	Dir string
	// Logger receives malformed-storage diagnostics. Optional.
	Logger logpkg.Logger
}

// Store reads and writes documents as flat JSON files.
type Store struct {
	dir    string
	logger logpkg.Logger
}

// New returns a Store rooted at opts.Dir.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Store{dir: opts.Dir, logger: logger.WithComponent("filestore")}
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path for a slug.
func (s *Store) Path(slug string) string {
	return filepath.Join(s.dir, slug+fileExt)
}

// Read loads and parses the document for slug. A missing file returns
// ErrNotFound; so does an unreadable or corrupt one, after logging the
// underlying cause for operator visibility.
func (s *Store) Read(slug string) (document.Document, error) {
	b, err := os.ReadFile(s.Path(slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		s.logger.Error("read document failed", logpkg.Str("slug", slug), logpkg.Err(err))
		return nil, ErrNotFound
	}
	var doc document.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		s.logger.Error("malformed document file", logpkg.Str("slug", slug), logpkg.Err(err))
		return nil, ErrNotFound
	}
	return doc, nil
}

// Write serializes doc and atomically replaces the file for slug: the JSON
// is written to a .tmp sibling and renamed over the destination. The store
// directory is created if absent.
func (s *Store) Write(slug string, doc document.Document) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document %q: %w", slug, err)
	}
	b = append(b, '\n')
	dst := s.Path(slug)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %q: %w", dst, err)
	}
	return nil
}

// List returns the slugs present on disk, sorted. A missing directory is an
// empty store, not an error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list store dir: %w", err)
	}
	var slugs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(slugs)
	return slugs, nil
}
