package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/maloquacious/tdb/internal/dataset"
	"github.com/maloquacious/tdb/internal/logger"
	"golang.org/x/sync/singleflight"
)

// Tables is the lazily loaded table registry of one version directory.
// A loaded table is cached for the life of the Tables value and the same
// *dataset.Table is returned on every later Get.
type Tables struct {
	dir string
	log logger.Logger

	mu     sync.RWMutex
	tables map[string]*dataset.Table
	group  singleflight.Group
}

var _ Source = (*Tables)(nil)

// Option configures a Tables.
type Option func(*Tables)

// WithLogger sets the logger used to report table loads.
func WithLogger(l logger.Logger) Option {
	return func(t *Tables) { t.log = l }
}

// NewTables creates an empty registry over dir. An empty dir is a registry
// with no tables at all.
func NewTables(dir string, opts ...Option) *Tables {
	t := &Tables{
		dir:    dir,
		log:    logger.Default,
		tables: make(map[string]*dataset.Table),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tables) Dir() string { return t.dir }

// Get returns the named table, reading its dataset file on first use.
// Concurrent first calls for the same name share one read.
func (t *Tables) Get(name string) (*dataset.Table, error) {
	t.mu.RLock()
	tbl, ok := t.tables[name]
	t.mu.RUnlock()
	if ok {
		return tbl, nil
	}

	v, err, _ := t.group.Do(name, func() (any, error) {
		t.mu.RLock()
		tbl, ok := t.tables[name]
		t.mu.RUnlock()
		if ok {
			return tbl, nil
		}
		tbl, err := t.load(name)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.tables[name] = tbl
		t.mu.Unlock()
		return tbl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.Table), nil
}

func (t *Tables) load(name string) (*dataset.Table, error) {
	if t.dir == "" || name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("table %s not in TDB files: %w", name, ErrNotFound)
	}
	path := TablePath(t.dir, name)
	tbl, err := dataset.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("table %s not in TDB files (no file %s): %w", name, path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load table %s: %w", name, err)
	}
	t.log.Debug("loaded table %s: %d rows, %d columns", name, tbl.NumRows(), tbl.NumColumns())
	return tbl, nil
}

// Names scans the directory for dataset files. It is not cached.
func (t *Tables) Names() ([]string, error) {
	if t.dir == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(t.dir, "*"+dataset.Ext))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), dataset.Ext))
	}
	sort.Strings(names)
	return names, nil
}
