// Package tdb gives read-only access to the tables of a versioned
// telemetry database (TDB).
//
// A DB selects one installed version. Its tables are loaded on first use
// and cached until the version changes. Tables with an MSID column can be
// filtered per MSID through TableView.ByMSID, and ChannelView joins the
// master table and every satellite table for one MSID.
package tdb

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/maloquacious/tdb/internal/dataset"
	"github.com/maloquacious/tdb/internal/logger"
	"github.com/maloquacious/tdb/internal/store"
)

// Latest asks SelectVersion for the highest installed version.
const Latest = -1

// NoData is the version selected when no version is installed. Every
// table lookup under it fails with ErrNotFound.
const NoData = 0

// DB holds the selected TDB version and its table registry.
//
// Reads are safe for concurrent use. A version switch replaces the whole
// state at once; views obtained before the switch keep reading the old
// version.
type DB struct {
	root string
	log  logger.Logger

	mu  sync.Mutex
	cur atomic.Pointer[snapshot]
}

type snapshot struct {
	version  int
	versions []int
	dir      string
	tables   *store.Tables
	msids    *ChannelView
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger for the DB and its table registries.
func WithLogger(l logger.Logger) Option {
	return func(db *DB) { db.log = l }
}

// Open selects version under root (see SelectVersion). With Latest an
// unreadable or empty root selects NoData instead of failing.
func Open(root string, version int, opts ...Option) (*DB, error) {
	db := &DB{root: root, log: logger.Default}
	for _, opt := range opts {
		opt(db)
	}
	if err := db.SelectVersion(version); err != nil {
		return nil, err
	}
	return db, nil
}

// SelectVersion switches to version, or to the highest installed version
// for Latest. An uninstalled version fails with *InvalidVersionError and
// leaves the current selection in place. On success all cached tables are
// dropped.
func (db *DB) SelectVersion(version int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	versions, err := store.ListVersions(db.root)
	if err != nil {
		db.log.Warn("no TDB versions under %s: %v", db.root, err)
		versions = nil
	}

	if version == Latest {
		version = NoData
		if len(versions) > 0 {
			version = versions[len(versions)-1]
		}
	} else if !slices.Contains(versions, version) {
		return &InvalidVersionError{Version: version, Valid: versions}
	}

	dir := ""
	if slices.Contains(versions, version) {
		dir = store.VersionDir(db.root, version)
	}
	tables := store.NewTables(dir, store.WithLogger(db.log))
	db.cur.Store(&snapshot{
		version:  version,
		versions: versions,
		dir:      dir,
		tables:   tables,
		msids:    NewChannelView(tables),
	})
	db.log.Debug("selected TDB version %d (%s)", version, dir)
	return nil
}

func (db *DB) state() *snapshot { return db.cur.Load() }

// Root returns the directory holding the version subdirectories.
func (db *DB) Root() string { return db.root }

// Version returns the selected version.
func (db *DB) Version() int { return db.state().version }

// Versions returns the versions found at the last selection.
func (db *DB) Versions() []int { return slices.Clone(db.state().versions) }

// DataDir returns the directory of the selected version, "" for NoData.
func (db *DB) DataDir() string { return db.state().dir }

// Tables returns the table registry of the selected version.
func (db *DB) Tables() store.Source { return db.state().tables }

// Table returns a view of the named table. Names are lower-cased.
func (db *DB) Table(name string) (*TableView, error) {
	tbl, err := db.state().tables.Get(strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	return NewTableView(tbl), nil
}

// Load returns the named table itself.
func (db *DB) Load(name string) (*dataset.Table, error) {
	return db.state().tables.Get(strings.ToLower(name))
}

// TableNames lists the tables of the selected version.
func (db *DB) TableNames() ([]string, error) { return db.state().tables.Names() }

// MSIDs returns the unbound ChannelView of the selected version.
func (db *DB) MSIDs() *ChannelView { return db.state().msids }

// Resolve is shorthand for MSIDs().Resolve.
func (db *DB) Resolve(msid string) (*ChannelView, error) { return db.MSIDs().Resolve(msid) }

// Search is shorthand for MSIDs().Search.
func (db *DB) Search(patterns ...string) ([]*ChannelView, error) {
	return db.MSIDs().Search(patterns...)
}
