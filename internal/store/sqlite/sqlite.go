package sqlite

import (
	"database/sql"
	"fmt"
	"slices"

	"github.com/maloquacious/tdb/internal/dataset"
	"github.com/maloquacious/tdb/internal/store"
	_ "modernc.org/sqlite"
)

// SQLiteStore writes the tables of one TDB version to a SQLite file
// using modernc.org/sqlite.
type SQLiteStore struct {
	dbPath          string
	db              *sql.DB
	expectedVersion int
}

// New creates a new SQLiteStore for an export of expectedVersion.
func New(dbPath string, expectedVersion int) *SQLiteStore {
	return &SQLiteStore{
		dbPath:          dbPath,
		expectedVersion: expectedVersion,
	}
}

// Open opens the SQLite database with safe defaults.
func (s *SQLiteStore) Open() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Apply safe defaults
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the tdb_version table and records version.
func (s *SQLiteStore) InitSchema(version int) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(initialSchema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// an export holds exactly one version
	if _, err := tx.Exec(`DELETE FROM tdb_version`); err != nil {
		return fmt.Errorf("failed to clear TDB version: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO tdb_version (version, exported_at) VALUES (?, strftime('%s', 'now'))`, version)
	if err != nil {
		return fmt.Errorf("failed to insert TDB version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ImportTable replaces the SQL table named after t with its rows.
func (s *SQLiteStore) ImportTable(t *dataset.Table) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(t.Name())); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", t.Name(), err)
	}
	if _, err := tx.Exec(createTableSQL(t)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name(), err)
	}

	stmt, err := tx.Prepare(insertSQL(t))
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", t.Name(), err)
	}
	defer stmt.Close()

	args := make([]any, t.NumColumns())
	for i := 0; i < t.NumRows(); i++ {
		for j, v := range t.Row(i) {
			args[j] = v.Any()
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert row %d of %s: %w", i, t.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Export writes every table of src and records version. Tables left in
// the file by an earlier export that src no longer has are dropped.
func (s *SQLiteStore) Export(src store.Source, version int) (int, error) {
	names, err := src.Names()
	if err != nil {
		return 0, err
	}
	if slices.Contains(names, versionTable) {
		return 0, fmt.Errorf("table name %q is reserved", versionTable)
	}
	if err := s.InitSchema(version); err != nil {
		return 0, err
	}
	existing, err := s.TableNames()
	if err != nil {
		return 0, err
	}
	for _, name := range existing {
		if name == versionTable || slices.Contains(names, name) {
			continue
		}
		if _, err := s.db.Exec("DROP TABLE IF EXISTS " + quoteIdent(name)); err != nil {
			return 0, fmt.Errorf("failed to drop stale table %s: %w", name, err)
		}
	}
	for _, name := range names {
		t, err := src.Get(name)
		if err != nil {
			return 0, err
		}
		if err := s.ImportTable(t); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}

// TableNames lists the user tables in the database file.
func (s *SQLiteStore) TableNames() ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CheckState returns the current state of the export.
func (s *SQLiteStore) CheckState() (store.StoreState, error) {
	if s.db == nil {
		return store.StateMissing, fmt.Errorf("database not opened")
	}

	// Check if tdb_version table exists
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tdb_version'`).Scan(&count)
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to check tdb_version table: %w", err)
	}

	if count == 0 {
		return store.StateUninitialized, nil
	}

	version, err := s.GetVersion()
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to get TDB version: %w", err)
	}

	if version != s.expectedVersion {
		return store.StateVersionMismatch, nil
	}

	return store.StateReady, nil
}

// GetVersion returns the exported TDB version, 0 if none.
func (s *SQLiteStore) GetVersion() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM tdb_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query TDB version: %w", err)
	}

	return version, nil
}
