package store

import "github.com/maloquacious/tdb/internal/dataset"

// StoreState represents the state of an exported datastore.
type StoreState int

const (
	StateMissing         StoreState = iota // File doesn't exist
	StateUninitialized                     // File exists but no tables
	StateVersionMismatch                   // Tables exist but from another TDB version
	StateReady                             // Exported and correct version
)

func (s StoreState) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateUninitialized:
		return "uninitialized"
	case StateVersionMismatch:
		return "version mismatch"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Source defines the read-only table registry contract for one TDB version.
// Implementations must be safe for concurrent use.
type Source interface {
	// Get returns the named table, loading it on first use.
	Get(name string) (*dataset.Table, error)

	// Names returns the table names present in the version directory
	Names() ([]string, error)

	// Dir returns the version data directory
	Dir() string
}
