package tdb

import (
	"errors"
	"fmt"

	"github.com/maloquacious/tdb/internal/store"
)

var (
	// ErrInvalidVersion classifies *InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid TDB version")
	// ErrNotFound is returned when a table has no dataset in the selected version.
	ErrNotFound = store.ErrNotFound
	// ErrColumnNotFound classifies *ColumnNotFoundError.
	ErrColumnNotFound = errors.New("column not found")
	// ErrUnknownMSID classifies *UnknownMSIDError.
	ErrUnknownMSID = errors.New("unknown MSID")
)

// InvalidVersionError reports a version that is not installed.
type InvalidVersionError struct {
	Version int
	Valid   []int
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("TDB version %d not available, must be one of the following: %v", e.Version, e.Valid)
}

func (e *InvalidVersionError) Is(target error) bool { return target == ErrInvalidVersion }

// ColumnNotFoundError reports a column name missing from a table schema.
type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("no column %s in table %s", e.Column, e.Table)
}

func (e *ColumnNotFoundError) Is(target error) bool { return target == ErrColumnNotFound }

// UnknownMSIDError reports an MSID absent from the master table.
type UnknownMSIDError struct {
	MSID string
}

func (e *UnknownMSIDError) Error() string {
	return fmt.Sprintf("no MSID %s in TDB", e.MSID)
}

func (e *UnknownMSIDError) Is(target error) bool { return target == ErrUnknownMSID }
