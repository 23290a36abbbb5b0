package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/maloquacious/tdb/internal/dataset"
)

const (
	// DefaultSKA is used when $SKA is not set.
	DefaultSKA = "/proj/sot/ska"
)

// ErrNotFound is returned when a table has no dataset file.
//
// Errors satisfy `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

var versionDirRe = regexp.MustCompile(`^p(\d{3})$`)

// CheckExists verifies if the dataset for table exists in dir.
// Returns true if the dataset exists, false otherwise.
func CheckExists(dir, table string) (bool, error) {
	path := TablePath(dir, table)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("dataset path is a directory, expected file: %s", path)
	}
	return true, nil
}

// GetDataRoot returns the directory holding the version subdirectories,
// $SKA/data/Ska.tdb.
func GetDataRoot() string {
	ska := os.Getenv("SKA")
	if ska == "" {
		ska = DefaultSKA
	}
	return filepath.Join(ska, "data", "Ska.tdb")
}

// VersionDir returns the data directory of a TDB version, e.g. root/p014.
func VersionDir(root string, version int) string {
	return filepath.Join(root, fmt.Sprintf("p%03d", version))
}

// TablePath returns the full path to the dataset file of a table.
func TablePath(dir, table string) string {
	return filepath.Join(dir, table+dataset.Ext)
}

// ListVersions returns the sorted TDB versions found under root.
// Only directories named p followed by three digits count.
func ListVersions(root string) ([]int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read data root: %w", err)
	}
	var versions []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := versionDirRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, _ := strconv.Atoi(m[1])
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}
