package sqlite

import (
	"fmt"
	"strings"

	"github.com/maloquacious/tdb/internal/dataset"
)

// versionTable is reserved for the export bookkeeping; no dataset may use it.
const versionTable = "tdb_version"

// initialSchema records which TDB version an export holds.
const initialSchema = `
CREATE TABLE IF NOT EXISTS tdb_version (
    version INTEGER PRIMARY KEY,
    exported_at INTEGER NOT NULL
);
`

func sqlType(k dataset.Kind) string {
	switch k {
	case dataset.Int:
		return "INTEGER"
	case dataset.Float:
		return "REAL"
	}
	return "TEXT"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createTableSQL returns the DDL for a dataset table.
func createTableSQL(t *dataset.Table) string {
	cols := make([]string, t.NumColumns())
	for i, c := range t.Columns() {
		cols[i] = fmt.Sprintf("%s %s", quoteIdent(c.Name), sqlType(c.Kind))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name()), strings.Join(cols, ", "))
}

// insertSQL returns a parameterized INSERT for a dataset table.
func insertSQL(t *dataset.Table) string {
	marks := make([]string, t.NumColumns())
	for i := range marks {
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(t.Name()), strings.Join(marks, ", "))
}
