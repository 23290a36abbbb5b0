// Package convert builds dataset files from the raw TDB text export.
//
// The export has one directory per version (pNNN) holding a
// comma-delimited <table>.txt per table, and a <table>.rdb file at the
// top level whose first line names the columns.
package convert

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maloquacious/tdb/internal/dataset"
	"github.com/maloquacious/tdb/internal/logger"
	"github.com/maloquacious/tdb/internal/store"
	"golang.org/x/sync/errgroup"
)

// TableNames are the tables in a TDB export.
var TableNames = []string{
	"tcntr", "tes", "tlmt", "tloc", "tmsrment", "towner", "tpc",
	"tpp", "tsc", "tsmpl", "tstream", "ttdm_fmt", "ttdm",
}

// TrailingJunk returns the suffix every data line of table ends with.
// Two exports had null columns removed, leaving extra delimiters.
func TrailingJunk(table string) string {
	switch table {
	case "tmsrment":
		return ",,;"
	case "tsmpl":
		return ",;"
	}
	return ";"
}

type Options struct {
	Source      string // export root
	Dest        string // data root receiving pNNN directories
	Versions    []int
	Tables      []string // defaults to TableNames
	Compression dataset.Compression
	Parallel    int // tables converted at once, 0 for 4
	Log         logger.Logger
}

// Run converts every requested version.
func Run(ctx context.Context, opts Options) error {
	if opts.Log == nil {
		opts.Log = logger.Default
	}
	if len(opts.Tables) == 0 {
		opts.Tables = TableNames
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 4
	}
	for _, v := range opts.Versions {
		if err := convertVersion(ctx, opts, v); err != nil {
			return err
		}
	}
	return nil
}

func convertVersion(ctx context.Context, opts Options, version int) error {
	srcDir := store.VersionDir(opts.Source, version)
	outDir := store.VersionDir(opts.Dest, version)
	opts.Log.Info("processing TDB version %d from %s", version, srcDir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for _, name := range opts.Tables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tbl, err := ConvertTable(opts.Source, srcDir, name)
			if err != nil {
				return err
			}
			if err := dataset.WriteFile(store.TablePath(outDir, name), tbl, opts.Compression); err != nil {
				return err
			}
			opts.Log.Debug("version %d: %s %d rows", version, name, tbl.NumRows())
			return nil
		})
	}
	return g.Wait()
}

// ConvertTable reads one table of one version.
func ConvertTable(source, versionDir, name string) (*dataset.Table, error) {
	colnames, err := ReadColumnNames(filepath.Join(source, name+".rdb"))
	if err != nil {
		return nil, err
	}
	path := filepath.Join(versionDir, name+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	tbl, err := ParseTable(name, colnames, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tbl, nil
}

// ReadColumnNames returns the whitespace-separated names on the first
// line of an rdb file.
func ReadColumnNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	names := strings.Fields(line)
	if len(names) == 0 {
		return nil, fmt.Errorf("no column names in %s", path)
	}
	return names, nil
}

// ParseTable parses the comma-delimited export of a table. Every
// non-empty line must end with the table's trailing junk, which is
// removed. Column types are inferred: int, then float, then text.
func ParseTable(name string, colnames []string, r io.Reader) (*dataset.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	junk := TrailingJunk(name)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			lines[i] = line
			continue
		}
		if !strings.HasSuffix(line, junk) {
			return nil, fmt.Errorf("line %d not ending with %s", i+1, junk)
		}
		lines[i] = strings.TrimSuffix(line, junk)
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	cr.FieldsPerRecord = len(colnames)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	columns := make([]*dataset.Column, len(colnames))
	cells := make([]string, len(records))
	for j, cname := range colnames {
		for i, rec := range records {
			cells[i] = strings.TrimSpace(rec[j])
		}
		columns[j] = inferColumn(strings.ToUpper(cname), cells)
	}
	return dataset.New(name, columns...)
}

func inferColumn(name string, cells []string) *dataset.Column {
	nonEmpty := 0
	ints := make([]int64, len(cells))
	isInt := true
	for i, s := range cells {
		if s == "" {
			continue
		}
		nonEmpty++
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			isInt = false
			break
		}
		ints[i] = v
	}
	if nonEmpty > 0 && isInt {
		return dataset.IntColumn(name, ints...)
	}

	if nonEmpty > 0 {
		floats := make([]float64, len(cells))
		isFloat := true
		for i, s := range cells {
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || !looksNumeric(s) {
				isFloat = false
				break
			}
			floats[i] = v
		}
		if isFloat {
			return dataset.FloatColumn(name, floats...)
		}
	}

	texts := make([]string, len(cells))
	width := 0
	for i, s := range cells {
		texts[i] = s
		width = max(width, len(s))
	}
	c := dataset.TextColumn(name, texts...)
	c.Width = width
	return c
}

// looksNumeric rejects words such as NaN or Inf that ParseFloat accepts.
func looksNumeric(s string) bool {
	c := s[0]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}
