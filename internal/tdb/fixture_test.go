package tdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maloquacious/tdb/internal/dataset"
	"github.com/maloquacious/tdb/internal/logger"
	"github.com/maloquacious/tdb/internal/store"
	"github.com/stretchr/testify/require"
)

type masterRow struct {
	msid, tech, desc string
}

var fixtureMSIDs = []masterRow{
	{"AOACIDPX", "ACA DATA PROCESSING DEFECTIVE PIXEL FILTER ENAB/DISA", "ACA DEFECTIVE PIXEL"},
	{"TEPHIN", "EPHIN SENSOR HOUSING TEMP", "LR/15/PA/2"},
	{"AOACIIRS", "ACA DATA PROCESSING IONIZING RADIATION FILTER ENAB/DISA", "ACA IR FLAG"},
	{"TEPHTRP1", "TEPHIN TEMP RANGE PRIMARY 1", "EPHIN"},
	{"AOACSPARE", "ACA DATA PROCESSING SPARE", "ACA SPARE BIT"},
	{"TEPHTRP2", "TEPHIN TEMP RANGE PRIMARY 2", "EPHIN"},
	{"AOACIMSS", "ACA DATA PROCESSING MULTIPLE STARS FILTER ENAB/DISA", "ACA MS FLAG"},
	{"TEPHTRR1", "TEPHIN TEMP RANGE REDUNDANT 1", "EPHIN"},
	{"AOPCADMD", "PCAD MODE", "PCAD MODE STATE"},
	{"TEPHTRR2", "TEPHIN TEMP RANGE REDUNDANT 2", "EPHIN"},
	{"AOACISPX", "ACA DATA PROCESSING SATURATED PIXEL FILTER ENAB/DISA", "ACA SP FLAG"},
}

var tmsrmentColnames = []string{
	"MSID", "TECHNICAL_NAME", "DATA_TYPE", "CALIBRATION_TYPE", "ENG_UNIT", "LOW_RAW_COUNT",
	"HIGH_RAW_COUNT", "TOTAL_LENGTH", "PROP", "COUNTER_MSID", "RANGE_MSID",
	"CALIBRATION_SWITCH_MSID", "CALIBRATION_DEFAULT_SET_NUM", "LIMIT_SWITCH_MSID",
	"LIMIT_DEFAULT_SET_NUM", "ES_SWITCH_MSID", "ES_DEFAULT_SET_NUM", "OWNER_ID",
	"DESCRIPTION", "EHS_HEADER_FLAG",
}

func repeatText(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func repeatInt(v int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func masterTable(t *testing.T, rows []masterRow) *dataset.Table {
	t.Helper()
	n := len(rows)
	msid := make([]string, n)
	tech := make([]string, n)
	desc := make([]string, n)
	for i, r := range rows {
		msid[i], tech[i], desc[i] = r.msid, r.tech, r.desc
	}
	msidCol := dataset.TextColumn("MSID", msid...)
	msidCol.Width = 16
	tbl, err := dataset.New("tmsrment",
		msidCol,
		dataset.TextColumn("TECHNICAL_NAME", tech...),
		dataset.TextColumn("DATA_TYPE", repeatText("IUNS", n)...),
		dataset.TextColumn("CALIBRATION_TYPE", repeatText("PP", n)...),
		dataset.TextColumn("ENG_UNIT", repeatText("DEGF", n)...),
		dataset.IntColumn("LOW_RAW_COUNT", repeatInt(0, n)...),
		dataset.IntColumn("HIGH_RAW_COUNT", repeatInt(255, n)...),
		dataset.IntColumn("TOTAL_LENGTH", repeatInt(8, n)...),
		dataset.TextColumn("PROP", repeatText("N", n)...),
		dataset.TextColumn("COUNTER_MSID", repeatText("0", n)...),
		dataset.TextColumn("RANGE_MSID", repeatText("0", n)...),
		dataset.TextColumn("CALIBRATION_SWITCH_MSID", repeatText("0", n)...),
		dataset.IntColumn("CALIBRATION_DEFAULT_SET_NUM", repeatInt(1, n)...),
		dataset.TextColumn("LIMIT_SWITCH_MSID", repeatText("0", n)...),
		dataset.IntColumn("LIMIT_DEFAULT_SET_NUM", repeatInt(1, n)...),
		dataset.TextColumn("ES_SWITCH_MSID", repeatText("0", n)...),
		dataset.IntColumn("ES_DEFAULT_SET_NUM", repeatInt(0, n)...),
		dataset.TextColumn("OWNER_ID", repeatText("THM", n)...),
		dataset.TextColumn("DESCRIPTION", desc...),
		dataset.TextColumn("EHS_HEADER_FLAG", repeatText("U", n)...),
	)
	require.NoError(t, err)
	return tbl
}

func mustTable(t *testing.T, name string, columns ...*dataset.Column) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(name, columns...)
	require.NoError(t, err)
	return tbl
}

// versionTables builds the table set of one version. Only the TEPHIN
// limits differ between versions.
func versionTables(t *testing.T, cautionHigh, warningHigh float64) []*dataset.Table {
	return []*dataset.Table{
		masterTable(t, fixtureMSIDs),
		mustTable(t, "tlmt",
			dataset.TextColumn("MSID", "TEPHIN", "AOPCADMD"),
			dataset.IntColumn("LIMIT_SET_NUM", 1, 1),
			dataset.FloatColumn("CAUTION_LOW", 10.0, 0),
			dataset.FloatColumn("CAUTION_HIGH", cautionHigh, 0),
			dataset.FloatColumn("WARNING_LOW", 5.0, 0),
			dataset.FloatColumn("WARNING_HIGH", warningHigh, 0),
			dataset.IntColumn("DELTA", 0, 0),
			dataset.IntColumn("PERSISTENCE", 5, 1),
			dataset.TextColumn("STATE_CODE", "A", "B"),
		),
		mustTable(t, "tpp",
			dataset.TextColumn("MSID", "TEPHIN", "TEPHIN", "TEPHIN", "TEPHTRP1"),
			dataset.IntColumn("CALIBRATION_SET_NUM", 1, 1, 1, 1),
			dataset.IntColumn("SEQUENCE_NUM", 1, 2, 3, 1),
			dataset.IntColumn("RAW_COUNT", 0, 128, 255, 0),
			dataset.FloatColumn("ENG_UNIT_VALUE", -40.5, 70.0, 180.25, 0),
		),
		mustTable(t, "tsc",
			dataset.TextColumn("MSID", "AOPCADMD", "AOPCADMD"),
			dataset.IntColumn("LOW_RAW_COUNT", 0, 1),
			dataset.TextColumn("STATE_CODE", "STBY", "NPNT"),
		),
		mustTable(t, "tpc",
			dataset.TextColumn("MSID", "AOACIDPX"),
			dataset.FloatColumn("COEFFICIENT", 1.5),
		),
		mustTable(t, "tcntr", dataset.TextColumn("MSID"), dataset.IntColumn("COUNT")),
		mustTable(t, "tsmpl",
			dataset.TextColumn("MSID", "TEPHIN"),
			dataset.IntColumn("SAMPLE_RATE", 4),
		),
		mustTable(t, "tloc",
			dataset.TextColumn("MSID", "TEPHIN", "TEPHIN"),
			dataset.IntColumn("START_WORD", 12, 140),
		),
		mustTable(t, "towner",
			dataset.TextColumn("OWNER_ID", "THM", "PCAD"),
			dataset.TextColumn("DESCRIPTION", "THERMAL", "POINTING CONTROL"),
		),
		mustTable(t, "tes", dataset.TextColumn("ES_SWITCH_MSID", "0")),
		mustTable(t, "tstream", dataset.IntColumn("STREAM_ID", 1)),
		mustTable(t, "ttdm", dataset.IntColumn("TDM_ID", 1)),
		mustTable(t, "ttdm_fmt", dataset.IntColumn("FORMAT_ID", 1)),
	}
}

var fixtureTableNames = []string{
	"tcntr", "tes", "tlmt", "tloc", "tmsrment", "towner", "tpc",
	"tpp", "tsc", "tsmpl", "tstream", "ttdm", "ttdm_fmt",
}

// newFixtureRoot writes versions 8 and 14 under a fresh data root.
func newFixtureRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	versions := map[int][]*dataset.Table{
		8:  versionTables(t, 81.0, 86.0),
		14: versionTables(t, 161.0, 999.0),
	}
	for v, tables := range versions {
		dir := store.VersionDir(root, v)
		require.NoError(t, os.Mkdir(dir, 0755))
		for _, tbl := range tables {
			require.NoError(t, dataset.WriteFile(store.TablePath(dir, tbl.Name()), tbl, dataset.CompressionZSTD))
		}
	}
	// not a version
	require.NoError(t, os.Mkdir(filepath.Join(root, "scratch"), 0755))
	return root
}

func openFixture(t *testing.T, version int) *DB {
	t.Helper()
	db, err := Open(newFixtureRoot(t), version, WithLogger(logger.Nop))
	require.NoError(t, err)
	return db
}
