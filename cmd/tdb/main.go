package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/maloquacious/semver"
	"github.com/maloquacious/tdb/internal/config"
	"github.com/maloquacious/tdb/internal/convert"
	"github.com/maloquacious/tdb/internal/dataset"
	"github.com/maloquacious/tdb/internal/logger"
	"github.com/maloquacious/tdb/internal/store/sqlite"
	"github.com/maloquacious/tdb/internal/tdb"
	"github.com/spf13/cobra"
)

var (
	version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
)

var (
	configPath  string
	dataRoot    string
	tdbVersion  string
	verbose     bool
	srcRoot     string
	convVers    []int
	compression string
	exportPath  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tdb",
		Short:        "Browse the versioned telemetry database",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Std.SetVerbose(verbose)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "defaults file")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "root", "", "data root holding the pNNN version directories")
	rootCmd.PersistentFlags().StringVar(&tdbVersion, "tdb-version", "", `TDB version number or "latest"`)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the tool version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "List installed TDB versions",
		Args:  cobra.NoArgs,
		RunE:  runVersions,
	}
	tablesCmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the selected version",
		Args:  cobra.NoArgs,
		RunE:  runTables,
	}
	colsCmd := &cobra.Command{
		Use:   "cols [table...]",
		Short: "Report the columns and types of tables",
		RunE:  runCols,
	}
	showCmd := &cobra.Command{
		Use:   "show table [msid-or-column]",
		Short: "Print a table, its rows for one MSID, or one column",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runShow,
	}
	msidCmd := &cobra.Command{
		Use:   "msid msid",
		Short: "Print everything known about one MSID",
		Args:  cobra.ExactArgs(1),
		RunE:  runMSID,
	}
	findCmd := &cobra.Command{
		Use:   "find [pattern...]",
		Short: "Find MSIDs whose name, description or technical name match every pattern",
		RunE:  runFind,
	}

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Build dataset files from the raw TDB text export",
		Args:  cobra.NoArgs,
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVar(&srcRoot, "source", "", "raw export root (default from config)")
	convertCmd.Flags().IntSliceVar(&convVers, "versions", nil, "versions to convert")
	convertCmd.Flags().StringVar(&compression, "compression", "", "none, lz4 or zstd (default from config)")
	_ = convertCmd.MarkFlagRequired("versions")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selected version to a SQLite file",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportPath, "out", "", "SQLite file (default tdb-pNNN.db)")

	rootCmd.AddCommand(versionCmd, versionsCmd, tablesCmd, colsCmd, showCmd, msidCmd, findCmd, convertCmd, exportCmd)
	return rootCmd
}

// loadConfig merges the defaults file with the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataRoot != "" {
		cfg.Root = dataRoot
	}
	if tdbVersion != "" {
		v, err := config.ParseVersion(tdbVersion)
		if err != nil {
			return nil, err
		}
		cfg.Version = v
	}
	return cfg, nil
}

func openDB() (*tdb.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return tdb.Open(cfg.Root, cfg.Version)
}

func runVersions(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, v := range db.Versions() {
		mark := " "
		if v == db.Version() {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %d\n", mark, v)
	}
	return nil
}

func runTables(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	names, err := db.TableNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runCols(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		if names, err = db.TableNames(); err != nil {
			return err
		}
	}
	for _, name := range names {
		t, err := db.Load(name)
		if err != nil {
			return err
		}
		writeColumnReport(cmd.OutOrStdout(), t)
	}
	return nil
}

// columnType names a column type the way the report shows it.
func columnType(c *dataset.Column) string {
	if c.Kind == dataset.Text && c.Width > 0 {
		return fmt.Sprintf("string(%d)", c.Width)
	}
	return c.Kind.String()
}

// writeColumnReport prints an RST simple table of the columns of t.
func writeColumnReport(w io.Writer, t *dataset.Table) {
	width := len("  Column  ")
	for _, c := range t.Columns() {
		width = max(width, len(c.Name))
	}
	row := func(a, b string) { fmt.Fprintf(w, "%-*s %-10s\n", width, a, b) }
	rule := func() { row(strings.Repeat("=", width), strings.Repeat("=", 10)) }

	fmt.Fprintln(w, t.Name())
	fmt.Fprintln(w, strings.Repeat("^", 25))
	fmt.Fprintln(w)
	rule()
	row("  Column  ", "Type")
	rule()
	for _, c := range t.Columns() {
		row(c.Name, columnType(c))
	}
	rule()
	fmt.Fprintln(w)
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	view, err := db.Table(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		writeRows(out, view)
		return nil
	}
	sel, err := view.ByMSID(args[1])
	if err != nil {
		return err
	}
	writeSelection(out, sel)
	return nil
}

func writeSelection(w io.Writer, sel tdb.Selection) {
	switch sel.Kind {
	case tdb.Missing:
		fmt.Fprintln(w, "None")
	case tdb.ColumnMatch:
		for _, s := range sel.Field.Strings() {
			fmt.Fprintln(w, s)
		}
	default:
		writeRows(w, sel.View)
	}
}

// writeRows prints a view as tab-aligned rows under a header.
func writeRows(w io.Writer, view *tdb.TableView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(view.ColumnNames(), "\t"))
	for i := 0; i < view.RowCount(); i++ {
		vals := view.Row(i)
		cells := make([]string, len(vals))
		for j, v := range vals {
			cells[j] = v.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func runMSID(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	view, err := db.Resolve(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, view)
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, col := range tdb.MasterColumns {
		f, err := view.Attr(col)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", strings.ToLower(string(col)), f)
	}
	tw.Flush()

	for _, name := range tdb.SatelliteTables[1:] {
		sel, err := view.Table(name)
		if err != nil {
			return err
		}
		title := string(name)
		fmt.Fprintf(out, "\n%s:\n", strings.ToUpper(title[:1])+title[1:])
		writeSelection(out, sel)
	}
	return nil
}

func runFind(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	views, err := db.Search(args...)
	if err != nil {
		return err
	}
	for _, v := range views {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if srcRoot != "" {
		cfg.Source = srcRoot
	}
	if compression != "" {
		cfg.Compression = compression
	}
	c, err := dataset.ParseCompression(cfg.Compression)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return convert.Run(ctx, convert.Options{
		Source:      cfg.Source,
		Dest:        cfg.Root,
		Versions:    convVers,
		Compression: c,
		Log:         logger.Default,
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	if db.Version() == tdb.NoData {
		return fmt.Errorf("no TDB version installed under %s", db.Root())
	}
	path := exportPath
	if path == "" {
		path = filepath.Base(db.DataDir())
		path = "tdb-" + path + ".db"
	}

	s := sqlite.New(path, db.Version())
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	n, err := s.Export(db.Tables(), db.Version())
	if err != nil {
		return err
	}
	state, err := s.CheckState()
	if err != nil {
		return err
	}
	logger.Default.Info("exported %d tables of TDB version %d to %s (%s)", n, db.Version(), path, state)
	return nil
}
