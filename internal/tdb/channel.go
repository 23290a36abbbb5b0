package tdb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/maloquacious/tdb/internal/dataset"
	"github.com/maloquacious/tdb/internal/store"
)

// ChannelView is everything the TDB knows about one MSID: the rows of
// every satellite table and the columns of its master table row.
//
// An unbound view (no MSID) exposes whole tables and columns and is the
// handle used to Resolve and Search MSIDs.
type ChannelView struct {
	src  store.Source
	msid string
}

// NewChannelView returns an unbound view over src.
func NewChannelView(src store.Source) *ChannelView {
	return &ChannelView{src: src}
}

// Bound returns the upper-case MSID of a bound view.
func (c *ChannelView) Bound() (string, bool) {
	return c.msid, c.msid != ""
}

func (c *ChannelView) master() (*TableView, error) {
	tbl, err := c.src.Get(string(Tmsrment))
	if err != nil {
		return nil, err
	}
	return NewTableView(tbl), nil
}

// Resolve returns a view bound to msid. The MSID must be present in the
// master table; the match is case-insensitive.
func (c *ChannelView) Resolve(msid string) (*ChannelView, error) {
	key := strings.ToUpper(msid)
	if key == "" {
		return nil, &UnknownMSIDError{MSID: key}
	}
	tbl, err := c.src.Get(string(Tmsrment))
	if err != nil {
		return nil, err
	}
	if len(tbl.Find(MSIDColumn, key)) == 0 {
		return nil, &UnknownMSIDError{MSID: key}
	}
	return &ChannelView{src: c.src, msid: key}, nil
}

// Table returns the rows of a satellite table for the bound MSID, which
// may be Missing. Unbound, it returns the whole table as ManyRows.
func (c *ChannelView) Table(name SatelliteTable) (Selection, error) {
	tbl, err := c.src.Get(string(name))
	if err != nil {
		return Selection{}, err
	}
	view := NewTableView(tbl)
	if c.msid == "" {
		return Selection{Kind: ManyRows, View: view}, nil
	}
	if !view.HasColumn(MSIDColumn) {
		return Selection{}, &ColumnNotFoundError{Table: string(name), Column: MSIDColumn}
	}
	return view.selectMSID(c.msid), nil
}

func (c *ChannelView) Tmsrment() (Selection, error) { return c.Table(Tmsrment) }
func (c *ChannelView) Tpc() (Selection, error)      { return c.Table(Tpc) }
func (c *ChannelView) Tsc() (Selection, error)      { return c.Table(Tsc) }
func (c *ChannelView) Tpp() (Selection, error)      { return c.Table(Tpp) }
func (c *ChannelView) Tlmt() (Selection, error)     { return c.Table(Tlmt) }
func (c *ChannelView) Tcntr() (Selection, error)    { return c.Table(Tcntr) }
func (c *ChannelView) Tsmpl() (Selection, error)    { return c.Table(Tsmpl) }
func (c *ChannelView) Tloc() (Selection, error)     { return c.Table(Tloc) }

// Attr returns a master table column: the scalar for the bound MSID, or
// the whole column when unbound.
func (c *ChannelView) Attr(col MasterColumn) (Field, error) {
	master, err := c.master()
	if err != nil {
		return Field{}, err
	}
	if c.msid == "" {
		return master.Column(string(col))
	}
	sel := master.selectMSID(c.msid)
	if !sel.Found() {
		return Field{}, &UnknownMSIDError{MSID: c.msid}
	}
	return sel.View.Column(string(col))
}

// Text returns a master column of the bound MSID as text. Errors and
// unbound views yield "".
func (c *ChannelView) Text(col MasterColumn) string {
	if c.msid == "" {
		return ""
	}
	f, err := c.Attr(col)
	if err != nil {
		return ""
	}
	return f.Value().Text()
}

// Validate checks that the master table has every MasterColumn and that
// each satellite table has an MSID column.
func (c *ChannelView) Validate() error {
	master, err := c.master()
	if err != nil {
		return err
	}
	for _, col := range MasterColumns {
		if _, err := master.Column(string(col)); err != nil {
			return err
		}
	}
	for _, name := range SatelliteTables {
		tbl, err := c.src.Get(string(name))
		if err != nil {
			return err
		}
		if !NewTableView(tbl).HasColumn(MSIDColumn) {
			return &ColumnNotFoundError{Table: string(name), Column: MSIDColumn}
		}
	}
	return nil
}

// searchColumns are matched by Search.
var searchColumns = []MasterColumn{ColMSID, ColDescription, ColTechnicalName}

// Search returns bound views for every MSID that matches all patterns, in
// master table order. A pattern is a case-insensitive regular expression
// that matches when it is found in the MSID, the description or the
// technical name. No patterns matches every MSID.
func (c *ChannelView) Search(patterns ...string) ([]*ChannelView, error) {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid search pattern %q: %w", p, err)
		}
		res[i] = re
	}

	master, err := c.src.Get(string(Tmsrment))
	if err != nil {
		return nil, err
	}
	columns := make([]*dataset.Column, len(searchColumns))
	for i, name := range searchColumns {
		col, ok := master.Column(string(name))
		if !ok {
			return nil, &ColumnNotFoundError{Table: master.Name(), Column: string(name)}
		}
		columns[i] = col
	}

	rows := roaring.New()
	rows.AddRange(0, uint64(master.NumRows()))
	for _, re := range res {
		if rows.IsEmpty() {
			break
		}
		rows.And(matchAny(re, columns, rows))
	}

	msids := columns[0]
	out := make([]*ChannelView, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		r := int(it.Next())
		out = append(out, &ChannelView{src: c.src, msid: msids.Value(r).Text()})
	}
	return out, nil
}

// matchAny returns the candidate rows where re matches at least one of
// the columns.
func matchAny(re *regexp.Regexp, columns []*dataset.Column, candidates *roaring.Bitmap) *roaring.Bitmap {
	perColumn := make([]*roaring.Bitmap, len(columns))
	for i, col := range columns {
		hits := roaring.New()
		it := candidates.Iterator()
		for it.HasNext() {
			r := it.Next()
			if re.MatchString(col.Value(int(r)).Text()) {
				hits.Add(r)
			}
		}
		perColumn[i] = hits
	}
	return roaring.FastOr(perColumn...)
}

func (c *ChannelView) String() string {
	if c.msid == "" {
		return "<MsidView>"
	}
	return fmt.Sprintf(`<MsidView msid="%s" technical_name="%s">`, c.msid, c.Text(ColTechnicalName))
}
