package dataset

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New("tlmt",
		TextColumn("MSID", "TEPHIN", "AOPCADMD", "TEPHIN"),
		IntColumn("LIMIT_SET_NUM", 1, 1, 2),
		FloatColumn("CAUTION_LOW", 10.0, -1.5, 12.25),
	)
	require.NoError(t, err)
	return tbl
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		columns []*Column
		wantErr error
	}{
		{
			name:    "equal lengths",
			columns: []*Column{TextColumn("A", "x", "y"), IntColumn("B", 1, 2)},
		},
		{
			name:    "length mismatch",
			columns: []*Column{TextColumn("A", "x", "y"), IntColumn("B", 1)},
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "duplicate column",
			columns: []*Column{TextColumn("A", "x"), IntColumn("A", 1)},
			wantErr: ErrDuplicateColumn,
		},
		{
			name: "no columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := New("t", tt.columns...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, len(tt.columns), tbl.NumColumns())
		})
	}
}

func TestTableAccess(t *testing.T) {
	tbl := sampleTable(t)

	require.Equal(t, []string{"MSID", "LIMIT_SET_NUM", "CAUTION_LOW"}, tbl.ColumnNames())
	require.Equal(t, 3, tbl.NumRows())

	_, ok := tbl.Column("msid")
	require.False(t, ok, "column lookup is exact")

	row := tbl.Row(1)
	require.Equal(t, []Value{TextValue("AOPCADMD"), IntValue(1), FloatValue(-1.5)}, row)

	require.Equal(t, []int{0, 2}, tbl.Find("MSID", "TEPHIN"))
	require.Empty(t, tbl.Find("MSID", "tephin"))
	require.Empty(t, tbl.Find("LIMIT_SET_NUM", "1"))
	require.Empty(t, tbl.Find("NOPE", "TEPHIN"))

	sub := tbl.Take([]int{2, 0})
	require.Equal(t, 2, sub.NumRows())
	c, ok := sub.Column("LIMIT_SET_NUM")
	require.True(t, ok)
	require.Equal(t, []int64{2, 1}, c.Ints)
	require.Equal(t, 3, tbl.NumRows(), "take leaves the source untouched")
}

func TestValue(t *testing.T) {
	require.Equal(t, "42", IntValue(42).String())
	require.Equal(t, "2.5", FloatValue(2.5).String())
	require.Equal(t, int64(2), FloatValue(2.9).Int())
	require.Equal(t, 7.0, IntValue(7).Float())
	require.Equal(t, "abc", TextValue("abc").Any())
	require.True(t, IntValue(1).Equal(IntValue(1)))
	require.False(t, IntValue(1).Equal(FloatValue(1)))
	nan := FloatValue(math.NaN())
	require.True(t, nan.Equal(nan))
	require.False(t, nan.Equal(FloatValue(1)))
	require.True(t, FloatValue(2.5).Equal(FloatValue(2.5)))
	require.Equal(t, "", Value{}.String())
}

func TestCodecRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, sampleTable(t), c))

			got, err := Decode(&buf, "tlmt")
			require.NoError(t, err)
			require.Equal(t, "tlmt", got.Name())
			require.Equal(t, sampleTable(t).ColumnNames(), got.ColumnNames())
			for i := 0; i < 3; i++ {
				require.Equal(t, sampleTable(t).Row(i), got.Row(i))
			}
		})
	}
}

func TestFixedWidthTextIsNormalized(t *testing.T) {
	msid := TextColumn("MSID", "TEPHIN", "AB")
	msid.Width = 8
	desc := TextColumn("DESCRIPTION", "caf\xe9", "ok")
	desc.Width = 6
	tbl, err := New("tmsrment", msid, desc)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tbl, CompressionNone))

	got, err := Decode(&buf, "tmsrment")
	require.NoError(t, err)
	c, _ := got.Column("MSID")
	require.Equal(t, []string{"TEPHIN", "AB"}, c.Texts)
	require.Equal(t, 8, c.Width)
	d, _ := got.Column("DESCRIPTION")
	require.Equal(t, []string{"caf\uFFFD", "ok"}, d.Texts)
}

func TestFixedWidthOverflow(t *testing.T) {
	c := TextColumn("MSID", "TOOLONGVALUE")
	c.Width = 4
	tbl, err := New("t", c)
	require.NoError(t, err)
	require.Error(t, Encode(&bytes.Buffer{}, tbl, CompressionNone))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty", data: nil, wantErr: ErrBadMagic},
		{name: "wrong magic", data: []byte("NPY1\x00"), wantErr: ErrBadMagic},
		{name: "bad compression", data: []byte("TDB1\x09"), wantErr: ErrCorrupt},
		{name: "truncated body", data: []byte("TDB1\x00\x02"), wantErr: ErrCorrupt},
		{name: "bad type tag", data: []byte("TDB1\x00\x01\x01A\x09"), wantErr: ErrCorrupt},
		{
			name:    "fixed text larger than file",
			data:    []byte("TDB1\x00\x01\x01A\x04\x80\x80\x04\x80\x80\x80\x80\x01"),
			wantErr: ErrCorrupt,
		},
		{
			name:    "int column larger than file",
			data:    []byte("TDB1\x00\x01\x01A\x01\x80\x80\x80\x80\x01"),
			wantErr: ErrCorrupt,
		},
		{
			name:    "text column larger than file",
			data:    []byte("TDB1\x00\x01\x01A\x03\x80\x80\x80\x80\x01\x01x"),
			wantErr: ErrCorrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data), "t")
			require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tlmt"+Ext)
	require.NoError(t, WriteFile(path, sampleTable(t), CompressionZSTD))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "tlmt", got.Name())
	require.Equal(t, 3, got.NumRows())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"+Ext))
	require.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("ZSTD")
	require.NoError(t, err)
	require.Equal(t, CompressionZSTD, c)
	c, err = ParseCompression("")
	require.NoError(t, err)
	require.Equal(t, CompressionNone, c)
	_, err = ParseCompression("gzip")
	require.Error(t, err)
}
