package dataset

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Ext is the file extension of a dataset file.
const Ext = ".tbl"

// Compression is the algorithm applied to a dataset file body.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression maps a compression name to its tag.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return 0, fmt.Errorf("unknown compression %q", name)
}

var (
	ErrBadMagic = errors.New("not a dataset file")
	ErrCorrupt  = errors.New("corrupt dataset file")
)

var magic = [4]byte{'T', 'D', 'B', '1'}

// kind tags as stored on disk
const (
	tagInt       byte = 1
	tagFloat     byte = 2
	tagText      byte = 3
	tagFixedText byte = 4
)

// sanity limits for decoding
const (
	maxColumns    = 4096
	maxNameLen    = 1024
	maxRows       = 1 << 28
	maxTextLen    = 1 << 20
	maxFixedWidth = 1 << 16
)

// Encode writes t to w as a dataset file.
// Text columns with a non-zero Width are written in fixed-width form.
func Encode(w io.Writer, t *Table, c Compression) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(c)); err != nil {
		return err
	}

	var body io.Writer
	var closer io.Closer
	switch c {
	case CompressionNone:
		body = bw
	case CompressionLZ4:
		zw := lz4.NewWriter(bw)
		body, closer = zw, zw
	case CompressionZSTD:
		zw, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		body, closer = zw, zw
	default:
		return fmt.Errorf("unknown compression %d", c)
	}

	if err := encodeBody(body, t); err != nil {
		if closer != nil {
			closer.Close()
		}
		return err
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeBody(w io.Writer, t *Table) error {
	e := &encoder{w: w}
	e.uvarint(uint64(t.NumColumns()))
	for _, c := range t.Columns() {
		e.text(c.Name)
		switch {
		case c.Kind == Int:
			e.byte(tagInt)
		case c.Kind == Float:
			e.byte(tagFloat)
		case c.Kind == Text && c.Width > 0:
			e.byte(tagFixedText)
			e.uvarint(uint64(c.Width))
		case c.Kind == Text:
			e.byte(tagText)
		default:
			return fmt.Errorf("column %s: unknown kind %v", c.Name, c.Kind)
		}
	}
	e.uvarint(uint64(t.NumRows()))
	for _, c := range t.Columns() {
		switch c.Kind {
		case Int:
			for _, v := range c.Ints {
				e.u64(uint64(v))
			}
		case Float:
			for _, v := range c.Floats {
				e.u64(math.Float64bits(v))
			}
		case Text:
			for _, s := range c.Texts {
				if c.Width == 0 {
					e.text(s)
					continue
				}
				if len(s) > c.Width {
					return fmt.Errorf("column %s: value %q exceeds width %d", c.Name, s, c.Width)
				}
				buf := make([]byte, c.Width)
				copy(buf, s)
				e.raw(buf)
			}
		}
	}
	return e.err
}

type encoder struct {
	w   io.Writer
	buf [binary.MaxVarintLen64]byte
	err error
}

func (e *encoder) raw(b []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *encoder) byte(b byte) { e.raw([]byte{b}) }

func (e *encoder) uvarint(v uint64) {
	n := binary.PutUvarint(e.buf[:], v)
	e.raw(e.buf[:n])
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	e.raw(e.buf[:8])
}

func (e *encoder) text(s string) {
	e.uvarint(uint64(len(s)))
	e.raw([]byte(s))
}

// Decode reads a dataset file from r and names the table name.
// Fixed-width text is converted to UTF-8 text here, once.
func Decode(r io.Reader, name string) (*Table, error) {
	br := bufio.NewReader(r)
	var hdr [5]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		return nil, ErrBadMagic
	}

	var body io.Reader
	switch Compression(hdr[4]) {
	case CompressionNone:
		body = br
	case CompressionLZ4:
		body = bufio.NewReader(lz4.NewReader(br))
	case CompressionZSTD:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer zr.Close()
		body = bufio.NewReader(zr)
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, hdr[4])
	}

	d := &decoder{r: body.(io.ByteReader), rr: body}
	t, err := d.table(name)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	return t, nil
}

type decoder struct {
	r  io.ByteReader
	rr io.Reader
}

func (d *decoder) uvarint(limit uint64) (uint64, error) {
	v, err := binary.ReadUvarint(d.r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if v > limit {
		return 0, fmt.Errorf("%w: value %d exceeds %d", ErrCorrupt, v, limit)
	}
	return v, nil
}

// bytes reads exactly n bytes. The buffer grows with the data actually
// read, so a header claiming more than the file holds fails cheaply.
func (d *decoder) bytes(n int) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, d.rr, int64(n)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return buf.Bytes(), nil
}

func (d *decoder) text(limit uint64) (string, error) {
	n, err := d.uvarint(limit)
	if err != nil {
		return "", err
	}
	b, err := d.bytes(int(n))
	if err != nil {
		return "", err
	}
	return normalizeText(b), nil
}

func (d *decoder) table(name string) (*Table, error) {
	ncols, err := d.uvarint(maxColumns)
	if err != nil {
		return nil, err
	}
	columns := make([]*Column, ncols)
	for i := range columns {
		cname, err := d.text(maxNameLen)
		if err != nil {
			return nil, err
		}
		tag, err := d.r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		c := &Column{Name: cname}
		switch tag {
		case tagInt:
			c.Kind = Int
		case tagFloat:
			c.Kind = Float
		case tagText:
			c.Kind = Text
		case tagFixedText:
			w, err := d.uvarint(maxFixedWidth)
			if err != nil {
				return nil, err
			}
			c.Kind, c.Width = Text, int(w)
		default:
			return nil, fmt.Errorf("%w: column %s has unknown type tag %d", ErrCorrupt, cname, tag)
		}
		columns[i] = c
	}

	nrows, err := d.uvarint(maxRows)
	if err != nil {
		return nil, err
	}
	n := int(nrows)
	for _, c := range columns {
		switch c.Kind {
		case Int, Float:
			raw, err := d.bytes(8 * n)
			if err != nil {
				return nil, err
			}
			if c.Kind == Int {
				c.Ints = make([]int64, n)
				for i := range c.Ints {
					c.Ints[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
				}
			} else {
				c.Floats = make([]float64, n)
				for i := range c.Floats {
					c.Floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
				}
			}
		case Text:
			if c.Width == 0 {
				c.Texts = make([]string, 0, min(n, 1024))
				for i := 0; i < n; i++ {
					s, err := d.text(maxTextLen)
					if err != nil {
						return nil, err
					}
					c.Texts = append(c.Texts, s)
				}
				continue
			}
			raw, err := d.bytes(c.Width * n)
			if err != nil {
				return nil, err
			}
			c.Texts = make([]string, n)
			for i := range c.Texts {
				c.Texts[i] = normalizeText(raw[i*c.Width : (i+1)*c.Width])
			}
		}
	}
	return New(name, columns...)
}

// normalizeText turns a stored byte string into text: trailing NUL
// padding is dropped and invalid UTF-8 is replaced.
func normalizeText(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// ReadFile loads a dataset file. The table is named after the file stem.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, strings.TrimSuffix(filepath.Base(path), Ext))
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *Table, c Compression) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if err := Encode(f, t, c); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode %s: %w", t.Name(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
