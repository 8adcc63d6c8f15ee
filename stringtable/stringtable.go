// Package stringtable parses the BIFF8 shared string table (the SST record
// and its CONTINUE records) of a workbook globals substream and provides
// indexed access to the strings LABELSST cells refer to.
package stringtable

import (
	"fmt"
	"io"

	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/record"
)

// String option flags.
const (
	flagHighByte = 0x01
	flagExtSt    = 0x04
	flagRichSt   = 0x08
)

// StringTable holds the shared strings of a workbook.
type StringTable struct {
	total   uint32
	strings []string
}

// New parses an SST record followed by its CONTINUE records.  A string may
// be split across a record boundary; when the split falls inside the
// characters, the next record starts with a fresh option byte.
//
// A truncated table is not fatal: the strings decoded so far are kept and
// the error is returned alongside them.
func New(recs []record.Record) (*StringTable, error) {
	if len(recs) == 0 || recs[0].Sid != biff8.SST {
		return nil, fmt.Errorf("stringtable: sequence does not start with SST")
	}
	segs := make([][]byte, 0, len(recs))
	for i, r := range recs {
		if i > 0 && r.Sid != biff8.Continue {
			break
		}
		segs = append(segs, r.Data)
	}
	sr := &segReader{segs: segs}

	st := &StringTable{}
	var err error
	if st.total, err = sr.uint32(); err != nil {
		return st, fmt.Errorf("stringtable: SST header: %w", err)
	}
	unique, err := sr.uint32()
	if err != nil {
		return st, fmt.Errorf("stringtable: SST header: %w", err)
	}
	st.strings = make([]string, 0, min(int(unique), 1<<16))
	for i := range int(unique) {
		s, err := sr.str()
		if err != nil {
			return st, fmt.Errorf("stringtable: string %d of %d: %w", i, unique, err)
		}
		st.strings = append(st.strings, s)
	}
	return st, nil
}

// Get returns the shared string at index idx.  It panics if idx is out of
// range, matching the behaviour of a slice index.
func (st *StringTable) Get(idx int) string {
	return st.strings[idx]
}

// Lookup returns the shared string at index idx and whether it exists.
func (st *StringTable) Lookup(idx int) (string, bool) {
	if st == nil || idx < 0 || idx >= len(st.strings) {
		return "", false
	}
	return st.strings[idx], true
}

// Len returns the number of unique strings loaded.
func (st *StringTable) Len() int {
	if st == nil {
		return 0
	}
	return len(st.strings)
}

// Total returns the number of string references the SST header declares.
func (st *StringTable) Total() uint32 { return st.total }

// segReader reads across the payloads of an SST and its CONTINUE records.
type segReader struct {
	segs [][]byte
	seg  int
	pos  int
}

func (r *segReader) avail() int {
	if r.seg >= len(r.segs) {
		return 0
	}
	return len(r.segs[r.seg]) - r.pos
}

func (r *segReader) next() bool {
	if r.seg+1 >= len(r.segs) {
		r.seg = len(r.segs)
		return false
	}
	r.seg++
	r.pos = 0
	return true
}

// bytes reads n bytes, crossing record boundaries without any marker.
func (r *segReader) bytes(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for n > 0 {
		if r.avail() == 0 && !r.next() {
			return nil, io.ErrUnexpectedEOF
		}
		k := min(n, r.avail())
		out = append(out, r.segs[r.seg][r.pos:r.pos+k]...)
		r.pos += k
		n -= k
	}
	return out, nil
}

func (r *segReader) uint8() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *segReader) uint16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (r *segReader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// str reads one XLUnicodeRichExtendedString.
func (r *segReader) str() (string, error) {
	cch, err := r.uint16()
	if err != nil {
		return "", err
	}
	opts, err := r.uint8()
	if err != nil {
		return "", err
	}
	var runs, ext int
	if opts&flagRichSt != 0 {
		n, err := r.uint16()
		if err != nil {
			return "", err
		}
		runs = int(n)
	}
	if opts&flagExtSt != 0 {
		n, err := r.uint32()
		if err != nil {
			return "", err
		}
		ext = int(n)
	}
	s, err := r.chars(int(cch), opts&flagHighByte != 0)
	if err != nil {
		return "", err
	}
	if _, err := r.bytes(runs*4 + ext); err != nil {
		return "", err
	}
	return s, nil
}

// chars reads n characters.  At a record boundary inside the characters the
// next record begins with an option byte that may switch the width.
func (r *segReader) chars(n int, wide bool) (string, error) {
	var out string
	for n > 0 {
		if r.avail() == 0 {
			if !r.next() {
				return "", io.ErrUnexpectedEOF
			}
			opts, err := r.uint8()
			if err != nil {
				return "", err
			}
			wide = opts&flagHighByte != 0
		}
		width := 1
		if wide {
			width = 2
		}
		k := min(n, r.avail()/width)
		if k == 0 {
			return "", fmt.Errorf("split character at record boundary: %w", io.ErrUnexpectedEOF)
		}
		rr := record.NewRecordReader(r.segs[r.seg][r.pos : r.pos+k*width])
		s, err := rr.ReadChars(k, wide)
		if err != nil {
			return "", err
		}
		out += s
		r.pos += k * width
		n -= k
	}
	return out, nil
}
