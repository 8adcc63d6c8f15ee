package rowblock

import (
	"math"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
)

// Visit walks the block in canonical order.  For each group of 32 rows it
// emits the ROW records, then every cell of those rows, then a DBCELL
// record; unrecognized record runs follow the last group in original order.
//
// A formula cell is written as FORMULA, then the records of the shared
// range groups anchored at it, then its cached STRING.
func (b *Block) Visit(v aggregate.Visitor) {
	rows := b.Rows()
	for start := 0; start < len(rows); start += RowsPerBlock {
		end := min(start+RowsPerBlock, len(rows))
		b.visitRowGroup(rows[start:end], v)
	}
	for _, run := range b.unknown {
		for _, r := range run.recs {
			v(r)
		}
	}
}

func (b *Block) visitRowGroup(rows []uint16, v aggregate.Visitor) {
	rowBlockSize := 0
	for _, row := range rows {
		rec, _ := b.Row(row)
		v(rec)
		rowBlockSize += rec.Size()
		if e, ok := b.rows[row]; ok {
			for _, t := range e.trail {
				v(t)
				rowBlockSize += t.Size()
			}
		}
	}

	// The first offset is measured from the second ROW record, every later
	// one from the first cell of the previous row.
	pos := rowBlockSize
	cellRefOffset := rowBlockSize - rowEncodedSize
	offsets := make([]uint16, 0, len(rows))
	for _, row := range rows {
		size := 0
		for _, c := range b.cells[row] {
			size += b.visitCell(c, v)
		}
		// Offsets are 16-bit; an oversized row saturates.
		offsets = append(offsets, uint16(min(cellRefOffset, math.MaxUint16)))
		cellRefOffset = size
		pos += size
	}
	v(biffenc.DBCell(uint32(pos), offsets))
}

// visitCell emits one cell and returns the number of bytes written.
func (b *Block) visitCell(c *Cell, v aggregate.Visitor) int {
	n := 0
	emit := func(r record.Record) {
		v(r)
		n += r.Size()
	}
	emit(c.Record)
	for _, t := range c.Trail {
		emit(t)
	}
	if c.Formula == nil {
		return n
	}
	for _, g := range b.shared.AnchoredAt(c.Ref) {
		for _, r := range g.Records() {
			emit(r)
		}
	}
	if c.Formula.String != nil {
		emit(*c.Formula.String)
		for _, t := range c.Formula.StringTrail {
			emit(t)
		}
	}
	return n
}

// IndexEntries returns the absolute stream positions of the DBCELL records
// the block emits, given the position at which the block starts.
func (b *Block) IndexEntries(blockOffset int) []uint32 {
	var out []uint32
	pos := blockOffset
	b.Visit(func(r record.Record) {
		if r.Sid == biff8.DBCell {
			out = append(out, uint32(pos))
		}
		pos += r.Size()
	})
	return out
}
