package sheet

import (
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
)

// Serialize returns the canonical record sequence of the sheet.  offset is
// the absolute stream position of the sheet's BOF record; it is needed for
// the positions INDEX stores.
func (s *Sheet) Serialize(offset int) []record.Record {
	var (
		out       []record.Record
		pos       = offset
		indexAt   = -1
		defColPos uint32
		dbcells   []uint32
	)
	emit := func(r record.Record) {
		if r.Sid == biff8.DefColWidth && defColPos == 0 {
			defColPos = uint32(pos)
		}
		out = append(out, r)
		pos += r.Size()
	}

	for _, it := range s.items {
		switch {
		case it.gen == genIndex:
			indexAt = len(out)
			out = append(out, record.Record{})
			pos += biffenc.IndexSize(s.rows.BlockCount())
		case it.gen == genDimensions:
			emit(biffenc.Dimensions(s.rows.Bounds()))
		case it.Aggregate == s.rows:
			dbcells = s.rows.IndexEntries(pos)
			s.rows.Visit(emit)
		case it.Aggregate != nil:
			it.Aggregate.Visit(emit)
		default:
			emit(it.Record)
		}
	}

	if indexAt >= 0 {
		var first, lastPlus1 uint32
		if f := s.rows.FirstRow(); f >= 0 {
			first, lastPlus1 = uint32(f), uint32(s.rows.LastRow())+1
		}
		out[indexAt] = biffenc.Index(first, lastPlus1, defColPos, dbcells)
	}
	return out
}

// Records returns the canonical record sequence for a sheet whose BOF sits
// at stream position zero.
func (s *Sheet) Records() []record.Record { return s.Serialize(0) }

// Size returns the encoded size of the serialized sheet.
func (s *Sheet) Size() int { return record.TotalSize(s.Serialize(0)) }
