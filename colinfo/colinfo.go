// Package colinfo models the column-info block of a worksheet: a run of
// COLINFO records, each describing the width and format of a contiguous
// column range.  Records are kept sorted by first column and never overlap
// once edited through SetColumn.
package colinfo

import (
	"fmt"
	"slices"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
)

// COLINFO option bits.
const (
	OptHidden       = 0x0001
	optLevelMask    = 0x0700
	optLevelShift   = 8
	OptCollapsed    = 0x1000
	MaxOutlineLevel = 7
)

// DefaultWidth is the width, in 1/256 of a character, of a column created
// by SetColumn without an explicit width.
const DefaultWidth = 2275

// DefaultXF is the cell format index of a newly created column range.
const DefaultXF = 0x0F

// Info is a decoded COLINFO record.
type Info struct {
	First, Last uint16
	Width       uint16
	XF          uint16
	Options     uint16
}

// Hidden reports whether the columns are hidden.
func (i Info) Hidden() bool { return i.Options&OptHidden != 0 }

// Collapsed reports whether the outline group ending here is collapsed.
func (i Info) Collapsed() bool { return i.Options&OptCollapsed != 0 }

// Level returns the outline level (0-7).
func (i Info) Level() int { return int(i.Options&optLevelMask) >> optLevelShift }

// Contains reports whether col lies in the record's range.
func (i Info) Contains(col uint16) bool { return col >= i.First && col <= i.Last }

func (i Info) encode() record.Record {
	return biffenc.ColInfo(i.First, i.Last, i.Width, i.XF, i.Options)
}

// Parse decodes a COLINFO record.
func Parse(r record.Record) (Info, error) {
	var ci Info
	if r.Sid != biff8.ColInfo {
		return ci, fmt.Errorf("colinfo: %s is not a COLINFO record", biff8.Name(r.Sid))
	}
	rr := record.NewRecordReader(r.Data)
	for _, f := range []*uint16{&ci.First, &ci.Last, &ci.Width, &ci.XF, &ci.Options} {
		v, err := rr.ReadUint16()
		if err != nil {
			return ci, fmt.Errorf("colinfo: decoding COLINFO: %w", err)
		}
		*f = v
	}
	if ci.First > ci.Last {
		return ci, fmt.Errorf("colinfo: COLINFO first column %d after last column %d", ci.First, ci.Last)
	}
	return ci, nil
}

type entry struct {
	info Info
	// rec is the original record; it is re-emitted untouched until the
	// entry is edited.
	rec   *record.Record
	trail []record.Record
}

func (e *entry) record() record.Record {
	if e.rec != nil {
		return *e.rec
	}
	return e.info.encode()
}

// Block is a column-info block.
type Block struct {
	entries []*entry
	diags   *aggregate.Diagnostics
}

// New returns an empty block.
func New() *Block { return &Block{} }

// Build constructs a block from a classifier span.  CONTINUE and
// interleaved unrecognized records stay attached to the COLINFO they follow.
func Build(span *aggregate.Span, diags *aggregate.Diagnostics) (*Block, error) {
	if span == nil || span.Len() == 0 {
		return nil, &aggregate.MalformedAggregateError{Kind: aggregate.KindColumnInfo, Reason: "no member records"}
	}
	b := New()
	b.diags = diags
	if err := b.read(span); err != nil {
		return nil, err
	}
	return b, nil
}

// AddLateRecords merges COLINFO records found elsewhere in the sheet.
func (b *Block) AddLateRecords(span *aggregate.Span) error {
	if span == nil {
		return nil
	}
	return b.read(span)
}

// read parses span and commits it only when every record is valid, so a
// failed late merge leaves the block untouched.
func (b *Block) read(span *aggregate.Span) error {
	var (
		added    []*entry
		lead     []record.Record
		overlaps []aggregate.Diagnostic
	)
	for i, r := range span.Records {
		if r.Sid != biff8.ColInfo {
			switch {
			case len(added) > 0:
				last := added[len(added)-1]
				last.trail = append(last.trail, r)
			case len(b.entries) > 0:
				lead = append(lead, r)
			default:
				return &aggregate.MalformedAggregateError{Kind: aggregate.KindColumnInfo, Index: span.Start, Reason: "span does not start with COLINFO"}
			}
			continue
		}
		ci, err := Parse(r)
		if err != nil {
			return &aggregate.MalformedAggregateError{Kind: aggregate.KindColumnInfo, Index: span.Indices[i], Reason: err.Error()}
		}
		for _, e := range slices.Concat(b.entries, added) {
			if e.info.Last >= ci.First && ci.Last >= e.info.First {
				overlaps = append(overlaps, aggregate.Diagnostic{
					Code: aggregate.CodeFolded, Sid: r.Sid, Index: span.Indices[i],
					Message: fmt.Sprintf("columns %d..%d overlap an earlier COLINFO covering %d..%d", ci.First, ci.Last, e.info.First, e.info.Last),
				})
				break
			}
		}
		rec := r
		added = append(added, &entry{info: ci, rec: &rec})
	}

	if len(lead) > 0 {
		last := b.entries[len(b.entries)-1]
		last.trail = append(last.trail, lead...)
	}
	b.entries = append(b.entries, added...)
	b.sort()
	for _, d := range overlaps {
		b.diags.Add(d)
	}
	return nil
}

func (b *Block) sort() {
	slices.SortStableFunc(b.entries, func(x, y *entry) int { return int(x.info.First) - int(y.info.First) })
}

// Kind implements aggregate.Aggregate.
func (b *Block) Kind() aggregate.Kind { return aggregate.KindColumnInfo }

// Visit emits the COLINFO records sorted by first column, each followed by
// its trailing records.
func (b *Block) Visit(v aggregate.Visitor) {
	for _, e := range b.entries {
		v(e.record())
		for _, t := range e.trail {
			v(t)
		}
	}
}

// Len returns the number of COLINFO records.
func (b *Block) Len() int { return len(b.entries) }

// Columns returns the decoded records in emission order.
func (b *Block) Columns() []Info {
	out := make([]Info, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.info
	}
	return out
}

// Info returns the record covering col.
func (b *Block) Info(col uint16) (Info, bool) {
	for _, e := range b.entries {
		if e.info.Contains(col) {
			return e.info, true
		}
	}
	return Info{}, false
}

// Width returns the width of col.  The second result is false when no
// record covers the column and the sheet default applies.
func (b *Block) Width(col uint16) (uint16, bool) {
	ci, ok := b.Info(col)
	return ci.Width, ok
}

// Insert adds a record as is.  Existing records covering the same columns
// are trimmed so that ci wins.
func (b *Block) Insert(ci Info) error {
	if ci.First > ci.Last {
		return fmt.Errorf("colinfo: first column %d after last column %d", ci.First, ci.Last)
	}
	b.carve(ci.First, ci.Last)
	b.entries = append(b.entries, &entry{info: ci})
	b.sort()
	return nil
}

// carve removes [first, last] from every record, splitting records that
// straddle the range.
func (b *Block) carve(first, last uint16) {
	var out []*entry
	for _, e := range b.entries {
		ci := e.info
		if ci.Last < first || ci.First > last {
			out = append(out, e)
			continue
		}
		if ci.First < first {
			left := ci
			left.Last = first - 1
			out = append(out, &entry{info: left, trail: e.trail})
		}
		if ci.Last > last {
			right := ci
			right.First = last + 1
			out = append(out, &entry{info: right})
		}
	}
	b.entries = out
}

// ColumnUpdate selects the attributes SetColumn changes; nil fields keep
// their current value.
type ColumnUpdate struct {
	Width     *uint16
	Level     *int
	Hidden    *bool
	Collapsed *bool
}

// SetColumn changes the attributes of a single column, splitting the record
// that covers it when necessary.  A column without a record gets one with
// DefaultWidth and DefaultXF.
func (b *Block) SetColumn(col uint16, u ColumnUpdate) error {
	if u.Level != nil && (*u.Level < 0 || *u.Level > MaxOutlineLevel) {
		return fmt.Errorf("colinfo: outline level %d out of range 0..%d", *u.Level, MaxOutlineLevel)
	}
	ci, ok := b.Info(col)
	if !ok {
		ci = Info{Width: DefaultWidth, XF: DefaultXF}
	}
	next := ci
	next.First, next.Last = col, col
	if u.Width != nil {
		next.Width = *u.Width
	}
	if u.Level != nil {
		next.Options = next.Options&^optLevelMask | uint16(*u.Level)<<optLevelShift
	}
	if u.Hidden != nil {
		next.Options = setBit(next.Options, OptHidden, *u.Hidden)
	}
	if u.Collapsed != nil {
		next.Options = setBit(next.Options, OptCollapsed, *u.Collapsed)
	}
	if ok && next.Width == ci.Width && next.Options == ci.Options {
		return nil
	}
	return b.Insert(next)
}

func setBit(v, bit uint16, on bool) uint16 {
	if on {
		return v | bit
	}
	return v &^ bit
}

// MaxLevel returns the highest outline level used by any record.
func (b *Block) MaxLevel() int {
	level := 0
	for _, e := range b.entries {
		level = max(level, e.info.Level())
	}
	return level
}
