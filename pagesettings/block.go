// Package pagesettings models the page settings block of a worksheet (or of
// a custom view): page breaks, header and footer text, centering, margins,
// printer settings (PLS), SETUP, PRINTSIZE, BITMAP and the HEADERFOOTER
// records added by Excel 2007.
//
// The block keeps the original records and decodes fields on demand, so an
// untouched block re-emits byte-identical payloads.  Emission order is fixed
// and independent of input order; see Block.Visit.
package pagesettings

import (
	"errors"
	"fmt"
	"slices"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
)

// ErrHeaderFooterExists is returned by AddLateHeaderFooter when the block
// already holds a sheet-level HEADERFOOTER record.
var ErrHeaderFooterExists = errors.New("pagesettings: block already has a header/footer record")

// Margin selects one of the four page margins.
type Margin int

const (
	LeftMargin Margin = iota
	RightMargin
	TopMargin
	BottomMargin
)

var marginSids = [4]uint16{biff8.LeftMargin, biff8.RightMargin, biff8.TopMargin, biff8.BottomMargin}

// Default margins in inches, used when the block has no margin record.
var marginDefaults = [4]float64{.75, .75, 1.0, 1.0}

func (m Margin) valid() bool { return m >= LeftMargin && m <= BottomMargin }

// entry is one member record plus the records that trailed it inside the
// span (CONTINUE records and interleaved unrecognized records).
type entry struct {
	rec   record.Record
	trail []record.Record
	// index is the position in the input sequence, -1 when synthesized.
	index int
}

func (e *entry) visit(v aggregate.Visitor) {
	v(e.rec)
	for _, t := range e.trail {
		v(t)
	}
}

// Block is a page settings block.
type Block struct {
	rowBreaks    *entry
	colBreaks    *entry
	header       *entry
	footer       *entry
	hCenter      *entry
	vCenter      *entry
	margins      [4]*entry
	pls          []*entry
	setup        *entry
	printSize    *entry
	headerFooter *entry
	viewHFs      []*entry
	bitmap       *entry

	diags *aggregate.Diagnostics
}

// New returns a block with the values Excel writes for a new sheet: empty
// header and footer, no centering and the default print setup.
func New() *Block {
	return &Block{
		header:  &entry{rec: emptyText(biff8.Header), index: -1},
		footer:  &entry{rec: emptyText(biff8.Footer), index: -1},
		hCenter: &entry{rec: biffenc.Bool16(biff8.HCenter, false), index: -1},
		vCenter: &entry{rec: biffenc.Bool16(biff8.VCenter, false), index: -1},
		setup:   &entry{rec: DefaultPrintSetup().encode(), index: -1},
	}
}

// Build constructs a block from a classifier span.  A strict singleton that
// appears twice yields a *aggregate.DuplicateRecordError naming its sid.
func Build(span *aggregate.Span, diags *aggregate.Diagnostics) (*Block, error) {
	if span == nil || span.Len() == 0 {
		return nil, &aggregate.MalformedAggregateError{Kind: aggregate.KindPageSettings, Reason: "no member records"}
	}
	b := &Block{diags: diags}
	if err := b.read(span); err != nil {
		return nil, err
	}
	return b, nil
}

// AddLateRecords merges members that were found elsewhere in the sheet,
// applying the same duplicate rules as Build.  On error the block is left
// as it was.
func (b *Block) AddLateRecords(span *aggregate.Span) error {
	if span == nil {
		return nil
	}
	tmp := *b
	tmp.pls = slices.Clone(b.pls)
	tmp.viewHFs = slices.Clone(b.viewHFs)
	if err := tmp.read(span); err != nil {
		return err
	}
	*b = tmp
	return nil
}

// AddLateHeaderFooter installs a sheet-level HEADERFOOTER record that was
// found after the block.
func (b *Block) AddLateHeaderFooter(r record.Record) error {
	if r.Sid != biff8.HeaderFooter {
		return fmt.Errorf("pagesettings: unexpected header-footer record sid 0x%04X", r.Sid)
	}
	if b.headerFooter != nil {
		return ErrHeaderFooterExists
	}
	b.headerFooter = &entry{rec: r, index: -1}
	return nil
}

func (b *Block) read(span *aggregate.Span) error {
	var last *entry
	for i, r := range span.Records {
		idx := span.Start
		if i < len(span.Indices) {
			idx = span.Indices[i]
		}
		slot := b.slotFor(r.Sid)
		switch {
		case slot != nil:
			if *slot != nil {
				return &aggregate.DuplicateRecordError{Kind: aggregate.KindPageSettings, Sid: r.Sid, Index: idx, FirstIndex: (*slot).index}
			}
			*slot = &entry{rec: r, index: idx}
			last = *slot
		case r.Sid == biff8.PLS:
			last = &entry{rec: r, index: idx}
			b.pls = append(b.pls, last)
		case r.Sid == biff8.HeaderFooter:
			e, err := b.readHeaderFooter(r, idx)
			if err != nil {
				return err
			}
			if e != nil {
				last = e
			}
		case last != nil:
			last.trail = append(last.trail, r)
		default:
			return &aggregate.MalformedAggregateError{Kind: aggregate.KindPageSettings, Index: idx,
				Reason: fmt.Sprintf("%s precedes every member record", biff8.Name(r.Sid))}
		}
	}
	return nil
}

func (b *Block) readHeaderFooter(r record.Record, idx int) (*entry, error) {
	view, err := HeaderFooterView(r)
	if err != nil {
		return nil, err
	}
	if !view.IsPrimary() {
		e := &entry{rec: r, index: idx}
		b.viewHFs = append(b.viewHFs, e)
		return e, nil
	}
	if b.headerFooter != nil {
		b.diags.Addf(aggregate.CodeFolded, r.Sid, idx, "second sheet-level header/footer record folded into the first")
		return nil, nil
	}
	b.headerFooter = &entry{rec: r, index: idx}
	return b.headerFooter, nil
}

// slotFor returns the strict singleton slot for sid, or nil.
func (b *Block) slotFor(sid uint16) **entry {
	switch sid {
	case biff8.HorizontalPageBreaks:
		return &b.rowBreaks
	case biff8.VerticalPageBreaks:
		return &b.colBreaks
	case biff8.Header:
		return &b.header
	case biff8.Footer:
		return &b.footer
	case biff8.HCenter:
		return &b.hCenter
	case biff8.VCenter:
		return &b.vCenter
	case biff8.LeftMargin:
		return &b.margins[LeftMargin]
	case biff8.RightMargin:
		return &b.margins[RightMargin]
	case biff8.TopMargin:
		return &b.margins[TopMargin]
	case biff8.BottomMargin:
		return &b.margins[BottomMargin]
	case biff8.Setup:
		return &b.setup
	case biff8.Bitmap:
		return &b.bitmap
	case biff8.PrintSize:
		return &b.printSize
	}
	return nil
}

// Kind implements aggregate.Aggregate.
func (b *Block) Kind() aggregate.Kind { return aggregate.KindPageSettings }

// Visit walks the block in canonical order: row breaks, column breaks,
// HEADER, FOOTER, HCENTER, VCENTER, the four margins, every PLS with its
// CONTINUE records, SETUP, PRINTSIZE, the sheet HEADERFOOTER, HEADERFOOTER
// records not claimed by a custom view, BITMAP.
//
// Empty page break records are not written.  A missing HEADER or FOOTER is
// written as an empty record.
func (b *Block) Visit(v aggregate.Visitor) {
	visitBreaks(b.rowBreaks, v)
	visitBreaks(b.colBreaks, v)
	if b.header != nil {
		b.header.visit(v)
	} else {
		v(emptyText(biff8.Header))
	}
	if b.footer != nil {
		b.footer.visit(v)
	} else {
		v(emptyText(biff8.Footer))
	}
	for _, e := range []*entry{b.hCenter, b.vCenter, b.margins[0], b.margins[1], b.margins[2], b.margins[3]} {
		if e != nil {
			e.visit(v)
		}
	}
	for _, e := range b.pls {
		e.visit(v)
	}
	for _, e := range []*entry{b.setup, b.printSize, b.headerFooter} {
		if e != nil {
			e.visit(v)
		}
	}
	for _, e := range b.viewHFs {
		e.visit(v)
	}
	if b.bitmap != nil {
		b.bitmap.visit(v)
	}
}

func visitBreaks(e *entry, v aggregate.Visitor) {
	if e == nil {
		return
	}
	if bs, err := parseBreaks(e.rec); err == nil && len(bs) == 0 {
		for _, t := range e.trail {
			v(t)
		}
		return
	}
	e.visit(v)
}

// Synthesize fills the required HEADER and FOOTER slots with empty records
// when they are absent.  Calling it more than once has no further effect.
func (b *Block) Synthesize() {
	if b.header == nil {
		b.header = &entry{rec: emptyText(biff8.Header), index: -1}
	}
	if b.footer == nil {
		b.footer = &entry{rec: emptyText(biff8.Footer), index: -1}
	}
}

// replace swaps the record of a slot, creating the slot when needed.
func replace(slot **entry, r record.Record) {
	if *slot == nil {
		*slot = &entry{rec: r, index: -1}
		return
	}
	(*slot).rec = r
}

// ── Header / footer text ──────────────────────────────────────────────────────

// HasHeader reports whether the block holds a HEADER record.
func (b *Block) HasHeader() bool { return b.header != nil }

// HasFooter reports whether the block holds a FOOTER record.
func (b *Block) HasFooter() bool { return b.footer != nil }

// Header returns the header text; an absent record reads as "".
func (b *Block) Header() (string, error) {
	if b.header == nil {
		return "", nil
	}
	return parseText(b.header.rec)
}

// SetHeader replaces the header text.
func (b *Block) SetHeader(s string) { replace(&b.header, biffenc.Text(biff8.Header, s)) }

// Footer returns the footer text; an absent record reads as "".
func (b *Block) Footer() (string, error) {
	if b.footer == nil {
		return "", nil
	}
	return parseText(b.footer.rec)
}

// SetFooter replaces the footer text.
func (b *Block) SetFooter(s string) { replace(&b.footer, biffenc.Text(biff8.Footer, s)) }

// ── Margins and centering ─────────────────────────────────────────────────────

// Margin returns the size of margin m in inches.  When the block has no
// record for m, Excel's default is returned (.75 left/right, 1.0 top/bottom).
func (b *Block) Margin(m Margin) (float64, error) {
	if !m.valid() {
		return 0, fmt.Errorf("pagesettings: unknown margin %d", int(m))
	}
	e := b.margins[m]
	if e == nil {
		return marginDefaults[m], nil
	}
	return parseDouble(e.rec)
}

// SetMargin sets margin m to size inches.
func (b *Block) SetMargin(m Margin, size float64) error {
	if !m.valid() {
		return fmt.Errorf("pagesettings: unknown margin %d", int(m))
	}
	replace(&b.margins[m], biffenc.Margin(marginSids[m], size))
	return nil
}

// HCenter reports whether the sheet is centered horizontally when printed.
func (b *Block) HCenter() (bool, error) {
	if b.hCenter == nil {
		return false, nil
	}
	return parseFlag(b.hCenter.rec)
}

// SetHCenter sets horizontal centering.
func (b *Block) SetHCenter(v bool) { replace(&b.hCenter, biffenc.Bool16(biff8.HCenter, v)) }

// VCenter reports whether the sheet is centered vertically when printed.
func (b *Block) VCenter() (bool, error) {
	if b.vCenter == nil {
		return false, nil
	}
	return parseFlag(b.vCenter.rec)
}

// SetVCenter sets vertical centering.
func (b *Block) SetVCenter(v bool) { replace(&b.vCenter, biffenc.Bool16(biff8.VCenter, v)) }

// ── Print setup ───────────────────────────────────────────────────────────────

// PrintSetup returns the SETUP fields and whether the block holds a SETUP
// record.  Without one the defaults are returned.
func (b *Block) PrintSetup() (PrintSetup, bool, error) {
	if b.setup == nil {
		return DefaultPrintSetup(), false, nil
	}
	p, err := parsePrintSetup(b.setup.rec)
	return p, true, err
}

// SetPrintSetup replaces the SETUP record.
func (b *Block) SetPrintSetup(p PrintSetup) { replace(&b.setup, p.encode()) }

// PLSCount returns the number of PLS records in the block.
func (b *Block) PLSCount() int { return len(b.pls) }

// ── Page breaks ───────────────────────────────────────────────────────────────

func breaksOf(e *entry) []Break {
	if e == nil {
		return nil
	}
	bs, err := parseBreaks(e.rec)
	if err != nil {
		return nil
	}
	return bs
}

func sortedBreaks(e *entry) []Break {
	bs := slices.Clone(breaksOf(e))
	slices.SortFunc(bs, func(a, b Break) int { return int(a.Main) - int(b.Main) })
	return bs
}

// RowBreaks returns the manual row breaks in record order.
func (b *Block) RowBreaks() []Break { return breaksOf(b.rowBreaks) }

// ColumnBreaks returns the manual column breaks in record order.
func (b *Block) ColumnBreaks() []Break { return breaksOf(b.colBreaks) }

// SetRowBreak adds (or replaces) a break above row spanning columns
// fromCol..toCol.
func (b *Block) SetRowBreak(row, fromCol, toCol uint16) {
	bs := addBreak(sortedBreaks(b.rowBreaks), Break{Main: row, From: fromCol, To: toCol})
	replace(&b.rowBreaks, encodeBreaks(biff8.HorizontalPageBreaks, bs))
}

// RemoveRowBreak removes the break at row.
func (b *Block) RemoveRowBreak(row uint16) error {
	bs := sortedBreaks(b.rowBreaks)
	if len(bs) == 0 {
		return errors.New("pagesettings: sheet does not define any row breaks")
	}
	bs, _ = removeBreak(bs, row)
	replace(&b.rowBreaks, encodeBreaks(biff8.HorizontalPageBreaks, bs))
	return nil
}

// IsRowBroken reports whether a break sits at row.
func (b *Block) IsRowBroken(row uint16) bool {
	return slices.ContainsFunc(b.RowBreaks(), func(x Break) bool { return x.Main == row })
}

// SetColumnBreak adds (or replaces) a break left of col spanning rows
// fromRow..toRow.
func (b *Block) SetColumnBreak(col, fromRow, toRow uint16) {
	bs := addBreak(sortedBreaks(b.colBreaks), Break{Main: col, From: fromRow, To: toRow})
	replace(&b.colBreaks, encodeBreaks(biff8.VerticalPageBreaks, bs))
}

// RemoveColumnBreak removes the break at col.
func (b *Block) RemoveColumnBreak(col uint16) {
	bs, ok := removeBreak(sortedBreaks(b.colBreaks), col)
	if ok {
		replace(&b.colBreaks, encodeBreaks(biff8.VerticalPageBreaks, bs))
	}
}

// IsColumnBroken reports whether a break sits at col.
func (b *Block) IsColumnBroken(col uint16) bool {
	return slices.ContainsFunc(b.ColumnBreaks(), func(x Break) bool { return x.Main == col })
}

// ShiftRowBreaks moves the row breaks in [start, end] by count rows.
func (b *Block) ShiftRowBreaks(start, end, count int) {
	if b.rowBreaks == nil {
		return
	}
	bs := shiftBreaks(breaksOf(b.rowBreaks), start, end, count)
	replace(&b.rowBreaks, encodeBreaks(biff8.HorizontalPageBreaks, bs))
}

// ShiftColumnBreaks moves the column breaks in [start, end] by count columns.
func (b *Block) ShiftColumnBreaks(start, end, count int) {
	if b.colBreaks == nil {
		return
	}
	bs := shiftBreaks(breaksOf(b.colBreaks), start, end, count)
	replace(&b.colBreaks, encodeBreaks(biff8.VerticalPageBreaks, bs))
}

// ── HEADERFOOTER ──────────────────────────────────────────────────────────────

// HeaderFooter returns the sheet-level HEADERFOOTER record, if any.
func (b *Block) HeaderFooter() (record.Record, bool) {
	if b.headerFooter == nil {
		return record.Record{}, false
	}
	return b.headerFooter.rec, true
}

// ViewHeaderFooters returns the HEADERFOOTER records that carry a non-zero
// view identifier and have not been handed to a custom view, in original
// order.
func (b *Block) ViewHeaderFooters() []record.Record {
	out := make([]record.Record, 0, len(b.viewHFs))
	for _, e := range b.viewHFs {
		out = append(out, e.rec)
	}
	return out
}

// HeaderFooterRun is a view HEADERFOOTER record with its trailing records
// and its index in the input sequence (-1 when created in memory).
type HeaderFooterRun struct {
	Records []record.Record
	Index   int
}

// TakeViewHeaderFooters removes and returns the view HEADERFOOTER runs in
// original order.
func (b *Block) TakeViewHeaderFooters() []HeaderFooterRun {
	out := make([]HeaderFooterRun, 0, len(b.viewHFs))
	for _, e := range b.viewHFs {
		run := append([]record.Record{e.rec}, e.trail...)
		out = append(out, HeaderFooterRun{Records: run, Index: e.index})
	}
	b.viewHFs = nil
	return out
}

// KeepViewHeaderFooter puts a view HEADERFOOTER run back into the block.
// The records are emitted after the sheet-level HEADERFOOTER.
func (b *Block) KeepViewHeaderFooter(run HeaderFooterRun) {
	if len(run.Records) == 0 {
		return
	}
	b.viewHFs = append(b.viewHFs, &entry{rec: run.Records[0], trail: slices.Clone(run.Records[1:]), index: run.Index})
}
