// Package rowblock models the row/cell block of a worksheet: ROW records,
// cell value records, formula aggregates (FORMULA plus its shared range
// record and cached STRING), and unrecognized record runs found between
// cells.
//
// On emission rows are written in blocks of 32: the ROW records, then the
// cells of those rows in row and column order, then a freshly computed
// DBCELL.  DBCELL records present in the input are discarded.
package rowblock

import (
	"errors"
	"fmt"
	"slices"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/sharedvalue"
)

// RowsPerBlock is the number of rows that share one DBCELL record.
const RowsPerBlock = 32

// ErrRowExists is returned by InsertRow when the row already has a ROW
// record and replacement was not requested.
var ErrRowExists = errors.New("rowblock: row already exists")

// FormulaCell carries the formula-specific parts of a cell.
type FormulaCell struct {
	// Shared is the group the cell was associated with by ResolveShared,
	// or nil for a plain formula.
	Shared *sharedvalue.Group
	// String is the cached string result that followed the FORMULA record.
	String      *record.Record
	StringTrail []record.Record
}

// Cell is one cell value record.
type Cell struct {
	Ref     sharedvalue.CellRef
	LastCol uint16
	Record  record.Record
	Trail   []record.Record
	Formula *FormulaCell

	seq int
}

// unknownRun is a run of unrecognized records with their CONTINUEs.
type unknownRun struct {
	recs []record.Record
}

type rowEntry struct {
	rec   record.Record
	trail []record.Record
	index int
}

// Block is a row/cell block.
type Block struct {
	rows    map[uint16]*rowEntry
	cells   map[uint16][]*Cell
	unknown []*unknownRun
	shared  *sharedvalue.Table
	seq     int
	diags   *aggregate.Diagnostics
}

// New returns an empty block.
func New() *Block {
	return &Block{
		rows:   make(map[uint16]*rowEntry),
		cells:  make(map[uint16][]*Cell),
		shared: sharedvalue.NewTable(),
	}
}

// Build constructs a block from a classifier span.  Shared ranges are
// registered but not yet resolved; call ResolveShared once every aggregate
// of the sheet has been built.
func Build(span *aggregate.Span, diags *aggregate.Diagnostics) (*Block, error) {
	if span == nil || span.Len() == 0 {
		return nil, &aggregate.MalformedAggregateError{Kind: aggregate.KindRowBlock, Reason: "no member records"}
	}
	b := New()
	b.diags = diags
	if err := b.read(span); err != nil {
		return nil, err
	}
	return b, nil
}

// AddLateRecords merges row block members found elsewhere in the sheet,
// applying the same rules as Build.  On error the block is left as it was.
func (b *Block) AddLateRecords(span *aggregate.Span) error {
	if span == nil {
		return nil
	}
	if err := b.check(span); err != nil {
		return err
	}
	return b.read(span)
}

// check returns the error read would fail with on span, without touching
// the block.
func (b *Block) check(span *aggregate.Span) error {
	seen := make(map[uint16]int)
	for i, r := range span.Records {
		idx := span.Start
		if i < len(span.Indices) {
			idx = span.Indices[i]
		}
		switch {
		case r.Sid == biff8.Row:
			row, err := rowIndex(r)
			if err != nil {
				return err
			}
			first, dup := seen[row]
			if prev, ok := b.rows[row]; ok {
				first, dup = prev.index, true
			}
			if dup {
				return &aggregate.DuplicateRecordError{Kind: aggregate.KindRowBlock, Sid: r.Sid, Index: idx, FirstIndex: first}
			}
			seen[row] = idx
		case isValueRecord(r.Sid):
			if _, _, err := cellSpan(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Block) read(span *aggregate.Span) error {
	var (
		trail       *[]record.Record
		lastFormula *Cell
	)
	for i, r := range span.Records {
		idx := span.Start
		if i < len(span.Indices) {
			idx = span.Indices[i]
		}
		b.seq = max(b.seq, idx+1)

		switch {
		case r.Sid == biff8.Row:
			row, err := rowIndex(r)
			if err != nil {
				return err
			}
			if prev, dup := b.rows[row]; dup {
				return &aggregate.DuplicateRecordError{Kind: aggregate.KindRowBlock, Sid: r.Sid, Index: idx, FirstIndex: prev.index}
			}
			e := &rowEntry{rec: r, index: idx}
			b.rows[row] = e
			trail, lastFormula = &e.trail, nil

		case r.Sid == biff8.DBCell:
			// Regenerated on emission.
			trail, lastFormula = nil, nil

		case isValueRecord(r.Sid):
			c, err := newCell(r, idx)
			if err != nil {
				return err
			}
			if old, ok := b.Cell(c.Ref.Row, c.Ref.Col); ok {
				b.diags.Addf(aggregate.CodeFolded, r.Sid, idx, "cell %s repeats the record at index %d and replaces it", c.Ref, old.seq)
				if c.Formula == nil {
					b.releaseGroups(old, idx)
				}
			}
			b.putCell(c)
			trail = &c.Trail
			lastFormula = nil
			if c.Formula != nil {
				lastFormula = c
			}

		case r.Sid == biff8.ShrFmla || r.Sid == biff8.Array || r.Sid == biff8.Table:
			if lastFormula == nil {
				b.diags.Addf(aggregate.CodeUnresolvedCrossReference, r.Sid, idx, "shared range record does not follow a formula")
				trail = b.addUnknown(r)
				continue
			}
			g, err := b.shared.Register(r, lastFormula.Ref)
			if err != nil {
				b.diags.Addf(aggregate.CodeUnresolvedCrossReference, r.Sid, idx, "%v", err)
				trail = b.addUnknown(r)
				lastFormula = nil
				continue
			}
			trail = &g.Trail

		case r.Sid == biff8.String:
			if lastFormula == nil || lastFormula.Formula.String != nil {
				b.diags.Addf(aggregate.CodeUnresolvedCrossReference, r.Sid, idx, "STRING record does not follow a formula")
				trail = b.addUnknown(r)
				lastFormula = nil
				continue
			}
			s := r
			lastFormula.Formula.String = &s
			trail = &lastFormula.Formula.StringTrail

		case aggregate.IsContinuation(r.Sid) && trail != nil:
			*trail = append(*trail, r)

		default:
			// Unrecognized record, or a CONTINUE with nothing to attach to.
			// Either way it starts an atomic run that keeps its own CONTINUEs.
			trail = b.addUnknown(r)
			lastFormula = nil
		}
	}
	return nil
}

func newCell(r record.Record, idx int) (*Cell, error) {
	ref, last, err := cellSpan(r)
	if err != nil {
		return nil, err
	}
	c := &Cell{Ref: ref, LastCol: last, Record: r, seq: idx}
	if r.Sid == biff8.Formula {
		c.Formula = &FormulaCell{}
	}
	return c, nil
}

// releaseGroups moves the groups anchored at a replaced formula cell to
// unrecognized runs, so their records are still written once.
func (b *Block) releaseGroups(old *Cell, idx int) {
	if old.Formula == nil {
		return
	}
	for _, g := range slices.Clone(b.shared.AnchoredAt(old.Ref)) {
		b.shared.Remove(g)
		b.unknown = append(b.unknown, &unknownRun{recs: g.Records()})
		b.diags.Addf(aggregate.CodeUnresolvedCrossReference, g.Record.Sid, idx,
			"%s anchored at %s lost its formula cell and is kept as an unrecognized run", g.Kind, old.Ref)
	}
}

func (b *Block) addUnknown(r record.Record) *[]record.Record {
	run := &unknownRun{recs: []record.Record{r}}
	b.unknown = append(b.unknown, run)
	return &run.recs
}

func (b *Block) putCell(c *Cell) {
	row := b.cells[c.Ref.Row]
	i, found := slices.BinarySearchFunc(row, c.Ref.Col, func(x *Cell, col uint16) int { return int(x.Ref.Col) - int(col) })
	if found {
		row[i] = c
	} else {
		row = slices.Insert(row, i, c)
	}
	b.cells[c.Ref.Row] = row
}

// Kind implements aggregate.Aggregate.
func (b *Block) Kind() aggregate.Kind { return aggregate.KindRowBlock }

// Shared returns the shared range table of the block.
func (b *Block) Shared() *sharedvalue.Table { return b.shared }

// UnknownRuns returns the unrecognized record runs in original order.
func (b *Block) UnknownRuns() [][]record.Record {
	out := make([][]record.Record, len(b.unknown))
	for i, run := range b.unknown {
		out[i] = slices.Clone(run.recs)
	}
	return out
}

// ResolveShared associates formula cells with shared range groups.  Cells
// are offered in their original stream order; cells inserted later follow
// in insertion order.
func (b *Block) ResolveShared(diags *aggregate.Diagnostics) {
	var formulas []*Cell
	for _, row := range b.cells {
		for _, c := range row {
			if c.Formula != nil {
				formulas = append(formulas, c)
			}
		}
	}
	slices.SortFunc(formulas, func(x, y *Cell) int { return x.seq - y.seq })

	cands := make([]sharedvalue.Candidate, len(formulas))
	for i, c := range formulas {
		exp, ok := ExpReference(c.Record)
		cands[i] = sharedvalue.Candidate{
			Ref:    c.Ref,
			Shared: formulaRefersToGroup(c.Record),
			Exp:    exp,
			HasExp: ok,
			Index:  c.seq,
		}
	}
	for i, g := range b.shared.Resolve(cands, diags) {
		formulas[i].Formula.Shared = g
	}
}

// ── Rows ──────────────────────────────────────────────────────────────────────

// InsertRow adds a ROW record.  When the row already has one, the call
// fails with ErrRowExists unless replace is set.
func (b *Block) InsertRow(r record.Record, replace bool) error {
	row, err := rowIndex(r)
	if err != nil {
		return err
	}
	if r.Sid != biff8.Row {
		return fmt.Errorf("rowblock: %s is not a ROW record", biff8.Name(r.Sid))
	}
	if _, ok := b.rows[row]; ok && !replace {
		return fmt.Errorf("%w: row %d", ErrRowExists, row)
	}
	b.rows[row] = &rowEntry{rec: r, index: -1}
	return nil
}

// RemoveRow removes the ROW record of row together with its cells and the
// shared range groups anchored at them.  It reports whether anything was
// removed.
func (b *Block) RemoveRow(row uint16) bool {
	_, hadRow := b.rows[row]
	delete(b.rows, row)
	cells := b.cells[row]
	for _, c := range cells {
		b.dropGroups(c)
	}
	delete(b.cells, row)
	return hadRow || len(cells) > 0
}

// Row returns the ROW record of row.  Rows that only have cells report an
// implied record.
func (b *Block) Row(row uint16) (record.Record, bool) {
	if e, ok := b.rows[row]; ok {
		return e.rec, true
	}
	if cells := b.cells[row]; len(cells) > 0 {
		return b.impliedRow(row), true
	}
	return record.Record{}, false
}

func (b *Block) impliedRow(row uint16) record.Record {
	cells := b.cells[row]
	first, last := cells[0].Ref.Col, cells[0].LastCol
	for _, c := range cells[1:] {
		last = max(last, c.LastCol)
	}
	return DefaultRow(row, first, last+1)
}

// Rows returns the indices of every row that has a ROW record or a cell, in
// ascending order.
func (b *Block) Rows() []uint16 {
	out := make([]uint16, 0, len(b.rows)+len(b.cells))
	for r := range b.rows {
		out = append(out, r)
	}
	for r, cells := range b.cells {
		if _, ok := b.rows[r]; !ok && len(cells) > 0 {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}

// FirstRow returns the lowest row index, or -1 for an empty block.
func (b *Block) FirstRow() int {
	rows := b.Rows()
	if len(rows) == 0 {
		return -1
	}
	return int(rows[0])
}

// LastRow returns the highest row index, or -1 for an empty block.
func (b *Block) LastRow() int {
	rows := b.Rows()
	if len(rows) == 0 {
		return -1
	}
	return int(rows[len(rows)-1])
}

// BlockCount returns the number of 32-row blocks written on emission.
func (b *Block) BlockCount() int {
	n := len(b.Rows())
	return (n + RowsPerBlock - 1) / RowsPerBlock
}

// Bounds returns the used range in the form DIMENSIONS stores it: first
// row, last row + 1, first column, last column + 1.  An empty block yields
// all zeros.
func (b *Block) Bounds() (firstRow, lastRowPlus1 uint32, firstCol, lastColPlus1 uint16) {
	haveCol := false
	for _, cells := range b.cells {
		for _, c := range cells {
			if !haveCol || c.Ref.Col < firstCol {
				firstCol = c.Ref.Col
			}
			if !haveCol || c.LastCol+1 > lastColPlus1 {
				lastColPlus1 = c.LastCol + 1
			}
			haveCol = true
		}
	}
	if first := b.FirstRow(); first >= 0 {
		firstRow = uint32(first)
		lastRowPlus1 = uint32(b.LastRow()) + 1
	}
	return firstRow, lastRowPlus1, firstCol, lastColPlus1
}

// ── Cells ─────────────────────────────────────────────────────────────────────

// InsertCell adds a value record, replacing any cell at the same
// coordinates.
func (b *Block) InsertCell(r record.Record) error {
	if !isValueRecord(r.Sid) {
		return fmt.Errorf("rowblock: %s is not a cell record", biff8.Name(r.Sid))
	}
	b.seq++
	c, err := newCell(r, b.seq+1<<24)
	if err != nil {
		return err
	}
	if old, ok := b.Cell(c.Ref.Row, c.Ref.Col); ok {
		b.dropGroups(old)
	}
	b.putCell(c)
	return nil
}

// RemoveCell removes the cell at (row, col) and the groups anchored at it.
func (b *Block) RemoveCell(row, col uint16) bool {
	cells := b.cells[row]
	i := slices.IndexFunc(cells, func(c *Cell) bool { return c.Ref.Col == col })
	if i < 0 {
		return false
	}
	b.dropGroups(cells[i])
	cells = slices.Delete(cells, i, i+1)
	if len(cells) == 0 {
		delete(b.cells, row)
	} else {
		b.cells[row] = cells
	}
	return true
}

func (b *Block) dropGroups(c *Cell) {
	if c.Formula == nil {
		return
	}
	for _, g := range slices.Clone(b.shared.AnchoredAt(c.Ref)) {
		b.shared.Remove(g)
		for _, cells := range b.cells {
			for _, x := range cells {
				if x.Formula != nil && x.Formula.Shared == g {
					x.Formula.Shared = nil
				}
			}
		}
	}
}

// Cell returns the cell at (row, col).  A MULRK or MULBLANK record is found
// at any column it covers.
func (b *Block) Cell(row, col uint16) (*Cell, bool) {
	for _, c := range b.cells[row] {
		if col >= c.Ref.Col && col <= c.LastCol {
			return c, true
		}
	}
	return nil, false
}

// CellsInRow returns the cells of row in column order.
func (b *Block) CellsInRow(row uint16) []*Cell {
	return slices.Clone(b.cells[row])
}
