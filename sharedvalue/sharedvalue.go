// Package sharedvalue tracks the shared range groups of a worksheet (SHRFMLA,
// ARRAY and TABLE records) and associates formula cells with them.
//
// Every group is anchored at the FORMULA record written immediately before
// its defining record.  Association works by anchor identity: a group only
// starts claiming cells once the cell at its anchor has been seen, the
// anchor cell always belongs to its own group, and a cell whose PtgExp names
// an anchor belongs to the group at that anchor.  Range containment, first
// registered group first, is only the fallback for cells without a usable
// PtgExp.
package sharedvalue

import (
	"fmt"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/record"
)

// Kind is the type of a shared range group.
type Kind int

const (
	Formula Kind = iota + 1
	Array
	DataTable
)

func (k Kind) String() string {
	switch k {
	case Formula:
		return "shared formula"
	case Array:
		return "array formula"
	case DataTable:
		return "data table"
	}
	return "unknown group"
}

// KindOf maps a defining record sid to its group kind.
func KindOf(sid uint16) (Kind, bool) {
	switch sid {
	case biff8.ShrFmla:
		return Formula, true
	case biff8.Array:
		return Array, true
	case biff8.Table:
		return DataTable, true
	}
	return 0, false
}

// CellRef is a zero-based cell coordinate.
type CellRef struct {
	Row uint16
	Col uint16
}

func (c CellRef) String() string {
	return fmt.Sprintf("R%dC%d", int(c.Row)+1, int(c.Col)+1)
}

// Range is an inclusive rectangular cell range.
type Range struct {
	FirstRow, LastRow uint16
	FirstCol, LastCol uint16
}

// Contains reports whether c lies inside r.
func (r Range) Contains(c CellRef) bool {
	return c.Row >= r.FirstRow && c.Row <= r.LastRow && c.Col >= r.FirstCol && c.Col <= r.LastCol
}

// Overlaps reports whether r and o share at least one cell.
func (r Range) Overlaps(o Range) bool {
	return r.FirstRow <= o.LastRow && o.FirstRow <= r.LastRow && r.FirstCol <= o.LastCol && o.FirstCol <= r.LastCol
}

// ParseRange decodes the RefU range that opens SHRFMLA, ARRAY and TABLE
// payloads (two 16-bit rows followed by two 8-bit columns).
func ParseRange(data []byte) (Range, error) {
	rr := record.NewRecordReader(data)
	var g Range
	var err error
	if g.FirstRow, err = rr.ReadUint16(); err != nil {
		return g, fmt.Errorf("sharedvalue: decoding range: %w", err)
	}
	if g.LastRow, err = rr.ReadUint16(); err != nil {
		return g, fmt.Errorf("sharedvalue: decoding range: %w", err)
	}
	fc, err := rr.ReadUint8()
	if err != nil {
		return g, fmt.Errorf("sharedvalue: decoding range: %w", err)
	}
	lc, err := rr.ReadUint8()
	if err != nil {
		return g, fmt.Errorf("sharedvalue: decoding range: %w", err)
	}
	g.FirstCol, g.LastCol = uint16(fc), uint16(lc)
	if g.FirstRow > g.LastRow || g.FirstCol > g.LastCol {
		return g, fmt.Errorf("sharedvalue: inverted range rows %d..%d cols %d..%d", g.FirstRow, g.LastRow, g.FirstCol, g.LastCol)
	}
	return g, nil
}

// Group is one shared range group.
type Group struct {
	Kind   Kind
	Range  Range
	Anchor CellRef
	// Record is the defining SHRFMLA, ARRAY or TABLE record; Trail holds the
	// CONTINUE records that followed it.
	Record record.Record
	Trail  []record.Record
	// Seq is the registration (stream) order within the table.
	Seq int

	bound   bool
	members int
}

// Bound reports whether the anchor cell has been seen by Resolve.
func (g *Group) Bound() bool { return g.bound }

// Members returns the number of cells associated with g, anchor included.
func (g *Group) Members() int { return g.members }

// Records returns the defining record followed by its trail.
func (g *Group) Records() []record.Record {
	return append([]record.Record{g.Record}, g.Trail...)
}

// Table holds the groups of one sheet in registration order.
type Table struct {
	groups   []*Group
	byAnchor map[CellRef][]*Group
	seq      int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byAnchor: make(map[CellRef][]*Group)}
}

// Register adds the group defined by rec, anchored at anchor.
func (t *Table) Register(rec record.Record, anchor CellRef) (*Group, error) {
	kind, ok := KindOf(rec.Sid)
	if !ok {
		return nil, fmt.Errorf("sharedvalue: %s does not define a shared range", biff8.Name(rec.Sid))
	}
	rng, err := ParseRange(rec.Data)
	if err != nil {
		return nil, err
	}
	if !rng.Contains(anchor) {
		return nil, fmt.Errorf("sharedvalue: %s range rows %d..%d cols %d..%d does not contain anchor %s",
			kind, rng.FirstRow, rng.LastRow, rng.FirstCol, rng.LastCol, anchor)
	}
	g := &Group{Kind: kind, Range: rng, Anchor: anchor, Record: rec, Seq: t.seq}
	t.seq++
	t.groups = append(t.groups, g)
	t.byAnchor[anchor] = append(t.byAnchor[anchor], g)
	return g, nil
}

// Groups returns all groups in registration order.
func (t *Table) Groups() []*Group {
	out := make([]*Group, len(t.groups))
	copy(out, t.groups)
	return out
}

// Len returns the number of registered groups.
func (t *Table) Len() int { return len(t.groups) }

// AnchoredAt returns the groups anchored at c in registration order.
func (t *Table) AnchoredAt(c CellRef) []*Group {
	return t.byAnchor[c]
}

// Remove drops g from the table.
func (t *Table) Remove(g *Group) {
	for i, x := range t.groups {
		if x == g {
			t.groups = append(t.groups[:i], t.groups[i+1:]...)
			break
		}
	}
	list := t.byAnchor[g.Anchor]
	for i, x := range list {
		if x == g {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(t.byAnchor, g.Anchor)
	} else {
		t.byAnchor[g.Anchor] = list
	}
}

// Candidate is a formula cell offered to Resolve.
type Candidate struct {
	Ref CellRef
	// Shared marks a cell whose formula refers to a shared range (the
	// fShrFmla flag or a leading PtgExp token).
	Shared bool
	// Exp is the anchor named by a leading PtgExp token; HasExp is false
	// when the formula does not start with one.
	Exp    CellRef
	HasExp bool
	// Index is the cell's position in the input sequence, used in
	// diagnostics.
	Index int
}

// Resolve associates candidates, given in stream order, with groups.  The
// result has one entry per candidate; nil means the cell stays a plain
// formula.
//
// A candidate at the anchor of an unbound group binds that group and
// belongs to it.  A later shared candidate goes to the bound group anchored
// at its PtgExp reference; failing that, to the first-registered bound group
// whose range contains it.  A shared candidate that no bound group covers is
// recorded as an unresolved cross reference.
func (t *Table) Resolve(cands []Candidate, diags *aggregate.Diagnostics) []*Group {
	for _, g := range t.groups {
		g.bound = false
		g.members = 0
	}
	var bound []*Group
	out := make([]*Group, len(cands))
	for i, c := range cands {
		anchored := t.byAnchor[c.Ref]
		for _, g := range anchored {
			if !g.bound {
				g.bound = true
				bound = insertBySeq(bound, g)
			}
		}
		switch {
		case len(anchored) > 0:
			out[i] = anchored[0]
		case !c.Shared:
			continue
		case c.HasExp:
			out[i] = boundAt(t.byAnchor[c.Exp], c.Ref)
		}
		if out[i] == nil {
			for _, g := range bound {
				if g.Range.Contains(c.Ref) {
					out[i] = g
					break
				}
			}
		}
		if out[i] == nil {
			diags.Addf(aggregate.CodeUnresolvedCrossReference, biff8.Formula, c.Index,
				"formula at %s refers to a shared range but no group covers it", c.Ref)
			continue
		}
		out[i].members++
	}
	for _, g := range t.groups {
		if !g.bound {
			diags.Addf(aggregate.CodeUnresolvedCrossReference, g.Record.Sid, -1,
				"%s anchored at %s never matched a formula cell", g.Kind, g.Anchor)
		}
	}
	return out
}

// boundAt returns the first bound group in list whose range contains c.
func boundAt(list []*Group, c CellRef) *Group {
	for _, g := range list {
		if g.bound && g.Range.Contains(c) {
			return g
		}
	}
	return nil
}

func insertBySeq(list []*Group, g *Group) []*Group {
	i := len(list)
	for i > 0 && list[i-1].Seq > g.Seq {
		i--
	}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = g
	return list
}
