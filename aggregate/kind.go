// Package aggregate groups a flat record stream into the aggregates that the
// builders in the sibling packages (pagesettings, rowblock, colinfo,
// customview, slidetext) turn into normalized in-memory models.
//
// Classification is table-driven: each Kind owns a static membership table
// that maps a record sid to its slot policy, plus the set of hard boundary
// sids that terminate the aggregate.  KindOf is a pure function of the sid.
package aggregate

import (
	"github.com/TsubasaBE/go-xls/biff8"
)

// Kind enumerates the aggregate kinds.
type Kind int

const (
	KindPageSettings Kind = iota + 1
	KindRowBlock
	KindColumnInfo
	KindCustomView
	KindSlideText
	// KindSheet reports structural problems of a whole sheet substream.  It
	// has no membership table.
	KindSheet
)

// String returns the human readable aggregate name used in errors and logs.
func (k Kind) String() string {
	switch k {
	case KindPageSettings:
		return "page settings block"
	case KindRowBlock:
		return "row block"
	case KindColumnInfo:
		return "column info block"
	case KindCustomView:
		return "custom view"
	case KindSlideText:
		return "slide text group"
	case KindSheet:
		return "sheet substream"
	}
	return "unknown aggregate"
}

// Slot describes how repeated occurrences of a member sid are treated.
type Slot int

const (
	// SlotStrict members may occur at most once per aggregate.
	SlotStrict Slot = iota + 1
	// SlotTolerant members are conceptually singular but every occurrence is
	// kept in original order (PLS).
	SlotTolerant
	// SlotRepeatable members legally recur (cells, COLINFO, text atoms).
	SlotRepeatable
	// SlotViewKeyed members are singular per 16-byte view identifier; the
	// builder and resolver decide what a repeat means (HEADERFOOTER).
	SlotViewKeyed
)

// PowerPoint record types that make up a SlideListWithText container.
const (
	PPTSlideListWithText     = 4080
	PPTSlidePersistAtom      = 1011
	PPTTextHeaderAtom        = 3999
	PPTTextCharsAtom         = 4000
	PPTStyleTextPropAtom     = 4001
	PPTMasterTextPropAtom    = 4002
	PPTTextRulerAtom         = 4006
	PPTTextBookmarkAtom      = 4007
	PPTTextBytesAtom         = 4008
	PPTTextSpecInfoAtom      = 4010
	PPTTxInteractiveInfoAtom = 4063
	PPTInteractiveInfo       = 4082
)

// table is the static description of one aggregate kind.
type table struct {
	members    map[uint16]Slot
	boundaries map[uint16]bool
	// bracketed kinds run from their opening member up to and including
	// closer; everything in between belongs to them.
	bracketed bool
	closer    uint16
	// lateScan enables the bounded scan for members past foreign records.
	lateScan bool
	// known reports whether a non-member sid is a recognized foreign record
	// (terminates the contiguous span) rather than an unrecognized one
	// (tolerated between members).
	known func(uint16) bool
	// noContinue disables CONTINUE handling for streams that have no such
	// record.
	noContinue bool
}

func set(sids ...uint16) map[uint16]bool {
	m := make(map[uint16]bool, len(sids))
	for _, s := range sids {
		m[s] = true
	}
	return m
}

func slots(slot Slot, sids ...uint16) map[uint16]Slot {
	m := make(map[uint16]Slot, len(sids))
	for _, s := range sids {
		m[s] = slot
	}
	return m
}

func merge(ms ...map[uint16]Slot) map[uint16]Slot {
	out := make(map[uint16]Slot)
	for _, m := range ms {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

var tables = map[Kind]*table{
	KindPageSettings: {
		members: merge(
			slots(SlotStrict,
				biff8.HorizontalPageBreaks, biff8.VerticalPageBreaks,
				biff8.Header, biff8.Footer, biff8.HCenter, biff8.VCenter,
				biff8.LeftMargin, biff8.RightMargin, biff8.TopMargin, biff8.BottomMargin,
				biff8.Setup, biff8.Bitmap, biff8.PrintSize),
			slots(SlotTolerant, biff8.PLS),
			slots(SlotViewKeyed, biff8.HeaderFooter),
		),
		boundaries: set(biff8.BOF, biff8.EOF, biff8.Window2, biff8.UserSViewBegin, biff8.UserSViewEnd),
		lateScan:   true,
		known:      biff8.Known,
	},
	KindRowBlock: {
		members: slots(SlotRepeatable,
			biff8.Row, biff8.Blank, biff8.Number, biff8.Label, biff8.BoolErr,
			biff8.Formula, biff8.String, biff8.RK, biff8.MulRK, biff8.MulBlank,
			biff8.LabelSST, biff8.RString, biff8.ShrFmla, biff8.Array, biff8.Table,
			biff8.DBCell),
		boundaries: set(biff8.BOF, biff8.EOF, biff8.Window2, biff8.UserSViewBegin),
		lateScan:   true,
		known:      biff8.Known,
	},
	KindColumnInfo: {
		members:    slots(SlotRepeatable, biff8.ColInfo),
		boundaries: set(biff8.BOF, biff8.EOF, biff8.Window2),
		lateScan:   true,
		known:      biff8.Known,
	},
	KindCustomView: {
		members:    slots(SlotStrict, biff8.UserSViewBegin),
		boundaries: set(biff8.BOF, biff8.EOF),
		bracketed:  true,
		closer:     biff8.UserSViewEnd,
		known:      biff8.Known,
	},
	KindSlideText: {
		members: slots(SlotRepeatable,
			PPTSlidePersistAtom, PPTTextHeaderAtom, PPTTextCharsAtom,
			PPTStyleTextPropAtom, PPTMasterTextPropAtom, PPTTextRulerAtom,
			PPTTextBookmarkAtom, PPTTextBytesAtom, PPTTextSpecInfoAtom,
			PPTTxInteractiveInfoAtom, PPTInteractiveInfo),
		boundaries: set(),
		// Inside a SlideListWithText container every non-member child is
		// an unrecognized record.
		known:      func(uint16) bool { return false },
		noContinue: true,
	},
}

// sheetKinds is the order in which KindOf and the sheet builder probe the
// worksheet aggregate kinds.
var sheetKinds = []Kind{KindCustomView, KindPageSettings, KindColumnInfo, KindRowBlock}

// SheetKinds returns the worksheet aggregate kinds in probe order.
func SheetKinds() []Kind {
	out := make([]Kind, len(sheetKinds))
	copy(out, sheetKinds)
	return out
}

// KindOf returns the worksheet aggregate kind that sid starts or belongs to.
// Slide text atoms live in a different stream and are never reported here.
func KindOf(sid uint16) (Kind, bool) {
	for _, k := range sheetKinds {
		if _, ok := tables[k].members[sid]; ok {
			return k, true
		}
	}
	return 0, false
}

// SlotOf returns the slot policy of sid within kind.
func SlotOf(kind Kind, sid uint16) (Slot, bool) {
	t, ok := tables[kind]
	if !ok {
		return 0, false
	}
	s, ok := t.members[sid]
	return s, ok
}

// IsMember reports whether sid is a member of kind.
func IsMember(kind Kind, sid uint16) bool {
	_, ok := SlotOf(kind, sid)
	return ok
}

// IsBoundary reports whether sid terminates an aggregate of kind.
func IsBoundary(kind Kind, sid uint16) bool {
	t, ok := tables[kind]
	return ok && t.boundaries[sid]
}

// IsContinuation reports whether sid is the generic CONTINUE record that
// extends whatever record precedes it.
func IsContinuation(sid uint16) bool {
	return sid == biff8.Continue
}
