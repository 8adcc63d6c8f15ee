// Package customview models a worksheet custom view: the records bracketed
// by USERSVIEWBEGIN and USERSVIEWEND.  Page-settings records inside the view
// are grouped into a nested pagesettings.Block emitted where its first member
// appeared; the view-specific HEADERFOOTER record, which Excel writes in the
// sheet's own page-settings block, is attached just before USERSVIEWEND.
package customview

import (
	"errors"
	"fmt"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/pagesettings"
	"github.com/TsubasaBE/go-xls/record"
)

// item is one body element: a plain record or the nested block.
type item struct {
	rec *record.Record
	ps  *pagesettings.Block
}

// View is a custom view aggregate.
type View struct {
	begin record.Record
	id    aggregate.ViewID
	body  []item
	ps    *pagesettings.Block
	hf    []record.Record
	end   record.Record
}

// New returns an empty view with the given identifier.
func New(id aggregate.ViewID) *View {
	return &View{
		begin: biffenc.UserSViewBegin(id),
		id:    id,
		end:   biffenc.UserSViewEnd(),
	}
}

// Build constructs a view from a classifier span that starts with
// USERSVIEWBEGIN and ends with USERSVIEWEND.  The classifier is used to find
// the nested page-settings block.
func Build(span *aggregate.Span, c *aggregate.Classifier, diags *aggregate.Diagnostics) (*View, error) {
	n := span.Len()
	if n < 2 || span.Records[0].Sid != biff8.UserSViewBegin || span.Records[n-1].Sid != biff8.UserSViewEnd {
		return nil, &aggregate.MalformedAggregateError{Kind: aggregate.KindCustomView, Index: span.Start, Reason: "not bracketed by USERSVIEWBEGIN and USERSVIEWEND"}
	}
	id, ok := aggregate.ViewIDFrom(span.Records[0].Data)
	if !ok {
		return nil, &aggregate.MalformedAggregateError{Kind: aggregate.KindCustomView, Index: span.Start, Reason: "USERSVIEWBEGIN too short for a view identifier"}
	}
	v := &View{begin: span.Records[0], id: id, end: span.Records[n-1]}

	bodyRecs := span.Records[1 : n-1]
	bodyIdx := span.Indices[1 : n-1]
	cur := record.NewCursor(bodyRecs)
	for {
		if _, ok := cur.PeekIndex(0); !ok {
			break
		}
		sub, err := c.Detect(cur, aggregate.KindPageSettings)
		if err != nil {
			remapError(err, bodyIdx)
			return nil, fmt.Errorf("customview: view %s: %w", id, err)
		}
		if sub == nil {
			r, err := cur.Next()
			if err != nil {
				return nil, fmt.Errorf("customview: view %s: %w", id, err)
			}
			v.body = append(v.body, item{rec: &r})
			continue
		}
		remap(sub, bodyIdx)
		if v.ps == nil {
			ps, err := pagesettings.Build(sub, diags)
			if err != nil {
				return nil, fmt.Errorf("customview: view %s: %w", id, err)
			}
			v.ps = ps
			v.body = append(v.body, item{ps: ps})
			continue
		}
		if err := v.ps.AddLateRecords(sub); err != nil {
			return nil, fmt.Errorf("customview: view %s: %w", id, err)
		}
	}
	return v, nil
}

// remap converts span indices relative to the view body into absolute
// indices of the sheet stream.
func remap(sp *aggregate.Span, abs []int) {
	sp.Start = abs[sp.Start]
	for i, x := range sp.Indices {
		sp.Indices[i] = abs[x]
	}
}

func remapError(err error, abs []int) {
	var dup *aggregate.DuplicateRecordError
	if errors.As(err, &dup) {
		dup.Index, dup.FirstIndex = abs[dup.Index], abs[dup.FirstIndex]
	}
}

// Kind implements aggregate.Aggregate.
func (v *View) Kind() aggregate.Kind { return aggregate.KindCustomView }

// Visit emits USERSVIEWBEGIN, the body with the nested page-settings block
// in place, the attached HEADERFOOTER record and USERSVIEWEND.
func (v *View) Visit(vis aggregate.Visitor) {
	vis(v.begin)
	for _, it := range v.body {
		if it.ps != nil {
			it.ps.Visit(vis)
			continue
		}
		vis(*it.rec)
	}
	for _, r := range v.hf {
		vis(r)
	}
	vis(v.end)
}

// ID returns the view identifier stored at the start of USERSVIEWBEGIN.
func (v *View) ID() aggregate.ViewID { return v.id }

// PageSettings returns the nested page-settings block, or nil.
func (v *View) PageSettings() *pagesettings.Block { return v.ps }

// HeaderFooter returns the attached HEADERFOOTER record.
func (v *View) HeaderFooter() (record.Record, bool) {
	if len(v.hf) == 0 {
		return record.Record{}, false
	}
	return v.hf[0], true
}

// AttachHeaderFooter attaches a HEADERFOOTER run (the record followed by its
// CONTINUE records) to the view.  A view holds at most one; a second run is
// dropped and folded is reported.
func (v *View) AttachHeaderFooter(run []record.Record) (folded bool) {
	if len(run) == 0 {
		return false
	}
	if len(v.hf) > 0 {
		return true
	}
	v.hf = append([]record.Record(nil), run...)
	return false
}
