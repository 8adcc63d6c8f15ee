// Package slidetext models the children of a PowerPoint SlideListWithText
// container.  The children are segmented into slide atom sets: each set
// starts at a SlidePersistAtom and holds the text atoms that follow it up to
// the next SlidePersistAtom.
package slidetext

import (
	"fmt"
	"slices"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/record"
)

// FirstSlideID is the identifier given to the first slide of a list.
const FirstSlideID = 256

// Set is one slide atom set.
type Set struct {
	persist SlidePersist
	Persist record.Record
	Records []record.Record
}

// SlideID returns the slide identifier of the set.
func (s *Set) SlideID() int32 { return s.persist.SlideID }

// RefID returns the persist reference of the slide.
func (s *Set) RefID() uint32 { return s.persist.RefID }

// Texts returns the text runs of the set in order.
func (s *Set) Texts() []string {
	var out []string
	for _, r := range s.Records {
		if t, ok := Text(r); ok {
			out = append(out, t)
		}
	}
	return out
}

// List is a segmented SlideListWithText.
type List struct {
	// Options is the version/instance word of the container.
	Options uint16
	leading []record.Record
	sets    []*Set
	diags   *aggregate.Diagnostics
}

// New returns an empty list for the given instance.
func New(instance uint16) *List {
	return &List{Options: containerVersion | instance<<4}
}

// Parse decodes a SlideListWithText container record.
func Parse(container record.Record, diags *aggregate.Diagnostics) (*List, error) {
	if container.Sid != aggregate.PPTSlideListWithText {
		return nil, fmt.Errorf("slidetext: record type %d is not a SlideListWithText", container.Sid)
	}
	children, err := ParseChildren(container.Data)
	if err != nil {
		return nil, err
	}
	l, err := Build(children, diags)
	if err != nil {
		return nil, err
	}
	l.Options = container.Options
	return l, nil
}

// Build segments the children of a SlideListWithText.  Records before the
// first SlidePersistAtom are kept in front; unrecognized records after the
// last member stay with the last set.  A list without SlidePersistAtom is
// legal and has no sets.
func Build(children []record.Record, diags *aggregate.Diagnostics) (*List, error) {
	l := &List{Options: containerVersion, diags: diags}
	cls := aggregate.NewClassifier(aggregate.WithDiagnostics(diags))
	cur := record.NewCursor(children)
	for {
		if _, ok := cur.PeekIndex(0); !ok {
			break
		}
		span, err := cls.Detect(cur, aggregate.KindSlideText)
		if err != nil {
			return nil, fmt.Errorf("slidetext: %w", err)
		}
		if span == nil {
			r, _ := cur.Next()
			l.appendLoose(r)
			continue
		}
		for i, r := range span.Records {
			if err := l.add(r, span.Indices[i]); err != nil {
				return nil, err
			}
		}
	}
	l.checkDuplicates()
	return l, nil
}

func (l *List) add(r record.Record, idx int) error {
	if r.Sid == aggregate.PPTSlidePersistAtom {
		p, err := ParseSlidePersist(r)
		if err != nil {
			return &aggregate.MalformedAggregateError{Kind: aggregate.KindSlideText, Index: idx, Reason: err.Error()}
		}
		l.sets = append(l.sets, &Set{persist: p, Persist: r})
		return nil
	}
	l.appendLoose(r)
	return nil
}

func (l *List) appendLoose(r record.Record) {
	if len(l.sets) == 0 {
		l.leading = append(l.leading, r)
		return
	}
	last := l.sets[len(l.sets)-1]
	last.Records = append(last.Records, r)
}

func (l *List) checkDuplicates() {
	seen := make(map[int32]int)
	for i, s := range l.sets {
		if first, dup := seen[s.SlideID()]; dup {
			l.diags.Addf(aggregate.CodeDuplicateID, aggregate.PPTSlidePersistAtom, i,
				"two slide atom sets for slide %d (sets %d and %d); lookups use the first", s.SlideID(), first, i)
			continue
		}
		seen[s.SlideID()] = i
	}
}

// Kind implements aggregate.Aggregate.
func (l *List) Kind() aggregate.Kind { return aggregate.KindSlideText }

// Visit emits the leading records, then every set's SlidePersistAtom
// followed by its records.
func (l *List) Visit(v aggregate.Visitor) {
	for _, r := range l.leading {
		v(r)
	}
	for _, s := range l.sets {
		v(s.Persist)
		for _, r := range s.Records {
			v(r)
		}
	}
}

// Records returns the children in emission order.
func (l *List) Records() []record.Record { return aggregate.Records(l) }

// Encode returns the whole SlideListWithText container, header included.
func (l *List) Encode() []byte {
	body := Encode(l.Records())
	c := record.Record{Sid: aggregate.PPTSlideListWithText, Data: body, Options: l.Options}
	return Encode([]record.Record{c})
}

// Sets returns the slide atom sets in order.
func (l *List) Sets() []*Set { return slices.Clone(l.sets) }

// Len returns the number of sets.
func (l *List) Len() int { return len(l.sets) }

// SetBySlideID returns the first set with the given slide identifier.
func (l *List) SetBySlideID(id int32) (*Set, bool) {
	for _, s := range l.sets {
		if s.SlideID() == id {
			return s, true
		}
	}
	return nil, false
}

// AddSlide appends an empty set for a new slide and returns its
// identifier: one past the highest non-master identifier, and never below
// FirstSlideID.
func (l *List) AddSlide(refID uint32) int32 {
	id := int32(FirstSlideID)
	for _, s := range l.sets {
		if s.SlideID() >= 0 {
			id = max(id, s.SlideID()+1)
		}
	}
	p := SlidePersist{RefID: refID, SlideID: id}
	l.sets = append(l.sets, &Set{persist: p, Persist: p.Record()})
	return id
}

// RemoveSlide removes the set at index i.
func (l *List) RemoveSlide(i int) error {
	if i < 0 || i >= len(l.sets) {
		return fmt.Errorf("slidetext: slide index %d out of range 0..%d", i, len(l.sets)-1)
	}
	l.sets = slices.Delete(l.sets, i, i+1)
	return nil
}

// Reorder swaps the sets at indices i and j; set order is slide order.
func (l *List) Reorder(i, j int) error {
	if i < 0 || j < 0 || i >= len(l.sets) || j >= len(l.sets) {
		return fmt.Errorf("slidetext: slide indices %d and %d must be in 0..%d", i, j, len(l.sets)-1)
	}
	l.sets[i], l.sets[j] = l.sets[j], l.sets[i]
	return nil
}
