package aggregate

import (
	"fmt"

	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/record"
)

// DefaultLateScanLimit is the number of records the late-member scan may look
// past the end of the contiguous span.
const DefaultLateScanLimit = 256

// Span is the classifier output handed to a builder: the records of one
// aggregate together with their absolute indices in the input sequence.
// Records are in ascending index order.
type Span struct {
	Kind    Kind
	Start   int
	Indices []int
	Records []record.Record
}

func (s *Span) add(idx int, r record.Record) {
	s.Indices = append(s.Indices, idx)
	s.Records = append(s.Records, r)
}

// Len returns the number of records in the span.
func (s *Span) Len() int { return len(s.Records) }

// Classifier decides where aggregates start and end in a record stream.
type Classifier struct {
	lateScanLimit int
	diags         *Diagnostics
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLateScanLimit bounds the late-member scan.  Zero disables it.
func WithLateScanLimit(n int) Option {
	return func(c *Classifier) {
		if n >= 0 {
			c.lateScanLimit = n
		}
	}
}

// WithDiagnostics sets the collector that receives unknown-record notices.
func WithDiagnostics(d *Diagnostics) Option {
	return func(c *Classifier) { c.diags = d }
}

// NewClassifier returns a classifier with the given options applied.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{lateScanLimit: DefaultLateScanLimit}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Detect reports whether an aggregate of kind starts at the cursor position
// and, if so, consumes and returns its span.
//
// A nil span with a nil error means no aggregate starts here; the cursor is
// left untouched.  This includes the case where the next record is a hard
// boundary.
//
// When a strict singleton repeats, detection still runs to the end of the
// span so that the caller can pass the records through, and the span is
// returned together with a *DuplicateRecordError for the first repeat.
func (c *Classifier) Detect(cur *record.Cursor, kind Kind) (*Span, error) {
	t, ok := tables[kind]
	if !ok {
		return nil, fmt.Errorf("aggregate: no membership table for kind %d", int(kind))
	}
	first, ok := cur.Peek(0)
	if !ok {
		return nil, nil
	}
	if _, member := t.members[first.Sid]; !member {
		return nil, nil
	}

	sp := &Span{Kind: kind, Start: cur.Pos()}
	tr := tracker{kind: kind, table: t}
	if t.bracketed {
		return c.detectBracketed(cur, t, sp, &tr)
	}

	stoppedAtForeign := false
loop:
	for {
		idx, ok := cur.PeekIndex(0)
		if !ok {
			break
		}
		r, _ := cur.At(idx)
		switch {
		case t.members[r.Sid] != 0:
			_, _ = cur.Next()
			sp.add(idx, r)
			tr.see(r.Sid, idx)
		case !t.noContinue && IsContinuation(r.Sid):
			_, _ = cur.Next()
			sp.add(idx, r)
		case t.boundaries[r.Sid]:
			break loop
		case !t.known(r.Sid):
			n := c.unknownRun(cur, t)
			if !cur.PeekTypeIs(n, func(r record.Record) bool { return t.members[r.Sid] != 0 }) {
				stoppedAtForeign = true
				break loop
			}
			for range n {
				i := cur.Pos()
				u, _ := cur.Next()
				sp.add(i, u)
				if t.noContinue || !IsContinuation(u.Sid) {
					c.diags.Addf(CodeUnknownRecordType, u.Sid, i, "unrecognized record inside %s passed through", kind)
				}
			}
		default:
			stoppedAtForeign = true
			break loop
		}
	}

	if stoppedAtForeign && t.lateScan && c.lateScanLimit > 0 {
		c.lateScan(cur, t, sp, &tr)
	}
	return sp, tr.err
}

// unknownRun returns the length of the run of unrecognized records (and
// their CONTINUE records) at the cursor.
func (c *Classifier) unknownRun(cur *record.Cursor, t *table) int {
	n := 0
	for {
		r, ok := cur.Peek(n)
		if !ok {
			return n
		}
		_, member := t.members[r.Sid]
		switch {
		case member || t.boundaries[r.Sid]:
			return n
		case !t.noContinue && IsContinuation(r.Sid):
			n++
		case !t.known(r.Sid):
			n++
		default:
			return n
		}
	}
}

// lateScan walks at most lateScanLimit records past the contiguous span,
// stopping at the first boundary, and claims every member found along with
// the CONTINUE records that immediately follow it.
func (c *Classifier) lateScan(cur *record.Cursor, t *table, sp *Span, tr *tracker) {
	scanned := 0
	for i := cur.Pos(); i < cur.Len() && scanned < c.lateScanLimit; i++ {
		if cur.Claimed(i) {
			continue
		}
		r, _ := cur.At(i)
		if t.boundaries[r.Sid] {
			return
		}
		scanned++
		if t.members[r.Sid] == 0 {
			continue
		}
		if _, err := cur.Claim(i); err != nil {
			return
		}
		sp.add(i, r)
		tr.see(r.Sid, i)
		for !t.noContinue && i+1 < cur.Len() && !cur.Claimed(i+1) {
			next, _ := cur.At(i + 1)
			if !IsContinuation(next.Sid) {
				break
			}
			if _, err := cur.Claim(i + 1); err != nil {
				return
			}
			sp.add(i+1, next)
			i++
		}
	}
}

func (c *Classifier) detectBracketed(cur *record.Cursor, t *table, sp *Span, tr *tracker) (*Span, error) {
	for {
		idx, ok := cur.PeekIndex(0)
		if !ok {
			return sp, &MalformedAggregateError{Kind: sp.Kind, Index: sp.Start,
				Reason: fmt.Sprintf("missing %s before end of stream", biff8.Name(t.closer))}
		}
		r, _ := cur.At(idx)
		if t.boundaries[r.Sid] {
			return sp, &MalformedAggregateError{Kind: sp.Kind, Index: idx,
				Reason: fmt.Sprintf("%s reached before %s", biff8.Name(r.Sid), biff8.Name(t.closer))}
		}
		_, _ = cur.Next()
		sp.add(idx, r)
		if t.members[r.Sid] != 0 {
			tr.see(r.Sid, idx)
		}
		if r.Sid == t.closer {
			return sp, tr.err
		}
	}
}

// tracker remembers the first index of every strict singleton seen in a
// span and records the first repeat.
type tracker struct {
	kind  Kind
	table *table
	first map[uint16]int
	err   error
}

func (tr *tracker) see(sid uint16, idx int) {
	if tr.table.members[sid] != SlotStrict {
		return
	}
	if tr.first == nil {
		tr.first = make(map[uint16]int)
	}
	if f, dup := tr.first[sid]; dup {
		if tr.err == nil {
			tr.err = &DuplicateRecordError{Kind: tr.kind, Sid: sid, Index: idx, FirstIndex: f}
		}
		return
	}
	tr.first[sid] = idx
}
