package record

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoRecord is returned by Cursor.Next when every record has been consumed.
var ErrNoRecord = errors.New("record: no record left")

// Predicate reports whether a record matches some condition.
type Predicate func(Record) bool

// SidIs returns a predicate matching any of the given sids.
func SidIs(sids ...uint16) Predicate {
	return func(r Record) bool {
		return slices.Contains(sids, r.Sid)
	}
}

// Cursor is a forward-only reader over an already decoded record list with
// bounded lookahead.
//
// Besides in-order consumption, records ahead of the current position can be
// claimed out of order (the late-member scan of the aggregate classifier uses
// this).  Claimed records are skipped by every later Peek, Next and
// ConsumeWhile call.  The underlying slice is never modified, so one slice
// may back several cursors on different goroutines.
type Cursor struct {
	recs    []Record
	pos     int
	claimed map[int]struct{}
}

// NewCursor returns a cursor positioned at the first record of recs.
func NewCursor(recs []Record) *Cursor {
	return &Cursor{recs: recs}
}

// Len returns the total number of records, consumed or not.
func (c *Cursor) Len() int { return len(c.recs) }

// At returns the record at absolute index i regardless of cursor state.
func (c *Cursor) At(i int) (Record, bool) {
	if i < 0 || i >= len(c.recs) {
		return Record{}, false
	}
	return c.recs[i], true
}

// Pos returns the absolute index of the next record Next would return, or
// Len() when the cursor is exhausted.
func (c *Cursor) Pos() int {
	c.skipClaimed()
	return c.pos
}

// Remaining returns the number of records not yet consumed or claimed.
func (c *Cursor) Remaining() int {
	n := 0
	for i := c.pos; i < len(c.recs); i++ {
		if !c.isClaimed(i) {
			n++
		}
	}
	return n
}

// Peek returns the k-th unconsumed record ahead (k = 0 is the next record).
// It reports false rather than panicking when k is out of range.
func (c *Cursor) Peek(k int) (Record, bool) {
	i, ok := c.PeekIndex(k)
	if !ok {
		return Record{}, false
	}
	return c.recs[i], true
}

// PeekIndex returns the absolute index of the k-th unconsumed record ahead.
func (c *Cursor) PeekIndex(k int) (int, bool) {
	if k < 0 {
		return 0, false
	}
	for i := c.pos; i < len(c.recs); i++ {
		if c.isClaimed(i) {
			continue
		}
		if k == 0 {
			return i, true
		}
		k--
	}
	return 0, false
}

// PeekTypeIs reports whether the k-th record ahead exists and satisfies pred.
func (c *Cursor) PeekTypeIs(k int, pred Predicate) bool {
	r, ok := c.Peek(k)
	return ok && pred(r)
}

// Next consumes and returns the next record.
func (c *Cursor) Next() (Record, error) {
	c.skipClaimed()
	if c.pos >= len(c.recs) {
		return Record{}, ErrNoRecord
	}
	r := c.recs[c.pos]
	c.pos++
	return r, nil
}

// ConsumeWhile consumes records for as long as pred holds and returns them.
func (c *Cursor) ConsumeWhile(pred Predicate) []Record {
	var out []Record
	for {
		r, ok := c.Peek(0)
		if !ok || !pred(r) {
			return out
		}
		out = append(out, r)
		_, _ = c.Next()
	}
}

// Claim consumes the record at absolute index i, which must lie ahead of the
// current position and must not have been claimed already.
func (c *Cursor) Claim(i int) (Record, error) {
	c.skipClaimed()
	if i < c.pos || i >= len(c.recs) {
		return Record{}, fmt.Errorf("record: cannot claim index %d (position %d, length %d)", i, c.pos, len(c.recs))
	}
	if c.isClaimed(i) {
		return Record{}, fmt.Errorf("record: index %d already claimed", i)
	}
	if i == c.pos {
		c.pos++
		return c.recs[i], nil
	}
	if c.claimed == nil {
		c.claimed = make(map[int]struct{})
	}
	c.claimed[i] = struct{}{}
	return c.recs[i], nil
}

// Claimed reports whether index i was taken by Claim ahead of the cursor.
func (c *Cursor) Claimed(i int) bool {
	return c.isClaimed(i)
}

func (c *Cursor) isClaimed(i int) bool {
	_, ok := c.claimed[i]
	return ok
}

func (c *Cursor) skipClaimed() {
	for c.pos < len(c.recs) && c.isClaimed(c.pos) {
		delete(c.claimed, c.pos)
		c.pos++
	}
}
