// Package sheet builds a worksheet substream (BOF … EOF) into its
// aggregates and re-emits it in canonical order.
//
// Building runs in two phases.  The local phase walks the records once,
// asking the classifier at every position whether a custom view, page
// settings, column info or row block aggregate starts there; everything else
// is kept as a passthrough record in its original position.  The resolution
// phase runs after every aggregate exists: formula cells are associated with
// shared range groups and view-specific HEADERFOOTER records are moved into
// their custom views.
//
// INDEX and DBCELL records are never taken from the input; both are
// recomputed by Serialize from the emitted layout.
package sheet

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/colinfo"
	"github.com/TsubasaBE/go-xls/customview"
	"github.com/TsubasaBE/go-xls/pagesettings"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/rowblock"
)

// BuildError is returned by Build when one or more aggregates of a sheet
// could not be built.  Err combines the individual errors; errors.As finds
// each *aggregate.DuplicateRecordError or *aggregate.MalformedAggregateError
// inside it.
type BuildError struct {
	Sheet string
	Err   error
}

func (e *BuildError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("sheet: %v", e.Err)
	}
	return fmt.Sprintf("sheet %q: %v", e.Sheet, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

type generated int

const (
	notGenerated generated = iota
	genIndex
	genDimensions
)

// Item is one element of the sheet layout: an aggregate, a passthrough
// record, or a placeholder for a record computed on serialization.
type Item struct {
	// Aggregate is nil for passthrough records.
	Aggregate aggregate.Aggregate
	Record    record.Record
	gen       generated
}

// Generated reports whether the item's record is computed by Serialize
// rather than taken from the input.
func (it Item) Generated() bool { return it.gen != notGenerated }

// Sheet is a built worksheet.
type Sheet struct {
	name         string
	items        []Item
	pageSettings *pagesettings.Block
	rows         *rowblock.Block
	cols         *colinfo.Block
	views        []*customview.View
	viewStart    []int
	diags        *aggregate.Diagnostics
	log          *zap.Logger
}

// Build groups the records of one worksheet substream, which must start
// with BOF.
//
// An aggregate that fails to build is kept as passthrough records and the
// remaining aggregates are still built; in that case the sheet is returned
// together with a *BuildError.  A substream that does not start with BOF
// yields a nil sheet.
func Build(recs []record.Record, opts ...Option) (*Sheet, error) {
	o := options{lateScanLimit: aggregate.DefaultLateScanLimit, log: zap.NewNop()}
	for _, f := range opts {
		f(&o)
	}
	log := o.log.With(zap.String("sheet", o.name))
	diags := o.diags
	if diags == nil {
		diags = aggregate.NewDiagnostics(log)
	}

	s := &Sheet{name: o.name, diags: diags, log: log}
	b := &builder{
		s:   s,
		cur: record.NewCursor(recs),
		cls: aggregate.NewClassifier(aggregate.WithLateScanLimit(o.lateScanLimit), aggregate.WithDiagnostics(diags)),
	}
	if first, ok := b.cur.Peek(0); !ok || first.Sid != biff8.BOF {
		return nil, &BuildError{Sheet: o.name, Err: &aggregate.MalformedAggregateError{
			Kind: aggregate.KindSheet, Reason: "substream does not start with BOF"}}
	}

	err := b.local()
	s.synthesize()
	s.resolve(o.orphan)

	log.Debug("Sheet built",
		zap.Int("records", len(recs)),
		zap.Int("items", len(s.items)),
		zap.Int("diagnostics", diags.Len()),
		zap.Int("views", len(s.views)),
	)
	if err != nil {
		return s, &BuildError{Sheet: o.name, Err: err}
	}
	return s, nil
}

type builder struct {
	s   *Sheet
	cur *record.Cursor
	cls *aggregate.Classifier
}

// local runs the first phase.
func (b *builder) local() error {
	s := b.s
	bof, _ := b.cur.Next()
	s.items = append(s.items, Item{Record: bof}, Item{gen: genIndex})

	var (
		errs       error
		sawEOF     bool
		sawWindow2 bool
	)
loop:
	for {
		idx, ok := b.cur.PeekIndex(0)
		if !ok {
			break
		}
		r, _ := b.cur.At(idx)
		switch r.Sid {
		case biff8.Index, biff8.DBCell:
			_, _ = b.cur.Next()
			continue
		case biff8.EOF:
			_, _ = b.cur.Next()
			s.items = append(s.items, Item{Record: r})
			sawEOF = true
			break loop
		case biff8.Window2:
			sawWindow2 = true
		}

		handled, err := b.aggregate(idx)
		errs = multierr.Append(errs, err)
		if handled {
			continue
		}
		_, _ = b.cur.Next()
		s.items = append(s.items, Item{Record: r})
	}

	for {
		idx, ok := b.cur.PeekIndex(0)
		if !ok {
			break
		}
		r, _ := b.cur.Next()
		s.diags.Addf(aggregate.CodeUnknownRecordType, r.Sid, idx, "record after EOF passed through")
		s.items = append(s.items, Item{Record: r})
	}
	if !sawEOF {
		errs = multierr.Append(errs, &aggregate.MalformedAggregateError{
			Kind: aggregate.KindSheet, Index: b.cur.Len(), Reason: "missing EOF"})
	}
	if !sawWindow2 {
		errs = multierr.Append(errs, &aggregate.MalformedAggregateError{
			Kind: aggregate.KindSheet, Index: b.cur.Len(), Reason: "missing WINDOW2"})
	}
	return errs
}

// aggregate probes every sheet aggregate kind at the cursor.  It reports
// whether records were consumed.
func (b *builder) aggregate(idx int) (bool, error) {
	for _, kind := range aggregate.SheetKinds() {
		span, err := b.cls.Detect(b.cur, kind)
		if span == nil {
			if err != nil {
				return false, err
			}
			continue
		}
		if err == nil {
			err = b.build(kind, span)
		}
		if err != nil {
			b.s.log.Warn("Aggregate kept as passthrough records",
				zap.Stringer("kind", kind), zap.Int("index", idx), zap.Error(err))
			for _, r := range span.Records {
				b.s.items = append(b.s.items, Item{Record: r})
			}
			return true, fmt.Errorf("%s at index %d: %w", kind, idx, err)
		}
		return true, nil
	}
	return false, nil
}

func (b *builder) build(kind aggregate.Kind, span *aggregate.Span) error {
	s := b.s
	switch kind {
	case aggregate.KindCustomView:
		v, err := customview.Build(span, b.cls, s.diags)
		if err != nil {
			return err
		}
		s.views = append(s.views, v)
		s.viewStart = append(s.viewStart, span.Start)
		s.items = append(s.items, Item{Aggregate: v})

	case aggregate.KindPageSettings:
		if s.pageSettings != nil {
			return b.latePageSettings(span)
		}
		ps, err := pagesettings.Build(span, s.diags)
		if err != nil {
			return err
		}
		s.pageSettings = ps
		s.items = append(s.items, Item{Aggregate: ps})

	case aggregate.KindColumnInfo:
		if s.cols != nil {
			return s.cols.AddLateRecords(span)
		}
		cols, err := colinfo.Build(span, s.diags)
		if err != nil {
			return err
		}
		s.cols = cols
		s.items = append(s.items, Item{Aggregate: cols})

	case aggregate.KindRowBlock:
		if s.rows != nil {
			return s.rows.AddLateRecords(span)
		}
		rows, err := rowblock.Build(span, s.diags)
		if err != nil {
			return err
		}
		s.rows = rows
		s.items = append(s.items, Item{Aggregate: rows})

	default:
		return fmt.Errorf("sheet: unexpected aggregate kind %s", kind)
	}
	return nil
}

// latePageSettings merges page-settings members found after the block was
// built.  A lone sheet-level HEADERFOOTER takes the dedicated path so that a
// second one is folded instead of failing the block.
func (b *builder) latePageSettings(span *aggregate.Span) error {
	s := b.s
	if span.Len() == 1 && span.Records[0].Sid == biff8.HeaderFooter {
		r := span.Records[0]
		if id, err := pagesettings.HeaderFooterView(r); err == nil && id.IsPrimary() {
			err := s.pageSettings.AddLateHeaderFooter(r)
			if errors.Is(err, pagesettings.ErrHeaderFooterExists) {
				s.diags.Addf(aggregate.CodeFolded, r.Sid, span.Start, "second sheet HEADERFOOTER folded into the first")
				return nil
			}
			return err
		}
	}
	return s.pageSettings.AddLateRecords(span)
}

// ── Accessors ─────────────────────────────────────────────────────────────────

// Name returns the sheet name given to Build.
func (s *Sheet) Name() string { return s.name }

// Items returns the sheet layout in emission order.
func (s *Sheet) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// PageSettings returns the sheet's page-settings block, or nil.
func (s *Sheet) PageSettings() *pagesettings.Block { return s.pageSettings }

// Rows returns the row block.  Every built sheet has one, synthesized empty
// when the input had no cells.
func (s *Sheet) Rows() *rowblock.Block { return s.rows }

// Columns returns the column-info block, or nil.
func (s *Sheet) Columns() *colinfo.Block { return s.cols }

// Views returns the custom views in stream order.
func (s *Sheet) Views() []*customview.View {
	out := make([]*customview.View, len(s.views))
	copy(out, s.views)
	return out
}

// View returns the custom view with the given identifier.
func (s *Sheet) View(id aggregate.ViewID) (*customview.View, bool) {
	for _, v := range s.views {
		if v.ID() == id {
			return v, true
		}
	}
	return nil, false
}

// Diagnostics returns the soft conditions recorded while building.
func (s *Sheet) Diagnostics() *aggregate.Diagnostics { return s.diags }
