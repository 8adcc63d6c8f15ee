package sheet_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/pagesettings"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/sheet"
)

var (
	viewA = [16]byte{0xA1, 0xA2, 0xA3, 0xA4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	viewB = [16]byte{0xB1, 0xB2, 0xB3, 0xB4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
)

func sids(recs []record.Record) []uint16 {
	out := make([]uint16, len(recs))
	for i, r := range recs {
		out[i] = r.Sid
	}
	return out
}

func bof() record.Record { return biffenc.BOF(biff8.BOFWorksheet) }

func dims() record.Record { return biffenc.Dimensions(0, 0, 0, 0) }

func TestScenarioIndexInsertedAfterBOF(t *testing.T) {
	in := []record.Record{
		bof(),
		biffenc.Text(biff8.Header, "&LSales"),
		biffenc.Text(biff8.Footer, "&LJanuary"),
		dims(),
		biffenc.Window2(),
		biffenc.EOF(),
	}
	s, err := sheet.Build(in)
	require.NoError(t, err)

	out := s.Records()
	assert.Len(t, out, len(in)+1)
	assert.Equal(t, []uint16{
		biff8.BOF, biff8.Index, biff8.Header, biff8.Footer,
		biff8.Dimensions, biff8.Window2, biff8.EOF,
	}, sids(out))
	assert.Equal(t, biffenc.Index(0, 0, 0, nil), out[1])
	assert.Equal(t, in[1], out[2])

	text, err := s.PageSettings().Header()
	require.NoError(t, err)
	assert.Equal(t, "&LSales", text)
}

func TestScenarioDuplicateHeader(t *testing.T) {
	in := []record.Record{
		bof(),
		biffenc.Text(biff8.Header, "one"),
		biffenc.Text(biff8.Header, "two"),
		biffenc.Text(biff8.Footer, ""),
		dims(),
		biffenc.Window2(),
		biffenc.EOF(),
	}
	s, err := sheet.Build(in, sheet.WithName("Sheet1"))

	var be *sheet.BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "Sheet1", be.Sheet)
	var dup *aggregate.DuplicateRecordError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, uint16(biff8.Header), dup.Sid)
	assert.Equal(t, 2, dup.Index)
	assert.Equal(t, 1, dup.FirstIndex)

	// The failed block is kept record for record; the rest still builds.
	require.NotNil(t, s)
	assert.Nil(t, s.PageSettings())
	assert.Equal(t, []uint16{
		biff8.BOF, biff8.Index, biff8.Header, biff8.Header, biff8.Footer,
		biff8.Dimensions, biff8.Window2, biff8.EOF,
	}, sids(s.Records()))
}

func TestScenarioLateMargin(t *testing.T) {
	bottom := biffenc.Margin(biff8.BottomMargin, 1.25)
	in := []record.Record{
		bof(),
		biffenc.Text(biff8.Header, ""),
		biffenc.Text(biff8.Footer, ""),
		dims(),
		bottom,
		biffenc.Window2(),
		biffenc.EOF(),
	}
	s, err := sheet.Build(in)
	require.NoError(t, err)

	out := s.Records()
	assert.Len(t, out, len(in)+1)
	assert.Equal(t, []uint16{
		biff8.BOF, biff8.Index, biff8.Header, biff8.Footer, biff8.BottomMargin,
		biff8.Dimensions, biff8.Window2, biff8.EOF,
	}, sids(out))
	m, err := s.PageSettings().Margin(pagesettings.BottomMargin)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, m, 1e-9)
}

func TestLateSpanFailureWrittenOnce(t *testing.T) {
	left := biffenc.Margin(biff8.LeftMargin, 0.5)
	in := []record.Record{
		bof(),
		biffenc.Text(biff8.Header, "a"),
		biffenc.Text(biff8.Footer, ""),
		dims(),
		biffenc.Window2(),
		left,
		biffenc.Text(biff8.Header, "b"),
		biffenc.EOF(),
	}
	s, err := sheet.Build(in, sheet.WithName("Sheet1"))
	require.Error(t, err)
	var be *sheet.BuildError
	require.True(t, errors.As(err, &be))
	assert.NotContains(t, err.Error(), "sheet: sheet:")
	assert.Contains(t, err.Error(), `sheet "Sheet1": page settings block at index 5`)

	require.NotNil(t, s)
	assert.Equal(t, []uint16{
		biff8.BOF, biff8.Index, biff8.Header, biff8.Footer,
		biff8.Dimensions, biff8.Window2, biff8.LeftMargin, biff8.Header, biff8.EOF,
	}, sids(s.Records()))

	// The block keeps only what it held before the late span.
	m, err := s.PageSettings().Margin(pagesettings.LeftMargin)
	require.NoError(t, err)
	assert.Equal(t, 0.75, m)
	text, err := s.PageSettings().Header()
	require.NoError(t, err)
	assert.Equal(t, "a", text)
}

func TestScenarioHeaderFooterViews(t *testing.T) {
	primary := biffenc.HeaderFooter([16]byte{}, "", "")
	forView := biffenc.HeaderFooter(viewA, "", "")
	in := []record.Record{
		bof(),
		biffenc.Text(biff8.Header, ""),
		biffenc.Text(biff8.Footer, ""),
		primary,
		forView,
		dims(),
		biffenc.Window2(),
		biffenc.UserSViewBegin(viewA),
		biffenc.Margin(biff8.LeftMargin, 1),
		biffenc.UserSViewEnd(),
		biffenc.EOF(),
	}
	diags := aggregate.NewDiagnostics(nil)
	s, err := sheet.Build(in, sheet.WithDiagnostics(diags))
	require.NoError(t, err)

	hf, ok := s.PageSettings().HeaderFooter()
	require.True(t, ok)
	assert.Equal(t, primary, hf)
	assert.Empty(t, s.PageSettings().ViewHeaderFooters())

	v, ok := s.View(viewA)
	require.True(t, ok)
	got, ok := v.HeaderFooter()
	require.True(t, ok)
	assert.Equal(t, forView, got)

	primaryID, err := pagesettings.HeaderFooterView(hf)
	require.NoError(t, err)
	viewID, err := pagesettings.HeaderFooterView(got)
	require.NoError(t, err)
	assert.True(t, primaryID.IsPrimary())
	assert.False(t, viewID.IsPrimary())

	assert.Equal(t, []uint16{
		biff8.BOF, biff8.Index,
		biff8.Header, biff8.Footer, biff8.HeaderFooter,
		biff8.Dimensions, biff8.Window2,
		biff8.UserSViewBegin, biff8.Header, biff8.Footer, biff8.LeftMargin, biff8.HeaderFooter, biff8.UserSViewEnd,
		biff8.EOF,
	}, sids(s.Records()))
	assert.Zero(t, diags.Count(aggregate.CodeUnresolvedCrossReference))
}

func orphanSheet() []record.Record {
	return []record.Record{
		bof(),
		biffenc.Text(biff8.Header, ""),
		biffenc.Text(biff8.Footer, ""),
		dims(),
		biffenc.Window2(),
		biffenc.UserSViewBegin(viewA),
		biffenc.UserSViewEnd(),
		biffenc.HeaderFooter(viewB, "", ""),
		biffenc.EOF(),
	}
}

func TestOrphanHeaderFooter(t *testing.T) {
	tests := []struct {
		name     string
		policy   sheet.OrphanPolicy
		attached bool
	}{
		{name: "nearest preceding", policy: sheet.NearestPreceding, attached: true},
		{name: "keep in sheet", policy: sheet.KeepInSheet, attached: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := aggregate.NewDiagnostics(nil)
			s, err := sheet.Build(orphanSheet(), sheet.WithOrphanPolicy(tt.policy), sheet.WithDiagnostics(diags))
			require.NoError(t, err)
			assert.Equal(t, 1, diags.Count(aggregate.CodeUnresolvedCrossReference))

			v, ok := s.View(viewA)
			require.True(t, ok)
			_, has := v.HeaderFooter()
			assert.Equal(t, tt.attached, has)
			assert.Equal(t, !tt.attached, len(s.PageSettings().ViewHeaderFooters()) == 1)
			assert.Len(t, s.Records(), len(orphanSheet())+1)
		})
	}
}

func TestOrphanWithoutPrecedingViewStays(t *testing.T) {
	in := []record.Record{
		bof(),
		biffenc.HeaderFooter(viewB, "", ""),
		dims(),
		biffenc.Window2(),
		biffenc.UserSViewBegin(viewA),
		biffenc.UserSViewEnd(),
		biffenc.EOF(),
	}
	s, err := sheet.Build(in)
	require.NoError(t, err)
	assert.Len(t, s.PageSettings().ViewHeaderFooters(), 1)
	v, _ := s.View(viewA)
	_, has := v.HeaderFooter()
	assert.False(t, has)
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		in     []record.Record
		nilOut bool
		reason string
	}{
		{name: "no BOF", in: []record.Record{dims(), biffenc.Window2(), biffenc.EOF()}, nilOut: true, reason: "BOF"},
		{name: "no EOF", in: []record.Record{bof(), dims(), biffenc.Window2()}, reason: "missing EOF"},
		{name: "no WINDOW2", in: []record.Record{bof(), dims(), biffenc.EOF()}, reason: "missing WINDOW2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := sheet.Build(tt.in)
			var mal *aggregate.MalformedAggregateError
			require.True(t, errors.As(err, &mal))
			assert.Equal(t, aggregate.KindSheet, mal.Kind)
			assert.Contains(t, mal.Reason, tt.reason)
			assert.Equal(t, tt.nilOut, s == nil)
		})
	}
}

func TestDimensionsSynthesized(t *testing.T) {
	in := []record.Record{
		bof(),
		biffenc.Number(2, 1, 0, 1),
		biffenc.Number(4, 3, 0, 1),
		biffenc.Window2(),
		biffenc.EOF(),
	}
	diags := aggregate.NewDiagnostics(nil)
	s, err := sheet.Build(in, sheet.WithDiagnostics(diags))
	require.NoError(t, err)
	assert.Equal(t, 1, diags.Count(aggregate.CodeSynthesized))

	out := s.Records()
	assert.Equal(t, []uint16{
		biff8.BOF, biff8.Index, biff8.Dimensions,
		biff8.Row, biff8.Row, biff8.Number, biff8.Number, biff8.DBCell,
		biff8.Window2, biff8.EOF,
	}, sids(out))
	assert.Equal(t, biffenc.Dimensions(2, 5, 1, 4), out[2])
}

func TestIndexPositions(t *testing.T) {
	in := []record.Record{
		bof(),
		biffenc.Index(0, 0, 0, nil), // stale, regenerated
		biffenc.DefColWidth(8),
		dims(),
		biffenc.Row(0, 0, 1, 0xFF, 0x100),
		biffenc.Number(0, 0, 0, 3),
		biffenc.DBCell(1, []uint16{0}),
		biffenc.Window2(),
		biffenc.EOF(),
	}
	s, err := sheet.Build(in)
	require.NoError(t, err)

	const offset = 512
	out := s.Serialize(offset)
	require.Len(t, out, len(in))

	pos := offset
	var defCol, dbcell uint32
	for _, r := range out {
		switch r.Sid {
		case biff8.DefColWidth:
			defCol = uint32(pos)
		case biff8.DBCell:
			dbcell = uint32(pos)
		}
		pos += r.Size()
	}
	assert.Equal(t, biffenc.Index(0, 1, defCol, []uint32{dbcell}), out[1])
	assert.Equal(t, biffenc.IndexSize(1), out[1].Size())
	assert.Equal(t, record.TotalSize(out), s.Size())
}

func TestSharedFormulaResolvedAcrossSheet(t *testing.T) {
	f0 := biffenc.Formula(0, 0, 0, 0, biffenc.FormulaShared, biffenc.PtgExp(0, 0))
	f1 := biffenc.Formula(1, 0, 0, 0, biffenc.FormulaShared, biffenc.PtgExp(0, 0))
	in := []record.Record{
		bof(), dims(),
		f0, biffenc.ShrFmla(0, 1, 0, 0, 2, []byte{0x1E, 1, 0}), f1,
		biffenc.Window2(), biffenc.EOF(),
	}
	s, err := sheet.Build(in)
	require.NoError(t, err)

	c, ok := s.Rows().Cell(1, 0)
	require.True(t, ok)
	require.NotNil(t, c.Formula.Shared)
	assert.Equal(t, 2, c.Formula.Shared.Members())
	assert.Zero(t, s.Diagnostics().Count(aggregate.CodeUnresolvedCrossReference))
}

func TestUnknownRecordsPassThrough(t *testing.T) {
	unk := record.New(0x0FFE, []byte{1})
	in := []record.Record{bof(), unk, dims(), biffenc.Window2(), biffenc.EOF()}
	s, err := sheet.Build(in)
	require.NoError(t, err)
	out := s.Records()
	assert.Equal(t, unk, out[2])
	assert.Len(t, out, len(in)+1)
}

func TestParseOrphanPolicy(t *testing.T) {
	p, err := sheet.ParseOrphanPolicy("keep-in-sheet")
	require.NoError(t, err)
	assert.Equal(t, sheet.KeepInSheet, p)
	p, err = sheet.ParseOrphanPolicy("")
	require.NoError(t, err)
	assert.Equal(t, sheet.NearestPreceding, p)
	_, err = sheet.ParseOrphanPolicy("closest")
	assert.Error(t, err)
	assert.Equal(t, "nearest-preceding", sheet.NearestPreceding.String())
}
