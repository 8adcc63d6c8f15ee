package pagesettings_test

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
)

func span(t *testing.T, recs ...record.Record) *aggregate.Span {
	t.Helper()
	cur := record.NewCursor(recs)
	sp, err := aggregate.NewClassifier().Detect(cur, aggregate.KindPageSettings)
	require.NoError(t, err)
	require.NotNil(t, sp)
	return sp
}

func sids(recs []record.Record) []uint16 {
	out := make([]uint16, len(recs))
	for i, r := range recs {
		out[i] = r.Sid
	}
	return out
}

func build(t *testing.T, recs ...record.Record) *pagesettings.Block {
	t.Helper()
	b, err := pagesettings.Build(span(t, recs...), nil)
	require.NoError(t, err)
	return b
}

func TestCanonicalOrderIgnoresInputOrder(t *testing.T) {
	b := build(t,
		biffenc.Margin(biff8.BottomMargin, 1.5),
		record.Record{Sid: biff8.Setup, Data: make([]byte, 34)},
		biffenc.Margin(biff8.LeftMargin, 0.25),
		biffenc.Text(biff8.Footer, "&CPage &P"),
		biffenc.Bool16(biff8.VCenter, true),
		biffenc.Text(biff8.Header, "&LSales"),
		biffenc.Bool16(biff8.HCenter, false),
		biffenc.HeaderFooter([16]byte{}, "", ""),
	)
	got := sids(aggregate.Records(b))
	assert.Equal(t, []uint16{
		biff8.Header, biff8.Footer, biff8.HCenter, biff8.VCenter,
		biff8.LeftMargin, biff8.BottomMargin, biff8.Setup, biff8.HeaderFooter,
	}, got)

	h, err := b.Header()
	require.NoError(t, err)
	assert.Equal(t, "&LSales", h)
	m, err := b.Margin(pagesettings.BottomMargin)
	require.NoError(t, err)
	assert.Equal(t, 1.5, m)
	v, err := b.VCenter()
	require.NoError(t, err)
	assert.True(t, v)
}

func TestMissingHeaderFooterSynthesized(t *testing.T) {
	b := build(t, biffenc.Margin(biff8.TopMargin, 1))
	assert.False(t, b.HasHeader())

	recs := aggregate.Records(b)
	require.Equal(t, []uint16{biff8.Header, biff8.Footer, biff8.TopMargin}, sids(recs))
	assert.Empty(t, recs[0].Data)
	assert.Empty(t, recs[1].Data)

	b.Synthesize()
	once := aggregate.Records(b)
	b.Synthesize()
	twice := aggregate.Records(b)
	assert.Equal(t, once, twice)
	assert.True(t, b.HasHeader())
	assert.True(t, b.HasFooter())
}

func TestRoundTripEqual(t *testing.T) {
	b := build(t,
		biffenc.Text(biff8.Header, "&LSales"),
		biffenc.Text(biff8.Footer, "&LJanuary"),
		biffenc.Margin(biff8.RightMargin, 0.3),
		record.Record{Sid: biff8.PLS, Data: []byte{1, 2, 3}},
		biffenc.Continue([]byte{4}),
	)
	first := aggregate.Records(b)
	again := build(t, first...)
	assert.Equal(t, first, aggregate.Records(again))
}

func TestDuplicateHeader(t *testing.T) {
	cur := record.NewCursor([]record.Record{
		biffenc.Text(biff8.Header, "&LSales"),
		biffenc.Text(biff8.Header, "&LOther"),
		biffenc.Text(biff8.Footer, ""),
	})
	sp, _ := aggregate.NewClassifier().Detect(cur, aggregate.KindPageSettings)
	require.NotNil(t, sp)

	_, err := pagesettings.Build(sp, nil)
	var dup *aggregate.DuplicateRecordError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, uint16(biff8.Header), dup.Sid)
	assert.Equal(t, 0, dup.FirstIndex)
	assert.Equal(t, 1, dup.Index)
}

func TestBuildEmptySpan(t *testing.T) {
	_, err := pagesettings.Build(&aggregate.Span{Kind: aggregate.KindPageSettings}, nil)
	var mal *aggregate.MalformedAggregateError
	assert.True(t, errors.As(err, &mal))
}

func TestPLSOrderPreserved(t *testing.T) {
	b := build(t,
		record.Record{Sid: biff8.PLS, Data: []byte{1}},
		biffenc.Continue([]byte{0xA}),
		biffenc.Text(biff8.Header, ""),
		record.Record{Sid: biff8.PLS, Data: []byte{2}},
		biffenc.Margin(biff8.TopMargin, 1),
		record.Record{Sid: biff8.PLS, Data: []byte{3}},
		biffenc.Continue([]byte{0xB}),
		biffenc.Continue([]byte{0xC}),
	)
	assert.Equal(t, 3, b.PLSCount())

	var plsRun []byte
	for _, r := range aggregate.Records(b) {
		if r.Sid == biff8.PLS || r.Sid == biff8.Continue {
			plsRun = append(plsRun, r.Data[0])
		}
	}
	assert.Equal(t, []byte{1, 0xA, 2, 3, 0xB, 0xC}, plsRun)
}

func TestAddLateRecords(t *testing.T) {
	b := build(t, biffenc.Text(biff8.Header, "h"))
	require.NoError(t, b.AddLateRecords(span(t, biffenc.Margin(biff8.BottomMargin, 2))))

	err := b.AddLateRecords(span(t, biffenc.Text(biff8.Header, "again")))
	var dup *aggregate.DuplicateRecordError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, uint16(biff8.Header), dup.Sid)

	m, err := b.Margin(pagesettings.BottomMargin)
	require.NoError(t, err)
	assert.Equal(t, 2.0, m)
}

func TestAddLateRecordsFailureLeavesBlockUnchanged(t *testing.T) {
	b := build(t, biffenc.Text(biff8.Header, "a"), biffenc.Text(biff8.Footer, ""))
	before := aggregate.Records(b)

	err := b.AddLateRecords(span(t,
		biffenc.Margin(biff8.LeftMargin, 1),
		record.Record{Sid: biff8.PLS, Data: []byte{1}},
		biffenc.Text(biff8.Header, "b"),
	))
	var dup *aggregate.DuplicateRecordError
	require.True(t, errors.As(err, &dup))

	assert.Equal(t, before, aggregate.Records(b))
	assert.Equal(t, 0, b.PLSCount())
	m, err := b.Margin(pagesettings.LeftMargin)
	require.NoError(t, err)
	assert.Equal(t, 0.75, m, "margin from the rejected span must not be kept")
}

func TestAddLateHeaderFooter(t *testing.T) {
	b := build(t, biffenc.Text(biff8.Header, "h"))
	hf := biffenc.HeaderFooter([16]byte{}, "", "")
	require.NoError(t, b.AddLateHeaderFooter(hf))
	assert.ErrorIs(t, b.AddLateHeaderFooter(hf), pagesettings.ErrHeaderFooterExists)
	assert.Error(t, b.AddLateHeaderFooter(biffenc.Text(biff8.Footer, "")))

	got, ok := b.HeaderFooter()
	require.True(t, ok)
	assert.Equal(t, hf, got)
}

func TestViewHeaderFootersKeptSeparately(t *testing.T) {
	view := [16]byte{1, 2, 3}
	diags := aggregate.NewDiagnostics(nil)
	sp := span(t,
		biffenc.Text(biff8.Header, ""),
		biffenc.HeaderFooter(view, "", ""),
		biffenc.HeaderFooter([16]byte{}, "", ""),
		biffenc.HeaderFooter([16]byte{}, "even", ""),
	)
	b, err := pagesettings.Build(sp, diags)
	require.NoError(t, err)
	assert.Len(t, b.ViewHeaderFooters(), 1)
	_, ok := b.HeaderFooter()
	assert.True(t, ok)
	assert.Equal(t, 1, diags.Count(aggregate.CodeFolded))

	runs := b.TakeViewHeaderFooters()
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Index)
	assert.Empty(t, b.ViewHeaderFooters())
	b.KeepViewHeaderFooter(runs[0])
	got := sids(aggregate.Records(b))
	assert.Equal(t, []uint16{biff8.Header, biff8.Footer, biff8.HeaderFooter, biff8.HeaderFooter}, got)

	id, err := pagesettings.HeaderFooterView(runs[0].Records[0])
	require.NoError(t, err)
	assert.Equal(t, aggregate.ViewID(view), id)
}

func TestMarginDefaults(t *testing.T) {
	b := pagesettings.New()
	for m, want := range map[pagesettings.Margin]float64{
		pagesettings.LeftMargin:   .75,
		pagesettings.RightMargin:  .75,
		pagesettings.TopMargin:    1.0,
		pagesettings.BottomMargin: 1.0,
	} {
		got, err := b.Margin(m)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	require.NoError(t, b.SetMargin(pagesettings.TopMargin, 2.5))
	got, err := b.Margin(pagesettings.TopMargin)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	_, err = b.Margin(pagesettings.Margin(9))
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	b := pagesettings.New()
	assert.Equal(t, []uint16{biff8.Header, biff8.Footer, biff8.HCenter, biff8.VCenter, biff8.Setup}, sids(aggregate.Records(b)))

	ps, ok, err := b.PrintSetup()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pagesettings.DefaultPrintSetup(), ps)

	ps.Copies = 3
	ps.Scale = 85
	b.SetPrintSetup(ps)
	got, _, err := b.PrintSetup()
	require.NoError(t, err)
	assert.Equal(t, uint16(3), got.Copies)
	assert.Equal(t, uint16(85), got.Scale)
}

func TestHeaderFooterText(t *testing.T) {
	b := pagesettings.New()
	b.SetHeader("&LSales")
	b.SetFooter("Страница &P")
	h, err := b.Header()
	require.NoError(t, err)
	assert.Equal(t, "&LSales", h)
	f, err := b.Footer()
	require.NoError(t, err)
	assert.Equal(t, "Страница &P", f)

	b.SetHCenter(true)
	c, err := b.HCenter()
	require.NoError(t, err)
	assert.True(t, c)
}

func TestPageBreaks(t *testing.T) {
	b := pagesettings.New()
	assert.False(t, b.IsRowBroken(5))
	assert.Error(t, b.RemoveRowBreak(5))

	b.SetRowBreak(10, 0, 255)
	b.SetRowBreak(5, 0, 255)
	b.SetColumnBreak(3, 0, 65535)
	assert.True(t, b.IsRowBroken(5))
	assert.True(t, b.IsColumnBroken(3))
	assert.Equal(t, []pagesettings.Break{{Main: 5, To: 255}, {Main: 10, To: 255}}, b.RowBreaks())

	got := sids(aggregate.Records(b))
	assert.Equal(t, uint16(biff8.HorizontalPageBreaks), got[0])
	assert.Equal(t, uint16(biff8.VerticalPageBreaks), got[1])

	b.ShiftRowBreaks(6, 20, 2)
	assert.Equal(t, []pagesettings.Break{{Main: 5, To: 255}, {Main: 12, To: 255}}, b.RowBreaks())

	b.ShiftColumnBreaks(0, 10, -1)
	assert.True(t, b.IsColumnBroken(2))

	require.NoError(t, b.RemoveRowBreak(5))
	require.NoError(t, b.RemoveRowBreak(12))
	b.RemoveColumnBreak(2)
	// Empty break records are dropped on emission.
	got = sids(aggregate.Records(b))
	assert.Equal(t, uint16(biff8.Header), got[0])
}
