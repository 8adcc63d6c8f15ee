package worksheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/sheet"
	"github.com/TsubasaBE/go-xls/stringtable"
	"github.com/TsubasaBE/go-xls/styles"
	"github.com/TsubasaBE/go-xls/worksheet"
)

func mulRK(row, first uint16, xf uint16, rks ...int32) record.Record {
	w := record.NewPayloadWriter(0)
	w.WriteUint16(row)
	w.WriteUint16(first)
	for _, rk := range rks {
		w.WriteUint16(xf)
		w.WriteUint32(uint32(rk))
	}
	w.WriteUint16(first + uint16(len(rks)) - 1)
	return record.New(biff8.MulRK, w.Bytes())
}

func build(t *testing.T, cells ...record.Record) *sheet.Sheet {
	t.Helper()
	in := []record.Record{biffenc.BOF(biff8.BOFWorksheet)}
	in = append(in, cells...)
	in = append(in, biffenc.Window2(), biffenc.EOF())
	s, err := sheet.Build(in, sheet.WithName("Data"))
	require.NoError(t, err)
	return s
}

func TestRowsDecodeValues(t *testing.T) {
	st, err := stringtable.New([]record.Record{biffenc.SST([]string{"zero", "one"})})
	require.NoError(t, err)

	s := build(t,
		biffenc.LabelSST(0, 0, 0, 1),
		biffenc.Number(0, 1, 1, 2.5),
		biffenc.RK(0, 2, 0, 100<<2|0x02),
		biffenc.BoolErr(2, 0, 0, 1, false),
		biffenc.BoolErr(2, 1, 0, 0x07, true),
		mulRK(2, 2, 0, 7<<2|0x02, 8<<2|0x02),
		biffenc.Formula(3, 0, 0, 0, 0, []byte{0x1E, 1, 0}),
		biffenc.Blank(3, 1, 0),
	)
	ws := worksheet.New(s, st, styles.StyleTable{{}, {NumFmtID: 14}})
	require.NotNil(t, ws.Dimension)
	assert.Equal(t, worksheet.Dimension{R: 0, C: 0, H: 4, W: 4}, *ws.Dimension)
	assert.True(t, ws.IsDateCell(1))
	assert.Equal(t, "Data", ws.Name())

	var rows [][]worksheet.Cell
	for row := range ws.Rows(false) {
		rows = append(rows, row)
	}
	require.Len(t, rows, 4)
	assert.Equal(t, []any{"one", 2.5, float64(100), nil}, values(rows[0]))
	assert.Equal(t, []any{nil, nil, nil, nil}, values(rows[1]), "gap row")
	assert.Equal(t, []any{true, "#DIV/0!", float64(7), float64(8)}, values(rows[2]))
	assert.Equal(t, []any{float64(0), nil, nil, nil}, values(rows[3]))
	assert.Equal(t, 1, rows[0][1].Style)

	var sparse int
	for range ws.Rows(true) {
		sparse++
	}
	assert.Equal(t, 3, sparse)
}

func TestRowsStopEarly(t *testing.T) {
	s := build(t, biffenc.Number(0, 0, 0, 1), biffenc.Number(1, 0, 0, 2))
	ws := worksheet.New(s, nil, nil)
	n := 0
	for range ws.Rows(true) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestFormulaStringResult(t *testing.T) {
	f := biffenc.Formula(0, 0, 0, 0, 0, []byte{0x1E, 1, 0})
	f.Data[6], f.Data[12], f.Data[13] = 0x00, 0xFF, 0xFF
	s := build(t, f, biffenc.String("cached"))
	ws := worksheet.New(s, nil, nil)
	for row := range ws.Rows(true) {
		assert.Equal(t, "cached", row[0].V)
	}
}

func TestValueUnknownLabelIndex(t *testing.T) {
	v, xf, err := worksheet.Value(biffenc.LabelSST(0, 0, 3, 9), nil)
	require.NoError(t, err)
	assert.Equal(t, "<9>", v)
	assert.Equal(t, 3, xf)

	_, _, err = worksheet.Value(record.New(biff8.Number, []byte{1}), nil)
	assert.Error(t, err)
}

func TestEmptySheet(t *testing.T) {
	ws := worksheet.New(build(t), nil, nil)
	assert.Nil(t, ws.Dimension)
	for range ws.Rows(false) {
		t.Fatal("no rows expected")
	}
}

func values(row []worksheet.Cell) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c.V
	}
	return out
}
