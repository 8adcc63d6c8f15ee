package workbook

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/sheet"
)

// fixture assembles a workbook stream from a worksheet substream and an
// optional chart substream, with BOUNDSHEET offsets filled in.
func fixture(t *testing.T, ws []record.Record, withChart bool) []byte {
	t.Helper()
	globals := func(wsPos, chartPos uint32) []record.Record {
		recs := []record.Record{
			biffenc.BOF(biff8.BOFGlobals),
			biffenc.DateMode(false),
			biffenc.Format(164, "yyyy-mm-dd"),
			biffenc.XF(0),
			biffenc.XF(14),
			biffenc.XF(164),
			biffenc.BoundSheet(wsPos, SheetVisible, 0x00, "Data"),
		}
		if withChart {
			recs = append(recs, biffenc.BoundSheet(chartPos, SheetHidden, 0x02, "Chart1"))
		}
		return append(recs, biffenc.SST([]string{"alpha", "beta"}), biffenc.EOF())
	}
	g := uint32(record.TotalSize(globals(0, 0)))
	all := globals(g, g+uint32(record.TotalSize(ws)))
	all = append(all, ws...)
	if withChart {
		all = append(all, biffenc.BOF(biff8.BOFChart), biffenc.EOF())
	}

	var buf bytes.Buffer
	require.NoError(t, record.NewWriter(&buf).WriteAll(all))
	return buf.Bytes()
}

func dataSheet() []record.Record {
	return []record.Record{
		biffenc.BOF(biff8.BOFWorksheet),
		biffenc.Number(0, 0, 1, 45000),
		biffenc.LabelSST(0, 1, 0, 1),
		biffenc.Number(1, 0, 2, 45000),
		biffenc.Window2(),
		biffenc.EOF(),
	}
}

// boundPositions returns the lbPlyPos of every BOUNDSHEET in recs.
func boundPositions(recs []record.Record) []uint32 {
	var out []uint32
	for _, r := range recs {
		if r.Sid == biff8.BoundSheet {
			out = append(out, binary.LittleEndian.Uint32(r.Data))
		}
	}
	return out
}

func TestFromStream(t *testing.T) {
	wb, err := FromStream(fixture(t, dataSheet(), true), WithLogger(zaptest.NewLogger(t)), WithWorkers(2))
	require.NoError(t, err)

	assert.Equal(t, []string{"Data", "Chart1"}, wb.Sheets())
	assert.Equal(t, SheetVisible, wb.SheetVisibility("data"))
	assert.Equal(t, SheetHidden, wb.SheetVisibility("CHART1"))
	assert.Equal(t, -1, wb.SheetVisibility("missing"))
	assert.False(t, wb.Date1904)
	require.NotNil(t, wb.Strings())
	assert.Equal(t, 2, wb.Strings().Len())

	sh, err := wb.SheetByName("DATA")
	require.NoError(t, err)
	assert.Equal(t, "Data", sh.Name())

	_, err = wb.Sheet(2)
	assert.Error(t, err, "chart substreams are not built")
	_, err = wb.Sheet(3)
	assert.Error(t, err)
	_, err = wb.SheetByName("nope")
	assert.Error(t, err)

	ws, err := wb.Worksheet(1)
	require.NoError(t, err)
	var got [][]any
	for row := range ws.Rows(true) {
		var vals []any
		for _, c := range row {
			vals = append(vals, c.V)
		}
		got = append(got, vals)
	}
	assert.Equal(t, [][]any{{45000.0, "beta"}, {45000.0, nil}}, got)
}

func TestFormatCell(t *testing.T) {
	wb, err := FromStream(fixture(t, dataSheet(), false))
	require.NoError(t, err)

	tests := []struct {
		name string
		v    any
		xf   int
		want string
	}{
		{"general", 2.5, 0, "2.5"},
		{"built-in date", 45000.0, 1, "03-15-23"},
		{"custom date", 45000.0, 2, "2023-03-15"},
		{"string", "text", 1, "text"},
		{"xf out of range", 7.0, 99, "7"},
		{"nil out of range", nil, 99, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wb.FormatCell(tt.v, tt.xf))
		})
	}
}

func TestSerializeRecomputesOffsets(t *testing.T) {
	wb, err := FromStream(fixture(t, dataSheet(), true))
	require.NoError(t, err)
	orig := boundPositions(wb.globals)

	recs, err := wb.Serialize()
	require.NoError(t, err)

	// Each patched offset must land on a BOF record.
	starts := map[uint32]uint16{}
	pos := 0
	for _, r := range recs {
		if r.Sid == biff8.BOF {
			starts[uint32(pos)] = binary.LittleEndian.Uint16(r.Data[2:])
		}
		pos += r.Size()
	}
	bounds := boundPositions(recs)
	require.Len(t, bounds, 2)
	assert.Equal(t, uint16(biff8.BOFWorksheet), starts[bounds[0]])
	assert.Equal(t, uint16(biff8.BOFChart), starts[bounds[1]])

	// The built sheet gained INDEX and DIMENSIONS, so the chart moved.
	assert.NotEqual(t, orig[1], bounds[1])

	// The globals read from the input are untouched.
	assert.Equal(t, orig, boundPositions(wb.globals))
}

func TestRoundTripIsStable(t *testing.T) {
	wb, err := FromStream(fixture(t, dataSheet(), true))
	require.NoError(t, err)

	var first bytes.Buffer
	n, err := wb.WriteTo(&first)
	require.NoError(t, err)
	assert.Equal(t, int64(first.Len()), n)

	again, err := FromStream(first.Bytes())
	require.NoError(t, err)
	for _, e := range again.sheets {
		require.NotNil(t, e.stream)
		assert.Equal(t, int64(boundPositions([]record.Record{again.globals[e.bound]})[0]), e.stream.pos,
			"sheet %q resolved by offset", e.name)
	}

	var second bytes.Buffer
	_, err = again.WriteTo(&second)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestDamagedSheetKeepsPartialBuild(t *testing.T) {
	ws := []record.Record{
		biffenc.BOF(biff8.BOFWorksheet),
		biffenc.Text(biff8.Header, "one"),
		biffenc.Text(biff8.Header, "two"),
		biffenc.Number(0, 0, 0, 1),
		biffenc.Window2(),
		biffenc.EOF(),
	}
	wb, err := FromStream(fixture(t, ws, false))
	require.Error(t, err)
	require.NotNil(t, wb)

	var be *sheet.BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "Data", be.Sheet)
	assert.Equal(t, err, wb.SheetError(1))
	assert.Nil(t, wb.SheetError(5))

	sh, err := wb.Sheet(1)
	require.NoError(t, err)
	assert.Nil(t, sh.PageSettings())

	recs, err := wb.Serialize()
	require.NoError(t, err)
	var headers int
	for _, r := range recs {
		if r.Sid == biff8.Header {
			headers++
		}
	}
	assert.Equal(t, 2, headers, "failed block is written back record for record")
}

func TestDiagnosticsTaggedBySheet(t *testing.T) {
	ws := []record.Record{
		biffenc.BOF(biff8.BOFWorksheet),
		biffenc.Number(0, 0, 0, 1),
		biffenc.Window2(),
		biffenc.EOF(),
	}
	wb, err := FromStream(fixture(t, ws, false))
	require.NoError(t, err)
	diags := wb.Diagnostics()
	require.NotEmpty(t, diags, "DIMENSIONS is synthesized")
	for _, d := range diags {
		assert.Equal(t, "Data", d.Sheet)
	}
}

func TestStructuralErrors(t *testing.T) {
	var noBOF bytes.Buffer
	require.NoError(t, record.NewWriter(&noBOF).Write(biffenc.Window2()))

	var wsFirst bytes.Buffer
	require.NoError(t, record.NewWriter(&wsFirst).WriteAll(dataSheet()))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no BOF", noBOF.Bytes()},
		{"worksheet first", wsFirst.Bytes()},
		{"truncated header", []byte{0x09, 0x08, 0x10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb, err := FromStream(tt.data)
			assert.Error(t, err)
			assert.Nil(t, wb)
		})
	}
}

func TestStaleOffsetsFallBackToOrder(t *testing.T) {
	data := fixture(t, dataSheet(), false)
	recs, err := record.ReadAll(bytes.NewReader(data))
	require.NoError(t, err)
	for i, r := range recs {
		if r.Sid == biff8.BoundSheet {
			recs[i] = biffenc.BoundSheet(12345, SheetVisible, 0, "Data")
		}
	}
	var buf bytes.Buffer
	require.NoError(t, record.NewWriter(&buf).WriteAll(recs))

	wb, err := FromStream(buf.Bytes())
	require.NoError(t, err)
	sh, err := wb.Sheet(1)
	require.NoError(t, err)
	assert.Equal(t, "Data", sh.Name())
}
