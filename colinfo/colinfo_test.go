package colinfo_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/colinfo"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
)

func spanOf(recs ...record.Record) *aggregate.Span {
	sp := &aggregate.Span{Kind: aggregate.KindColumnInfo}
	for i, r := range recs {
		sp.Indices = append(sp.Indices, i)
		sp.Records = append(sp.Records, r)
	}
	return sp
}

func TestBuildSortsAndKeepsTrail(t *testing.T) {
	c5 := biffenc.ColInfo(5, 6, 3000, 15, 0)
	c0 := biffenc.ColInfo(0, 2, 2000, 15, colinfo.OptHidden)
	cont := biffenc.Continue([]byte{1})

	b, err := colinfo.Build(spanOf(c5, cont, c0), nil)
	require.NoError(t, err)
	assert.Equal(t, []record.Record{c0, c5, cont}, aggregate.Records(b))

	w, ok := b.Width(1)
	assert.True(t, ok)
	assert.Equal(t, uint16(2000), w)
	_, ok = b.Width(3)
	assert.False(t, ok)

	ci, ok := b.Info(0)
	require.True(t, ok)
	assert.True(t, ci.Hidden())
	assert.Equal(t, 2, b.Len())
}

func TestBuildRejectsBadRecord(t *testing.T) {
	_, err := colinfo.Build(spanOf(biffenc.ColInfo(4, 2, 0, 0, 0)), nil)
	var mal *aggregate.MalformedAggregateError
	require.True(t, errors.As(err, &mal))
	assert.Equal(t, aggregate.KindColumnInfo, mal.Kind)

	_, err = colinfo.Build(spanOf(), nil)
	assert.True(t, errors.As(err, &mal))
}

func TestOverlapReported(t *testing.T) {
	diags := aggregate.NewDiagnostics(nil)
	_, err := colinfo.Build(spanOf(biffenc.ColInfo(0, 4, 1, 0, 0), biffenc.ColInfo(3, 6, 1, 0, 0)), diags)
	require.NoError(t, err)
	assert.Equal(t, 1, diags.Count(aggregate.CodeFolded))
}

func TestAddLateRecords(t *testing.T) {
	c0 := biffenc.ColInfo(0, 1, 1000, 15, 0)
	c4 := biffenc.ColInfo(4, 4, 1000, 15, 0)
	c2 := biffenc.ColInfo(2, 3, 1000, 15, 0)
	cont := biffenc.Continue([]byte{9})

	tests := []struct {
		name    string
		late    []record.Record
		wantErr bool
		want    []record.Record
	}{
		{
			name: "merged and sorted",
			late: []record.Record{cont, c2},
			want: []record.Record{c0, c2, c4, cont},
		},
		{
			name:    "bad record leaves block untouched",
			late:    []record.Record{cont, c2, biffenc.ColInfo(9, 8, 0, 0, 0)},
			wantErr: true,
			want:    []record.Record{c0, c4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := aggregate.NewDiagnostics(nil)
			b, err := colinfo.Build(spanOf(c0, c4), diags)
			require.NoError(t, err)

			err = b.AddLateRecords(spanOf(tt.late...))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, aggregate.Records(b))
			assert.Equal(t, 0, diags.Len())
		})
	}
}

func TestSetColumnSplitsRange(t *testing.T) {
	b, err := colinfo.Build(spanOf(biffenc.ColInfo(0, 9, 2000, 15, 0)), nil)
	require.NoError(t, err)

	width := uint16(4000)
	level := 2
	require.NoError(t, b.SetColumn(4, colinfo.ColumnUpdate{Width: &width, Level: &level}))

	got := b.Columns()
	require.Len(t, got, 3)
	assert.Equal(t, colinfo.Info{First: 0, Last: 3, Width: 2000, XF: 15}, got[0])
	assert.Equal(t, colinfo.Info{First: 4, Last: 4, Width: 4000, XF: 15, Options: 0x0200}, got[1])
	assert.Equal(t, colinfo.Info{First: 5, Last: 9, Width: 2000, XF: 15}, got[2])
	assert.Equal(t, 2, b.MaxLevel())
	assert.Equal(t, 2, got[1].Level())

	bad := 8
	assert.Error(t, b.SetColumn(1, colinfo.ColumnUpdate{Level: &bad}))
}

func TestSetColumnCreatesRecord(t *testing.T) {
	b := colinfo.New()
	hidden := true
	require.NoError(t, b.SetColumn(7, colinfo.ColumnUpdate{Hidden: &hidden}))
	ci, ok := b.Info(7)
	require.True(t, ok)
	assert.Equal(t, uint16(colinfo.DefaultWidth), ci.Width)
	assert.True(t, ci.Hidden())

	parsed, err := colinfo.Parse(aggregate.Records(b)[0])
	require.NoError(t, err)
	assert.Equal(t, ci, parsed)
}

func TestInsertReplacesCoverage(t *testing.T) {
	b := colinfo.New()
	require.NoError(t, b.Insert(colinfo.Info{First: 0, Last: 5, Width: 1}))
	require.NoError(t, b.Insert(colinfo.Info{First: 0, Last: 5, Width: 2}))
	assert.Equal(t, []colinfo.Info{{First: 0, Last: 5, Width: 2}}, b.Columns())
	assert.Error(t, b.Insert(colinfo.Info{First: 3, Last: 1}))
}
