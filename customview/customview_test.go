package customview_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/customview"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
)

var viewA = aggregate.ViewID{0xA1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

func spanAt(start int, recs ...record.Record) *aggregate.Span {
	sp := &aggregate.Span{Kind: aggregate.KindCustomView, Start: start}
	for i, r := range recs {
		sp.Indices = append(sp.Indices, start+i)
		sp.Records = append(sp.Records, r)
	}
	return sp
}

func sids(recs []record.Record) []uint16 {
	out := make([]uint16, len(recs))
	for i, r := range recs {
		out[i] = r.Sid
	}
	return out
}

func TestBuildNestedPageSettings(t *testing.T) {
	sel := record.New(biff8.Selection, []byte{3, 0, 0, 0, 0, 0, 0, 0, 0})
	left := biffenc.Margin(biff8.LeftMargin, 0.5)
	top := biffenc.Margin(biff8.TopMargin, 0.25)

	tests := []struct {
		name string
		body []record.Record
		want []uint16
	}{
		{
			name: "block after other records",
			body: []record.Record{sel, left, top},
			want: []uint16{biff8.UserSViewBegin, biff8.Selection,
				biff8.Header, biff8.Footer, biff8.LeftMargin, biff8.TopMargin, biff8.UserSViewEnd},
		},
		{
			name: "late member gathered into the block",
			body: []record.Record{left, sel, top},
			want: []uint16{biff8.UserSViewBegin,
				biff8.Header, biff8.Footer, biff8.LeftMargin, biff8.TopMargin,
				biff8.Selection, biff8.UserSViewEnd},
		},
		{
			name: "no page settings",
			body: []record.Record{sel},
			want: []uint16{biff8.UserSViewBegin, biff8.Selection, biff8.UserSViewEnd},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := append([]record.Record{biffenc.UserSViewBegin(viewA)}, tt.body...)
			recs = append(recs, biffenc.UserSViewEnd())
			v, err := customview.Build(spanAt(10, recs...), aggregate.NewClassifier(), nil)
			require.NoError(t, err)
			assert.Equal(t, viewA, v.ID())
			assert.Equal(t, tt.want, sids(aggregate.Records(v)))
		})
	}
}

func TestBuildNestedDuplicate(t *testing.T) {
	left := biffenc.Margin(biff8.LeftMargin, 0.5)
	_, err := customview.Build(spanAt(0,
		biffenc.UserSViewBegin(viewA), left, left, biffenc.UserSViewEnd()), aggregate.NewClassifier(), nil)
	var dup *aggregate.DuplicateRecordError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, 2, dup.Index)
	assert.Equal(t, 1, dup.FirstIndex)
}

func TestBuildMalformed(t *testing.T) {
	_, err := customview.Build(spanAt(0, biffenc.UserSViewBegin(viewA)), aggregate.NewClassifier(), nil)
	var mal *aggregate.MalformedAggregateError
	assert.True(t, errors.As(err, &mal))
}

func TestAttachHeaderFooter(t *testing.T) {
	v := customview.New(viewA)
	hf := biffenc.HeaderFooter(viewA, "", "")
	assert.False(t, v.AttachHeaderFooter([]record.Record{hf}))
	assert.True(t, v.AttachHeaderFooter([]record.Record{hf}))

	got, ok := v.HeaderFooter()
	require.True(t, ok)
	assert.Equal(t, hf, got)
	assert.Nil(t, v.PageSettings())
	assert.Equal(t, []uint16{biff8.UserSViewBegin, biff8.HeaderFooter, biff8.UserSViewEnd}, sids(aggregate.Records(v)))
}
