package slidetext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/slidetext"
)

func persist(ref uint32, id int32) record.Record {
	return slidetext.SlidePersist{RefID: ref, SlideID: id}.Record()
}

func textChars(s string) record.Record {
	var b []byte
	for _, r := range s {
		b = append(b, byte(r), byte(r>>8))
	}
	return record.New(aggregate.PPTTextCharsAtom, b)
}

func textBytes(s string) record.Record {
	return record.New(aggregate.PPTTextBytesAtom, []byte(s))
}

func header(kind uint32) record.Record {
	return record.New(aggregate.PPTTextHeaderAtom, []byte{byte(kind), 0, 0, 0})
}

func TestSegmentation(t *testing.T) {
	unknown := record.New(0x0400, []byte{1})
	tests := []struct {
		name     string
		children []record.Record
		sets     int
		texts    [][]string
	}{
		{name: "empty", children: nil, sets: 0},
		{name: "no persist atoms", children: []record.Record{header(0), textChars("orphan")}, sets: 0},
		{
			name: "two slides",
			children: []record.Record{
				persist(1, 256), header(0), textChars("Title"), header(1), textBytes("Body"),
				persist(2, 257), header(0), textChars("Second"),
			},
			sets:  2,
			texts: [][]string{{"Title", "Body"}, {"Second"}},
		},
		{
			name: "unknown records stay in place",
			children: []record.Record{
				persist(1, 256), unknown, textChars("A"), persist(2, 257), textChars("B"), unknown,
			},
			sets:  2,
			texts: [][]string{{"A"}, {"B"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := slidetext.Build(tt.children, nil)
			require.NoError(t, err)
			require.Equal(t, tt.sets, l.Len())
			for i, want := range tt.texts {
				assert.Equal(t, want, l.Sets()[i].Texts())
			}
			if tt.children == nil {
				assert.Empty(t, l.Records())
			} else {
				assert.Equal(t, tt.children, l.Records())
			}
		})
	}
}

func TestDuplicateSlideID(t *testing.T) {
	diags := aggregate.NewDiagnostics(nil)
	l, err := slidetext.Build([]record.Record{
		persist(1, 300), textChars("first"),
		persist(2, 300), textChars("second"),
	}, diags)
	require.NoError(t, err)
	assert.Equal(t, 1, diags.Count(aggregate.CodeDuplicateID))

	s, ok := l.SetBySlideID(300)
	require.True(t, ok)
	assert.Equal(t, []string{"first"}, s.Texts())
	assert.Equal(t, uint32(1), s.RefID())

	_, ok = l.SetBySlideID(1)
	assert.False(t, ok)
}

func TestAddSlide(t *testing.T) {
	l := slidetext.New(slidetext.InstanceSlides)
	assert.Equal(t, int32(256), l.AddSlide(10))
	assert.Equal(t, int32(257), l.AddSlide(11))

	masters, err := slidetext.Build([]record.Record{persist(1, -2147483647)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(256), masters.AddSlide(3), "master identifiers are ignored")

	high, err := slidetext.Build([]record.Record{persist(1, 900)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(901), high.AddSlide(3))

	p, err := slidetext.ParseSlidePersist(l.Sets()[1].Persist)
	require.NoError(t, err)
	assert.Equal(t, slidetext.SlidePersist{RefID: 11, SlideID: 257}, p)
}

func TestRemoveAndReorder(t *testing.T) {
	l, err := slidetext.Build([]record.Record{
		persist(1, 256), textChars("a"),
		persist(2, 257), textChars("b"),
		persist(3, 258), textChars("c"),
	}, nil)
	require.NoError(t, err)

	require.NoError(t, l.Reorder(0, 2))
	assert.Equal(t, int32(258), l.Sets()[0].SlideID())
	require.NoError(t, l.RemoveSlide(1))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, int32(256), l.Sets()[1].SlideID())

	assert.Error(t, l.RemoveSlide(5))
	assert.Error(t, l.Reorder(-1, 0))
}

func TestEncodeParseRoundTrip(t *testing.T) {
	children := []record.Record{persist(7, 256), header(0), textChars("héllo")}
	l, err := slidetext.Build(children, nil)
	require.NoError(t, err)
	l.Options = 0x000F | slidetext.InstanceNotes<<4

	containers, err := slidetext.ParseChildren(l.Encode())
	require.NoError(t, err)
	require.Len(t, containers, 1)
	c := containers[0]
	assert.True(t, slidetext.IsContainer(c))
	assert.Equal(t, uint16(slidetext.InstanceNotes), slidetext.Instance(c))

	back, err := slidetext.Parse(c, nil)
	require.NoError(t, err)
	assert.Equal(t, children, back.Records())
	assert.Equal(t, []string{"héllo"}, back.Sets()[0].Texts())
}

func TestFindNested(t *testing.T) {
	slwt := slidetext.New(slidetext.InstanceSlides)
	slwt.AddSlide(1)
	document := record.Record{Sid: 1000, Options: 0x000F, Data: slwt.Encode()}
	stream := slidetext.Encode([]record.Record{
		{Sid: 1001, Data: []byte{1, 2, 3}}, // not a container
		document,
	})

	found, err := slidetext.Find(stream)
	require.NoError(t, err)
	require.Len(t, found, 1)
	l, err := slidetext.Parse(found[0], nil)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestParseChildrenTruncated(t *testing.T) {
	_, err := slidetext.ParseChildren([]byte{0, 0, 0xE8, 0x03, 9, 0, 0, 0, 1})
	assert.Error(t, err)
	_, err = slidetext.ParseChildren([]byte{0, 0, 0xE8})
	assert.Error(t, err)
	_, err = slidetext.Parse(record.Record{Sid: 1}, nil)
	assert.Error(t, err)
}
