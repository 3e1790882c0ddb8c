package cbor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testCBOR is the fixture from the original implementation's CBOR test,
// re-encoded by hand; it exercises null/bool/array/int (all header widths,
// both signs)/float/text/bytes/map decoding in one pass.
var testCBOR = []byte{
	0x89, // array(9)
	0xF6, // null
	0xF4, // false
	0xF5, // true
	0x8B, // array(11) of unsigned ints
	0x00,
	0x01,
	0x17,
	0x18, 0x18,
	0x18, 0xFF,
	0x19, 0x01, 0x00,
	0x19, 0xFF, 0xFF,
	0x1A, 0x00, 0x01, 0x00, 0x00,
	0x1A, 0xFF, 0xFF, 0xFF, 0xFF,
	0x1B, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x1B, 0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0x9F, // array(*) of negative ints
	0x20,
	0x37,
	0x38, 0x18,
	0x38, 0xFF,
	0x39, 0x01, 0x00,
	0x39, 0xFF, 0xFF,
	0x3A, 0x00, 0x01, 0x00, 0x00,
	0x3A, 0xFF, 0xFF, 0xFF, 0xFF,
	0x3B, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x3B, 0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF,                                                 // break
	0xFB, 0x40, 0x09, 0x21, 0xFB, 0x54, 0x44, 0x2E, 0xEA, // float 3.14159265359
	0x65, 0x68, 0x65, 0x6C, 0x6C, 0x6F, // "hello"
	0x45, 0x77, 0x6F, 0x72, 0x6C, 0x64, // bytes "world"
	0xA2, // map(2)
	0x61, 0x61,
	0x61, 0x62,
	0x61, 0x63,
	0x61, 0x64,
}

func TestReaderDecodesFixture(t *testing.T) {
	r, err := NewReader(testCBOR)
	require.NoError(t, err)
	require.True(t, r.IsArray())

	top, err := r.AsArray()
	require.NoError(t, err)
	require.Equal(t, 9, top.Len())

	item0, _ := top.At(0)
	require.True(t, item0.IsNull())

	item1, _ := top.At(1)
	b, err := item1.AsBool()
	require.NoError(t, err)
	require.False(t, b)

	item2, _ := top.At(2)
	b, err = item2.AsBool()
	require.NoError(t, err)
	require.True(t, b)

	item3, _ := top.At(3)
	pos, err := item3.AsArray()
	require.NoError(t, err)
	wantPos := []int64{0, 1, 23, 24, 255, 256, 65535, 65536, 4294967295, 4294967296, 9223372036854775807}
	require.Equal(t, len(wantPos), pos.Len())
	for i, want := range wantPos {
		v, err := mustInt(t, pos, i)
		require.NoError(t, err)
		require.Equal(t, want, v)
	}

	item4, _ := top.At(4)
	neg, err := item4.AsArray()
	require.NoError(t, err)
	wantNeg := []int64{-1, -24, -25, -256, -257, -65536, -65537, -4294967296, -4294967297, -9223372036854775808}
	require.Equal(t, len(wantNeg), neg.Len())
	for i, want := range wantNeg {
		v, err := mustInt(t, neg, i)
		require.NoError(t, err)
		require.Equal(t, want, v)
	}

	item5, _ := top.At(5)
	f, err := item5.AsFloat()
	require.NoError(t, err)
	require.InDelta(t, 3.14159265359, f, 1e-12)

	item6, _ := top.At(6)
	s, err := item6.AsText()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	item7, _ := top.At(7)
	bs, err := item7.AsBytes()
	require.NoError(t, err)
	require.Equal(t, []byte("world"), bs)

	item8, _ := top.At(8)
	m, err := item8.AsMap()
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())
	v, err := m.At("a")
	require.NoError(t, err)
	s, _ = v.AsText()
	require.Equal(t, "b", s)
	v, err = m.At("c")
	require.NoError(t, err)
	s, _ = v.AsText()
	require.Equal(t, "d", s)
}

func mustInt(t *testing.T, av ArrayView, i int) (int64, error) {
	t.Helper()
	item, err := av.At(i)
	if err != nil {
		return 0, err
	}
	return item.AsInt()
}

func TestReaderRejectsUnsupportedFeatures(t *testing.T) {
	cases := map[string][]byte{
		"undefined":      {0xF7},
		"half float":     {0xF9, 0x00, 0x00},
		"single float":   {0xFA, 0x00, 0x00, 0x00, 0x00},
		"reserved value": {0x1C},
		"lone break":     {0xFF},
		"truncated":      {0x19, 0x01},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewReader(data)
			require.Error(t, err)
		})
	}
}

func TestReaderMapDuplicateKeyLastWins(t *testing.T) {
	// {"a": 1, "a": 2}
	data := []byte{
		0xA2,
		0x61, 0x61, 0x01,
		0x61, 0x61, 0x02,
	}
	r, err := NewReader(data)
	require.NoError(t, err)
	m, err := r.AsMap()
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	v, _ := m.At("a")
	n, _ := v.AsInt()
	require.EqualValues(t, 2, n)
}

func TestReaderSkipsSemanticTags(t *testing.T) {
	// tag(0) "test" -- tag 0 followed by a text string.
	data := []byte{0xC0, 0x64, 't', 'e', 's', 't'}
	r, err := NewReader(data)
	require.NoError(t, err)
	require.True(t, r.IsText())
	s, _ := r.AsText()
	require.Equal(t, "test", s)
}

func TestReaderRejectsTrailingBytes(t *testing.T) {
	data := []byte{0xF6, 0xF6} // two nulls back to back
	_, err := NewReader(data)
	require.Error(t, err)
}
