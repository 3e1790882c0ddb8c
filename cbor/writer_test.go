package cbor

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterRoundTripsThroughReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	root := w.Root()
	require.NoError(t, root.AppendNull("null"))
	require.NoError(t, root.AppendBool("false", false))
	require.NoError(t, root.AppendBool("true", true))

	ints, err := root.AppendArray("int-array")
	require.NoError(t, err)
	for _, v := range []int64{0x3, 0x34, 0x3456, 0x3456789A, 0x3456789ABCDEF012, -0x3, -0x34, -0x3456, -0x3456789A, -0x3456789ABCDEF012} {
		require.NoError(t, ints.AppendInt(v))
	}
	require.NoError(t, ints.Close())

	require.NoError(t, root.AppendFloat("pi", 3.14159265359))
	require.NoError(t, root.AppendText("string", "hello"))
	require.NoError(t, root.AppendBytes("binary", []byte("world")))
	require.NoError(t, root.Close())

	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)
	m, err := r.AsMap()
	require.NoError(t, err)
	require.Equal(t, 7, m.Len())

	nullVal, _ := m.At("null")
	require.True(t, nullVal.IsNull())

	falseVal, _ := m.At("false")
	fv, _ := falseVal.AsBool()
	require.False(t, fv)

	trueVal, _ := m.At("true")
	tv, _ := trueVal.AsBool()
	require.True(t, tv)

	arrVal, _ := m.At("int-array")
	arr, err := arrVal.AsArray()
	require.NoError(t, err)
	want := []int64{0x3, 0x34, 0x3456, 0x3456789A, 0x3456789ABCDEF012, -0x3, -0x34, -0x3456, -0x3456789A, -0x3456789ABCDEF012}
	require.Equal(t, len(want), arr.Len())
	for i, w := range want {
		item, _ := arr.At(i)
		v, _ := item.AsInt()
		require.Equal(t, w, v)
	}

	piVal, _ := m.At("pi")
	pf, _ := piVal.AsFloat()
	require.InDelta(t, 3.14159265359, pf, 1e-12)

	sVal, _ := m.At("string")
	sv, _ := sVal.AsText()
	require.Equal(t, "hello", sv)

	bVal, _ := m.At("binary")
	bv, _ := bVal.AsBytes()
	require.Equal(t, []byte("world"), bv)
}

func TestWriterRejectsShadowedHandle(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	root := w.Root()
	inner, err := root.AppendArray("nested")
	require.NoError(t, err)

	// root is now shadowed by inner.
	err = root.AppendBool("oops", true)
	require.Error(t, err)

	require.NoError(t, inner.AppendInt(1))
	require.NoError(t, inner.Close())

	// root is writable again after inner closes.
	require.NoError(t, root.AppendBool("ok", true))
	require.NoError(t, root.Close())
}

func TestWriterRejectsDoubleRoot(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	first := w.Root()
	require.NoError(t, first.AppendBool("a", true))

	second := w.Root()
	require.Error(t, second.AppendBool("b", true))
	// The poisoned writer also breaks the first handle.
	require.Error(t, first.AppendBool("c", true))
}

func TestWriterNestedMapsAndArrays(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	root := w.Root()
	inner, err := root.AppendMap("nested")
	require.NoError(t, err)
	arr, err := inner.AppendArray("items")
	require.NoError(t, err)
	require.NoError(t, arr.AppendText("x"))
	require.NoError(t, arr.AppendText("y"))
	require.NoError(t, arr.Close())
	require.NoError(t, inner.Close())
	require.NoError(t, root.Close())

	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)
	m, _ := r.AsMap()
	nestedVal, _ := m.At("nested")
	nested, _ := nestedVal.AsMap()
	itemsVal, _ := nested.At("items")
	items, _ := itemsVal.AsArray()
	require.Equal(t, 2, items.Len())
}

func TestIntegerRoundTripBoundaries(t *testing.T) {
	values := []int64{0, 1, -1, 23, 24, -24, -25, 255, 256, -256, -257,
		math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	root := w.Root()
	arr, err := root.AppendArray("v")
	require.NoError(t, err)
	for _, v := range values {
		require.NoError(t, arr.AppendInt(v))
	}
	require.NoError(t, arr.Close())
	require.NoError(t, root.Close())

	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)
	m, _ := r.AsMap()
	vVal, _ := m.At("v")
	decoded, _ := vVal.AsArray()
	require.Equal(t, len(values), decoded.Len())
	for i, want := range values {
		item, _ := decoded.At(i)
		got, err := item.AsInt()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}
