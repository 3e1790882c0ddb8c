package cbor

import (
	"io"
	"math"

	"github.com/nodeforge/treegen/errs"
)

// Writer produces a single top-level CBOR map to an io.Writer. Nested
// arrays and maps are opened as handles whose lifetimes nest like a stack:
// only the innermost open handle may be written to. Writing to, or closing,
// a handle that is not currently the innermost one fails with a
// *errs.CodecError rather than silently corrupting the stream.
//
// Arrays and maps are always written using CBOR's indefinite-length,
// break-terminated form; integers use the minimal definite-length encoding
// and floats are always written as double precision.
type Writer struct {
	w       io.Writer
	err     error
	active  *node
	started bool
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// node is the shared bookkeeping embedded in both MapHandle and ArrayHandle.
type node struct {
	w      *Writer
	parent *node
	closed bool
}

func (n *node) checkWritable() error {
	if n.w.err != nil {
		return n.w.err
	}
	if n.closed {
		return errs.NewCodecError("write to a closed CBOR handle")
	}
	if n.w.active != n {
		return errs.NewCodecError("write to a shadowed CBOR handle (an inner array or map is still open)")
	}
	return nil
}

func (n *node) close() error {
	if err := n.checkWritable(); err != nil {
		return err
	}
	if err := n.w.writeByte(0xFF); err != nil {
		return err
	}
	n.closed = true
	n.w.active = n.parent
	return nil
}

// Root starts the single top-level map and returns a handle to it. Calling
// Root more than once on the same Writer poisons the Writer: all
// subsequent operations, including on the first handle, return a
// *errs.CodecError.
func (wr *Writer) Root() *MapHandle {
	n := &node{w: wr}
	if wr.started {
		wr.err = errs.NewCodecError("Root called more than once on this Writer")
		n.closed = true
		return &MapHandle{node: n}
	}
	wr.started = true
	wr.active = n
	if err := wr.writeByte(0xBF); err != nil {
		wr.err = err
	}
	return &MapHandle{node: n}
}

func (wr *Writer) writeByte(b byte) error {
	if wr.err != nil {
		return wr.err
	}
	if _, err := wr.w.Write([]byte{b}); err != nil {
		wr.err = errs.NewCodecError("short write: %v", err)
		return wr.err
	}
	return nil
}

func (wr *Writer) writeRaw(b []byte) error {
	if wr.err != nil {
		return wr.err
	}
	if _, err := wr.w.Write(b); err != nil {
		wr.err = errs.NewCodecError("short write: %v", err)
		return wr.err
	}
	return nil
}

// writeHeader emits the minimal definite-length header+argument encoding
// for the given major type and unsigned argument n.
func (wr *Writer) writeHeader(major byte, n uint64) error {
	switch {
	case n < 24:
		return wr.writeByte(major<<5 | byte(n))
	case n <= 0xFF:
		return wr.writeRaw([]byte{major<<5 | 24, byte(n)})
	case n <= 0xFFFF:
		return wr.writeRaw([]byte{major<<5 | 25, byte(n >> 8), byte(n)})
	case n <= 0xFFFFFFFF:
		return wr.writeRaw([]byte{
			major<<5 | 26,
			byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
		})
	default:
		return wr.writeRaw([]byte{
			major<<5 | 27,
			byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
			byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
		})
	}
}

func (wr *Writer) writeIndefiniteHeader(major byte) error {
	return wr.writeByte(major<<5 | 31)
}

func (wr *Writer) writeNull() error { return wr.writeByte(0xF6) }

func (wr *Writer) writeBool(v bool) error {
	if v {
		return wr.writeByte(0xF5)
	}
	return wr.writeByte(0xF4)
}

func (wr *Writer) writeInt(v int64) error {
	if v >= 0 {
		return wr.writeHeader(0, uint64(v))
	}
	return wr.writeHeader(1, uint64(-1-v))
}

func (wr *Writer) writeFloat(v float64) error {
	if err := wr.writeByte(7<<5 | 27); err != nil {
		return err
	}
	bits := math.Float64bits(v)
	return wr.writeRaw([]byte{
		byte(bits >> 56), byte(bits >> 48), byte(bits >> 40), byte(bits >> 32),
		byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits),
	})
}

func (wr *Writer) writeTextString(s string) error {
	if err := wr.writeHeader(3, uint64(len(s))); err != nil {
		return err
	}
	return wr.writeRaw([]byte(s))
}

func (wr *Writer) writeByteString(b []byte) error {
	if err := wr.writeHeader(2, uint64(len(b))); err != nil {
		return err
	}
	return wr.writeRaw(b)
}

func (wr *Writer) openChild(parent *node, major byte) *node {
	child := &node{w: wr, parent: parent}
	wr.active = child
	if err := wr.writeIndefiniteHeader(major); err != nil {
		wr.err = err
		child.closed = true
	}
	return child
}

// MapHandle is a handle to an open CBOR map. Entries are appended in the
// order the caller calls Append*; the writer does not sort keys.
type MapHandle struct {
	node *node
}

// AppendNull writes a null-valued entry under key.
func (m *MapHandle) AppendNull(key string) error {
	if err := m.node.checkWritable(); err != nil {
		return err
	}
	if err := m.node.w.writeTextString(key); err != nil {
		return err
	}
	return m.node.w.writeNull()
}

// AppendBool writes a boolean entry under key.
func (m *MapHandle) AppendBool(key string, v bool) error {
	if err := m.node.checkWritable(); err != nil {
		return err
	}
	if err := m.node.w.writeTextString(key); err != nil {
		return err
	}
	return m.node.w.writeBool(v)
}

// AppendInt writes a signed 64-bit integer entry under key.
func (m *MapHandle) AppendInt(key string, v int64) error {
	if err := m.node.checkWritable(); err != nil {
		return err
	}
	if err := m.node.w.writeTextString(key); err != nil {
		return err
	}
	return m.node.w.writeInt(v)
}

// AppendFloat writes a double-precision float entry under key.
func (m *MapHandle) AppendFloat(key string, v float64) error {
	if err := m.node.checkWritable(); err != nil {
		return err
	}
	if err := m.node.w.writeTextString(key); err != nil {
		return err
	}
	return m.node.w.writeFloat(v)
}

// AppendText writes a UTF-8 string entry under key.
func (m *MapHandle) AppendText(key string, v string) error {
	if err := m.node.checkWritable(); err != nil {
		return err
	}
	if err := m.node.w.writeTextString(key); err != nil {
		return err
	}
	return m.node.w.writeTextString(v)
}

// AppendBytes writes a byte string entry under key.
func (m *MapHandle) AppendBytes(key string, v []byte) error {
	if err := m.node.checkWritable(); err != nil {
		return err
	}
	if err := m.node.w.writeTextString(key); err != nil {
		return err
	}
	return m.node.w.writeByteString(v)
}

// AppendArray opens a nested array entry under key and returns a handle to
// it. m is shadowed until the returned handle is closed.
func (m *MapHandle) AppendArray(key string) (*ArrayHandle, error) {
	if err := m.node.checkWritable(); err != nil {
		return nil, err
	}
	if err := m.node.w.writeTextString(key); err != nil {
		return nil, err
	}
	return &ArrayHandle{node: m.node.w.openChild(m.node, 4)}, nil
}

// AppendMap opens a nested map entry under key and returns a handle to it.
// m is shadowed until the returned handle is closed.
func (m *MapHandle) AppendMap(key string) (*MapHandle, error) {
	if err := m.node.checkWritable(); err != nil {
		return nil, err
	}
	if err := m.node.w.writeTextString(key); err != nil {
		return nil, err
	}
	return &MapHandle{node: m.node.w.openChild(m.node, 5)}, nil
}

// Close terminates the map, emitting the CBOR break byte and reactivating
// the parent handle (if any).
func (m *MapHandle) Close() error { return m.node.close() }

// ArrayHandle is a handle to an open CBOR array.
type ArrayHandle struct {
	node *node
}

// AppendNull appends a null-valued item.
func (a *ArrayHandle) AppendNull() error {
	if err := a.node.checkWritable(); err != nil {
		return err
	}
	return a.node.w.writeNull()
}

// AppendBool appends a boolean item.
func (a *ArrayHandle) AppendBool(v bool) error {
	if err := a.node.checkWritable(); err != nil {
		return err
	}
	return a.node.w.writeBool(v)
}

// AppendInt appends a signed 64-bit integer item.
func (a *ArrayHandle) AppendInt(v int64) error {
	if err := a.node.checkWritable(); err != nil {
		return err
	}
	return a.node.w.writeInt(v)
}

// AppendFloat appends a double-precision float item.
func (a *ArrayHandle) AppendFloat(v float64) error {
	if err := a.node.checkWritable(); err != nil {
		return err
	}
	return a.node.w.writeFloat(v)
}

// AppendText appends a UTF-8 string item.
func (a *ArrayHandle) AppendText(v string) error {
	if err := a.node.checkWritable(); err != nil {
		return err
	}
	return a.node.w.writeTextString(v)
}

// AppendBytes appends a byte string item.
func (a *ArrayHandle) AppendBytes(v []byte) error {
	if err := a.node.checkWritable(); err != nil {
		return err
	}
	return a.node.w.writeByteString(v)
}

// AppendArray opens a nested array item and returns a handle to it. a is
// shadowed until the returned handle is closed.
func (a *ArrayHandle) AppendArray() (*ArrayHandle, error) {
	if err := a.node.checkWritable(); err != nil {
		return nil, err
	}
	return &ArrayHandle{node: a.node.w.openChild(a.node, 4)}, nil
}

// AppendMap opens a nested map item and returns a handle to it. a is
// shadowed until the returned handle is closed.
func (a *ArrayHandle) AppendMap() (*MapHandle, error) {
	if err := a.node.checkWritable(); err != nil {
		return nil, err
	}
	return &MapHandle{node: a.node.w.openChild(a.node, 5)}, nil
}

// Close terminates the array, emitting the CBOR break byte and reactivating
// the parent handle (if any).
func (a *ArrayHandle) Close() error { return a.node.close() }
