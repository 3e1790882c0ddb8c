package cbor

import (
	"math"

	"github.com/nodeforge/treegen/errs"
)

// Major identifies the decoded kind of a CBOR data item, restricted to the
// subset this package understands.
type Major int

const (
	MajorNull Major = iota
	MajorBool
	MajorInt
	MajorFloat
	MajorBytes
	MajorText
	MajorArray
	MajorMap
)

func (m Major) String() string {
	switch m {
	case MajorNull:
		return "null"
	case MajorBool:
		return "bool"
	case MajorInt:
		return "int"
	case MajorFloat:
		return "float"
	case MajorBytes:
		return "bytes"
	case MajorText:
		return "text"
	case MajorArray:
		return "array"
	case MajorMap:
		return "map"
	default:
		return "unknown"
	}
}

// MapEntry is one key/value pair of a decoded map, in encounter order.
type MapEntry struct {
	Key   string
	Value *Reader
}

// Reader is a single decoded CBOR data item, holding its own scalar value
// or, for arrays and maps, the already-decoded child items. A Reader tree
// is built once by NewReader via a full structural walk of the input, so
// every accessor below is a plain field read with no further parsing.
type Reader struct {
	major Major

	boolVal  bool
	intVal   int64
	floatVal float64
	textVal  string
	bytesVal []byte
	arrayVal []*Reader
	mapVal   []MapEntry
}

// NewReader decodes data as a single top-level CBOR data item, performing a
// full structural walk so that every nested array and map's extents are
// known up front. It borrows data: definite-length byte strings share
// data's backing array, while text strings and indefinite-length strings
// are copied.
func NewReader(data []byte) (*Reader, error) {
	r, n, err := parseItem(data, 0)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, errs.NewCodecErrorAt(n, "trailing %d unconsumed byte(s) after top-level value", len(data)-n)
	}
	return r, nil
}

// parseItem decodes exactly one CBOR data item starting at offset, skipping
// any number of leading semantic tags, and returns the item plus the offset
// just past it.
func parseItem(data []byte, offset int) (*Reader, int, error) {
	for {
		ib, err := byteAt(data, offset)
		if err != nil {
			return nil, 0, err
		}
		major := ib >> 5
		info := ib & 0x1F

		if major == 6 {
			// Semantic tag: decode and discard the tag number, then decode
			// and return the tagged item in its place.
			_, next, err := readArgument(data, offset+1, info)
			if err != nil {
				return nil, 0, err
			}
			offset = next
			continue
		}

		return parseItemAt(data, offset, major, info)
	}
}

func parseItemAt(data []byte, offset int, major, info byte) (*Reader, int, error) {
	switch major {
	case 0: // unsigned int
		v, next, err := readArgument(data, offset+1, info)
		if err != nil {
			return nil, 0, err
		}
		if v > math.MaxInt64 {
			return nil, 0, errs.NewCodecErrorAt(offset, "unsigned integer %d exceeds signed 64-bit range", v)
		}
		return &Reader{major: MajorInt, intVal: int64(v)}, next, nil

	case 1: // negative int: value = -1 - n
		n, next, err := readArgument(data, offset+1, info)
		if err != nil {
			return nil, 0, err
		}
		if n > math.MaxInt64 {
			return nil, 0, errs.NewCodecErrorAt(offset, "negative integer -1-%d exceeds signed 64-bit range", n)
		}
		return &Reader{major: MajorInt, intVal: -1 - int64(n)}, next, nil

	case 2: // byte string
		b, next, err := readByteOrTextString(data, offset, info, false)
		if err != nil {
			return nil, 0, err
		}
		return &Reader{major: MajorBytes, bytesVal: b}, next, nil

	case 3: // utf-8 string
		b, next, err := readByteOrTextString(data, offset, info, true)
		if err != nil {
			return nil, 0, err
		}
		return &Reader{major: MajorText, textVal: string(b)}, next, nil

	case 4: // array
		return parseArray(data, offset, info)

	case 5: // map
		return parseMap(data, offset, info)

	case 7: // simple values and floats
		return parseSimple(data, offset, info)

	default:
		return nil, 0, errs.NewCodecErrorAt(offset, "unknown CBOR major type %d", major)
	}
}

func parseSimple(data []byte, offset int, info byte) (*Reader, int, error) {
	switch info {
	case 20:
		return &Reader{major: MajorBool, boolVal: false}, offset + 1, nil
	case 21:
		return &Reader{major: MajorBool, boolVal: true}, offset + 1, nil
	case 22:
		return &Reader{major: MajorNull}, offset + 1, nil
	case 23:
		return nil, 0, errs.NewCodecErrorAt(offset, "undefined value is not supported")
	case 25:
		return nil, 0, errs.NewCodecErrorAt(offset, "half-precision float is not supported")
	case 26:
		return nil, 0, errs.NewCodecErrorAt(offset, "single-precision float is not supported")
	case 27:
		bits, next, err := readUint(data, offset+1, 8)
		if err != nil {
			return nil, 0, err
		}
		return &Reader{major: MajorFloat, floatVal: math.Float64frombits(bits)}, next, nil
	case 31:
		return nil, 0, errs.NewCodecErrorAt(offset, "unexpected break code")
	default:
		return nil, 0, errs.NewCodecErrorAt(offset, "unsupported CBOR simple value %d", info)
	}
}

func parseArray(data []byte, offset int, info byte) (*Reader, int, error) {
	if info == 31 {
		items := make([]*Reader, 0)
		pos := offset + 1
		for {
			b, err := byteAt(data, pos)
			if err != nil {
				return nil, 0, err
			}
			if b == 0xFF {
				pos++
				break
			}
			item, next, err := parseItem(data, pos)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, item)
			pos = next
		}
		return &Reader{major: MajorArray, arrayVal: items}, pos, nil
	}

	count, pos, err := readArgument(data, offset+1, info)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*Reader, 0, count)
	for i := uint64(0); i < count; i++ {
		item, next, err := parseItem(data, pos)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
		pos = next
	}
	return &Reader{major: MajorArray, arrayVal: items}, pos, nil
}

func parseMap(data []byte, offset int, info byte) (*Reader, int, error) {
	entries := make([]MapEntry, 0)
	addEntry := func(key *Reader, val *Reader) error {
		if key.major != MajorText {
			return errs.NewCodecErrorAt(offset, "map key is not a UTF-8 string")
		}
		entries = append(entries, MapEntry{Key: key.textVal, Value: val})
		return nil
	}

	if info == 31 {
		pos := offset + 1
		for {
			b, err := byteAt(data, pos)
			if err != nil {
				return nil, 0, err
			}
			if b == 0xFF {
				pos++
				break
			}
			key, next, err := parseItem(data, pos)
			if err != nil {
				return nil, 0, err
			}
			val, next2, err := parseItem(data, next)
			if err != nil {
				return nil, 0, err
			}
			if err := addEntry(key, val); err != nil {
				return nil, 0, err
			}
			pos = next2
		}
		return &Reader{major: MajorMap, mapVal: dedupLastWins(entries)}, pos, nil
	}

	count, pos, err := readArgument(data, offset+1, info)
	if err != nil {
		return nil, 0, err
	}
	for i := uint64(0); i < count; i++ {
		key, next, err := parseItem(data, pos)
		if err != nil {
			return nil, 0, err
		}
		val, next2, err := parseItem(data, next)
		if err != nil {
			return nil, 0, err
		}
		if err := addEntry(key, val); err != nil {
			return nil, 0, err
		}
		pos = next2
	}
	return &Reader{major: MajorMap, mapVal: dedupLastWins(entries)}, pos, nil
}

// dedupLastWins keeps only the final occurrence of each key, preserving the
// position of that final occurrence, matching the "duplicate keys: last
// wins" contract.
func dedupLastWins(entries []MapEntry) []MapEntry {
	last := make(map[string]int, len(entries))
	for i, e := range entries {
		last[e.Key] = i
	}
	out := make([]MapEntry, 0, len(last))
	for i, e := range entries {
		if last[e.Key] == i {
			out = append(out, e)
		}
	}
	return out
}

// readByteOrTextString reads a definite- or indefinite-length byte or text
// string. wantText selects which major type chunks of an indefinite-length
// string must match.
func readByteOrTextString(data []byte, offset int, info byte, wantText bool) ([]byte, int, error) {
	if info == 31 {
		var out []byte
		pos := offset + 1
		wantMajor := byte(2)
		if wantText {
			wantMajor = 3
		}
		for {
			b, err := byteAt(data, pos)
			if err != nil {
				return nil, 0, err
			}
			if b == 0xFF {
				pos++
				break
			}
			chunkMajor := b >> 5
			chunkInfo := b & 0x1F
			if chunkMajor != wantMajor || chunkInfo == 31 {
				return nil, 0, errs.NewCodecErrorAt(pos, "malformed indefinite-length string: mismatched chunk major type")
			}
			n, next, err := readArgument(data, pos+1, chunkInfo)
			if err != nil {
				return nil, 0, err
			}
			chunk, err := sliceAt(data, next, int(n))
			if err != nil {
				return nil, 0, err
			}
			out = append(out, chunk...)
			pos = next + int(n)
		}
		if out == nil {
			out = []byte{}
		}
		return out, pos, nil
	}

	n, pos, err := readArgument(data, offset+1, info)
	if err != nil {
		return nil, 0, err
	}
	b, err := sliceAt(data, pos, int(n))
	if err != nil {
		return nil, 0, err
	}
	return b, pos + int(n), nil
}

// readArgument decodes the "argument" that follows an initial byte's info
// field: either the info field itself (info < 24) or 1/2/4/8 additional
// bytes (info 24..27). info values 28..31 are the caller's responsibility
// (31 signals indefinite length, 28..30 are reserved and rejected here).
func readArgument(data []byte, offset int, info byte) (uint64, int, error) {
	switch {
	case info < 24:
		return uint64(info), offset, nil
	case info == 24:
		return readUint(data, offset, 1)
	case info == 25:
		return readUint(data, offset, 2)
	case info == 26:
		return readUint(data, offset, 4)
	case info == 27:
		return readUint(data, offset, 8)
	default:
		return 0, 0, errs.NewCodecErrorAt(offset, "reserved or indefinite-length info value %d not allowed here", info)
	}
}

func readUint(data []byte, offset int, width int) (uint64, int, error) {
	b, err := sliceAt(data, offset, width)
	if err != nil {
		return 0, 0, err
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, offset + width, nil
}

func byteAt(data []byte, offset int) (byte, error) {
	if offset < 0 || offset >= len(data) {
		return 0, errs.NewCodecErrorAt(offset, "read past end of input")
	}
	return data[offset], nil
}

func sliceAt(data []byte, offset, n int) ([]byte, error) {
	if n < 0 || offset < 0 || offset+n > len(data) {
		return nil, errs.NewCodecErrorAt(offset, "read of %d byte(s) past end of input", n)
	}
	return data[offset : offset+n], nil
}

// Is* report the decoded major type of the item.
func (r *Reader) IsNull() bool  { return r.major == MajorNull }
func (r *Reader) IsBool() bool  { return r.major == MajorBool }
func (r *Reader) IsInt() bool   { return r.major == MajorInt }
func (r *Reader) IsFloat() bool { return r.major == MajorFloat }
func (r *Reader) IsBytes() bool { return r.major == MajorBytes }
func (r *Reader) IsText() bool  { return r.major == MajorText }
func (r *Reader) IsArray() bool { return r.major == MajorArray }
func (r *Reader) IsMap() bool   { return r.major == MajorMap }

// Major returns the decoded major type.
func (r *Reader) Major() Major { return r.major }

func (r *Reader) typeMismatch(want Major) error {
	return errs.NewSchemaError("", 0, "expected %s, got %s", want, r.major)
}

// AsBool returns the decoded boolean value.
func (r *Reader) AsBool() (bool, error) {
	if r.major != MajorBool {
		return false, r.typeMismatch(MajorBool)
	}
	return r.boolVal, nil
}

// AsInt returns the decoded signed integer value.
func (r *Reader) AsInt() (int64, error) {
	if r.major != MajorInt {
		return 0, r.typeMismatch(MajorInt)
	}
	return r.intVal, nil
}

// AsFloat returns the decoded double-precision float value.
func (r *Reader) AsFloat() (float64, error) {
	if r.major != MajorFloat {
		return 0, r.typeMismatch(MajorFloat)
	}
	return r.floatVal, nil
}

// AsBytes returns the decoded byte string.
func (r *Reader) AsBytes() ([]byte, error) {
	if r.major != MajorBytes {
		return nil, r.typeMismatch(MajorBytes)
	}
	return r.bytesVal, nil
}

// AsText returns the decoded UTF-8 string.
func (r *Reader) AsText() (string, error) {
	if r.major != MajorText {
		return "", r.typeMismatch(MajorText)
	}
	return r.textVal, nil
}

// AsArray returns an indexable view over the decoded array's items.
func (r *Reader) AsArray() (ArrayView, error) {
	if r.major != MajorArray {
		return nil, r.typeMismatch(MajorArray)
	}
	return ArrayView(r.arrayVal), nil
}

// AsMap returns a view over the decoded map's entries, keyed by UTF-8
// string with duplicate keys already resolved last-wins.
func (r *Reader) AsMap() (MapView, error) {
	if r.major != MajorMap {
		return MapView{}, r.typeMismatch(MajorMap)
	}
	return MapView{entries: r.mapVal}, nil
}

// ArrayView is an indexable, ordered sequence of decoded array items.
type ArrayView []*Reader

// Len returns the number of items.
func (a ArrayView) Len() int { return len(a) }

// At returns the item at index i, or an error if i is out of range.
func (a ArrayView) At(i int) (*Reader, error) {
	if i < 0 || i >= len(a) {
		return nil, errs.NewSchemaError("", 0, "array index %d out of range [0,%d)", i, len(a))
	}
	return a[i], nil
}

// MapView is a read-only view over a decoded map's entries.
type MapView struct {
	entries []MapEntry
}

// Len returns the number of entries.
func (m MapView) Len() int { return len(m.entries) }

// Entries returns the entries in encounter order (after last-wins dedup).
func (m MapView) Entries() []MapEntry { return m.entries }

// Get looks up key, returning (value, true) if present.
func (m MapView) Get(key string) (*Reader, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// At looks up key like Get but returns an error instead of a bool, mirroring
// the original reader's at() accessor for callers that expect the key to be
// present.
func (m MapView) At(key string) (*Reader, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, errs.NewSchemaError("", 0, "map has no key %q", key)
	}
	return v, nil
}
