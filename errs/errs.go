// Package errs holds the error taxonomy shared by every treegen component:
// the schema compiler, the runtime tree library, and the CBOR codec.
//
// Four kinds are distinguished (see spec §7): SchemaError, NotWellFormed,
// CodecError, and Missing. Each is a distinct Go type so callers can use
// errors.As to recover the kind without string matching, while all four
// also carry a plain Error() string for logging.
package errs

import "fmt"

// SchemaError reports a schema parse failure, an unresolved reference, a
// duplicate node or directive, or a mismatched edge/type found while
// decoding a serialized payload.
type SchemaError struct {
	File    string // schema or payload source name; "" when not applicable.
	Line    int    // 1-based line number; 0 when unknown.
	Message string
	Cause   error
}

func (e *SchemaError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return e.Message
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// NewSchemaError constructs a SchemaError with no cause.
func NewSchemaError(file string, line int, format string, args ...any) *SchemaError {
	return &SchemaError{File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// WrapSchemaError constructs a SchemaError wrapping cause.
func WrapSchemaError(file string, line int, cause error, format string, args ...any) *SchemaError {
	return &SchemaError{File: file, Line: line, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NotWellFormed reports a uniqueness, required-edge, list-non-empty,
// link-reachability, or error-marker violation discovered while validating
// a tree (§4.4).
type NotWellFormed struct {
	Reason string // e.g. "duplicate node", "dangling link", "missing required edge".
	Detail string // human-readable elaboration, e.g. the field or node name.
}

func (e *NotWellFormed) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("NotWellFormed: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("NotWellFormed: %s", e.Reason)
}

// NewNotWellFormed constructs a NotWellFormed error.
func NewNotWellFormed(reason, detail string) *NotWellFormed {
	return &NotWellFormed{Reason: reason, Detail: detail}
}

// CodecError reports malformed CBOR, an unsupported CBOR feature (half or
// single precision float, undefined value, integer outside the signed
// 64-bit range), or a write
// attempted against a shadowed writer handle.
type CodecError struct {
	Offset  int // byte offset into the slice being read; -1 when not applicable.
	Message string
	Cause   error
}

func (e *CodecError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("CodecError: %s (at byte %d)", e.Message, e.Offset)
	}
	return fmt.Sprintf("CodecError: %s", e.Message)
}

func (e *CodecError) Unwrap() error { return e.Cause }

// NewCodecError constructs a CodecError with no known byte offset.
func NewCodecError(format string, args ...any) *CodecError {
	return &CodecError{Offset: -1, Message: fmt.Sprintf(format, args...)}
}

// NewCodecErrorAt constructs a CodecError with a known byte offset.
func NewCodecErrorAt(offset int, format string, args ...any) *CodecError {
	return &CodecError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// Missing reports a failed annotation lookup: GetAnnotation was called for
// a type with no value set on the node.
type Missing struct {
	TypeName string
}

func (e *Missing) Error() string {
	return fmt.Sprintf("Missing: no annotation of type %s on node", e.TypeName)
}

// NewMissing constructs a Missing error for the given annotation type name.
func NewMissing(typeName string) *Missing {
	return &Missing{TypeName: typeName}
}
