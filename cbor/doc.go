// Package cbor implements a streaming writer and a validating reader over a
// deliberately small subset of RFC 7049 (CBOR): integers in the signed
// 64-bit range, booleans, null, double-precision floats, byte and UTF-8
// strings, arrays and maps (definite- and indefinite-length), with semantic
// tags skipped transparently.
//
// It exists as the self-describing wire format for treegen's generated
// serialize/deserialize code (see the treegen package) and is usable on its
// own for any caller that wants a minimal, dependency-free CBOR encoding.
//
// The writer always uses indefinite-length encoding for arrays and maps and
// the minimal definite-length encoding for integers; the reader accepts
// both definite- and indefinite-length forms on input. Half- and
// single-precision floats, the undefined value, integers outside the
// signed 64-bit range, and any other
// CBOR feature outside this subset are rejected with a *CodecError rather
// than silently coerced.
package cbor
