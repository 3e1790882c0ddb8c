// Package treegen is the small support library that code emitted by the
// treegen schema compiler (see cmd/treegen, internal/schema, internal/spec,
// internal/gen) depends on at runtime. It provides:
//
//   - The six edge value types (Exactly, Maybe, List, NonEmptyList, Link,
//     OptLink) generated node fields are declared with.
//   - The two-pass well-formedness algorithm (PointerMap, CheckWellFormed,
//     IsWellFormed) and the Node/Completable contract generated types
//     implement to participate in it.
//   - The process-wide annotation registry (RegisterAnnotation,
//     Annotatable) generated node types embed.
//   - The generic double-dispatch Visitor, plus the RecursiveVisitor and
//     Dumper specializations built on it.
//
// Design policy, carried over from the library this was generalized from:
// keep only the genuinely schema-agnostic pieces here; everything that
// must vary per schema (field lists, per-NodeType dump formatting,
// serialize/deserialize bodies) is emitted source, not support-library
// code. See internal/gen for what the emitter is responsible for.
package treegen
