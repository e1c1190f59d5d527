// Package ast implements the typed value model used for graph labels.
//
// A [Type] is a schema descriptor: a primitive (bool, int, string), a
// nullable wrapper, a tagged union, or a composite record. A [Value] is an
// instance conforming to exactly one Type. Both are immutable after
// construction and compared structurally. [Check] verifies conformance
// without any coercion: a value either fits a type exactly or the check
// fails with a TYPE_MISMATCH error.
//
// A [TaggedValue] pairs a discriminant tag with a value and is the label
// attached to graph nodes and edges; the tag doubles as the schema lookup
// key in the graph store.
package ast
