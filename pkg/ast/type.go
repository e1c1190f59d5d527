package ast

import (
	"fmt"
	"slices"
	"strings"

	"github.com/logweave/logweave/pkg/errors"
)

// Kind identifies the variant of a Type or Value. The zero value is
// KindInvalid so that uninitialized types are detectable.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindString
	KindNullable
	KindTagged
	KindComposite
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindNullable:
		return "nullable"
	case KindTagged:
		return "tagged"
	case KindComposite:
		return "composite"
	default:
		return "invalid"
	}
}

// Type is an immutable schema descriptor. Types are compared structurally
// with [Type.Equal], never by identity. The zero value is invalid; use the
// constructor functions.
type Type struct {
	kind   Kind
	inner  *Type           // element type for KindNullable
	names  []string        // sorted tag/field names for KindTagged and KindComposite
	fields map[string]Type // sub-types keyed by tag/field name
}

// BoolType returns the boolean primitive type.
func BoolType() Type { return Type{kind: KindBool} }

// IntType returns the integer primitive type.
func IntType() Type { return Type{kind: KindInt} }

// StringType returns the string primitive type.
func StringType() Type { return Type{kind: KindString} }

// NullableType wraps inner in a nullable type whose values are either
// absent or an inner value.
func NullableType(inner Type) Type {
	in := inner
	return Type{kind: KindNullable, inner: &in}
}

// TaggedType constructs a discriminated union over the given tag → sub-type
// mapping. A value of this type carries exactly one tag from the set.
// Returns an INVALID_INPUT error for an empty mapping or an invalid sub-type.
func TaggedType(tags map[string]Type) (Type, error) {
	return makeStructured(KindTagged, tags)
}

// CompositeType constructs a record type over the given field → sub-type
// mapping. A value of this type carries one value per field.
// Returns an INVALID_INPUT error for an empty mapping or an invalid sub-type.
func CompositeType(fields map[string]Type) (Type, error) {
	return makeStructured(KindComposite, fields)
}

func makeStructured(kind Kind, subs map[string]Type) (Type, error) {
	if len(subs) == 0 {
		return Type{}, errors.New(errors.ErrCodeInvalidInput, "%s type requires at least one sub-type", kind)
	}
	names := make([]string, 0, len(subs))
	fields := make(map[string]Type, len(subs))
	for name, sub := range subs {
		if !sub.IsValid() {
			return Type{}, errors.New(errors.ErrCodeInvalidInput, "%s type: invalid sub-type for %q", kind, name)
		}
		names = append(names, name)
		fields[name] = sub
	}
	slices.Sort(names)
	return Type{kind: kind, names: names, fields: fields}, nil
}

// Kind returns the variant of the type.
func (t Type) Kind() Kind { return t.kind }

// IsValid reports whether the type was produced by a constructor.
func (t Type) IsValid() bool { return t.kind != KindInvalid }

// Elem returns the element type of a nullable type.
// For any other kind it returns an invalid type.
func (t Type) Elem() Type {
	if t.kind == KindNullable && t.inner != nil {
		return *t.inner
	}
	return Type{}
}

// FieldNames returns the sorted tag or field names of a tagged or composite
// type. The returned slice is a copy.
func (t Type) FieldNames() []string { return slices.Clone(t.names) }

// Field returns the sub-type registered under name and whether it exists.
func (t Type) Field(name string) (Type, bool) {
	sub, ok := t.fields[name]
	return sub, ok
}

// Equal reports structural equality: two tagged (or composite) types are
// equal iff their name sets and each name's sub-type are equal, recursively.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindNullable:
		return t.Elem().Equal(o.Elem())
	case KindTagged, KindComposite:
		if !slices.Equal(t.names, o.names) {
			return false
		}
		for _, name := range t.names {
			if !t.fields[name].Equal(o.fields[name]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the type in a compact human-readable form, e.g.
// "composite{time: int, user: string}" or "string?".
func (t Type) String() string {
	switch t.kind {
	case KindNullable:
		return t.Elem().String() + "?"
	case KindTagged, KindComposite:
		var b strings.Builder
		b.WriteString(t.kind.String())
		b.WriteString("{")
		for i, name := range t.names {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", name, t.fields[name])
		}
		b.WriteString("}")
		return b.String()
	default:
		return t.kind.String()
	}
}
