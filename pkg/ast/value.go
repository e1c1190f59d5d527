package ast

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/logweave/logweave/pkg/errors"
)

// Value is an immutable instance of exactly one [Type]. Values are built
// with the constructor functions and compared structurally with
// [Value.Equal]. Construction is total: there is no way to observe a
// partially built value.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	s      string
	absent bool            // nullable with no inner value
	inner  *Value          // nullable with an inner value
	tag    string          // discriminant of a tagged value
	elem   *Value          // payload of a tagged value
	names  []string        // sorted field names of a composite value
	fields map[string]Value
}

// NewBool constructs a boolean value.
func NewBool(v bool) Value { return Value{kind: KindBool, b: v} }

// NewInt constructs an integer value.
func NewInt(v int64) Value { return Value{kind: KindInt, i: v} }

// NewString constructs a string value.
func NewString(v string) Value { return Value{kind: KindString, s: v} }

// NewNull constructs an absent nullable value.
func NewNull() Value { return Value{kind: KindNullable, absent: true} }

// NewSome wraps v in a present nullable value.
func NewSome(v Value) Value {
	in := v
	return Value{kind: KindNullable, inner: &in}
}

// NewTagged constructs a tagged value carrying one (tag, value) pair.
func NewTagged(tag string, v Value) Value {
	in := v
	return Value{kind: KindTagged, tag: tag, elem: &in}
}

// NewComposite constructs a record value with one value per field.
func NewComposite(fields map[string]Value) Value {
	names := make([]string, 0, len(fields))
	copied := make(map[string]Value, len(fields))
	for name, v := range fields {
		names = append(names, name)
		copied[name] = v
	}
	slices.Sort(names)
	return Value{kind: KindComposite, names: names, fields: copied}
}

// Kind returns the variant of the value.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value was produced by a constructor.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Bool returns the boolean payload; false for any other kind.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload; 0 for any other kind.
func (v Value) Int() int64 { return v.i }

// Str returns the string payload; "" for any other kind.
func (v Value) Str() string { return v.s }

// IsNull reports whether v is an absent nullable value.
func (v Value) IsNull() bool { return v.kind == KindNullable && v.absent }

// Inner returns the inner value of a present nullable value.
func (v Value) Inner() (Value, bool) {
	if v.kind == KindNullable && v.inner != nil {
		return *v.inner, true
	}
	return Value{}, false
}

// Tag returns the discriminant of a tagged value; "" for any other kind.
func (v Value) Tag() string { return v.tag }

// Elem returns the payload of a tagged value.
func (v Value) Elem() (Value, bool) {
	if v.kind == KindTagged && v.elem != nil {
		return *v.elem, true
	}
	return Value{}, false
}

// FieldNames returns the sorted field names of a composite value.
func (v Value) FieldNames() []string { return slices.Clone(v.names) }

// Field returns the value stored under name and whether it exists.
func (v Value) Field(name string) (Value, bool) {
	f, ok := v.fields[name]
	return f, ok
}

// Equal reports structural equality. Two tagged values are equal iff their
// tags match and their payloads are equal; two composites iff they have the
// same fields with equal values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindString:
		return v.s == o.s
	case KindNullable:
		if v.absent || o.absent {
			return v.absent == o.absent
		}
		return v.inner.Equal(*o.inner)
	case KindTagged:
		return v.tag == o.tag && v.elem.Equal(*o.elem)
	case KindComposite:
		if !slices.Equal(v.names, o.names) {
			return false
		}
		for _, name := range v.names {
			if !v.fields[name].Equal(o.fields[name]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the value in its canonical form. The encoding is
// deterministic (composite fields in sorted order, strings quoted) and
// injective per kind, so it doubles as the deduplication key for labels.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindString:
		return strconv.Quote(v.s)
	case KindNullable:
		if v.absent {
			return "null"
		}
		return v.inner.String()
	case KindTagged:
		return fmt.Sprintf("%s(%s)", v.tag, v.elem)
	case KindComposite:
		var b strings.Builder
		b.WriteString("{")
		for i, name := range v.names {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", name, v.fields[name])
		}
		b.WriteString("}")
		return b.String()
	default:
		return "invalid"
	}
}

// Check verifies that v conforms to t. It performs no coercion: a bare
// primitive does not conform to a nullable of that primitive, an unknown
// tag fails, and a composite must carry exactly the declared fields.
// Failures are reported as recoverable TYPE_MISMATCH errors.
func Check(t Type, v Value) error {
	if !t.IsValid() {
		return errors.New(errors.ErrCodeTypeMismatch, "invalid type")
	}
	if !v.IsValid() {
		return errors.New(errors.ErrCodeTypeMismatch, "invalid value for type %s", t)
	}
	switch t.kind {
	case KindBool, KindInt, KindString:
		if v.kind != t.kind {
			return errors.New(errors.ErrCodeTypeMismatch, "expected %s, got %s", t.kind, v.kind)
		}
		return nil
	case KindNullable:
		if v.kind != KindNullable {
			return errors.New(errors.ErrCodeTypeMismatch, "expected %s, got %s", t, v.kind)
		}
		if v.absent {
			return nil
		}
		if err := Check(t.Elem(), *v.inner); err != nil {
			return errors.Wrap(errors.ErrCodeTypeMismatch, err, "nullable element")
		}
		return nil
	case KindTagged:
		if v.kind != KindTagged {
			return errors.New(errors.ErrCodeTypeMismatch, "expected %s, got %s", t.kind, v.kind)
		}
		sub, ok := t.Field(v.tag)
		if !ok {
			return errors.New(errors.ErrCodeTypeMismatch, "unknown tag %q (known: %s)", v.tag, strings.Join(t.names, ", "))
		}
		if err := Check(sub, *v.elem); err != nil {
			return errors.Wrap(errors.ErrCodeTypeMismatch, err, "tag %q", v.tag)
		}
		return nil
	case KindComposite:
		if v.kind != KindComposite {
			return errors.New(errors.ErrCodeTypeMismatch, "expected %s, got %s", t.kind, v.kind)
		}
		for _, name := range t.names {
			f, ok := v.Field(name)
			if !ok {
				return errors.New(errors.ErrCodeTypeMismatch, "missing field %q", name)
			}
			if err := Check(t.fields[name], f); err != nil {
				return errors.Wrap(errors.ErrCodeTypeMismatch, err, "field %q", name)
			}
		}
		for _, name := range v.names {
			if _, ok := t.Field(name); !ok {
				return errors.New(errors.ErrCodeTypeMismatch, "undeclared field %q", name)
			}
		}
		return nil
	default:
		return errors.New(errors.ErrCodeTypeMismatch, "invalid type kind")
	}
}

// MakeValue builds a value conforming to t from a raw Go value:
// bool, int/int64, string, nil (for nullables), and map[string]any for
// tagged (exactly one entry) and composite (one entry per field) types.
// It fails with a TYPE_MISMATCH error if raw cannot be represented under t.
func MakeValue(t Type, raw any) (Value, error) {
	switch t.kind {
	case KindBool:
		if b, ok := raw.(bool); ok {
			return NewBool(b), nil
		}
	case KindInt:
		switch n := raw.(type) {
		case int:
			return NewInt(int64(n)), nil
		case int64:
			return NewInt(n), nil
		}
	case KindString:
		if s, ok := raw.(string); ok {
			return NewString(s), nil
		}
	case KindNullable:
		if raw == nil {
			return NewNull(), nil
		}
		in, err := MakeValue(t.Elem(), raw)
		if err != nil {
			return Value{}, err
		}
		return NewSome(in), nil
	case KindTagged:
		m, ok := raw.(map[string]any)
		if !ok || len(m) != 1 {
			return Value{}, errors.New(errors.ErrCodeTypeMismatch, "tagged value requires a single-entry map, got %T", raw)
		}
		for tag, sub := range m {
			subType, ok := t.Field(tag)
			if !ok {
				return Value{}, errors.New(errors.ErrCodeTypeMismatch, "unknown tag %q", tag)
			}
			in, err := MakeValue(subType, sub)
			if err != nil {
				return Value{}, errors.Wrap(errors.ErrCodeTypeMismatch, err, "tag %q", tag)
			}
			return NewTagged(tag, in), nil
		}
	case KindComposite:
		m, ok := raw.(map[string]any)
		if !ok {
			return Value{}, errors.New(errors.ErrCodeTypeMismatch, "composite value requires a map, got %T", raw)
		}
		fields := make(map[string]Value, len(t.names))
		for _, name := range t.names {
			sub, ok := m[name]
			if !ok {
				return Value{}, errors.New(errors.ErrCodeTypeMismatch, "missing field %q", name)
			}
			f, err := MakeValue(t.fields[name], sub)
			if err != nil {
				return Value{}, errors.Wrap(errors.ErrCodeTypeMismatch, err, "field %q", name)
			}
			fields[name] = f
		}
		if len(m) != len(t.names) {
			for name := range m {
				if _, ok := t.Field(name); !ok {
					return Value{}, errors.New(errors.ErrCodeTypeMismatch, "undeclared field %q", name)
				}
			}
		}
		return NewComposite(fields), nil
	}
	return Value{}, errors.New(errors.ErrCodeTypeMismatch, "cannot represent %T as %s", raw, t)
}
