package ast

import "fmt"

// TaggedValue is a (tag, value) pair used as a node or edge label. The tag
// is also the key under which the graph store looks up the schema type the
// value must conform to.
type TaggedValue struct {
	Tag   string
	Value Value
}

// Equal reports structural equality of tag and value.
func (tv TaggedValue) Equal(o TaggedValue) bool {
	return tv.Tag == o.Tag && tv.Value.Equal(o.Value)
}

// Key returns the canonical encoding of the label. Labels with equal keys
// are structurally equal; the graph store uses this as its deduplication
// index key.
func (tv TaggedValue) Key() string {
	return tv.Tag + "\x00" + tv.Value.String()
}

// String renders the label for human-readable output, e.g. "num: 0".
// An absent nullable value renders as the bare tag.
func (tv TaggedValue) String() string {
	if tv.Value.IsNull() {
		return tv.Tag
	}
	return fmt.Sprintf("%s: %s", tv.Tag, tv.Value)
}
