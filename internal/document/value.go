package document

import "fmt"

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindArray
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindMapping:
		return "mapping"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a parsed document node.
type Value struct {
	Kind    Kind
	Scalar  string  // textual form for KindScalar
	Items   []Value // elements for KindArray
	Entries []Entry // ordered entries for KindMapping
}

// Entry is one key of a mapping.
type Entry struct {
	Key   string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Scalar wraps a textual scalar.
func Scalar(s string) Value { return Value{Kind: KindScalar, Scalar: s} }

// Array builds an array value.
func Array(items ...Value) Value { return Value{Kind: KindArray, Items: items} }

// Mapping builds a mapping value. Duplicate keys follow the same rule as the parsers.
func Mapping(entries ...Entry) Value {
	var b mappingBuilder
	for _, e := range entries {
		b.set(e.Key, e.Value)
	}
	return b.value()
}

// E is shorthand for constructing an Entry.
func E(key string, value Value) Entry { return Entry{Key: key, Value: value} }

// IsMapping reports whether v is a nested key/value mapping.
func (v Value) IsMapping() bool { return v.Kind == KindMapping }

// Len returns the number of entries or items, 0 for scalars and null.
func (v Value) Len() int {
	switch v.Kind {
	case KindMapping:
		return len(v.Entries)
	case KindArray:
		return len(v.Items)
	}
	return 0
}

// Lookup returns the value stored under key in a mapping.
func (v Value) Lookup(key string) (Value, bool) {
	if v.Kind != KindMapping {
		return Value{}, false
	}
	for _, e := range v.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// mappingBuilder accumulates mapping entries. A repeated key keeps the
// position of its first occurrence and takes the last value.
type mappingBuilder struct {
	entries []Entry
	index   map[string]int
}

func (b *mappingBuilder) set(key string, value Value) {
	if i, ok := b.index[key]; ok {
		b.entries[i].Value = value
		return
	}
	b.add(key, value)
}

// setDefault adds key only when it is not present yet.
func (b *mappingBuilder) setDefault(key string, value Value) {
	if _, ok := b.index[key]; !ok {
		b.add(key, value)
	}
}

func (b *mappingBuilder) add(key string, value Value) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	b.index[key] = len(b.entries)
	b.entries = append(b.entries, Entry{Key: key, Value: value})
}

func (b *mappingBuilder) value() Value {
	return Value{Kind: KindMapping, Entries: b.entries}
}
