package jcs

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the JSON data model.
// Only Null, Bool, Number, String, Array, and Object implement it.
type Value interface {
	jsonValue() // Sealed - only these types implement it
}

// Null is the JSON null literal.
type Null struct{}

func (Null) jsonValue() {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) jsonValue() {}

// Number is a JSON number held as an IEEE-754 double.
// NaN and ±Inf can be held but not encoded.
type Number float64

func (Number) jsonValue() {}

// String is a JSON string. It must hold valid UTF-8 to be encoded.
type String string

func (String) jsonValue() {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) jsonValue() {}

// Object maps string keys to values. Iteration order is irrelevant:
// Encode applies the canonical key order without mutating the map.
type Object map[string]Value

func (Object) jsonValue() {}

// Pair is a key/value entry for building objects in a fixed order.
type Pair struct {
	Key   string
	Value Value
}

// P is a shorthand for Pair.
// Example: NewObject(P("name", String("Ada")), P("age", Number(31)))
func P(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// NewObject builds an Object from pairs. A repeated key keeps the last value.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for keys
// containing characters outside the Basic Multilingual Plane.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareKeys)
	return keys
}

// CompareKeys orders two strings by their UTF-16 code units.
func CompareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Lookup returns the member named key of an Object value.
// ok is false when v is not an Object or the key is absent.
func Lookup(v Value, key string) (member Value, ok bool) {
	obj, isObj := v.(Object)
	if !isObj {
		return nil, false
	}
	member, ok = obj[key]
	return member, ok
}
