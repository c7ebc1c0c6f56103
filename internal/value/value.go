package value

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind tags the dynamic shape a Value currently holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a recursive JSON-like value: null, bool, number, string, an
// ordered sequence of Value, or a mapping from string to Value. It is the
// only type that crosses node boundaries.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
	// keys preserves insertion order for Object values; order is not part of
	// the value's identity (the data model says insertion order is
	// irrelevant) but is kept so repeated marshalling is stable for tests.
	keys []string
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps an ordered sequence of values.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// Object builds an object Value from a map, with keys sorted for
// deterministic iteration order.
func Object(m map[string]Value) Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Value{kind: KindObject, obj: m, keys: keys}
}

// NewObject returns an empty, mutable-by-Set object Value.
func NewObject() Value {
	return Value{kind: KindObject, obj: map[string]Value{}}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsArray() bool  { return v.kind == KindArray }
func (v Value) IsObject() bool { return v.kind == KindObject }

func (v Value) Bool() bool       { return v.b }
func (v Value) Number() float64  { return v.n }
func (v Value) Str() string      { return v.s }
func (v Value) Items() []Value   { return v.arr }

// Get looks up a key on an object Value. Returns (Null(), false) for any
// non-object or missing key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	val, ok := v.obj[key]
	return val, ok
}

// Set assigns a key on an object Value in place. Calling Set on a
// non-object first replaces it with an empty object.
func (v *Value) Set(key string, val Value) {
	if v.kind != KindObject {
		*v = NewObject()
	}
	if v.obj == nil {
		v.obj = map[string]Value{}
	}
	if _, exists := v.obj[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.obj[key] = val
}

// Keys returns the object's keys. Empty for non-objects.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Len returns the number of elements for arrays/objects, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Raw converts a Value into the equivalent interface{} tree, suitable for
// json.Marshal or for handing to a sandboxed script runtime.
func (v Value) Raw() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Raw()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Raw()
		}
		return out
	default:
		return nil
	}
}

// FromRaw converts a parsed interface{} (as produced by encoding/json) into
// a Value.
func FromRaw(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case string:
		return String(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromRaw(item)
		}
		return Array(items...)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = FromRaw(item)
		}
		return Object(m)
	case json.Number:
		f, _ := t.Float64()
		return Number(f)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// Parse decodes JSON bytes into a Value.
func Parse(data []byte) (Value, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Null(), err
	}
	return FromRaw(raw), nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromRaw(raw)
	return nil
}

// JSON renders the value as a compact JSON string. Used by interpolation
// whenever a non-string value needs textual representation.
func (v Value) JSON() string {
	b, err := json.Marshal(v.Raw())
	if err != nil {
		return ""
	}
	return string(b)
}

// RawString renders the value "raw": a String value renders as its
// contents, anything else renders as JSON. This matches the interpolation
// rule in spec §4.1.
func (v Value) RawString() string {
	if v.kind == KindString {
		return v.s
	}
	return v.JSON()
}
