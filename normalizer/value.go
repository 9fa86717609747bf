package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind discriminates the shapes a wire Value can take.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a parsed upstream JSON document node. Payloads are decoded into
// Value at the client boundary and mapped to the models package from there;
// nothing downstream sees an untyped interface{}.
type Value struct {
	kind Kind
	str  string // string payload, or the number literal
	num  float64
	b    bool
	arr  []Value
	obj  map[string]Value
}

// Null is the zero Value, returned for absent fields.
var Null = Value{}

// Parse decodes raw JSON into a Value.
func Parse(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Null, err
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromRaw(raw)
	return nil
}

// MarshalJSON implements json.Marshaler so a Value can be cached or logged.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.str), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	default:
		return []byte("null"), nil
	}
}

func fromRaw(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null
	case string:
		return Value{kind: KindString, str: t}
	case json.Number:
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			f = 0
		}
		return Value{kind: KindNumber, str: t.String(), num: f}
	case bool:
		return Value{kind: KindBool, b: t}
	case []interface{}:
		arr := make([]Value, 0, len(t))
		for _, e := range t {
			arr = append(arr, fromRaw(e))
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = fromRaw(e)
		}
		return Value{kind: KindObject, obj: obj}
	default:
		return Null
	}
}

// Kind returns the shape of v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Field returns the named member of an object, or Null when v is not an
// object or has no such member.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Null
	}
	if f, ok := v.obj[name]; ok {
		return f
	}
	return Null
}

// Has reports whether v is an object carrying the named member.
func (v Value) Has(name string) bool {
	if v.kind != KindObject {
		return false
	}
	_, ok := v.obj[name]
	return ok
}

// Path walks nested object members.
func (v Value) Path(names ...string) Value {
	cur := v
	for _, n := range names {
		cur = cur.Field(n)
	}
	return cur
}

// Array returns the elements of an array value, or nil.
func (v Value) Array() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// scalarString renders a bare scalar the way a loose string conversion would.
func (v Value) scalarString() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		// integer literals keep their digits; phone numbers often arrive unquoted
		if _, err := strconv.ParseInt(v.str, 10, 64); err == nil {
			return v.str, true
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Str, Num and Bool build scalar Values, mainly for tests and fixtures.
func Str(s string) Value { return Value{kind: KindString, str: s} }

func Num(f float64) Value {
	return Value{kind: KindNumber, str: strconv.FormatFloat(f, 'f', -1, 64), num: f}
}

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

func List(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }
