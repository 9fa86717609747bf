package normalizer

import (
	"math"
	"strconv"
	"strings"
)

// Typed-envelope keys used by the document-store dialect.
const (
	keyString  = "stringValue"
	keyInteger = "integerValue"
	keyDouble  = "doubleValue"
	keyBoolean = "booleanValue"
	keyArray   = "arrayValue"
	keyValues  = "values"
	keyMap     = "mapValue"
	keyFields  = "fields"
)

// String extracts a string from a flat scalar or a typed envelope.
// Null yields "". Arrays and objects without a scalar envelope also yield "".
func String(v Value) string {
	switch v.kind {
	case KindNull:
		return ""
	case KindObject:
		if v.Has(keyString) {
			return String(v.Field(keyString))
		}
		for _, k := range [...]string{keyInteger, keyDouble, keyBoolean} {
			if v.Has(k) {
				return String(v.Field(k))
			}
		}
		return ""
	default:
		s, _ := v.scalarString()
		return s
	}
}

// Number extracts a number, checking doubleValue then integerValue before
// coercing the raw value. Anything unparseable is 0.
func Number(v Value) float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return parseNumber(v.str)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindObject:
		if v.Has(keyDouble) {
			return Number(v.Field(keyDouble))
		}
		if v.Has(keyInteger) {
			return Number(v.Field(keyInteger))
		}
		return 0
	default:
		return 0
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// Bool extracts a flag. Native booleans and booleanValue envelopes pass
// through; everything else is true only when its string form is "true".
func Bool(v Value) bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindObject:
		if v.Has(keyBoolean) {
			return Bool(v.Field(keyBoolean))
		}
	}
	return strings.ToLower(strings.TrimSpace(String(v))) == "true"
}

// Elements unwraps a collection field: {arrayValue:{values:[...]}} or a
// plain array. Anything else is an empty collection.
func Elements(v Value) []Value {
	if v.kind == KindArray {
		return v.arr
	}
	if v.Has(keyArray) {
		return v.Path(keyArray, keyValues).Array()
	}
	return nil
}

// FieldBag returns e.mapValue.fields when present, else e itself.
func FieldBag(e Value) Value {
	if fields := e.Path(keyMap, keyFields); fields.kind == KindObject {
		return fields
	}
	return e
}

// documentFields resolves the field bag of a top-level document, which may
// be a {fields:{...}} wrapper, a mapValue, or a flat object.
func documentFields(doc Value) Value {
	if fields := doc.Field(keyFields); fields.kind == KindObject {
		return fields
	}
	return FieldBag(doc)
}

// firstString returns the first non-empty string among the named fields.
func firstString(bag Value, names ...string) string {
	for _, n := range names {
		if s := String(bag.Field(n)); s != "" {
			return s
		}
	}
	return ""
}

// firstNumber returns the first non-zero number among the named fields.
func firstNumber(bag Value, names ...string) float64 {
	for _, n := range names {
		if f := Number(bag.Field(n)); f != 0 {
			return f
		}
	}
	return 0
}

func optionalNumber(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}
