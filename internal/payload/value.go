// Package payload implements the closed tagged-variant representation of an
// opaque JSON webhook body and the Type Detector that classifies any such
// value into one of the six primitive/compound kinds the pipeline reasons
// about.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Kind is the closed set of tags a JSON value can carry.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Value is a closed tagged variant over the JSON data model. Unlike a bare
// map[string]any/[]any/... decode, Value retains the insertion order of
// object keys so artifact emission can preserve a readable field order
// while the hasher still walks children lexicographically.
type Value struct {
	kind Kind

	str  string
	num  float64
	boll bool

	keys []string
	obj  map[string]Value

	arr []Value
}

func Null() Value                  { return Value{kind: KindNull} }
func String(s string) Value        { return Value{kind: KindString, str: s} }
func Number(n float64) Value       { return Value{kind: KindNumber, num: n} }
func Boolean(b bool) Value         { return Value{kind: KindBoolean, boll: b} }
func Array(items []Value) Value    { return Value{kind: KindArray, arr: items} }

// Object builds an object value from an ordered key list and a backing map.
// Callers own neither slice nor map after the call.
func Object(keys []string, fields map[string]Value) Value {
	return Value{kind: KindObject, keys: keys, obj: fields}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) StringValue() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) NumberValue() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.boll, true
}

// Keys returns the object's field names in original encounter order.
// Returns nil for non-object values.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return v.keys
}

// Field looks up a child of an object value by name.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	child, ok := v.obj[name]
	return child, ok
}

// Items returns the elements of an array value. Returns nil for non-arrays.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Detect reports the Kind of any Value. It exists as a standalone pure
// function (rather than just calling v.Kind()) so the contract from
// spec.md 4.A — "a pure function value -> kind" — has a visible, testable
// entry point independent of the Value type's internal tagging.
func Detect(v Value) Kind {
	return v.kind
}

// ParseObject decodes raw JSON into a Value, requiring the root to be a
// JSON object — the ingress-level contract this pipeline assumes (a
// non-object root is a Payload-malformed condition per spec.md 7).
func ParseObject(raw []byte) (Value, error) {
	v, err := Parse(raw)
	if err != nil {
		return Value{}, err
	}
	if v.Kind() != KindObject {
		return Value{}, fmt.Errorf("payload: root must be a JSON object, got %s", v.Kind())
	}
	return v, nil
}

// Parse decodes raw JSON into a Value, preserving object key order.
func Parse(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	// Reject trailing garbage after the first value.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("payload: unexpected trailing data")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, fmt.Errorf("payload: unexpected delimiter %q", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("payload: invalid number %q: %w", t, err)
		}
		return Number(f), nil
	case bool:
		return Boolean(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("payload: unsupported token %T", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	keys := make([]string, 0, 8)
	fields := make(map[string]Value, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("payload: object key is not a string")
		}
		child, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		if _, exists := fields[key]; !exists {
			keys = append(keys, key)
		}
		fields[key] = child
	}
	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Object(keys, fields), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	items := make([]Value, 0, 4)
	for dec.More() {
		child, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, child)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Array(items), nil
}

// MarshalJSON renders a Value back to canonical JSON, preserving object key
// insertion order (NOT lexicographic order — that sorting is a hashing-time
// concern, not a serialization concern; see internal/fingerprint).
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindNumber:
		b, err := json.Marshal(v.num)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindBoolean:
		if v.boll {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := v.obj[key].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("payload: unknown kind %q", v.kind)
	}
	return nil
}

// UnmarshalJSON lets Value participate in struct (de)serialization
// (TypeTree.Examples, stored artifacts) without losing object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Equal reports JSON-equality: two Values are equal iff their canonical
// serializations are byte-identical, independent of object key order.
func Equal(a, b Value) bool {
	return CanonicalJSON(a) == CanonicalJSON(b)
}

// CanonicalJSON serializes v with object keys sorted lexicographically at
// every level. Used for de-duplicating examples and for the payload
// fingerprint's input.
func CanonicalJSON(v Value) string {
	var buf bytes.Buffer
	writeCanonical(&buf, v, 0)
	return buf.String()
}

// writeCanonical mirrors writeJSON but sorts object keys and truncates
// very long strings to a sentinel so near-duplicate blobs fingerprint
// identically (payload fingerprint contract, spec.md 4.B). depth is unused
// but kept for future cycle-guarding symmetry with other walkers.
func writeCanonical(buf *bytes.Buffer, v Value, depth int) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		s := v.str
		if len(s) > canonicalStringBound {
			s = canonicalStringSentinel
		}
		b, _ := json.Marshal(s)
		buf.Write(b)
	case KindNumber:
		b, _ := json.Marshal(v.num)
		buf.Write(b)
	case KindBoolean:
		if v.boll {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, item, depth+1)
		}
		buf.WriteByte(']')
	case KindObject:
		keys := append([]string(nil), v.keys...)
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(key)
			buf.Write(kb)
			buf.WriteByte(':')
			writeCanonical(buf, v.obj[key], depth+1)
		}
		buf.WriteByte('}')
	}
}

const (
	canonicalStringBound    = 10000
	canonicalStringSentinel = "\x00__LARGE_STRING__\x00"
)
