// Package record implements the ordered string-to-JSON-value mapping that
// flows through the telemetry pipeline: producer records, queue payloads,
// and mapper input all share this type.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the dynamic type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
	KindArray
	KindObject
)

// Value is a single JSON value that remembers whether it was encoded as an
// integer or a float, and preserves key order when it is an object.
type Value struct {
	Kind   Kind
	Str    string
	Bool   bool
	Int    int64
	Float  float64
	Array  []Value
	Object Record
}

// Field is one key/value pair of an ordered object.
type Field struct {
	Key   string
	Value Value
}

// Record is an ordered mapping from string keys to JSON values. Duplicate
// keys are preserved in the order they appear; callers needing "last one
// wins" semantics should use Lookup, which returns the last match.
type Record []Field

func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func Null() Value            { return Value{Kind: KindNull} }
func Object(r Record) Value  { return Value{Kind: KindObject, Object: r} }
func Arr(vs ...Value) Value  { return Value{Kind: KindArray, Array: vs} }

// Lookup returns the value of the last field with the given key.
func (r Record) Lookup(key string) (Value, bool) {
	var found Value
	ok := false
	for _, f := range r {
		if f.Key == key {
			found = f.Value
			ok = true
		}
	}
	return found, ok
}

// WithoutKeys returns a copy of r with every field whose key is in keys
// removed, preserving the relative order of the remaining fields.
func (r Record) WithoutKeys(keys ...string) Record {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := make(Record, 0, len(r))
	for _, f := range r {
		if _, skip := drop[f.Key]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Set appends or replaces (in place, preserving position) a field.
func (r Record) Set(key string, v Value) Record {
	for i, f := range r {
		if f.Key == key {
			r[i].Value = v
			return r
		}
	}
	return append(r, Field{Key: key, Value: v})
}

// StringField is a convenience for Lookup of a reserved string key.
func (r Record) StringField(key string) (string, bool) {
	v, ok := r.Lookup(key)
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// IntField is a convenience for Lookup of a reserved integer key.
func (r Record) IntField(key string) (int64, bool) {
	v, ok := r.Lookup(key)
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		return int64(v.Float), true
	default:
		return 0, false
	}
}

// MarshalJSON emits the record as a JSON object, field order preserved.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rebuilds a Record from a JSON object, preserving the
// textual key order using a token-level decode.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}
	rec, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// MarshalJSON emits the value using its discriminated kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := json.Marshal(e)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		return v.Object.MarshalJSON()
	default:
		return nil, fmt.Errorf("record: unknown value kind %d", v.Kind)
	}
}

func decodeObject(dec *json.Decoder) (Record, error) {
	var rec Record
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return rec, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("record: expected object key, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		rec = append(rec, Field{Key: key, Value: val})
	}
}

func decodeArray(dec *json.Decoder) ([]Value, error) {
	var arr []Value
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == ']' {
			return arr, nil
		}
		val, err := decodeValueFromToken(dec, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeValueFromToken(dec, tok)
}

func decodeValueFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj, err := decodeObject(dec)
			if err != nil {
				return Value{}, err
			}
			return Object(obj), nil
		case '[':
			arr, err := decodeArray(dec)
			if err != nil {
				return Value{}, err
			}
			return Value{Kind: KindArray, Array: arr}, nil
		default:
			return Value{}, fmt.Errorf("record: unexpected delimiter %v", t)
		}
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	default:
		return Value{}, fmt.Errorf("record: unsupported token %v (%T)", tok, tok)
	}
}
