package inspect

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the JSON value union.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// Value is a generic JSON value: a tagged union of
// null/bool/number/string/array/object. Object key order is preserved so a
// normalized payload round-trips without reshuffling.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []*Value
	obj  map[string]*Value
	keys []string
}

func (v *Value) Kind() Kind { return v.kind }

// StringValue returns the string content when v is a JSON string.
func (v *Value) StringValue() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.str, true
}

// Get walks object members along path. Missing segments or non-object
// intermediates report false.
func (v *Value) Get(path ...string) (*Value, bool) {
	cur := v
	for _, seg := range path {
		if cur == nil || cur.kind != Object {
			return nil, false
		}
		next, ok := cur.obj[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Items returns the array elements (nil for non-arrays).
func (v *Value) Items() []*Value {
	if v.kind != Array {
		return nil
	}
	return v.arr
}

// Keys returns the object member names in document order.
func (v *Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	return v.keys
}

// Member returns one object member by name.
func (v *Value) Member(key string) (*Value, bool) {
	if v.kind != Object {
		return nil, false
	}
	m, ok := v.obj[key]
	return m, ok
}

// NewString builds a string value.
func NewString(s string) *Value {
	return &Value{kind: String, str: s}
}

// Parse decodes raw JSON into a Value tree, preserving numbers verbatim and
// object key order.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			v := &Value{kind: Object, obj: map[string]*Value{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				member, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := v.obj[key]; !dup {
					v.keys = append(v.keys, key)
				}
				v.obj[key] = member
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return v, nil
		case '[':
			v := &Value{kind: Array}
			for dec.More() {
				item, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				v.arr = append(v.arr, item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return v, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return &Value{kind: String, str: t}, nil
	case json.Number:
		return &Value{kind: Number, num: t}, nil
	case bool:
		return &Value{kind: Bool, b: t}, nil
	case nil:
		return &Value{kind: Null}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// MarshalJSON re-encodes the tree with object keys in original order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		buf.WriteString(v.num.String())
	case String:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
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
			if err := v.obj[key].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// walkStrings visits every string value in the subtree.
func (v *Value) walkStrings(fn func(s string) bool) bool {
	switch v.kind {
	case String:
		return fn(v.str)
	case Array:
		for _, item := range v.arr {
			if item.walkStrings(fn) {
				return true
			}
		}
	case Object:
		for _, key := range v.keys {
			if v.obj[key].walkStrings(fn) {
				return true
			}
		}
	}
	return false
}

// walkMembers visits every object member in the subtree.
func (v *Value) walkMembers(fn func(key string, member *Value)) {
	switch v.kind {
	case Array:
		for _, item := range v.arr {
			item.walkMembers(fn)
		}
	case Object:
		for _, key := range v.keys {
			fn(key, v.obj[key])
			v.obj[key].walkMembers(fn)
		}
	}
}
