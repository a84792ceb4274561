package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tells which arm of a FieldValue is populated.
type ValueKind int

const (
	KindText ValueKind = iota
	KindBool
	KindList
)

// FieldValue is what a form control holds: a scalar string, a checked state, or
// an ordered list of strings (keyword tags).
type FieldValue struct {
	kind  ValueKind
	text  string
	flag  bool
	items []string
}

// Text returns a scalar string value.
func Text(s string) FieldValue { return FieldValue{kind: KindText, text: s} }

// Bool returns a checked-state value.
func Bool(b bool) FieldValue { return FieldValue{kind: KindBool, flag: b} }

// List returns a list value. The slice is copied.
func List(items []string) FieldValue {
	cp := make([]string, len(items))
	copy(cp, items)
	return FieldValue{kind: KindList, items: cp}
}

func (v FieldValue) Kind() ValueKind { return v.kind }

// Flag reports the boolean arm. Text values "true" and "on" count as checked.
func (v FieldValue) Flag() bool {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindText:
		return v.text == "true" || v.text == "on"
	default:
		return len(v.items) > 0
	}
}

// Items returns a copy of the list arm; a scalar is returned as a one-element list.
func (v FieldValue) Items() []string {
	switch v.kind {
	case KindList:
		cp := make([]string, len(v.items))
		copy(cp, v.items)
		return cp
	case KindText:
		if v.text == "" {
			return []string{}
		}
		return []string{v.text}
	default:
		return []string{strconv.FormatBool(v.flag)}
	}
}

// String renders the value the way a text control would display it.
func (v FieldValue) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindList:
		return strings.Join(v.items, ", ")
	default:
		return v.text
	}
}

// IsEmpty reports whether the value carries no user input.
func (v FieldValue) IsEmpty() bool {
	switch v.kind {
	case KindBool:
		return false
	case KindList:
		return len(v.items) == 0
	default:
		return v.text == ""
	}
}

// Equal compares kind and content.
func (v FieldValue) Equal(o FieldValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.flag == o.flag
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if v.items[i] != o.items[i] {
				return false
			}
		}
		return true
	default:
		return v.text == o.text
	}
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.flag)
	case KindList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	default:
		return json.Marshal(v.text)
	}
}

// UnmarshalJSON accepts strings, booleans, arrays and, leniently, numbers and null.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty field value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case 'n':
		*v = Text("")
	case '[':
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			switch x := r.(type) {
			case string:
				items = append(items, x)
			case nil:
			default:
				items = append(items, fmt.Sprint(x))
			}
		}
		*v = FieldValue{kind: KindList, items: items}
	case '{':
		return fmt.Errorf("field value cannot be an object")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Text(n.String())
	}
	return nil
}

// Subsection maps field ids to values.
type Subsection map[string]FieldValue

// Clone returns a shallow copy; FieldValue is immutable so this is a full copy.
func (s Subsection) Clone() Subsection {
	out := make(Subsection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Text returns the string form of id, or "" when absent.
func (s Subsection) Text(id string) string {
	v, ok := s[id]
	if !ok {
		return ""
	}
	return v.String()
}
