package types

import (
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags the closed set of property value types.
type ValueKind string

const (
	ValueNone   ValueKind = ""
	ValueBool   ValueKind = "bool"
	ValueInt    ValueKind = "int"
	ValueString ValueKind = "string"
	ValueIDSet  ValueKind = "ids"
)

// Value is a tagged union holding one property value. The zero Value is the
// "no value" sentinel. Accessors return (zero, false) on a kind mismatch
// rather than panicking, so fuse payloads and game-specific properties can
// be read safely from restored state.
type Value struct {
	Kind ValueKind `json:"kind,omitempty"`
	B    bool      `json:"b,omitempty"`
	I    int       `json:"i,omitempty"`
	S    string    `json:"s,omitempty"`
	IDs  []string  `json:"ids,omitempty"`
}

func BoolValue(b bool) Value    { return Value{Kind: ValueBool, B: b} }
func IntValue(i int) Value      { return Value{Kind: ValueInt, I: i} }
func StringValue(s string) Value { return Value{Kind: ValueString, S: s} }

// IDSetValue builds an identifier-set value. The set is stored sorted and
// deduplicated so equality and serialization are stable.
func IDSetValue(ids ...string) Value {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return Value{Kind: ValueIDSet, IDs: out}
}

// NoValue is the absent-value sentinel.
func NoValue() Value { return Value{} }

func (v Value) IsNone() bool { return v.Kind == ValueNone }

func (v Value) AsBool() (bool, bool) {
	if v.Kind != ValueBool {
		return false, false
	}
	return v.B, true
}

func (v Value) AsInt() (int, bool) {
	if v.Kind != ValueInt {
		return 0, false
	}
	return v.I, true
}

func (v Value) AsString() (string, bool) {
	if v.Kind != ValueString {
		return "", false
	}
	return v.S, true
}

func (v Value) AsIDSet() ([]string, bool) {
	if v.Kind != ValueIDSet {
		return nil, false
	}
	return v.IDs, true
}

// IsTrue reports whether the value is a bool holding true. Any other kind,
// including none, reads false.
func (v Value) IsTrue() bool { return v.Kind == ValueBool && v.B }

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueBool:
		return v.B == o.B
	case ValueInt:
		return v.I == o.I
	case ValueString:
		return v.S == o.S
	case ValueIDSet:
		if len(v.IDs) != len(o.IDs) {
			return false
		}
		for i := range v.IDs {
			if v.IDs[i] != o.IDs[i] {
				return false
			}
		}
		return true
	default:
		return true // both none
	}
}

// String renders the value for trace output and error messages.
func (v Value) String() string {
	switch v.Kind {
	case ValueBool:
		if v.B {
			return "true"
		}
		return "false"
	case ValueInt:
		return strconv.Itoa(v.I)
	case ValueString:
		return v.S
	case ValueIDSet:
		return "{" + strings.Join(v.IDs, ", ") + "}"
	default:
		return "<none>"
	}
}

// EncodeParent encodes a parent reference as a string value so parent moves
// flow through the ordinary property-change gate.
func EncodeParent(p Parent) Value {
	switch p.Kind {
	case ParentLocation:
		return StringValue("location:" + p.ID)
	case ParentItem:
		return StringValue("item:" + p.ID)
	case ParentPlayer:
		return StringValue("player")
	default:
		return StringValue("nowhere")
	}
}

// DecodeParent reverses EncodeParent. Unrecognized encodings decode to
// nowhere.
func DecodeParent(v Value) Parent {
	s, ok := v.AsString()
	if !ok {
		return Nowhere()
	}
	switch {
	case s == "player":
		return HeldByPlayer()
	case strings.HasPrefix(s, "location:"):
		return InLocation(strings.TrimPrefix(s, "location:"))
	case strings.HasPrefix(s, "item:"):
		return InItem(strings.TrimPrefix(s, "item:"))
	default:
		return Nowhere()
	}
}
