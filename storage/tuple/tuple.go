package tuple

import (
	"fmt"

	"SiloDB/storage/ids"
)

// Value is one field's value inside a Tuple: either an int32 or a string.
// A single concrete type keeps callers from having to type-switch on
// interface{} the way the teacher's types.Row does with map[string]any.
type Value struct {
	IsString bool
	IntVal   int32
	StrVal   string
}

func IntValue(v int32) Value      { return Value{IntVal: v} }
func StringValue(v string) Value  { return Value{IsString: true, StrVal: v} }

func (v Value) String() string {
	if v.IsString {
		return v.StrVal
	}
	return fmt.Sprintf("%d", v.IntVal)
}

// Equal compares two values of like type.
func (v Value) Equal(o Value) bool {
	if v.IsString != o.IsString {
		return false
	}
	if v.IsString {
		return v.StrVal == o.StrVal
	}
	return v.IntVal == o.IntVal
}

// Compare returns -1/0/1. Values must be of the same underlying kind;
// comparing an int to a string panics, mirroring a schema mismatch the
// caller should have already rejected.
func (v Value) Compare(o Value) int {
	if v.IsString != o.IsString {
		panic("tuple: cannot compare values of different kinds")
	}
	if v.IsString {
		switch {
		case v.StrVal < o.StrVal:
			return -1
		case v.StrVal > o.StrVal:
			return 1
		default:
			return 0
		}
	}
	switch {
	case v.IntVal < o.IntVal:
		return -1
	case v.IntVal > o.IntVal:
		return 1
	default:
		return 0
	}
}

// Tuple holds one value per field of its Schema, plus the RecordId of its
// on-disk home once it has been placed on a page (zero value before then).
type Tuple struct {
	Schema *Schema
	Values []Value
	RId    ids.RecordId
	hasRId bool
}

// NewTuple allocates an empty tuple shaped by schema, with every value
// zeroed — callers fill it in with SetField before Insert.
func NewTuple(schema *Schema) *Tuple {
	return &Tuple{
		Schema: schema,
		Values: make([]Value, schema.NumFields()),
	}
}

func (t *Tuple) SetField(i int, v Value) {
	t.Values[i] = v
}

func (t *Tuple) Field(i int) Value {
	return t.Values[i]
}

func (t *Tuple) RecordId() (ids.RecordId, bool) {
	return t.RId, t.hasRId
}

func (t *Tuple) SetRecordId(rid ids.RecordId) {
	t.RId = rid
	t.hasRId = true
}

// Clone makes a deep-enough copy: a new Values slice with the same schema
// pointer and RecordId, safe to hand to a caller who will mutate it.
func (t *Tuple) Clone() *Tuple {
	out := &Tuple{
		Schema: t.Schema,
		Values: make([]Value, len(t.Values)),
		RId:    t.RId,
		hasRId: t.hasRId,
	}
	copy(out.Values, t.Values)
	return out
}

func (t *Tuple) String() string {
	s := "("
	for i, v := range t.Values {
		if i > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s + ")"
}
