// Package tuple defines the fixed-width value objects that flow through the
// storage engine: field types, schemas, and tuples. These are the external
// value objects spec.md treats as collaborators of the core — kept
// deliberately small, grounded on the original simpledb.storage.TupleDesc
// and simpledb.storage.Tuple and on the teacher's types.Row/types.TableSchema.
package tuple

import "fmt"

// FieldType is one of the two fixed-width encodings a Schema field may
// have. There is no variable-length type: every field's on-disk width is
// determined purely by its FieldType (and Len for strings).
type FieldType int

const (
	// IntType is a 4-byte big-endian signed integer.
	IntType FieldType = iota
	// StringType is a fixed-length, zero-padded UTF-8 string of Len bytes,
	// preceded on disk by its own 4-byte big-endian length.
	StringType
)

func (t FieldType) String() string {
	switch t {
	case IntType:
		return "INT"
	case StringType:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Field describes one column: its name, its type, and — for strings — its
// fixed declared length.
type Field struct {
	Name string
	Type FieldType
	// Len is the declared byte capacity of a StringType field. Ignored
	// for IntType.
	Len int
}

// Width returns the fixed on-disk byte width of the field, including the
// 4-byte length prefix carried by strings.
func (f Field) Width() int {
	switch f.Type {
	case IntType:
		return 4
	case StringType:
		return 4 + f.Len
	default:
		panic(fmt.Sprintf("tuple: unknown field type %v", f.Type))
	}
}

// Schema is an ordered sequence of fields. Tuple size is the sum of field
// widths, and is fixed for the lifetime of a table (schema evolution is a
// non-goal).
type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// IntField is a convenience constructor for a 4-byte integer column.
func IntField(name string) Field {
	return Field{Name: name, Type: IntType}
}

// StringField is a convenience constructor for a fixed-length string
// column of n bytes.
func StringField(name string, n int) Field {
	return Field{Name: name, Type: StringType, Len: n}
}

// TupleWidth is the total fixed byte width of any tuple conforming to this
// schema: sum of field widths.
func (s *Schema) TupleWidth() int {
	total := 0
	for _, f := range s.Fields {
		total += f.Width()
	}
	return total
}

func (s *Schema) NumFields() int {
	return len(s.Fields)
}

func (s *Schema) FieldAt(i int) Field {
	return s.Fields[i]
}

// IndexOf returns the position of a named field, or -1 if absent.
func (s *Schema) IndexOf(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Equal reports whether two schemas describe the same fields in the same
// order — the check HeapPage.Insert uses to reject a tuple whose shape
// does not match the page's schema.
func (s *Schema) Equal(o *Schema) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range s.Fields {
		g := o.Fields[i]
		if f.Name != g.Name || f.Type != g.Type || f.Len != g.Len {
			return false
		}
	}
	return true
}
