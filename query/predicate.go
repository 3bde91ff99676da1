package query

import "SiloDB/storage/tuple"

// CompOp is one of the six comparison operators a Predicate or
// JoinPredicate may apply, mirroring Predicate.Op in
// _examples/original_source/src/java/simpledb/execution/Predicate.java.
type CompOp int

const (
	Equals CompOp = iota
	NotEquals
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

func (op CompOp) apply(cmp int) bool {
	switch op {
	case Equals:
		return cmp == 0
	case NotEquals:
		return cmp != 0
	case LessThan:
		return cmp < 0
	case LessThanOrEqual:
		return cmp <= 0
	case GreaterThan:
		return cmp > 0
	case GreaterThanOrEqual:
		return cmp >= 0
	default:
		return false
	}
}

// Predicate is a single-tuple comparison: tuple.Field(FieldIndex) Op Value.
// Used by Filter. Grounded on simpledb.execution.Predicate.
type Predicate struct {
	FieldIndex int
	Op         CompOp
	Value      tuple.Value
}

// Matches reports whether t satisfies the predicate.
func (p Predicate) Matches(t *tuple.Tuple) bool {
	return p.Op.apply(t.Field(p.FieldIndex).Compare(p.Value))
}

// JoinPredicate compares one field of a left tuple against one field of a
// right tuple. Used by Join. Grounded on
// simpledb.execution.JoinPredicate.
type JoinPredicate struct {
	LeftField  int
	Op         CompOp
	RightField int
}

// Matches reports whether left and right satisfy the predicate.
func (p JoinPredicate) Matches(left, right *tuple.Tuple) bool {
	return p.Op.apply(left.Field(p.LeftField).Compare(right.Field(p.RightField)))
}
