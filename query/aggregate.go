package query

import (
	"fmt"

	"SiloDB/dberr"
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

// AggOp is one of the five aggregate operators simpledb.execution.Aggregator
// supports: COUNT, SUM, AVG, MIN, MAX.
type AggOp int

const (
	Count AggOp = iota
	Sum
	Avg
	Min
	Max
)

func (op AggOp) String() string {
	switch op {
	case Count:
		return "count"
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

// NoGrouping marks an Aggregate with no GROUP BY field, mirroring
// Aggregator.NO_GROUPING.
const NoGrouping = -1

// Aggregate computes one aggregate over a field, optionally grouped by
// another field. It consumes its child eagerly on Open (there is no
// streaming aggregate in a no-index engine) and replays the computed
// groups one at a time afterward, the same two-phase shape as
// simpledb.execution.Aggregate backed by IntegerAggregator/
// StringAggregator.
type Aggregate struct {
	child      Operator
	aggField   int
	groupField int
	op         AggOp
	schema     *tuple.Schema

	results []*tuple.Tuple
	pos     int
}

func NewAggregate(child Operator, aggField, groupField int, op AggOp) *Aggregate {
	childSchema := child.Schema()
	var fields []tuple.Field
	if groupField != NoGrouping {
		fields = append(fields, childSchema.FieldAt(groupField))
	}
	fields = append(fields, tuple.Field{
		Name: fmt.Sprintf("%s(%s)", op, childSchema.FieldAt(aggField).Name),
		Type: tuple.IntType,
	})
	return &Aggregate{
		child:      child,
		aggField:   aggField,
		groupField: groupField,
		op:         op,
		schema:     tuple.NewSchema(fields...),
	}
}

type groupState struct {
	key   tuple.Value
	sum   int64
	count int64
	min   int32
	max   int32
	set   bool
}

func (a *Aggregate) Open(tid ids.TransactionId) error {
	if err := a.child.Open(tid); err != nil {
		return err
	}

	groups := make(map[tuple.Value]*groupState)
	var order []tuple.Value
	var ungrouped = tuple.Value{}

	for {
		has, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}

		key := ungrouped
		if a.groupField != NoGrouping {
			key = t.Field(a.groupField)
		}
		g, ok := groups[key]
		if !ok {
			g = &groupState{key: key}
			groups[key] = g
			order = append(order, key)
		}
		v := t.Field(a.aggField).IntVal
		if !g.set {
			g.min, g.max = v, v
			g.set = true
		}
		if v < g.min {
			g.min = v
		}
		if v > g.max {
			g.max = v
		}
		g.sum += int64(v)
		g.count++
	}

	a.results = make([]*tuple.Tuple, 0, len(order))
	for _, key := range order {
		g := groups[key]
		a.results = append(a.results, a.buildResult(g))
	}
	a.pos = 0
	return nil
}

func (a *Aggregate) buildResult(g *groupState) *tuple.Tuple {
	var aggVal int32
	switch a.op {
	case Count:
		aggVal = int32(g.count)
	case Sum:
		aggVal = int32(g.sum)
	case Avg:
		if g.count > 0 {
			aggVal = int32(g.sum / g.count)
		}
	case Min:
		aggVal = g.min
	case Max:
		aggVal = g.max
	}

	t := tuple.NewTuple(a.schema)
	i := 0
	if a.groupField != NoGrouping {
		t.SetField(0, g.key)
		i = 1
	}
	t.SetField(i, tuple.IntValue(aggVal))
	return t
}

func (a *Aggregate) HasNext() (bool, error) {
	return a.pos < len(a.results), nil
}

func (a *Aggregate) Next() (*tuple.Tuple, error) {
	if a.pos >= len(a.results) {
		return nil, dberr.NewDbError("Aggregate.Next", "called with no tuples remaining")
	}
	t := a.results[a.pos]
	a.pos++
	return t, nil
}

func (a *Aggregate) Close() {
	a.child.Close()
	a.results = nil
	a.pos = 0
}

func (a *Aggregate) Schema() *tuple.Schema { return a.schema }
