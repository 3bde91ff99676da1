package query

import (
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

// Join is a nested-loop equi/inequality join: for every left tuple, the
// right child is rescanned from the start looking for matches under pred.
// Output tuples concatenate the left tuple's fields followed by the
// right's. Grounded on the pull-based shape of simpledb's Join operator
// together with JoinPredicate, though simpledb itself leaves Join's body
// as an exercise; the nested-loop-with-rescan structure here instead
// follows the merge/nested patterns in the teacher's
// query_executor/joins.go, adapted from its materialize-everything style
// to pull-based prefetching.
type Join struct {
	left, right Operator
	pred        JoinPredicate
	schema      *tuple.Schema

	tid       ids.TransactionId
	leftTuple *tuple.Tuple
	next      *tuple.Tuple
}

func NewJoin(left, right Operator, pred JoinPredicate) *Join {
	fields := append(append([]tuple.Field{}, left.Schema().Fields...), right.Schema().Fields...)
	return &Join{
		left:   left,
		right:  right,
		pred:   pred,
		schema: tuple.NewSchema(fields...),
	}
}

func (j *Join) Open(tid ids.TransactionId) error {
	j.tid = tid
	j.leftTuple = nil
	j.next = nil
	if err := j.left.Open(tid); err != nil {
		return err
	}
	return j.right.Open(tid)
}

func (j *Join) prefetch() error {
	if j.next != nil {
		return nil
	}
	for {
		if j.leftTuple == nil {
			has, err := j.left.HasNext()
			if err != nil {
				return err
			}
			if !has {
				return nil
			}
			j.leftTuple, err = j.left.Next()
			if err != nil {
				return err
			}
			j.right.Close()
			if err := j.right.Open(j.tid); err != nil {
				return err
			}
		}

		has, err := j.right.HasNext()
		if err != nil {
			return err
		}
		if !has {
			j.leftTuple = nil
			continue
		}
		rt, err := j.right.Next()
		if err != nil {
			return err
		}
		if j.pred.Matches(j.leftTuple, rt) {
			j.next = merge(j.schema, j.leftTuple, rt)
			return nil
		}
	}
}

func (j *Join) HasNext() (bool, error) {
	if err := j.prefetch(); err != nil {
		return false, err
	}
	return j.next != nil, nil
}

func (j *Join) Next() (*tuple.Tuple, error) {
	has, err := j.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, errNoMoreTuples("Join.Next")
	}
	t := j.next
	j.next = nil
	return t, nil
}

func (j *Join) Close() {
	j.left.Close()
	j.right.Close()
}

func (j *Join) Schema() *tuple.Schema { return j.schema }

func merge(schema *tuple.Schema, left, right *tuple.Tuple) *tuple.Tuple {
	out := tuple.NewTuple(schema)
	i := 0
	for _, v := range left.Values {
		out.SetField(i, v)
		i++
	}
	for _, v := range right.Values {
		out.SetField(i, v)
		i++
	}
	return out
}
