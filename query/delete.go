package query

import (
	"SiloDB/storage/bufferpool"
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

// Delete reads every tuple from its child and removes it from its table
// via the buffer pool, then yields a single summary tuple: the count of
// rows deleted. Grounded on simpledb.execution.Delete.
type Delete struct {
	child Operator
	pool  *bufferpool.BufferPool
	schema *tuple.Schema

	tid    ids.TransactionId
	done   bool
	result *tuple.Tuple
}

func NewDelete(child Operator, pool *bufferpool.BufferPool) *Delete {
	return &Delete{
		child:  child,
		pool:   pool,
		schema: tuple.NewSchema(tuple.IntField("count")),
	}
}

func (del *Delete) Open(tid ids.TransactionId) error {
	del.tid = tid
	del.done = false
	del.result = nil
	return del.child.Open(tid)
}

func (del *Delete) HasNext() (bool, error) { return !del.done, nil }

func (del *Delete) Next() (*tuple.Tuple, error) {
	if del.done {
		return nil, errNoMoreTuples("Delete.Next")
	}
	count := 0
	for {
		has, err := del.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := del.child.Next()
		if err != nil {
			return nil, err
		}
		if err := del.pool.DeleteTuple(del.tid, t); err != nil {
			return nil, err
		}
		count++
	}
	del.result = tuple.NewTuple(del.schema)
	del.result.SetField(0, tuple.IntValue(int32(count)))
	del.done = true
	return del.result, nil
}

func (del *Delete) Close() { del.child.Close() }

func (del *Delete) Schema() *tuple.Schema { return del.schema }
