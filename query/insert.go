package query

import (
	"SiloDB/storage/bufferpool"
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

// Insert reads every tuple from its child and inserts it into tableId via
// the buffer pool, then yields a single summary tuple: the count of rows
// inserted. Grounded on simpledb.execution.Insert (a sibling of the
// visible Delete.java in _examples/original_source).
type Insert struct {
	child   Operator
	pool    *bufferpool.BufferPool
	tableId int
	schema  *tuple.Schema

	tid    ids.TransactionId
	done   bool
	result *tuple.Tuple
}

func NewInsert(child Operator, pool *bufferpool.BufferPool, tableId int) *Insert {
	return &Insert{
		child:   child,
		pool:    pool,
		tableId: tableId,
		schema:  tuple.NewSchema(tuple.IntField("count")),
	}
}

func (ins *Insert) Open(tid ids.TransactionId) error {
	ins.tid = tid
	ins.done = false
	ins.result = nil
	return ins.child.Open(tid)
}

func (ins *Insert) HasNext() (bool, error) { return !ins.done, nil }

func (ins *Insert) Next() (*tuple.Tuple, error) {
	if ins.done {
		return nil, errNoMoreTuples("Insert.Next")
	}
	count := 0
	for {
		has, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if err := ins.pool.InsertTuple(ins.tid, ins.tableId, t); err != nil {
			return nil, err
		}
		count++
	}
	ins.result = tuple.NewTuple(ins.schema)
	ins.result.SetField(0, tuple.IntValue(int32(count)))
	ins.done = true
	return ins.result, nil
}

func (ins *Insert) Close() { ins.child.Close() }

func (ins *Insert) Schema() *tuple.Schema { return ins.schema }
