// Package query implements the pull-based query operators that sit above
// the storage engine: sequential scan, filter, nested-loop join,
// aggregation, insert, and delete. Every operator shares the same
// Open/HasNext/Next/Close shape, grounded on simpledb.execution.OpIterator
// in _examples/original_source — expressed here as a Go interface instead
// of an abstract class, since Go has no inheritance to hang fetchNext()
// template methods off of.
package query

import (
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

// Operator is one node of a query plan: open it for a transaction, pull
// tuples one at a time, then close it. HasNext may be called repeatedly
// without side effects; Next advances.
type Operator interface {
	Open(tid ids.TransactionId) error
	HasNext() (bool, error)
	Next() (*tuple.Tuple, error)
	Close()
	Schema() *tuple.Schema
}
