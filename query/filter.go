package query

import (
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

// Filter passes through only the child tuples matching its Predicate.
// Prefetches one tuple ahead so HasNext is safe to call repeatedly,
// matching the operator's restartable-query contract. Grounded on
// simpledb.execution.Filter.
type Filter struct {
	child Operator
	pred  Predicate

	next *tuple.Tuple
}

func NewFilter(child Operator, pred Predicate) *Filter {
	return &Filter{child: child, pred: pred}
}

func (f *Filter) Open(tid ids.TransactionId) error {
	f.next = nil
	return f.child.Open(tid)
}

func (f *Filter) prefetch() error {
	if f.next != nil {
		return nil
	}
	for {
		has, err := f.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			return nil
		}
		t, err := f.child.Next()
		if err != nil {
			return err
		}
		if f.pred.Matches(t) {
			f.next = t
			return nil
		}
	}
}

func (f *Filter) HasNext() (bool, error) {
	if err := f.prefetch(); err != nil {
		return false, err
	}
	return f.next != nil, nil
}

func (f *Filter) Next() (*tuple.Tuple, error) {
	has, err := f.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, errNoMoreTuples("Filter.Next")
	}
	t := f.next
	f.next = nil
	return t, nil
}

func (f *Filter) Close() { f.child.Close() }

func (f *Filter) Schema() *tuple.Schema { return f.child.Schema() }
