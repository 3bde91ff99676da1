package query

import (
	"SiloDB/storage/heapfile"
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

// SeqScan reads every tuple of one table in heap-file order. Grounded on
// simpledb.execution.SeqScan, which is itself a thin wrapper over
// HeapFile.iterator().
type SeqScan struct {
	file *heapfile.HeapFile
	pool heapfile.PageSource

	it  *heapfile.Iterator
	tid ids.TransactionId
}

func NewSeqScan(file *heapfile.HeapFile, pool heapfile.PageSource) *SeqScan {
	return &SeqScan{file: file, pool: pool}
}

func (s *SeqScan) Open(tid ids.TransactionId) error {
	s.tid = tid
	s.it = s.file.Iterator(tid, s.pool)
	return s.it.Open()
}

func (s *SeqScan) HasNext() (bool, error) { return s.it.HasNext() }
func (s *SeqScan) Next() (*tuple.Tuple, error) { return s.it.Next() }

func (s *SeqScan) Close() {
	if s.it != nil {
		s.it.Close()
	}
}

func (s *SeqScan) Schema() *tuple.Schema { return s.file.Schema() }
