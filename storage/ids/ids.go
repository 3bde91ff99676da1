// Package ids defines the value-typed identifiers shared by every layer of
// the storage engine: pages, records, and transactions.
package ids

import (
	"fmt"
	"sync/atomic"
)

// PageId names one page of one table. Two PageIds are equal iff both
// components match, which makes it safe to use directly as a map key.
type PageId struct {
	TableId int
	PageNo  int
}

func NewPageId(tableId, pageNo int) PageId {
	return PageId{TableId: tableId, PageNo: pageNo}
}

func (p PageId) String() string {
	return fmt.Sprintf("page(%d,%d)", p.TableId, p.PageNo)
}

// RecordId names one slot on one page.
type RecordId struct {
	PageId  PageId
	SlotNo  int
}

func NewRecordId(pid PageId, slot int) RecordId {
	return RecordId{PageId: pid, SlotNo: slot}
}

func (r RecordId) String() string {
	return fmt.Sprintf("record(%s,%d)", r.PageId, r.SlotNo)
}

// TransactionId is an opaque, orderable, hashable token identifying one
// transaction for the lifetime of its execution.
type TransactionId struct {
	id uint64
}

var nextTxnId uint64

// NewTransactionId allocates a fresh, process-unique transaction id.
func NewTransactionId() TransactionId {
	return TransactionId{id: atomic.AddUint64(&nextTxnId, 1)}
}

func (t TransactionId) String() string {
	return fmt.Sprintf("txn%d", t.id)
}

func (t TransactionId) Less(o TransactionId) bool {
	return t.id < o.id
}
