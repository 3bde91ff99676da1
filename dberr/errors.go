// Package dberr distinguishes the three failure kinds of a transactional
// page-access layer: a transaction that must roll back, a semantic failure
// an operator can reasonably handle, and an unrecoverable I/O failure.
//
// The source this engine is grounded on (simpledb) throws three distinct
// exception types for the same reason: callers must not be able to treat
// a deadlock abort the same way they treat "page does not exist".
package dberr

import (
	"fmt"

	"SiloDB/storage/ids"

	"github.com/pkg/errors"
)

// Aborted means the transaction must roll back: it was chosen as a
// deadlock victim, or its wait was interrupted. It is always terminal for
// the transaction — the caller must call TransactionComplete(tid, false).
type Aborted struct {
	TxnId  ids.TransactionId
	Reason string
}

func (e *Aborted) Error() string {
	return fmt.Sprintf("%s aborted: %s", e.TxnId, e.Reason)
}

func NewAborted(tid ids.TransactionId, reason string) error {
	return &Aborted{TxnId: tid, Reason: reason}
}

// DbError is a semantic failure: no page could be evicted, a slot was
// already empty, a tuple carried no RecordId, a page offset fell outside
// the file. These are recoverable by the calling operator or surfaced as
// a normal error.
type DbError struct {
	Op     string
	Detail string
}

func (e *DbError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

func NewDbError(op, detail string) error {
	return &DbError{Op: op, Detail: detail}
}

// Sentinel detail strings so callers can pattern-match with errors.As plus
// a string compare instead of inventing a new type per condition.
const (
	NotEnoughSpace      = "not enough space"
	NotOnThisPage       = "record id does not belong to this page"
	SlotEmpty           = "slot already empty"
	PageDoesNotExist    = "page does not exist in file"
	NoEvictionCandidate = "no evictable page: all pages pinned or dirty under no-steal"
)

// IoError wraps an unrecoverable I/O failure during a page read or write.
// The underlying *os.PathError (or similar) is preserved via
// github.com/pkg/errors so %+v and errors.Cause still reach it.
type IoError struct {
	Op   string
	Path string
	err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error during %s on %s: %s", e.Op, e.Path, e.err)
}

func (e *IoError) Unwrap() error { return e.err }

func NewIoError(op, path string, cause error) error {
	return &IoError{Op: op, Path: path, err: errors.Wrap(cause, op)}
}
