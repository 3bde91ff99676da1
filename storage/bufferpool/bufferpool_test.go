package bufferpool

import (
	"path/filepath"
	"testing"

	"SiloDB/dbconfig"
	"SiloDB/storage/catalog"
	"SiloDB/storage/ids"
	"SiloDB/storage/lockmgr"
	"SiloDB/storage/tuple"

	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, capacity int) (*BufferPool, *catalog.Catalog, *tuple.Schema, int) {
	t.Helper()
	return newTestPoolWithPageSize(t, capacity, 128)
}

func newTestPoolWithPageSize(t *testing.T, capacity, pageSize int) (*BufferPool, *catalog.Catalog, *tuple.Schema, int) {
	t.Helper()
	dbconfig.SetPageSize(pageSize)
	t.Cleanup(dbconfig.ResetPageSize)

	schema := tuple.NewSchema(tuple.IntField("a"))
	cat := catalog.New()
	tableId, err := cat.AddTable("t", filepath.Join(t.TempDir(), "t.dat"), schema)
	require.NoError(t, err)

	bp := New(cat, dbconfig.Options{Capacity: capacity})
	return bp, cat, schema, tableId
}

func insertN(t *testing.T, bp *BufferPool, tableId int, schema *tuple.Schema, tid ids.TransactionId, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		tup := tuple.NewTuple(schema)
		tup.SetField(0, tuple.IntValue(int32(i)))
		require.NoError(t, bp.InsertTuple(tid, tableId, tup))
	}
}

func TestGetPageCachesAcrossCalls(t *testing.T) {
	bp, _, schema, tableId := newTestPool(t, 10)
	tid := ids.NewTransactionId()
	insertN(t, bp, tableId, schema, tid, 1)
	require.NoError(t, bp.TransactionComplete(tid, true))

	tid2 := ids.NewTransactionId()
	pid := ids.NewPageId(tableId, 0)
	p1, err := bp.GetPage(tid2, pid, lockmgr.Shared)
	require.NoError(t, err)
	p2, err := bp.GetPage(tid2, pid, lockmgr.Shared)
	require.NoError(t, err)
	require.Same(t, p1, p2)
	bp.TransactionComplete(tid2, true)
}

func TestNoStealRefusesToEvictDirtyPage(t *testing.T) {
	bp, _, schema, tableId := newTestPoolWithPageSize(t, 1, 8) // one tuple exactly fills a single-slot page
	tid := ids.NewTransactionId()

	insertN(t, bp, tableId, schema, tid, 1) // fills the single slot, page 0, dirty

	tup := tuple.NewTuple(schema)
	tup.SetField(0, tuple.IntValue(1))
	err := bp.InsertTuple(tid, tableId, tup) // forces a second page, pool capacity 1
	require.Error(t, err)
	require.Contains(t, err.Error(), "no evictable page")
}

func TestEvictionGivesReferencedPageASecondChance(t *testing.T) {
	bp, _, schema, tableId := newTestPoolWithPageSize(t, 1, 8)
	tid := ids.NewTransactionId()

	insertN(t, bp, tableId, schema, tid, 1)
	require.NoError(t, bp.TransactionComplete(tid, true)) // flush + release; page 0 now clean but its reference bit is still set from install

	tid2 := ids.NewTransactionId()
	tup := tuple.NewTuple(schema)
	tup.SetField(0, tuple.IntValue(1))
	// Forces a second page (capacity 1): the clock must clear page 0's
	// reference bit on its first pass, then evict it as clean on the
	// second, rather than declaring no evictable page.
	require.NoError(t, bp.InsertTuple(tid2, tableId, tup))

	require.NoError(t, bp.TransactionComplete(tid2, true))
}

func TestTransactionCompleteAbortDiscardsChanges(t *testing.T) {
	bp, _, schema, tableId := newTestPool(t, 10)
	tid := ids.NewTransactionId()
	insertN(t, bp, tableId, schema, tid, 2)
	require.NoError(t, bp.TransactionComplete(tid, true))

	tid2 := ids.NewTransactionId()
	tup := tuple.NewTuple(schema)
	tup.SetField(0, tuple.IntValue(99))
	require.NoError(t, bp.InsertTuple(tid2, tableId, tup))

	pid := ids.NewPageId(tableId, 0)
	page, err := bp.GetPage(tid2, pid, lockmgr.Shared)
	require.NoError(t, err)
	require.True(t, page.IsDirty())

	require.NoError(t, bp.TransactionComplete(tid2, false)) // abort

	tid3 := ids.NewTransactionId()
	reloaded, err := bp.GetPage(tid3, pid, lockmgr.Shared)
	require.NoError(t, err)
	require.False(t, reloaded.IsDirty())
	require.Equal(t, 2, reloaded.NumSlots()-reloaded.NumEmptySlots()) // only the committed 2 tuples survive the abort
}

func TestLockReleasedAfterCommitEvenIfOtherWasWaiting(t *testing.T) {
	bp, _, schema, tableId := newTestPool(t, 10)
	pid := ids.NewPageId(tableId, 0)

	setup := ids.NewTransactionId()
	insertN(t, bp, tableId, schema, setup, 1)
	require.NoError(t, bp.TransactionComplete(setup, true))

	tid1 := ids.NewTransactionId()
	tid2 := ids.NewTransactionId()

	_, err := bp.GetPage(tid1, pid, lockmgr.Exclusive)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := bp.GetPage(tid2, pid, lockmgr.Shared)
		done <- err
	}()

	require.NoError(t, bp.TransactionComplete(tid1, true))
	require.NoError(t, <-done)
}
