package heappage

import (
	"testing"

	"SiloDB/dbconfig"
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"

	"github.com/stretchr/testify/require"
)

func testSchema() *tuple.Schema {
	return tuple.NewSchema(
		tuple.IntField("a"),
		tuple.StringField("name", 12),
	)
}

func TestInsertAndSerializeRoundTrip(t *testing.T) {
	dbconfig.SetPageSize(4096)
	defer dbconfig.ResetPageSize()

	schema := testSchema()
	pid := ids.NewPageId(1, 0)
	page := NewEmpty(pid, schema)

	t1 := tuple.NewTuple(schema)
	t1.SetField(0, tuple.IntValue(42))
	t1.SetField(1, tuple.StringValue("alice"))
	require.NoError(t, page.Insert(t1))

	rid, ok := t1.RecordId()
	require.True(t, ok)
	require.Equal(t, pid, rid.PageId)
	require.Equal(t, 0, rid.SlotNo)

	raw := page.Bytes()
	require.Len(t, raw, dbconfig.PageSize)

	reloaded, err := NewFromBytes(pid, schema, raw)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.NumSlots()-reloaded.NumEmptySlots())
	require.True(t, reloaded.IsSlotUsed(0))

	it := reloaded.Iterator()
	require.True(t, it.HasNext())
	got := it.Next()
	require.Equal(t, int32(42), got.Field(0).IntVal)
	require.Equal(t, "alice", got.Field(1).StrVal)
	require.False(t, it.HasNext())

	require.Equal(t, raw, reloaded.Bytes())
}

func TestInsertFailsWhenFull(t *testing.T) {
	dbconfig.SetPageSize(128)
	defer dbconfig.ResetPageSize()

	schema := tuple.NewSchema(tuple.IntField("a"))
	page := NewEmpty(ids.NewPageId(1, 0), schema)

	n := page.NumSlots()
	for i := 0; i < n; i++ {
		tup := tuple.NewTuple(schema)
		tup.SetField(0, tuple.IntValue(int32(i)))
		require.NoError(t, page.Insert(tup))
	}

	overflow := tuple.NewTuple(schema)
	overflow.SetField(0, tuple.IntValue(999))
	require.Error(t, page.Insert(overflow))
}

func TestDeleteRejectsWrongPageAndEmptySlot(t *testing.T) {
	dbconfig.SetPageSize(4096)
	defer dbconfig.ResetPageSize()

	schema := testSchema()
	pid := ids.NewPageId(1, 0)
	page := NewEmpty(pid, schema)

	t1 := tuple.NewTuple(schema)
	t1.SetField(0, tuple.IntValue(1))
	t1.SetField(1, tuple.StringValue("x"))
	require.NoError(t, page.Insert(t1))

	require.NoError(t, page.Delete(t1))
	require.Error(t, page.Delete(t1)) // already empty

	other := tuple.NewTuple(schema)
	other.SetRecordId(ids.NewRecordId(ids.NewPageId(2, 0), 0))
	require.Error(t, page.Delete(other))
}

func TestDirtyTracking(t *testing.T) {
	schema := testSchema()
	page := NewEmpty(ids.NewPageId(1, 0), schema)

	_, dirty := page.DirtyBy()
	require.False(t, dirty)

	tid := ids.NewTransactionId()
	page.MarkDirty(tid)
	got, dirty := page.DirtyBy()
	require.True(t, dirty)
	require.Equal(t, tid, got)

	page.MarkClean()
	_, dirty = page.DirtyBy()
	require.False(t, dirty)
}

func TestIteratorNotRestartable(t *testing.T) {
	schema := tuple.NewSchema(tuple.IntField("a"))
	page := NewEmpty(ids.NewPageId(1, 0), schema)
	for i := 0; i < 3; i++ {
		tup := tuple.NewTuple(schema)
		tup.SetField(0, tuple.IntValue(int32(i)))
		require.NoError(t, page.Insert(tup))
	}

	it := page.Iterator()
	count := 0
	for it.HasNext() {
		it.Next()
		count++
	}
	require.Equal(t, 3, count)
	require.False(t, it.HasNext())

	fresh := page.Iterator()
	count = 0
	for fresh.HasNext() {
		fresh.Next()
		count++
	}
	require.Equal(t, 3, count)
}
