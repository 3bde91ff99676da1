package query

import (
	"path/filepath"
	"testing"

	"SiloDB/dbconfig"
	"SiloDB/storage/bufferpool"
	"SiloDB/storage/catalog"
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"

	"github.com/stretchr/testify/require"
)

func setupTable(t *testing.T, name string, schema *tuple.Schema) (*catalog.Catalog, *bufferpool.BufferPool, int) {
	t.Helper()
	dbconfig.SetPageSize(4096)
	t.Cleanup(dbconfig.ResetPageSize)

	cat := catalog.New()
	tableId, err := cat.AddTable(name, filepath.Join(t.TempDir(), name+".dat"), schema)
	require.NoError(t, err)
	pool := bufferpool.New(cat, dbconfig.Options{Capacity: 20})
	return cat, pool, tableId
}

func insertRows(t *testing.T, pool *bufferpool.BufferPool, tableId int, schema *tuple.Schema, ages []int32) {
	t.Helper()
	tid := ids.NewTransactionId()
	for i, age := range ages {
		row := tuple.NewTuple(schema)
		row.SetField(0, tuple.IntValue(int32(i)))
		row.SetField(1, tuple.IntValue(age))
		require.NoError(t, pool.InsertTuple(tid, tableId, row))
	}
	require.NoError(t, pool.TransactionComplete(tid, true))
}

func TestSeqScanReadsAllRows(t *testing.T) {
	schema := tuple.NewSchema(tuple.IntField("id"), tuple.IntField("age"))
	cat, pool, tableId := setupTable(t, "people", schema)
	insertRows(t, pool, tableId, schema, []int32{10, 20, 30})

	hf, err := cat.FileForTable(tableId)
	require.NoError(t, err)

	scan := NewSeqScan(hf, pool)
	tid := ids.NewTransactionId()
	require.NoError(t, scan.Open(tid))
	defer scan.Close()

	var ages []int32
	for {
		has, err := scan.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		row, err := scan.Next()
		require.NoError(t, err)
		ages = append(ages, row.Field(1).IntVal)
	}
	require.ElementsMatch(t, []int32{10, 20, 30}, ages)
}

func TestFilterKeepsOnlyMatching(t *testing.T) {
	schema := tuple.NewSchema(tuple.IntField("id"), tuple.IntField("age"))
	cat, pool, tableId := setupTable(t, "people", schema)
	insertRows(t, pool, tableId, schema, []int32{10, 20, 30})

	hf, err := cat.FileForTable(tableId)
	require.NoError(t, err)

	scan := NewSeqScan(hf, pool)
	filter := NewFilter(scan, Predicate{FieldIndex: 1, Op: GreaterThanOrEqual, Value: tuple.IntValue(20)})

	tid := ids.NewTransactionId()
	require.NoError(t, filter.Open(tid))
	defer filter.Close()

	var ages []int32
	for {
		has, err := filter.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		row, err := filter.Next()
		require.NoError(t, err)
		ages = append(ages, row.Field(1).IntVal)
	}
	require.ElementsMatch(t, []int32{20, 30}, ages)
}

func TestJoinMatchesOnEquality(t *testing.T) {
	left := tuple.NewSchema(tuple.IntField("id"), tuple.IntField("dept"))
	right := tuple.NewSchema(tuple.IntField("dept"), tuple.StringField("name", 8))

	cat, pool, leftId := setupTable(t, "emp", left)
	rightId, err := cat.AddTable("dept", filepath.Join(t.TempDir(), "dept.dat"), right)
	require.NoError(t, err)

	tid := ids.NewTransactionId()
	e1 := tuple.NewTuple(left)
	e1.SetField(0, tuple.IntValue(1))
	e1.SetField(1, tuple.IntValue(100))
	e2 := tuple.NewTuple(left)
	e2.SetField(0, tuple.IntValue(2))
	e2.SetField(1, tuple.IntValue(200))
	require.NoError(t, pool.InsertTuple(tid, leftId, e1))
	require.NoError(t, pool.InsertTuple(tid, leftId, e2))

	d1 := tuple.NewTuple(right)
	d1.SetField(0, tuple.IntValue(100))
	d1.SetField(1, tuple.StringValue("eng"))
	require.NoError(t, pool.InsertTuple(tid, rightId, d1))
	require.NoError(t, pool.TransactionComplete(tid, true))

	empFile, err := cat.FileForTable(leftId)
	require.NoError(t, err)
	deptFile, err := cat.FileForTable(rightId)
	require.NoError(t, err)

	tid2 := ids.NewTransactionId()
	scanEmp := NewSeqScan(empFile, pool)
	scanDept := NewSeqScan(deptFile, pool)
	join := NewJoin(scanEmp, scanDept, JoinPredicate{LeftField: 1, Op: Equals, RightField: 0})

	require.NoError(t, join.Open(tid2))
	defer join.Close()

	var rows []*tuple.Tuple
	for {
		has, err := join.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		row, err := join.Next()
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.Len(t, rows, 1)
	require.Equal(t, int32(1), rows[0].Field(0).IntVal)
	require.Equal(t, "eng", rows[0].Field(3).StrVal)
}

func TestAggregateSumGroupedByField(t *testing.T) {
	schema := tuple.NewSchema(tuple.IntField("dept"), tuple.IntField("salary"))
	cat, pool, tableId := setupTable(t, "sal", schema)

	tid := ids.NewTransactionId()
	rows := []struct{ dept, salary int32 }{{1, 50}, {1, 70}, {2, 40}}
	for _, r := range rows {
		row := tuple.NewTuple(schema)
		row.SetField(0, tuple.IntValue(r.dept))
		row.SetField(1, tuple.IntValue(r.salary))
		require.NoError(t, pool.InsertTuple(tid, tableId, row))
	}
	require.NoError(t, pool.TransactionComplete(tid, true))

	hf, err := cat.FileForTable(tableId)
	require.NoError(t, err)

	tid2 := ids.NewTransactionId()
	scan := NewSeqScan(hf, pool)
	agg := NewAggregate(scan, 1, 0, Sum)
	require.NoError(t, agg.Open(tid2))
	defer agg.Close()

	totals := map[int32]int32{}
	for {
		has, err := agg.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		row, err := agg.Next()
		require.NoError(t, err)
		totals[row.Field(0).IntVal] = row.Field(1).IntVal
	}
	require.Equal(t, map[int32]int32{1: 120, 2: 40}, totals)
}

func TestInsertAndDeleteReportCounts(t *testing.T) {
	schema := tuple.NewSchema(tuple.IntField("id"))
	cat, pool, tableId := setupTable(t, "nums", schema)

	source := &sliceOperator{schema: schema, rows: []int32{1, 2, 3}}
	ins := NewInsert(source, pool, tableId)
	tid := ids.NewTransactionId()
	require.NoError(t, ins.Open(tid))
	result, err := ins.Next()
	require.NoError(t, err)
	require.Equal(t, int32(3), result.Field(0).IntVal)
	ins.Close()
	require.NoError(t, pool.TransactionComplete(tid, true))

	hf, err := cat.FileForTable(tableId)
	require.NoError(t, err)

	tid2 := ids.NewTransactionId()
	scan := NewSeqScan(hf, pool)
	filter := NewFilter(scan, Predicate{FieldIndex: 0, Op: LessThanOrEqual, Value: tuple.IntValue(2)})
	del := NewDelete(filter, pool)
	require.NoError(t, del.Open(tid2))
	delResult, err := del.Next()
	require.NoError(t, err)
	require.Equal(t, int32(2), delResult.Field(0).IntVal)
	del.Close()
	require.NoError(t, pool.TransactionComplete(tid2, true))

	tid3 := ids.NewTransactionId()
	remaining := NewSeqScan(hf, pool)
	require.NoError(t, remaining.Open(tid3))
	defer remaining.Close()
	has, err := remaining.HasNext()
	require.NoError(t, err)
	require.True(t, has)
	row, err := remaining.Next()
	require.NoError(t, err)
	require.Equal(t, int32(3), row.Field(0).IntVal)
	has, err = remaining.HasNext()
	require.NoError(t, err)
	require.False(t, has)
}

// sliceOperator is a minimal in-memory Operator source for feeding fixed
// rows into Insert/Delete tests without a real scan.
type sliceOperator struct {
	schema *tuple.Schema
	rows   []int32
	pos    int
}

func (s *sliceOperator) Open(ids.TransactionId) error { s.pos = 0; return nil }
func (s *sliceOperator) HasNext() (bool, error)       { return s.pos < len(s.rows), nil }
func (s *sliceOperator) Next() (*tuple.Tuple, error) {
	t := tuple.NewTuple(s.schema)
	t.SetField(0, tuple.IntValue(s.rows[s.pos]))
	s.pos++
	return t, nil
}
func (s *sliceOperator) Close()                  {}
func (s *sliceOperator) Schema() *tuple.Schema   { return s.schema }
