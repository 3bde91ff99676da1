package main

import (
	"os"

	"github.com/spf13/cobra"

	"SiloDB/dbconfig"
	"SiloDB/dblog"
	"SiloDB/storage/bufferpool"
	"SiloDB/storage/ids"
	"SiloDB/storage/tuple"
)

var seedCmd = &cobra.Command{
	Use:   "seed <dir>",
	Short: "Create the demo table in <dir> and insert sample rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var sampleRows = []struct {
	Name string
	Age  int32
}{
	{"alice", 30},
	{"bob", 25},
	{"carol", 41},
	{"dave", 19},
}

func runSeed(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	cat, tableId, err := openCatalog(dir)
	if err != nil {
		return err
	}
	defer cat.Close()

	pool := bufferpool.New(cat, dbconfig.Options{})
	schema := peopleSchema()
	tid := ids.NewTransactionId()

	for i, row := range sampleRows {
		t := tuple.NewTuple(schema)
		t.SetField(0, tuple.IntValue(int32(i+1)))
		t.SetField(1, tuple.StringValue(row.Name))
		t.SetField(2, tuple.IntValue(row.Age))
		if err := pool.InsertTuple(tid, tableId, t); err != nil {
			return err
		}
	}

	if err := pool.TransactionComplete(tid, true); err != nil {
		return err
	}

	dblog.Log.WithField("rows", len(sampleRows)).Info("seeded people table")
	return nil
}
