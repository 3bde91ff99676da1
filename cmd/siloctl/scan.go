package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"SiloDB/dbconfig"
	"SiloDB/storage/bufferpool"
	"SiloDB/storage/ids"
	"SiloDB/query"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Print every row of the demo table seeded in <dir>",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cat, tableId, err := openCatalog(dir)
	if err != nil {
		return err
	}
	defer cat.Close()

	pool := bufferpool.New(cat, dbconfig.Options{})
	hf, err := cat.FileForTable(tableId)
	if err != nil {
		return err
	}

	tid := ids.NewTransactionId()
	scan := query.NewSeqScan(hf, pool)
	if err := scan.Open(tid); err != nil {
		return err
	}
	defer scan.Close()

	n := 0
	for {
		has, err := scan.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		row, err := scan.Next()
		if err != nil {
			return err
		}
		fmt.Println(row.String())
		n++
	}

	fmt.Printf("%d row(s)\n", n)
	return pool.TransactionComplete(tid, true)
}
