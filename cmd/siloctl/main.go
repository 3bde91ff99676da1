// Command siloctl is an operator console for the storage engine: seed a
// table with sample rows, scan a table back out, or run a scripted
// deadlock to watch the lock manager abort a victim. Grounded on the
// teacher's main.go/cmd/seed REPL-and-seed-program texture, restructured
// around github.com/spf13/cobra the way
// _examples/leftmike-maho.v1/cmd/maho.go wires its subcommands.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"SiloDB/dblog"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "siloctl",
	Short: "Operator console for the SiloDB storage engine",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		dblog.SetDebug(debug)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"trace page access and lock grants")
	rootCmd.AddCommand(seedCmd, scanCmd, demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		dblog.Log.WithField("err", err).Error("siloctl failed")
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	dblog.Log.Errorf(format, args...)
	os.Exit(1)
}
