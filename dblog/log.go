// Package dblog provides the single shared logger used across the storage
// engine, replacing ad-hoc fmt.Printf tracing with structured fields.
package dblog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the package-wide logger. Buffer pool and lock manager traces go
// out at Debug; nothing above Info is emitted on the happy path.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetDebug turns on per-page-access tracing, useful when stepping through
// a deadlock or eviction scenario by hand.
func SetDebug(on bool) {
	if on {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}
