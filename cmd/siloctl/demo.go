package main

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"SiloDB/dberr"
	"SiloDB/dblog"
	"SiloDB/storage/ids"
	"SiloDB/storage/lockmgr"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Scripted scenarios that exercise one storage-engine invariant",
}

var deadlockCmd = &cobra.Command{
	Use:   "deadlock",
	Short: "Two transactions cross-acquire two pages; watch one abort",
	RunE:  runDeadlockDemo,
}

func init() {
	demoCmd.AddCommand(deadlockCmd)
}

func runDeadlockDemo(cmd *cobra.Command, args []string) error {
	lm := lockmgr.New()
	pageA := ids.NewPageId(1, 0)
	pageB := ids.NewPageId(1, 1)
	t1 := ids.NewTransactionId()
	t2 := ids.NewTransactionId()

	if err := lm.AcquireLock(pageA, t1, lockmgr.Exclusive); err != nil {
		return err
	}
	if err := lm.AcquireLock(pageB, t2, lockmgr.Exclusive); err != nil {
		return err
	}
	dblog.Log.Infof("%s holds X(%s), %s holds X(%s)", t1, pageA, t2, pageB)

	var wg sync.WaitGroup
	var t1Aborted, t2Aborted atomic.Bool
	wg.Add(2)
	go func() {
		defer wg.Done()
		err := lm.AcquireLock(pageB, t1, lockmgr.Exclusive)
		report(t1, pageB, err)
		if err == nil {
			lm.ReleaseLock(pageA, t1)
			lm.ReleaseLock(pageB, t1)
		} else {
			t1Aborted.Store(true)
		}
	}()
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		err := lm.AcquireLock(pageA, t2, lockmgr.Exclusive)
		report(t2, pageA, err)
		if err == nil {
			lm.ReleaseLock(pageA, t2)
			lm.ReleaseLock(pageB, t2)
		} else {
			t2Aborted.Store(true)
		}
	}()

	// Whichever side aborts isn't holding the lock it crossed to acquire,
	// but it still holds its original page; release that to unblock the
	// survivor, mirroring the rollback a real caller runs on Aborted.
	time.Sleep(200 * time.Millisecond)
	if t1Aborted.Load() {
		lm.ReleaseLock(pageA, t1)
	}
	if t2Aborted.Load() {
		lm.ReleaseLock(pageB, t2)
	}

	wg.Wait()
	return nil
}

func report(tid ids.TransactionId, pid ids.PageId, err error) {
	if err == nil {
		dblog.Log.Infof("%s acquired X(%s)", tid, pid)
		return
	}
	var aborted *dberr.Aborted
	if ok := errors.As(err, &aborted); ok {
		dblog.Log.Infof("%s aborted acquiring X(%s): %s", tid, pid, aborted.Reason)
		return
	}
	dblog.Log.Infof("%s failed acquiring X(%s): %s", tid, pid, err)
}
