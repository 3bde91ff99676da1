package lockmgr

import (
	"testing"
	"time"

	"SiloDB/dberr"
	"SiloDB/storage/ids"

	"github.com/stretchr/testify/require"
)

func TestSharedLocksCoexist(t *testing.T) {
	lm := New()
	pid := ids.NewPageId(1, 0)
	t1, t2 := ids.NewTransactionId(), ids.NewTransactionId()

	require.NoError(t, lm.AcquireLock(pid, t1, Shared))
	require.NoError(t, lm.AcquireLock(pid, t2, Shared))
	require.True(t, lm.HoldsLock(pid, t1))
	require.True(t, lm.HoldsLock(pid, t2))
}

func TestExclusiveExcludesOthers(t *testing.T) {
	lm := New()
	pid := ids.NewPageId(1, 0)
	owner, other := ids.NewTransactionId(), ids.NewTransactionId()

	require.NoError(t, lm.AcquireLock(pid, owner, Exclusive))

	blocked := make(chan struct{})
	go func() {
		lm.AcquireLock(pid, other, Shared)
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("second transaction should not have been granted the lock")
	case <-time.After(50 * time.Millisecond):
	}

	lm.ReleaseLock(pid, owner)
	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("second transaction never woke after release")
	}
}

func TestSoleHolderCanUpgrade(t *testing.T) {
	lm := New()
	pid := ids.NewPageId(1, 0)
	tid := ids.NewTransactionId()

	require.NoError(t, lm.AcquireLock(pid, tid, Shared))
	require.NoError(t, lm.AcquireLock(pid, tid, Exclusive))
	require.True(t, lm.HoldsLock(pid, tid))
}

func TestTwoTransactionTwoPageDeadlockAborts(t *testing.T) {
	lm := New()
	pA := ids.NewPageId(1, 0)
	pB := ids.NewPageId(1, 1)
	t1, t2 := ids.NewTransactionId(), ids.NewTransactionId()

	require.NoError(t, lm.AcquireLock(pA, t1, Exclusive))
	require.NoError(t, lm.AcquireLock(pB, t2, Exclusive))

	err1 := make(chan error, 1)
	err2 := make(chan error, 1)
	go func() { err1 <- lm.AcquireLock(pB, t1, Exclusive) }()
	go func() {
		// give t1 a head start forming its wait-for edge before t2 tries,
		// so the cycle is reliably detected on t2's side.
		time.Sleep(20 * time.Millisecond)
		err2 <- lm.AcquireLock(pA, t2, Exclusive)
	}()

	// Exactly one side aborts without ever being granted; the other stays
	// blocked until the aborted side's rollback releases its original lock,
	// same as a real caller driving TransactionComplete(tid, false).
	var loserErr error
	var loserIsT1 bool
	select {
	case loserErr = <-err1:
		loserIsT1 = true
	case loserErr = <-err2:
		loserIsT1 = false
	case <-time.After(time.Second):
		t.Fatal("neither transaction aborted within the deadline")
	}
	require.Error(t, loserErr)
	require.ErrorAs(t, loserErr, new(*dberr.Aborted))

	if loserIsT1 {
		lm.ReleaseLock(pA, t1)
		require.NoError(t, <-err2)
	} else {
		lm.ReleaseLock(pB, t2)
		require.NoError(t, <-err1)
	}
}

func TestPagesLockedByAndRelease(t *testing.T) {
	lm := New()
	p1 := ids.NewPageId(1, 0)
	p2 := ids.NewPageId(1, 1)
	tid := ids.NewTransactionId()

	require.NoError(t, lm.AcquireLock(p1, tid, Shared))
	require.NoError(t, lm.AcquireLock(p2, tid, Exclusive))

	pages := lm.PagesLockedBy(tid)
	require.Len(t, pages, 2)

	lm.ReleaseLock(p1, tid)
	require.False(t, lm.HoldsLock(p1, tid))
	require.True(t, lm.HoldsLock(p2, tid))
}
