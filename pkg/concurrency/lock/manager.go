package lock

import (
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"relstore/pkg/config"
	"relstore/pkg/primitives"
	"slices"
	"sync"
	"time"
)

// ErrTransactionAborted is returned when a lock request times out. The
// caller is expected to abort the transaction, release everything it
// holds, and optionally retry under a fresh transaction id.
var ErrTransactionAborted = errors.New("transaction aborted: lock wait timed out")

// LockManager implements per-page two-phase locking with shared and
// exclusive modes. Deadlocks are resolved by timeout: every acquisition
// picks a random timeout in [0, config.DeadlockTimeout] so that two
// transactions blocked on each other almost surely pick different victims.
//
// All state is guarded by a single mutex. Waiters park on per-page
// notification channels; every release wakes them to retry.
type LockManager struct {
	mutex     sync.Mutex
	pageLocks map[primitives.PageKey]*pageLock
	txnLocks  map[int64]map[primitives.PageKey]LockType
	waiters   map[primitives.PageKey][]chan struct{}
}

func NewLockManager() *LockManager {
	return &LockManager{
		pageLocks: make(map[primitives.PageKey]*pageLock),
		txnLocks:  make(map[int64]map[primitives.PageKey]LockType),
		waiters:   make(map[primitives.PageKey][]chan struct{}),
	}
}

// AcquireLock blocks until tid holds the page in the requested mode, or
// fails with ErrTransactionAborted once its randomized timeout elapses.
//
// Grant rules, checked atomically:
//   - unlocked page: grant
//   - already held by tid in a sufficient mode: no-op
//   - shared request with only shared holders: grant
//   - exclusive request where tid is the sole (shared) holder: upgrade
//   - anything else: wait
func (lm *LockManager) AcquireLock(tid *primitives.TransactionID, pid primitives.PageKey, lockType LockType) error {
	if tid == nil {
		return fmt.Errorf("transaction ID cannot be nil")
	}

	deadline := time.Now().Add(randomTimeout())

	for {
		lm.mutex.Lock()
		if lm.tryAcquire(tid.ID(), pid, lockType) {
			lm.mutex.Unlock()
			return nil
		}

		wakeup := make(chan struct{}, 1)
		lm.waiters[pid] = append(lm.waiters[pid], wakeup)
		lm.mutex.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			lm.removeWaiter(pid, wakeup)
			return fmt.Errorf("%w: page %v, %s", ErrTransactionAborted, pid, tid)
		}

		timer := time.NewTimer(remaining)
		select {
		case <-wakeup:
			timer.Stop()

		case <-timer.C:
			lm.removeWaiter(pid, wakeup)
			return fmt.Errorf("%w: page %v, %s", ErrTransactionAborted, pid, tid)
		}
	}
}

// randomTimeout picks this acquisition's deadlock timeout uniformly in
// [0, config.DeadlockTimeout].
func randomTimeout() time.Duration {
	limit := int64(config.DeadlockTimeout)
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(limit + 1))
}

// tryAcquire attempts the grant under the manager's mutex and reports
// whether tid now holds the page in at least the requested mode.
func (lm *LockManager) tryAcquire(tid int64, pid primitives.PageKey, lockType LockType) bool {
	pl, exists := lm.pageLocks[pid]
	if !exists {
		pl = newPageLock()
		lm.pageLocks[pid] = pl
	}

	current, holds := pl.holders[tid]
	if holds {
		if current == ExclusiveLock || lockType == SharedLock {
			return true
		}

		// Upgrade: allowed only while tid is the sole holder. The shared
		// grant is replaced, never held alongside the exclusive one.
		if pl.hasOtherHolders(tid) {
			return false
		}
		pl.holders[tid] = ExclusiveLock
		lm.txnLocks[tid][pid] = ExclusiveLock
		return true
	}

	if lockType == SharedLock {
		if pl.hasOtherExclusive(tid) {
			return false
		}
	} else if len(pl.holders) > 0 {
		return false
	}

	pl.holders[tid] = lockType
	if lm.txnLocks[tid] == nil {
		lm.txnLocks[tid] = make(map[primitives.PageKey]LockType)
	}
	lm.txnLocks[tid][pid] = lockType
	return true
}

// ReleaseLock drops tid's hold on a page and wakes every waiter so they
// can retry.
func (lm *LockManager) ReleaseLock(tid *primitives.TransactionID, pid primitives.PageKey) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	lm.releaseLocked(tid.ID(), pid)
}

// ReleaseAll drops every lock tid holds. Called once at transaction end;
// the release set in txnLocks is authoritative.
func (lm *LockManager) ReleaseAll(tid *primitives.TransactionID) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	held := lm.txnLocks[tid.ID()]
	for pid := range maps.Clone(held) {
		lm.releaseLocked(tid.ID(), pid)
	}
}

func (lm *LockManager) releaseLocked(tid int64, pid primitives.PageKey) {
	pl, exists := lm.pageLocks[pid]
	if exists {
		delete(pl.holders, tid)
		if len(pl.holders) == 0 {
			delete(lm.pageLocks, pid)
		}
	}

	if held, exists := lm.txnLocks[tid]; exists {
		delete(held, pid)
		if len(held) == 0 {
			delete(lm.txnLocks, tid)
		}
	}

	for _, wakeup := range lm.waiters[pid] {
		select {
		case wakeup <- struct{}{}:
		default:
		}
	}
	delete(lm.waiters, pid)
}

func (lm *LockManager) removeWaiter(pid primitives.PageKey, wakeup chan struct{}) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	queue := lm.waiters[pid]
	for i, ch := range queue {
		if ch == wakeup {
			lm.waiters[pid] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	if len(lm.waiters[pid]) == 0 {
		delete(lm.waiters, pid)
	}
}

// HoldsLock reports whether tid holds any lock on the page.
func (lm *LockManager) HoldsLock(tid *primitives.TransactionID, pid primitives.PageKey) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	held, exists := lm.txnLocks[tid.ID()]
	if !exists {
		return false
	}
	_, holds := held[pid]
	return holds
}

// HeldMode returns the mode tid holds on the page, if any.
func (lm *LockManager) HeldMode(tid *primitives.TransactionID, pid primitives.PageKey) (LockType, bool) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	held, exists := lm.txnLocks[tid.ID()]
	if !exists {
		return 0, false
	}
	mode, holds := held[pid]
	return mode, holds
}

// LockedPages returns every page tid currently holds a lock on.
func (lm *LockManager) LockedPages(tid *primitives.TransactionID) []primitives.PageKey {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	held, exists := lm.txnLocks[tid.ID()]
	if !exists {
		return nil
	}
	return slices.Collect(maps.Keys(held))
}

// IsPageLocked reports whether any transaction holds the page.
func (lm *LockManager) IsPageLocked(pid primitives.PageKey) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	pl, exists := lm.pageLocks[pid]
	return exists && len(pl.holders) > 0
}
