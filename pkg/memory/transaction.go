package memory

import (
	"fmt"
	"relstore/pkg/concurrency/transaction"
)

// CommitTransaction makes all of tx's changes durable (FORCE policy):
// every dirty page in its lock set is flushed under write-ahead ordering
// and re-baselined as its own before-image, then every lock is released.
func (p *PageStore) CommitTransaction(tx *transaction.TransactionContext) error {
	return p.TransactionComplete(tx, true)
}

// AbortTransaction discards all of tx's changes: dirty pages are dropped
// from the cache without ever reaching disk, then every lock is released.
func (p *PageStore) AbortTransaction(tx *transaction.TransactionContext) error {
	return p.TransactionComplete(tx, false)
}

// TransactionComplete finishes a transaction either way. It is idempotent:
// completing an already-finished transaction only re-releases its (empty)
// lock set.
//
// Commit: log COMMIT, then for every page in tx's lock set flush it if
// dirty and snapshot the flushed state as the new before-image.
//
// Abort: log ABORT, then discard every page tx dirtied so the next reader
// re-materializes the committed state from disk.
//
// Locks are released last, so no other transaction observes a
// half-committed state.
func (p *PageStore) TransactionComplete(tx *transaction.TransactionContext, commit bool) error {
	if tx == nil || tx.ID == nil {
		return fmt.Errorf("transaction context cannot be nil")
	}

	if !tx.IsActive() {
		p.lockManager.ReleaseAll(tx.ID)
		return nil
	}

	if commit {
		if err := p.handleCommit(tx); err != nil {
			return err
		}
		tx.SetStatus(transaction.TxCommitted)
	} else {
		if err := p.handleAbort(tx); err != nil {
			return err
		}
		tx.SetStatus(transaction.TxAborted)
	}

	p.lockManager.ReleaseAll(tx.ID)
	return nil
}

func (p *PageStore) handleCommit(tx *transaction.TransactionContext) error {
	if tx.HasBegunInWAL() {
		if err := p.recoveryLog.LogCommit(tx.ID); err != nil {
			return fmt.Errorf("commit failed: unable to log commit record: %w", err)
		}
	}

	for _, pid := range tx.GetLockedPages() {
		p.mutex.Lock()
		pg, exists := p.cache.Get(pid)
		p.mutex.Unlock()
		if !exists {
			continue
		}

		if pg.IsDirty() == nil {
			continue
		}

		if err := p.flushPage(pid); err != nil {
			return fmt.Errorf("commit failed: unable to flush page %v: %w", pid, err)
		}
		pg.SetBeforeImage()
	}

	return nil
}

func (p *PageStore) handleAbort(tx *transaction.TransactionContext) error {
	if tx.HasBegunInWAL() {
		if err := p.recoveryLog.LogAbort(tx.ID); err != nil {
			return fmt.Errorf("abort failed: unable to log abort record: %w", err)
		}
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, pid := range tx.GetLockedPages() {
		pg, exists := p.cache.Get(pid)
		if !exists {
			continue
		}

		if dirtier := pg.IsDirty(); dirtier != nil && dirtier.Equals(tx.ID) {
			p.cache.Remove(pid)
		}
	}

	return nil
}
