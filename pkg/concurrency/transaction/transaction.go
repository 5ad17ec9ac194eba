package transaction

import (
	"fmt"
	"maps"
	"relstore/pkg/log"
	"relstore/pkg/primitives"
	"slices"
	"sync"
	"time"
)

// TransactionStatus represents the current state of a transaction
type TransactionStatus int

const (
	TxActive TransactionStatus = iota
	TxCommitted
	TxAborted
)

func (ts TransactionStatus) String() string {
	switch ts {
	case TxActive:
		return "ACTIVE"
	case TxCommitted:
		return "COMMITTED"
	case TxAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Permissions represents the access level for page operations
type Permissions int

const (
	ReadOnly Permissions = iota
	ReadWrite
)

// TransactionContext encapsulates all state for a single transaction:
// which pages it has locked with what permission, which pages it has
// dirtied, and whether its BEGIN record has reached the log.
type TransactionContext struct {
	ID *primitives.TransactionID

	status    TransactionStatus
	startTime time.Time
	mutex     sync.RWMutex

	// Maps PageKey to the permission level requested
	lockedPages map[primitives.PageKey]Permissions
	// Set of pages this transaction has modified
	dirtyPages map[primitives.PageKey]bool

	begunInWAL bool
}

func NewTransactionContext(tid *primitives.TransactionID) *TransactionContext {
	return &TransactionContext{
		ID:          tid,
		status:      TxActive,
		startTime:   time.Now(),
		lockedPages: make(map[primitives.PageKey]Permissions),
		dirtyPages:  make(map[primitives.PageKey]bool),
	}
}

// IsActive returns true if the transaction has neither committed nor aborted.
func (tc *TransactionContext) IsActive() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.status == TxActive
}

func (tc *TransactionContext) GetStatus() TransactionStatus {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.status
}

func (tc *TransactionContext) SetStatus(status TransactionStatus) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.status = status
}

// RecordPageAccess records that this transaction holds a lock on a page.
// An existing ReadWrite grant is never downgraded.
func (tc *TransactionContext) RecordPageAccess(pid primitives.PageKey, perm Permissions) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if existing, exists := tc.lockedPages[pid]; exists && existing == ReadWrite {
		return
	}
	tc.lockedPages[pid] = perm
}

// MarkPageDirty marks a page as modified by this transaction
func (tc *TransactionContext) MarkPageDirty(pid primitives.PageKey) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.dirtyPages[pid] = true
}

// GetDirtyPages returns a copy of all dirty page keys
func (tc *TransactionContext) GetDirtyPages() []primitives.PageKey {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return slices.Collect(maps.Keys(tc.dirtyPages))
}

// GetLockedPages returns a copy of all locked page keys
func (tc *TransactionContext) GetLockedPages() []primitives.PageKey {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return slices.Collect(maps.Keys(tc.lockedPages))
}

func (tc *TransactionContext) GetPagePermission(pid primitives.PageKey) (perm Permissions, exists bool) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	perm, exists = tc.lockedPages[pid]
	return
}

// EnsureBegunInWAL writes the BEGIN record on the transaction's first
// mutation; subsequent calls are no-ops.
func (tc *TransactionContext) EnsureBegunInWAL(l log.RecoveryLog) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.begunInWAL {
		return nil
	}

	if err := l.LogXactionBegin(tc.ID); err != nil {
		return err
	}

	tc.begunInWAL = true
	return nil
}

// HasBegunInWAL reports whether the BEGIN record has been logged.
func (tc *TransactionContext) HasBegunInWAL() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.begunInWAL
}

// Duration returns how long the transaction has been running
func (tc *TransactionContext) Duration() time.Duration {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return time.Since(tc.startTime)
}

func (tc *TransactionContext) String() string {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	return fmt.Sprintf("Transaction %s [Status=%s, Dirty=%d, Locked=%d]",
		tc.ID.String(), tc.status.String(), len(tc.dirtyPages), len(tc.lockedPages))
}
