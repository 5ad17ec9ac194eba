package transaction

import (
	"path/filepath"
	"relstore/pkg/log"
	"relstore/pkg/primitives"
	"testing"
)

func TestTransactionContext_Lifecycle(t *testing.T) {
	tc := NewTransactionContext(primitives.NewTransactionID())

	if !tc.IsActive() {
		t.Error("New transaction should be active")
	}

	tc.SetStatus(TxCommitted)
	if tc.IsActive() {
		t.Error("Committed transaction should not be active")
	}
	if tc.GetStatus() != TxCommitted {
		t.Errorf("Expected COMMITTED, got %s", tc.GetStatus())
	}
}

func TestTransactionContext_PageTracking(t *testing.T) {
	tc := NewTransactionContext(primitives.NewTransactionID())

	p0 := primitives.PageKey{Table: 1, Page: 0}
	p1 := primitives.PageKey{Table: 1, Page: 1}

	tc.RecordPageAccess(p0, ReadOnly)
	tc.RecordPageAccess(p1, ReadWrite)
	tc.MarkPageDirty(p1)

	if len(tc.GetLockedPages()) != 2 {
		t.Errorf("Expected 2 locked pages, got %d", len(tc.GetLockedPages()))
	}
	if len(tc.GetDirtyPages()) != 1 {
		t.Errorf("Expected 1 dirty page, got %d", len(tc.GetDirtyPages()))
	}

	perm, exists := tc.GetPagePermission(p1)
	if !exists || perm != ReadWrite {
		t.Error("Expected ReadWrite permission on p1")
	}

	// A ReadWrite grant is never downgraded by a later read
	tc.RecordPageAccess(p1, ReadOnly)
	perm, _ = tc.GetPagePermission(p1)
	if perm != ReadWrite {
		t.Error("ReadOnly access must not downgrade a ReadWrite grant")
	}
}

func TestTransactionContext_WALBeginOnce(t *testing.T) {
	wal, err := log.NewWAL(filepath.Join(t.TempDir(), "wal.log"), 1024)
	if err != nil {
		t.Fatalf("NewWAL failed: %v", err)
	}
	defer wal.Close()

	tc := NewTransactionContext(primitives.NewTransactionID())
	if tc.HasBegunInWAL() {
		t.Error("Fresh transaction should not have a BEGIN record")
	}

	if err := tc.EnsureBegunInWAL(wal); err != nil {
		t.Fatalf("EnsureBegunInWAL failed: %v", err)
	}
	if !tc.HasBegunInWAL() {
		t.Error("Expected begun flag after EnsureBegunInWAL")
	}

	// Second call is a no-op
	if err := tc.EnsureBegunInWAL(wal); err != nil {
		t.Fatalf("Second EnsureBegunInWAL failed: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	tx := r.Begin()
	if r.ActiveCount() != 1 {
		t.Errorf("Expected 1 active transaction, got %d", r.ActiveCount())
	}

	got, err := r.Get(tx.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != tx {
		t.Error("Get should return the registered context")
	}

	r.Remove(tx.ID)
	if r.ActiveCount() != 0 {
		t.Errorf("Expected 0 active transactions, got %d", r.ActiveCount())
	}
	if _, err := r.Get(tx.ID); err == nil {
		t.Error("Get after Remove should fail")
	}
}

func TestRegistry_MonotonicIDs(t *testing.T) {
	r := NewRegistry()

	t1 := r.Begin()
	t2 := r.Begin()

	if t2.ID.ID() <= t1.ID.ID() {
		t.Errorf("Transaction ids should increase: %d then %d", t1.ID.ID(), t2.ID.ID())
	}
}
