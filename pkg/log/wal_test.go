package log

import (
	"io"
	"os"
	"path/filepath"
	"relstore/pkg/primitives"
	"testing"
)

func openTestWAL(t *testing.T) (*WAL, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wal.log")
	wal, err := NewWAL(path, 1024)
	if err != nil {
		t.Fatalf("NewWAL failed: %v", err)
	}
	t.Cleanup(func() { wal.Close() })
	return wal, path
}

func readAllRecords(t *testing.T, path string) []*Record {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer f.Close()

	var records []*Record
	for {
		rec, err := ReadRecord(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadRecord failed: %v", err)
		}
		records = append(records, rec)
	}
	return records
}

func TestWAL_TransactionLifecycle(t *testing.T) {
	wal, path := openTestWAL(t)
	tid := primitives.NewTransactionID()

	if err := wal.LogXactionBegin(tid); err != nil {
		t.Fatalf("LogXactionBegin failed: %v", err)
	}
	if err := wal.LogCommit(tid); err != nil {
		t.Fatalf("LogCommit failed: %v", err)
	}

	records := readAllRecords(t, path)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	if records[0].Type != BeginRecord || records[1].Type != CommitRecord {
		t.Errorf("Expected BEGIN then COMMIT, got %s then %s", records[0].Type, records[1].Type)
	}
	if records[0].TID != tid.ID() {
		t.Errorf("Expected tid %d, got %d", tid.ID(), records[0].TID)
	}
}

func TestWAL_CommitForcesBufferedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	// A large buffer that never fills on its own
	wal, err := NewWAL(path, 1<<20)
	if err != nil {
		t.Fatalf("NewWAL failed: %v", err)
	}
	defer wal.Close()

	tid := primitives.NewTransactionID()
	wal.LogXactionBegin(tid)

	// Nothing forced yet: the file may be empty
	if err := wal.LogCommit(tid); err != nil {
		t.Fatalf("LogCommit failed: %v", err)
	}

	// Commit must have forced everything before returning
	records := readAllRecords(t, path)
	if len(records) != 2 {
		t.Errorf("Expected commit to force 2 records to disk, got %d", len(records))
	}
}

func TestWAL_UpdateRecordRoundTrip(t *testing.T) {
	wal, path := openTestWAL(t)
	tid := primitives.NewTransactionID()

	pid := primitives.PageKey{Table: 42, Page: 7}
	before := []byte{1, 2, 3, 4}
	after := []byte{5, 6, 7, 8}

	if err := wal.LogWrite(tid, pid, before, after); err != nil {
		t.Fatalf("LogWrite failed: %v", err)
	}
	if err := wal.Force(); err != nil {
		t.Fatalf("Force failed: %v", err)
	}

	records := readAllRecords(t, path)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Type != UpdateRecord {
		t.Fatalf("Expected UPDATE record, got %s", rec.Type)
	}
	if rec.Page != pid {
		t.Errorf("Expected page %v, got %v", pid, rec.Page)
	}
	if string(rec.BeforeImage) != string(before) || string(rec.AfterImage) != string(after) {
		t.Error("Before/after images did not round trip")
	}
}

func TestWAL_LSNsIncrease(t *testing.T) {
	wal, path := openTestWAL(t)
	tid := primitives.NewTransactionID()

	wal.LogXactionBegin(tid)
	wal.LogAbort(tid)
	wal.Force()

	records := readAllRecords(t, path)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1].LSN <= records[0].LSN {
		t.Errorf("LSNs should increase: %d then %d", records[0].LSN, records[1].LSN)
	}
}

func TestWAL_ReopenContinues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	wal1, err := NewWAL(path, 1024)
	if err != nil {
		t.Fatalf("NewWAL failed: %v", err)
	}
	tid := primitives.NewTransactionID()
	wal1.LogXactionBegin(tid)
	wal1.Close()

	wal2, err := NewWAL(path, 1024)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer wal2.Close()

	wal2.LogCommit(tid)

	records := readAllRecords(t, path)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records across reopen, got %d", len(records))
	}
	if records[1].LSN <= records[0].LSN {
		t.Error("LSNs should continue increasing across reopen")
	}
}
