package log

import (
	"fmt"
	"io"
	"os"
	"relstore/pkg/primitives"
	"sync"
)

// WAL is the file-backed write-ahead log. Records accumulate in an
// in-memory buffer and reach disk on Force, on commit, or when the buffer
// fills. LSNs are byte offsets into the log file.
type WAL struct {
	file       *os.File
	buffer     []byte
	bufferSize int
	nextLSN    primitives.LSN
	flushedLSN primitives.LSN
	mutex      sync.Mutex
}

// NewWAL opens (or creates) the log file at logPath and positions the LSN
// counter at its current end.
func NewWAL(logPath string, bufferSize int) (*WAL, error) {
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL file: %w", err)
	}

	pos, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to seek to end of WAL: %w", err)
	}

	if bufferSize <= 0 {
		bufferSize = 8192
	}

	return &WAL{
		file:       file,
		buffer:     make([]byte, 0, bufferSize),
		bufferSize: bufferSize,
		nextLSN:    primitives.LSN(pos),
		flushedLSN: primitives.LSN(pos),
	}, nil
}

func (w *WAL) LogXactionBegin(tid *primitives.TransactionID) error {
	_, err := w.append(&Record{Type: BeginRecord, TID: tid.ID()})
	return err
}

// LogCommit appends the commit record and forces the log. After it returns,
// the commit is durable even if the data pages have not been written yet.
func (w *WAL) LogCommit(tid *primitives.TransactionID) error {
	if _, err := w.append(&Record{Type: CommitRecord, TID: tid.ID()}); err != nil {
		return err
	}
	return w.Force()
}

func (w *WAL) LogAbort(tid *primitives.TransactionID) error {
	_, err := w.append(&Record{Type: AbortRecord, TID: tid.ID()})
	return err
}

// LogWrite appends an update record carrying the page's before and after
// images. The caller must Force before writing the page itself.
func (w *WAL) LogWrite(tid *primitives.TransactionID, pid primitives.PageKey, beforeImage, afterImage []byte) error {
	_, err := w.append(&Record{
		Type:        UpdateRecord,
		TID:         tid.ID(),
		Page:        pid,
		BeforeImage: beforeImage,
		AfterImage:  afterImage,
	})
	return err
}

// Force flushes all buffered records and syncs the file.
func (w *WAL) Force() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.flushLocked()
}

// Close flushes any buffered records and closes the log file.
func (w *WAL) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.file == nil {
		return nil
	}

	if err := w.flushLocked(); err != nil {
		return err
	}

	err := w.file.Close()
	w.file = nil
	return err
}

func (w *WAL) append(rec *Record) (primitives.LSN, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.file == nil {
		return 0, fmt.Errorf("WAL is closed")
	}

	rec.LSN = w.nextLSN
	encoded := rec.encode()
	w.nextLSN += primitives.LSN(len(encoded))

	w.buffer = append(w.buffer, encoded...)
	if len(w.buffer) >= w.bufferSize {
		if err := w.flushLocked(); err != nil {
			return 0, err
		}
	}

	return rec.LSN, nil
}

func (w *WAL) flushLocked() error {
	if len(w.buffer) == 0 {
		return nil
	}
	if w.file == nil {
		return fmt.Errorf("WAL is closed")
	}

	if _, err := w.file.Write(w.buffer); err != nil {
		return fmt.Errorf("failed to write log buffer: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}

	w.flushedLSN = w.nextLSN
	w.buffer = w.buffer[:0]
	return nil
}

// FlushedLSN reports the highest LSN known to be on disk.
func (w *WAL) FlushedLSN() primitives.LSN {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.flushedLSN
}
