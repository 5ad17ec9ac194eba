package page

import (
	"fmt"
	"os"
	"relstore/pkg/config"
	"relstore/pkg/primitives"
	"sync"
)

// BaseFile provides the common file operations shared by database file
// types: thread-safe page-granular reads and writes, page counting, and
// the stable file identifier derived from the path.
type BaseFile struct {
	file     *os.File
	fileID   primitives.TableID
	mutex    sync.RWMutex
	filePath primitives.Filepath
}

// NewBaseFile opens (creating if needed) the database file at filePath and
// derives its stable identifier from the canonicalized path.
func NewBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	if filePath == "" {
		return nil, fmt.Errorf("filePath cannot be empty")
	}

	file, err := os.OpenFile(string(filePath), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}

	return &BaseFile{
		file:     file,
		fileID:   filePath.Hash(),
		filePath: filePath.Canonical(),
	}, nil
}

// GetID returns the unique identifier for this file. It is a hash of the
// canonical file path and is stable across process restarts.
func (bf *BaseFile) GetID() primitives.TableID {
	return bf.fileID
}

// NumPages returns the total number of pages in this file, rounding up if
// the file size is not page-aligned.
func (bf *BaseFile) NumPages() (primitives.PageNumber, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	pageSize := int64(config.PageSize)
	numPages := primitives.PageNumber(fileInfo.Size() / pageSize)
	if fileInfo.Size()%pageSize != 0 {
		numPages++
	}

	return numPages, nil
}

// ReadPageData reads exactly one page of raw bytes at the given page number.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return nil, fmt.Errorf("file is closed")
	}

	offset := int64(pageNo) * int64(config.PageSize)
	pageData := make([]byte, config.PageSize)

	_, err := bf.file.ReadAt(pageData, offset)
	return pageData, err
}

// WritePageData writes exactly one page of raw bytes at the given page
// number and syncs the file so the write is durable before returning.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}

	if len(pageData) != config.PageSize {
		return fmt.Errorf("invalid page data size: expected %d, got %d", config.PageSize, len(pageData))
	}

	offset := int64(pageNo) * int64(config.PageSize)

	if _, err := bf.file.WriteAt(pageData, offset); err != nil {
		return fmt.Errorf("failed to write page data: %w", err)
	}

	if err := bf.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	return nil
}

// AllocateNewPage atomically reserves the next page number by extending the
// file with a zero-filled page. Concurrent allocations receive distinct
// numbers because the extension happens under the write lock. The caller
// overwrites the zero page with real data afterwards; a zero-filled heap
// page parses as empty, so a crash between the two leaves a valid file.
func (bf *BaseFile) AllocateNewPage() (primitives.PageNumber, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	pageSize := int64(config.PageSize)
	numPages := fileInfo.Size() / pageSize
	if fileInfo.Size()%pageSize != 0 {
		numPages++
	}

	allocatedPageNo := primitives.PageNumber(numPages)

	zeroPage := make([]byte, config.PageSize)
	offset := int64(allocatedPageNo) * pageSize

	if _, err := bf.file.WriteAt(zeroPage, offset); err != nil {
		return 0, fmt.Errorf("failed to reserve page space: %w", err)
	}

	if err := bf.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync file after page allocation: %w", err)
	}

	return allocatedPageNo, nil
}

// FilePath returns the canonical path to the database file.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// Close closes the underlying file handle. After Close, all other methods
// return errors.
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file != nil {
		err := bf.file.Close()
		bf.file = nil
		return err
	}

	return nil
}
