package heap

import (
	"fmt"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/page"
	"relstore/pkg/tuple"
)

// HeapFileIterator walks every live tuple of a HeapFile in page-then-slot
// order. Each page is obtained through the buffer pool with ReadOnly
// permission, so a full scan shared-locks every page it visits; the locks
// are held until the transaction completes, not until Close.
type HeapFileIterator struct {
	file        *HeapFile
	tx          *transaction.TransactionContext
	pool        page.Pool
	currentPage int64
	pageIter    *HeapPageIterator
	isOpen      bool
}

// NewHeapFileIterator creates a new iterator over the given HeapFile.
func NewHeapFileIterator(file *HeapFile, tx *transaction.TransactionContext, pool page.Pool) *HeapFileIterator {
	return &HeapFileIterator{
		file:        file,
		tx:          tx,
		pool:        pool,
		currentPage: -1,
	}
}

// Open initializes the iterator and positions it before the first tuple.
func (it *HeapFileIterator) Open() error {
	it.currentPage = -1
	it.pageIter = nil
	it.isOpen = true
	return it.moveToNextPage()
}

// HasNext returns true if there are more tuples
func (it *HeapFileIterator) HasNext() (bool, error) {
	if !it.isOpen {
		return false, fmt.Errorf("iterator not opened")
	}

	for {
		if it.pageIter == nil {
			return false, nil
		}

		hasNext, err := it.pageIter.HasNext()
		if err != nil {
			return false, err
		}
		if hasNext {
			return true, nil
		}

		if err := it.moveToNextPage(); err != nil {
			return false, err
		}
	}
}

// Next returns the next tuple
func (it *HeapFileIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more tuples")
	}

	return it.pageIter.Next()
}

// Rewind resets the iterator to the first page
func (it *HeapFileIterator) Rewind() error {
	if !it.isOpen {
		return fmt.Errorf("iterator not opened")
	}
	return it.Open()
}

// Close releases iterator resources. Page locks persist until the
// transaction completes.
func (it *HeapFileIterator) Close() error {
	if it.pageIter != nil {
		it.pageIter.Close()
		it.pageIter = nil
	}
	it.isOpen = false
	return nil
}

// moveToNextPage advances to the next page, leaving pageIter nil when the
// file is exhausted.
func (it *HeapFileIterator) moveToNextPage() error {
	numPages, err := it.file.NumPages()
	if err != nil {
		return err
	}

	it.currentPage++
	if it.currentPage >= int64(numPages) {
		it.pageIter = nil
		return nil
	}

	pid := page.NewPageDescriptor(it.file.GetID(), primitives.PageNumber(it.currentPage))
	pg, err := it.pool.GetPage(it.tx, pid, transaction.ReadOnly)
	if err != nil {
		return err
	}

	hp, ok := pg.(*HeapPage)
	if !ok {
		return fmt.Errorf("page %s is not a heap page", pid)
	}

	it.pageIter = NewHeapPageIterator(hp)
	return it.pageIter.Open()
}
