package heap

import (
	"fmt"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/iterator"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/page"
	"relstore/pkg/tuple"
)

// HeapFile is a numbered sequence of heap pages persisted as one OS file.
// Page p occupies bytes [p*PageSize, (p+1)*PageSize). The file does no
// locking of its own: every page it touches during tuple operations is
// obtained through the buffer pool, which serializes conflicting access.
type HeapFile struct {
	*page.BaseFile
	tupleDesc *tuple.TupleDescription
}

// NewHeapFile opens (creating if needed) a heap file backed by the given
// path, storing tuples of the given schema.
func NewHeapFile(filename primitives.Filepath, td *tuple.TupleDescription) (*HeapFile, error) {
	baseFile, err := page.NewBaseFile(filename)
	if err != nil {
		return nil, err
	}

	return &HeapFile{
		BaseFile:  baseFile,
		tupleDesc: td,
	}, nil
}

// GetTupleDesc returns the schema of tuples stored in this file.
func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

// ReadPage reads the specified page from disk. Requesting the page one past
// the current end yields a fresh empty page, which is how the file grows;
// anything further past EOF is an error.
func (hf *HeapFile) ReadPage(pid *page.PageDescriptor) (page.Page, error) {
	if pid == nil {
		return nil, fmt.Errorf("page ID cannot be nil")
	}
	if pid.GetTableID() != hf.GetID() {
		return nil, fmt.Errorf("page ID table mismatch: page %s does not belong to file %d", pid, hf.GetID())
	}

	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	if pid.PageNo() >= numPages {
		if pid.PageNo() == numPages {
			return NewEmptyHeapPage(pid, hf.tupleDesc)
		}
		return nil, fmt.Errorf("page %s is beyond end of file (%d pages)", pid, numPages)
	}

	pageData, err := hf.ReadPageData(pid.PageNo())
	if err != nil {
		return nil, fmt.Errorf("failed to read page data: %w", err)
	}

	return NewHeapPage(pid, pageData, hf.tupleDesc)
}

// WritePage writes the given page to disk at its designated location,
// growing the file if necessary.
func (hf *HeapFile) WritePage(p page.Page) error {
	if p == nil {
		return fmt.Errorf("page cannot be nil")
	}

	return hf.WritePageData(p.GetID().PageNo(), p.GetPageData())
}

// AddTuple walks existing pages in page-number order, obtaining each with
// ReadWrite permission, and inserts into the first that has a free slot.
// If none fits, it extends the file with a fresh page and inserts there.
// Returns the pages it modified (always exactly one).
func (hf *HeapFile) AddTuple(tx *transaction.TransactionContext, t *tuple.Tuple, pool page.Pool) ([]page.Page, error) {
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	for pageNo := primitives.PageNumber(0); pageNo < numPages; pageNo++ {
		pid := page.NewPageDescriptor(hf.GetID(), pageNo)
		pg, err := pool.GetPage(tx, pid, transaction.ReadWrite)
		if err != nil {
			return nil, err
		}

		hp, ok := pg.(*HeapPage)
		if !ok {
			return nil, fmt.Errorf("page %s is not a heap page", pid)
		}

		if hp.NumEmptySlots() == 0 {
			continue
		}

		if err := hp.AddTuple(t); err != nil {
			return nil, err
		}
		return []page.Page{hp}, nil
	}

	// Every existing page is full: extend the file on disk, then insert
	// into the new page through the pool so it is locked and cached like
	// any other.
	newPageNo, err := hf.AllocateNewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to extend heap file: %w", err)
	}

	pid := page.NewPageDescriptor(hf.GetID(), newPageNo)
	pg, err := pool.GetPage(tx, pid, transaction.ReadWrite)
	if err != nil {
		return nil, err
	}

	hp, ok := pg.(*HeapPage)
	if !ok {
		return nil, fmt.Errorf("page %s is not a heap page", pid)
	}

	if err := hp.AddTuple(t); err != nil {
		return nil, err
	}
	return []page.Page{hp}, nil
}

// RemoveTuple deletes the tuple named by its record id, obtaining the owning
// page with ReadWrite permission. The tuple must belong to this file.
func (hf *HeapFile) RemoveTuple(tx *transaction.TransactionContext, t *tuple.Tuple, pool page.Pool) (page.Page, error) {
	if t == nil || t.RecordID == nil {
		return nil, fmt.Errorf("tuple has no record id: %w", ErrInvalidRecord)
	}

	if t.RecordID.PageID.GetTableID() != hf.GetID() {
		return nil, fmt.Errorf("tuple belongs to table %d, not %d: %w",
			t.RecordID.PageID.GetTableID(), hf.GetID(), ErrInvalidRecord)
	}

	pid := page.NewPageDescriptor(hf.GetID(), t.RecordID.PageID.PageNo())
	pg, err := pool.GetPage(tx, pid, transaction.ReadWrite)
	if err != nil {
		return nil, err
	}

	hp, ok := pg.(*HeapPage)
	if !ok {
		return nil, fmt.Errorf("page %s is not a heap page", pid)
	}

	if err := hp.RemoveTuple(t); err != nil {
		return nil, err
	}
	return hp, nil
}

// Iterator returns a pull iterator over every live tuple in the file, in
// page-then-slot order, acquiring each page with ReadOnly permission.
func (hf *HeapFile) Iterator(tx *transaction.TransactionContext, pool page.Pool) iterator.DbFileIterator {
	return NewHeapFileIterator(hf, tx, pool)
}

// MaxTuplesPerPage reports how many tuples of this file's schema fit on a
// single page.
func (hf *HeapFile) MaxTuplesPerPage() primitives.SlotID {
	return SlotsPerPage(hf.tupleDesc)
}

var _ page.DbFile = (*HeapFile)(nil)
