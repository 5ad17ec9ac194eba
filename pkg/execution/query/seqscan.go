package query

import (
	"fmt"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/execution"
	"relstore/pkg/iterator"
	"relstore/pkg/memory"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/page"
	"relstore/pkg/tuple"
)

// TableInfoProvider resolves table ids to files and schemas without a
// direct dependency on the catalog package.
type TableInfoProvider interface {
	GetDbFile(tableID primitives.TableID) (page.DbFile, error)
	GetTupleDesc(tableID primitives.TableID) (*tuple.TupleDescription, error)
}

// SequentialScan reads every live tuple of a table in storage order. It is
// a thin wrapper over the heap file's iterator: each page is obtained
// through the buffer pool with a shared lock, so scans block behind
// writers of the same pages.
type SequentialScan struct {
	base      *execution.BaseIterator
	tableID   primitives.TableID
	alias     string
	tupleDesc *tuple.TupleDescription
	tables    TableInfoProvider
	tx        *transaction.TransactionContext
	store     *memory.PageStore
	fileIter  iterator.DbFileIterator
}

// NewSeqScan creates a sequential scan of the given table. Output field
// names are prefixed "alias.fieldname"; an empty alias leaves the table's
// own names in place.
func NewSeqScan(tx *transaction.TransactionContext, tableID primitives.TableID, alias string, tables TableInfoProvider, store *memory.PageStore) (*SequentialScan, error) {
	if tables == nil {
		return nil, fmt.Errorf("table info provider cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("page store cannot be nil")
	}

	td, err := tables.GetTupleDesc(tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tuple desc for table %d: %w", tableID, err)
	}

	ss := &SequentialScan{
		tx:        tx,
		tableID:   tableID,
		alias:     alias,
		tupleDesc: aliasedDesc(td, alias),
		tables:    tables,
		store:     store,
	}

	ss.base = execution.NewBaseIterator(ss.readNext)
	return ss, nil
}

// aliasedDesc prefixes every field name with "alias.".
func aliasedDesc(td *tuple.TupleDescription, alias string) *tuple.TupleDescription {
	if alias == "" {
		return td
	}

	names := make([]string, td.NumFields())
	for i := range names {
		name, _ := td.GetFieldName(i)
		names[i] = alias + "." + name
	}

	aliased, err := tuple.NewTupleDesc(td.Types, names)
	if err != nil {
		return td
	}
	return aliased
}

// Open obtains the table's file and opens the underlying file iterator.
// This may block acquiring the first page's shared lock.
func (ss *SequentialScan) Open() error {
	file, err := ss.tables.GetDbFile(ss.tableID)
	if err != nil {
		return fmt.Errorf("failed to get db file for table %d: %w", ss.tableID, err)
	}

	ss.fileIter = file.Iterator(ss.tx, ss.store)
	if err := ss.fileIter.Open(); err != nil {
		return fmt.Errorf("failed to open file iterator: %w", err)
	}

	ss.base.MarkOpened()
	return nil
}

// Close releases the scan's iterator state. Page locks acquired during the
// scan persist until the transaction completes.
func (ss *SequentialScan) Close() error {
	if ss.fileIter != nil {
		ss.fileIter.Close()
		ss.fileIter = nil
	}
	return ss.base.Close()
}

// GetTupleDesc returns the scan's schema with alias-qualified field names.
func (ss *SequentialScan) GetTupleDesc() *tuple.TupleDescription {
	return ss.tupleDesc
}

// HasNext checks if there are more tuples in the scan.
func (ss *SequentialScan) HasNext() (bool, error) {
	return ss.base.HasNext()
}

// Next retrieves the next tuple from the scan.
func (ss *SequentialScan) Next() (*tuple.Tuple, error) {
	return ss.base.Next()
}

func (ss *SequentialScan) readNext() (*tuple.Tuple, error) {
	if ss.fileIter == nil {
		return nil, fmt.Errorf("scan not opened")
	}

	hasNext, err := ss.fileIter.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}

	return ss.fileIter.Next()
}

// Rewind restarts the scan from the first page of the table.
func (ss *SequentialScan) Rewind() error {
	if ss.fileIter == nil {
		return fmt.Errorf("scan not opened")
	}

	if err := ss.fileIter.Rewind(); err != nil {
		return err
	}

	ss.base.ClearCache()
	return nil
}

// GetChildren returns nil: a scan is a leaf operator.
func (ss *SequentialScan) GetChildren() []iterator.DbIterator {
	return nil
}

// SetChildren is a no-op for leaves unless children are actually supplied.
func (ss *SequentialScan) SetChildren(children []iterator.DbIterator) error {
	if len(children) != 0 {
		return fmt.Errorf("sequential scan has no children")
	}
	return nil
}

var _ execution.Operator = (*SequentialScan)(nil)
