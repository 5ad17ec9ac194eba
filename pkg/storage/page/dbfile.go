package page

import (
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/iterator"
	"relstore/pkg/primitives"
	"relstore/pkg/tuple"
)

// Pool abstracts the buffer pool for storage-layer code. Every page a file
// touches during tuple operations goes through here, so the pool can apply
// locking and caching uniformly; the file itself does no locking.
type Pool interface {
	// GetPage returns the requested page, acquiring a shared lock for
	// ReadOnly access or an exclusive lock for ReadWrite. May block until
	// the lock is compatible or the deadlock timeout fires.
	GetPage(tx *transaction.TransactionContext, pid *PageDescriptor, perm transaction.Permissions) (Page, error)
}

// DbFile represents a database file that stores tuples and provides
// page-level and tuple-level operations over them. It is the storage
// interface the buffer pool and the catalog work against.
type DbFile interface {
	// ReadPage retrieves a specific page from the file by its page ID.
	// This performs physical I/O; normal access goes through the pool.
	ReadPage(pid *PageDescriptor) (Page, error)

	// WritePage persists a page to its designated location in the file.
	WritePage(p Page) error

	// AddTuple inserts a tuple into the first page with a free slot,
	// extending the file if no page has capacity. Pages are obtained
	// through pool with ReadWrite permission. Returns the modified pages.
	AddTuple(tx *transaction.TransactionContext, t *tuple.Tuple, pool Pool) ([]Page, error)

	// RemoveTuple deletes the tuple named by its record id, obtaining the
	// page through pool with ReadWrite permission. Returns the modified page.
	RemoveTuple(tx *transaction.TransactionContext, t *tuple.Tuple, pool Pool) (Page, error)

	// Iterator walks every live tuple in the file in page-then-slot order,
	// acquiring each page through pool with ReadOnly permission.
	Iterator(tx *transaction.TransactionContext, pool Pool) iterator.DbFileIterator

	// GetID returns the unique identifier of the database file.
	GetID() primitives.TableID

	// NumPages returns the number of pages currently in the file.
	NumPages() (primitives.PageNumber, error)

	// GetTupleDesc returns the schema of the tuples stored in the file.
	GetTupleDesc() *tuple.TupleDescription

	// Close releases any resources held by the database file.
	Close() error
}
