package iterator

import "relstore/pkg/tuple"

// DbIterator defines the contract for all operators in the execution engine.
// Every operator pulls tuples from its children through this interface:
// Open prepares state (and may block on page locks), HasNext/Next advance
// lazily, Rewind restarts from the beginning, and Close releases iterator
// state only — page locks persist until the transaction completes.
type DbIterator interface {
	TupleIterator // Embeds HasNext() and Next()

	// Open initializes the iterator and prepares it for tuple retrieval.
	// This method must be called before any other iterator operations.
	Open() error

	// Rewind resets the iterator position to the beginning of the data
	// sequence, equivalent to Close followed by Open.
	Rewind() error

	// Close releases all resources associated with the iterator and marks
	// it as closed. Calling Close on a closed iterator is safe.
	Close() error

	// GetTupleDesc returns the schema for tuples produced by this iterator.
	// This method can be called regardless of iterator state.
	GetTupleDesc() *tuple.TupleDescription
}

// DbFileIterator is the lower-level contract for iterating over tuples in a
// database file. It has no schema method; the file manages that.
type DbFileIterator interface {
	TupleIterator // Embeds HasNext() and Next()

	// Open prepares the iterator for use.
	Open() error

	// Rewind resets the iterator to the beginning of the tuple sequence.
	Rewind() error

	// Close releases any resources held by the iterator.
	Close() error
}

// TupleIterator is the minimal interface shared by DbIterator and
// DbFileIterator, enabling generic helpers over either.
type TupleIterator interface {
	// HasNext checks if there are more tuples available without consuming them.
	HasNext() (bool, error)

	// Next retrieves and returns the next tuple from the iterator.
	Next() (*tuple.Tuple, error)
}
