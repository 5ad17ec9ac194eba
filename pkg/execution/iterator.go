// Package execution provides the shared plumbing for pull operators: the
// lookahead BaseIterator every operator composes, and the Operator contract
// for walking and rebinding operator trees.
package execution

import (
	"fmt"
	"relstore/pkg/iterator"
	"relstore/pkg/tuple"
)

// ReadNextFunc is the function signature for reading the next tuple from an
// iterator. A nil tuple with nil error signals end of stream.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator implements the caching logic and state management shared by
// all operators: open/close state, HasNext lookahead, and delegation to an
// operator-specific read function.
type BaseIterator struct {
	nextTuple    *tuple.Tuple // Cached next tuple for lookahead
	opened       bool
	readNextFunc ReadNextFunc
}

// NewBaseIterator creates a base iterator around the given read function.
// The iterator starts closed and must be marked opened before use.
func NewBaseIterator(readNextFunc ReadNextFunc) *BaseIterator {
	return &BaseIterator{
		readNextFunc: readNextFunc,
	}
}

// HasNext checks if a next tuple is available without consuming it,
// caching the lookahead.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, fmt.Errorf("iterator not opened")
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return false, err
		}
	}
	return it.nextTuple != nil, nil
}

// Next returns the next tuple and advances the iterator. Calling Next on an
// exhausted or unopened iterator is an error.
func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	if !it.opened {
		return nil, fmt.Errorf("iterator not opened")
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return nil, err
		}
		if it.nextTuple == nil {
			return nil, fmt.Errorf("no more tuples")
		}
	}

	result := it.nextTuple
	it.nextTuple = nil
	return result, nil
}

// Close clears cached state and marks the iterator closed.
func (it *BaseIterator) Close() error {
	it.nextTuple = nil
	it.opened = false
	return nil
}

// MarkOpened marks the iterator as opened and ready for use.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.nextTuple = nil
}

// ClearCache drops the lookahead tuple, used by Rewind implementations.
func (it *BaseIterator) ClearCache() {
	it.nextTuple = nil
}

// Operator is the full operator contract: the pull iterator plus tree
// navigation. Each operator owns its children; SetChildren replaces them,
// and the old children belong to the caller afterwards.
type Operator interface {
	iterator.DbIterator

	// GetChildren returns the operator's direct child iterators in child
	// order (a join's left input before its right); leaves return none.
	GetChildren() []iterator.DbIterator

	// SetChildren replaces the operator's children. The number of children
	// must match the operator's arity.
	SetChildren(children []iterator.DbIterator) error
}
