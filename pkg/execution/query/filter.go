package query

import (
	"fmt"
	"relstore/pkg/execution"
	"relstore/pkg/iterator"
	"relstore/pkg/tuple"
)

// Filter applies a predicate to each tuple from its source operator,
// passing through only those that satisfy the condition.
type Filter struct {
	base      *execution.BaseIterator
	predicate *Predicate
	source    *SourceIter
}

// NewFilter creates a Filter over the given source with the given predicate.
func NewFilter(predicate *Predicate, source iterator.DbIterator) (*Filter, error) {
	if predicate == nil {
		return nil, fmt.Errorf("predicate cannot be nil")
	}

	childOp, err := NewSourceOperator(source)
	if err != nil {
		return nil, err
	}

	f := &Filter{
		predicate: predicate,
		source:    childOp,
	}

	f.base = execution.NewBaseIterator(f.readNext)
	return f, nil
}

// readNext pulls from the source until a tuple satisfies the predicate or
// the input is exhausted.
func (f *Filter) readNext() (*tuple.Tuple, error) {
	for {
		t, err := f.source.FetchNext()
		if err != nil || t == nil {
			return t, err
		}

		passes, err := f.predicate.Filter(t)
		if err != nil {
			return nil, fmt.Errorf("predicate evaluation failed: %w", err)
		}

		if passes {
			return t, nil
		}
	}
}

// Open initializes the Filter by opening its source operator.
func (f *Filter) Open() error {
	if err := f.source.Open(); err != nil {
		return err
	}

	f.base.MarkOpened()
	return nil
}

// Close releases the filter and its source.
func (f *Filter) Close() error {
	if err := f.source.Close(); err != nil {
		return err
	}
	return f.base.Close()
}

// GetTupleDesc returns the source's schema: filtering never reshapes tuples.
func (f *Filter) GetTupleDesc() *tuple.TupleDescription {
	return f.source.GetTupleDesc()
}

// HasNext checks if more tuples satisfy the filter predicate.
func (f *Filter) HasNext() (bool, error) { return f.base.HasNext() }

// Next retrieves the next tuple that satisfies the filter predicate.
func (f *Filter) Next() (*tuple.Tuple, error) { return f.base.Next() }

// Rewind restarts the filter from the beginning of its input.
func (f *Filter) Rewind() error {
	if err := f.source.Rewind(); err != nil {
		return err
	}

	f.base.ClearCache()
	return nil
}

// GetChildren returns the filter's single child.
func (f *Filter) GetChildren() []iterator.DbIterator {
	return []iterator.DbIterator{f.source.Child()}
}

// SetChildren replaces the filter's child.
func (f *Filter) SetChildren(children []iterator.DbIterator) error {
	if len(children) != 1 {
		return fmt.Errorf("filter expects exactly one child, got %d", len(children))
	}
	return f.source.SetChild(children[0])
}

var _ execution.Operator = (*Filter)(nil)
