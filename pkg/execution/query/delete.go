package query

import (
	"fmt"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/execution"
	"relstore/pkg/iterator"
	"relstore/pkg/memory"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// Delete drains its child and deletes every tuple it yields through the
// buffer pool. The child's tuples must carry record ids, which is what a
// scan over the target table produces. Yields exactly one output tuple
// holding the number of tuples deleted, then reports end of stream.
type Delete struct {
	base   *execution.BaseIterator
	tx     *transaction.TransactionContext
	source *SourceIter
	store  *memory.PageStore
	desc   *tuple.TupleDescription
	done   bool
}

// NewDelete creates a Delete operator over the given child.
func NewDelete(tx *transaction.TransactionContext, child iterator.DbIterator, store *memory.PageStore) (*Delete, error) {
	if store == nil {
		return nil, fmt.Errorf("page store cannot be nil")
	}

	source, err := NewSourceOperator(child)
	if err != nil {
		return nil, err
	}

	desc, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"count"})
	if err != nil {
		return nil, err
	}

	del := &Delete{
		tx:     tx,
		source: source,
		store:  store,
		desc:   desc,
	}

	del.base = execution.NewBaseIterator(del.readNext)
	return del, nil
}

func (del *Delete) readNext() (*tuple.Tuple, error) {
	if del.done {
		return nil, nil
	}
	del.done = true

	// Collect first: deleting while the scan underneath is mid-page would
	// mutate the page it is iterating.
	toDelete, err := iterator.Collect(del.source.Child())
	if err != nil {
		return nil, err
	}

	count := int32(0)
	for _, t := range toDelete {
		if err := del.store.DeleteTuple(del.tx, t); err != nil {
			return nil, fmt.Errorf("failed to delete tuple: %w", err)
		}
		count++
	}

	result := tuple.NewTuple(del.desc)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

func (del *Delete) Open() error {
	if err := del.source.Open(); err != nil {
		return err
	}

	del.done = false
	del.base.MarkOpened()
	return nil
}

func (del *Delete) Close() error {
	if err := del.source.Close(); err != nil {
		return err
	}
	return del.base.Close()
}

// GetTupleDesc returns the single-int-field result schema.
func (del *Delete) GetTupleDesc() *tuple.TupleDescription {
	return del.desc
}

func (del *Delete) HasNext() (bool, error) { return del.base.HasNext() }

func (del *Delete) Next() (*tuple.Tuple, error) { return del.base.Next() }

func (del *Delete) Rewind() error {
	if err := del.source.Rewind(); err != nil {
		return err
	}

	del.done = false
	del.base.ClearCache()
	return nil
}

func (del *Delete) GetChildren() []iterator.DbIterator {
	return []iterator.DbIterator{del.source.Child()}
}

func (del *Delete) SetChildren(children []iterator.DbIterator) error {
	if len(children) != 1 {
		return fmt.Errorf("delete expects exactly one child, got %d", len(children))
	}
	return del.source.SetChild(children[0])
}

var _ execution.Operator = (*Delete)(nil)
