package query

import (
	"fmt"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/execution"
	"relstore/pkg/iterator"
	"relstore/pkg/memory"
	"relstore/pkg/primitives"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// Insert drains its child and inserts every tuple into the target table
// through the buffer pool. It yields exactly one output tuple holding the
// number of tuples inserted, then reports end of stream.
type Insert struct {
	base    *execution.BaseIterator
	tx      *transaction.TransactionContext
	source  *SourceIter
	tableID primitives.TableID
	store   *memory.PageStore
	tables  TableInfoProvider
	desc    *tuple.TupleDescription
	done    bool
}

// NewInsert creates an Insert operator. The child's schema must match the
// target table's schema.
func NewInsert(tx *transaction.TransactionContext, child iterator.DbIterator, tableID primitives.TableID, tables TableInfoProvider, store *memory.PageStore) (*Insert, error) {
	if store == nil {
		return nil, fmt.Errorf("page store cannot be nil")
	}

	source, err := NewSourceOperator(child)
	if err != nil {
		return nil, err
	}

	tableDesc, err := tables.GetTupleDesc(tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tuple desc for table %d: %w", tableID, err)
	}

	if !child.GetTupleDesc().Equals(tableDesc) {
		return nil, fmt.Errorf("child schema %s does not match table schema %s",
			child.GetTupleDesc(), tableDesc)
	}

	desc, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"count"})
	if err != nil {
		return nil, err
	}

	ins := &Insert{
		tx:      tx,
		source:  source,
		tableID: tableID,
		store:   store,
		tables:  tables,
		desc:    desc,
	}

	ins.base = execution.NewBaseIterator(ins.readNext)
	return ins, nil
}

// readNext performs the whole insertion on first call and reports the count.
func (ins *Insert) readNext() (*tuple.Tuple, error) {
	if ins.done {
		return nil, nil
	}
	ins.done = true

	count := int32(0)
	for {
		t, err := ins.source.FetchNext()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}

		if err := ins.store.InsertTuple(ins.tx, ins.tableID, t); err != nil {
			return nil, fmt.Errorf("failed to insert tuple: %w", err)
		}
		count++
	}

	result := tuple.NewTuple(ins.desc)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

func (ins *Insert) Open() error {
	if err := ins.source.Open(); err != nil {
		return err
	}

	ins.done = false
	ins.base.MarkOpened()
	return nil
}

func (ins *Insert) Close() error {
	if err := ins.source.Close(); err != nil {
		return err
	}
	return ins.base.Close()
}

// GetTupleDesc returns the single-int-field result schema.
func (ins *Insert) GetTupleDesc() *tuple.TupleDescription {
	return ins.desc
}

func (ins *Insert) HasNext() (bool, error) { return ins.base.HasNext() }

func (ins *Insert) Next() (*tuple.Tuple, error) { return ins.base.Next() }

// Rewind re-arms the operator. Re-running it inserts the child's tuples
// again, exactly as re-opening would.
func (ins *Insert) Rewind() error {
	if err := ins.source.Rewind(); err != nil {
		return err
	}

	ins.done = false
	ins.base.ClearCache()
	return nil
}

func (ins *Insert) GetChildren() []iterator.DbIterator {
	return []iterator.DbIterator{ins.source.Child()}
}

func (ins *Insert) SetChildren(children []iterator.DbIterator) error {
	if len(children) != 1 {
		return fmt.Errorf("insert expects exactly one child, got %d", len(children))
	}
	return ins.source.SetChild(children[0])
}

var _ execution.Operator = (*Insert)(nil)
