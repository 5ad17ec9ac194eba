package aggregation

import (
	"fmt"
	"relstore/pkg/iterator"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
	"sync"
)

// StringAggregator aggregates a string field, optionally grouped by another
// field. Only Count is meaningful over strings; constructing one with any
// other operation fails.
type StringAggregator struct {
	groupByField   int
	groupFieldType types.Type
	aggrField      int
	op             AggregateOp
	groups         *groupStore
	noGroup        *groupState
	tupleDesc      *tuple.TupleDescription
	mutex          sync.RWMutex
}

// NewStringAggregator creates a new string aggregator. Only Count is
// supported; any other operation is an illegal argument.
func NewStringAggregator(gbField int, gbFieldType types.Type, aField int, op AggregateOp) (*StringAggregator, error) {
	if op != Count {
		return nil, fmt.Errorf("illegal argument: string aggregator only supports count, got %s", op)
	}

	agg := &StringAggregator{
		groupByField:   gbField,
		groupFieldType: gbFieldType,
		aggrField:      aField,
		op:             op,
	}

	if gbField == NoGrouping {
		agg.noGroup = newGroupState(nil)
	} else {
		agg.groups = newGroupStore()
	}

	td, err := agg.createTupleDesc()
	if err != nil {
		return nil, fmt.Errorf("error creating StringAggregator: %w", err)
	}
	agg.tupleDesc = td
	return agg, nil
}

func (sa *StringAggregator) createTupleDesc() (*tuple.TupleDescription, error) {
	if sa.groupByField == NoGrouping {
		return tuple.NewTupleDesc(
			[]types.Type{types.IntType},
			[]string{sa.op.String()},
		)
	}

	return tuple.NewTupleDesc(
		[]types.Type{sa.groupFieldType, types.IntType},
		[]string{"group", sa.op.String()},
	)
}

func (sa *StringAggregator) GetTupleDesc() *tuple.TupleDescription {
	return sa.tupleDesc
}

// Merge folds one tuple into the aggregate.
func (sa *StringAggregator) Merge(tup *tuple.Tuple) error {
	sa.mutex.Lock()
	defer sa.mutex.Unlock()

	aggField, err := tup.GetField(sa.aggrField)
	if err != nil {
		return fmt.Errorf("failed to get aggregate field: %w", err)
	}

	if _, ok := aggField.(*types.StringField); !ok {
		return fmt.Errorf("aggregate field is not a string")
	}

	state := sa.noGroup
	if sa.groupByField != NoGrouping {
		groupField, err := tup.GetField(sa.groupByField)
		if err != nil {
			return fmt.Errorf("failed to get grouping field: %w", err)
		}
		state = sa.groups.getOrCreate(groupField)
	}

	state.observeCount()
	return nil
}

// Iterator returns an iterator over the aggregate results, snapshotted at
// call time.
func (sa *StringAggregator) Iterator() iterator.DbIterator {
	sa.mutex.RLock()
	defer sa.mutex.RUnlock()

	return newResultIterator(sa.tupleDesc, snapshotResults(sa.tupleDesc, sa.op, sa.groups, sa.noGroup))
}
