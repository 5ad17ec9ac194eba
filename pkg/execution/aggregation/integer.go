package aggregation

import (
	"fmt"
	"relstore/pkg/iterator"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
	"sync"
)

// IntegerAggregator aggregates an integer field, optionally grouped by
// another field. All five operations are supported. Grouped results come
// out ordered by ascending group key.
type IntegerAggregator struct {
	groupByField   int
	groupFieldType types.Type
	aggrField      int
	op             AggregateOp
	groups         *groupStore
	noGroup        *groupState // used when groupByField == NoGrouping
	tupleDesc      *tuple.TupleDescription
	mutex          sync.RWMutex
}

// NewIntAggregator creates a new integer aggregator. gbFieldType is
// ignored when gbField is NoGrouping.
func NewIntAggregator(gbField int, gbFieldType types.Type, aField int, op AggregateOp) (*IntegerAggregator, error) {
	agg := &IntegerAggregator{
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
		return nil, fmt.Errorf("error creating IntegerAggregator: %w", err)
	}
	agg.tupleDesc = td
	return agg, nil
}

func (ia *IntegerAggregator) createTupleDesc() (*tuple.TupleDescription, error) {
	if ia.groupByField == NoGrouping {
		return tuple.NewTupleDesc(
			[]types.Type{types.IntType},
			[]string{ia.op.String()},
		)
	}

	return tuple.NewTupleDesc(
		[]types.Type{ia.groupFieldType, types.IntType},
		[]string{"group", ia.op.String()},
	)
}

func (ia *IntegerAggregator) GetTupleDesc() *tuple.TupleDescription {
	return ia.tupleDesc
}

// Merge folds one tuple into the aggregate.
func (ia *IntegerAggregator) Merge(tup *tuple.Tuple) error {
	ia.mutex.Lock()
	defer ia.mutex.Unlock()

	aggField, err := tup.GetField(ia.aggrField)
	if err != nil {
		return fmt.Errorf("failed to get aggregate field: %w", err)
	}

	intField, ok := aggField.(*types.IntField)
	if !ok {
		return fmt.Errorf("aggregate field is not an integer")
	}

	state := ia.noGroup
	if ia.groupByField != NoGrouping {
		groupField, err := tup.GetField(ia.groupByField)
		if err != nil {
			return fmt.Errorf("failed to get grouping field: %w", err)
		}
		state = ia.groups.getOrCreate(groupField)
	}

	state.observe(intField.Value)
	return nil
}

// Iterator returns an iterator over the aggregate results. The results are
// snapshotted at call time, so rewinding the returned iterator is cheap and
// later merges do not disturb it.
func (ia *IntegerAggregator) Iterator() iterator.DbIterator {
	ia.mutex.RLock()
	defer ia.mutex.RUnlock()

	return newResultIterator(ia.tupleDesc, snapshotResults(ia.tupleDesc, ia.op, ia.groups, ia.noGroup))
}
