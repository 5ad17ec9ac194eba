package aggregation

import (
	"fmt"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// snapshotResults materializes the aggregate output as tuples, grouped
// results in ascending key order. Passing a nil groupStore emits the single
// noGroup state instead.
func snapshotResults(td *tuple.TupleDescription, op AggregateOp, groups *groupStore, noGroup *groupState) []*tuple.Tuple {
	if groups == nil {
		// An empty input produces no groups, except that count() of an
		// empty input is a real answer: 0.
		if noGroup.count == 0 && op != Count {
			return nil
		}

		result := tuple.NewTuple(td)
		_ = result.SetField(0, types.NewIntField(noGroup.result(op)))
		return []*tuple.Tuple{result}
	}

	results := make([]*tuple.Tuple, 0, groups.len())
	groups.ascend(func(state *groupState) bool {
		result := tuple.NewTuple(td)
		if err := result.SetField(0, state.key); err != nil {
			return false
		}
		if err := result.SetField(1, types.NewIntField(state.result(op))); err != nil {
			return false
		}
		results = append(results, result)
		return true
	})

	return results
}

// resultIterator serves a materialized aggregate snapshot. Rewind just
// resets the cursor, so re-iterating costs nothing.
type resultIterator struct {
	tupleDesc *tuple.TupleDescription
	results   []*tuple.Tuple
	current   int
	opened    bool
}

func newResultIterator(td *tuple.TupleDescription, results []*tuple.Tuple) *resultIterator {
	return &resultIterator{
		tupleDesc: td,
		results:   results,
		current:   -1,
	}
}

func (it *resultIterator) Open() error {
	it.current = -1
	it.opened = true
	return nil
}

func (it *resultIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, fmt.Errorf("iterator not opened")
	}
	return it.current+1 < len(it.results), nil
}

func (it *resultIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more tuples")
	}

	it.current++
	return it.results[it.current], nil
}

func (it *resultIterator) Rewind() error {
	if !it.opened {
		return fmt.Errorf("iterator not opened")
	}
	it.current = -1
	return nil
}

func (it *resultIterator) Close() error {
	it.opened = false
	it.current = -1
	return nil
}

func (it *resultIterator) GetTupleDesc() *tuple.TupleDescription {
	return it.tupleDesc
}
