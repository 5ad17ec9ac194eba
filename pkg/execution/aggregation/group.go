package aggregation

import (
	"math"
	"relstore/pkg/primitives"
	"relstore/pkg/types"

	"github.com/google/btree"
)

// groupState accumulates one group's running values. Which of them the
// aggregator emits depends on its operation.
type groupState struct {
	key   types.Field // nil for the single NO_GROUPING group
	count int32
	sum   int32
	min   int32
	max   int32
}

func newGroupState(key types.Field) *groupState {
	return &groupState{
		key: key,
		min: math.MaxInt32,
		max: math.MinInt32,
	}
}

// observe folds one value into the group.
func (gs *groupState) observe(v int32) {
	gs.count++
	gs.sum += v
	if v < gs.min {
		gs.min = v
	}
	if v > gs.max {
		gs.max = v
	}
}

// observeCount folds one occurrence into the group without a value, which
// is all the string aggregator needs.
func (gs *groupState) observeCount() {
	gs.count++
}

// result emits the group's aggregate under op. AVG uses integer division;
// an empty group (never materialized in practice) yields 0.
func (gs *groupState) result(op AggregateOp) int32 {
	switch op {
	case Min:
		return gs.min
	case Max:
		return gs.max
	case Sum:
		return gs.sum
	case Avg:
		if gs.count == 0 {
			return 0
		}
		return gs.sum / gs.count
	case Count:
		return gs.count
	default:
		return 0
	}
}

// groupStore keeps groups ordered by ascending key so aggregate output is
// emitted in key order without a sort at iteration time.
type groupStore struct {
	tree *btree.BTreeG[*groupState]
}

func newGroupStore() *groupStore {
	less := func(a, b *groupState) bool {
		isLess, _ := a.key.Compare(primitives.LessThan, b.key)
		return isLess
	}
	return &groupStore{tree: btree.NewG(8, less)}
}

// getOrCreate returns the state for key, creating it on first sight.
func (g *groupStore) getOrCreate(key types.Field) *groupState {
	probe := &groupState{key: key}
	if existing, ok := g.tree.Get(probe); ok {
		return existing
	}

	state := newGroupState(key)
	g.tree.ReplaceOrInsert(state)
	return state
}

// ascend visits every group in ascending key order.
func (g *groupStore) ascend(visit func(*groupState) bool) {
	g.tree.Ascend(func(item *groupState) bool {
		return visit(item)
	})
}

func (g *groupStore) len() int {
	return g.tree.Len()
}
