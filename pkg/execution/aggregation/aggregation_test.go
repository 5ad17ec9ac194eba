package aggregation

import (
	"fmt"
	"relstore/pkg/iterator"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
	"testing"
)

// sliceScan is an in-memory DbIterator used as an aggregate child in tests.
type sliceScan struct {
	desc    *tuple.TupleDescription
	tuples  []*tuple.Tuple
	current int
	opened  bool
}

func newSliceScan(desc *tuple.TupleDescription, tuples []*tuple.Tuple) *sliceScan {
	return &sliceScan{desc: desc, tuples: tuples, current: -1}
}

func (s *sliceScan) Open() error {
	s.current = -1
	s.opened = true
	return nil
}

func (s *sliceScan) HasNext() (bool, error) {
	if !s.opened {
		return false, fmt.Errorf("iterator not opened")
	}
	return s.current+1 < len(s.tuples), nil
}

func (s *sliceScan) Next() (*tuple.Tuple, error) {
	hasNext, err := s.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more tuples")
	}
	s.current++
	return s.tuples[s.current], nil
}

func (s *sliceScan) Rewind() error {
	s.current = -1
	return nil
}

func (s *sliceScan) Close() error {
	s.opened = false
	return nil
}

func (s *sliceScan) GetTupleDesc() *tuple.TupleDescription {
	return s.desc
}

func groupedDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc([]types.Type{types.StringType, types.IntType}, []string{"grp", "v"})
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}
	return td
}

func groupedTuple(t *testing.T, td *tuple.TupleDescription, group string, v int32) *tuple.Tuple {
	t.Helper()
	tup := tuple.NewTuple(td)
	if err := tup.SetField(0, types.NewDefaultStringField(group)); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	if err := tup.SetField(1, types.NewIntField(v)); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	return tup
}

func TestGroupedSum_OrderedByKey(t *testing.T) {
	td := groupedDesc(t)

	// Deliberately interleaved group keys
	source := newSliceScan(td, []*tuple.Tuple{
		groupedTuple(t, td, "b", 3),
		groupedTuple(t, td, "a", 1),
		groupedTuple(t, td, "a", 2),
	})

	agg, err := NewAggregate(source, 1, 0, Sum)
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if err := agg.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer agg.Close()

	rows, err := iterator.Collect(agg)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	expected := []struct {
		group string
		sum   int32
	}{
		{"a", 3},
		{"b", 3},
	}

	if len(rows) != len(expected) {
		t.Fatalf("Expected %d groups, got %d", len(expected), len(rows))
	}

	for i, exp := range expected {
		group, _ := rows[i].GetField(0)
		sum, _ := rows[i].GetField(1)

		if group.String() != exp.group {
			t.Errorf("Group %d: expected key %q, got %q (output must be key-ordered)", i, exp.group, group.String())
		}
		if !sum.Equals(types.NewIntField(exp.sum)) {
			t.Errorf("Group %q: expected sum %d, got %s", exp.group, exp.sum, sum.String())
		}
	}
}

func TestIntAggregator_AllOps(t *testing.T) {
	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})

	values := []int32{2, 8, 5}
	tests := []struct {
		op       AggregateOp
		expected int32
	}{
		{Min, 2},
		{Max, 8},
		{Sum, 15},
		{Avg, 5},
		{Count, 3},
	}

	for _, tt := range tests {
		agg, err := NewIntAggregator(NoGrouping, 0, 0, tt.op)
		if err != nil {
			t.Fatalf("NewIntAggregator(%s) failed: %v", tt.op, err)
		}

		for _, v := range values {
			tup := tuple.NewTuple(td)
			tup.SetField(0, types.NewIntField(v))
			if err := agg.Merge(tup); err != nil {
				t.Fatalf("Merge failed: %v", err)
			}
		}

		it := agg.Iterator()
		it.Open()
		result, err := it.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}

		field, _ := result.GetField(0)
		if !field.Equals(types.NewIntField(tt.expected)) {
			t.Errorf("%s of %v: expected %d, got %s", tt.op, values, tt.expected, field.String())
		}
	}
}

func TestAvg_IntegerDivision(t *testing.T) {
	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})

	agg, _ := NewIntAggregator(NoGrouping, 0, 0, Avg)
	for _, v := range []int32{1, 2} {
		tup := tuple.NewTuple(td)
		tup.SetField(0, types.NewIntField(v))
		agg.Merge(tup)
	}

	it := agg.Iterator()
	it.Open()
	result, _ := it.Next()

	field, _ := result.GetField(0)
	if !field.Equals(types.NewIntField(1)) {
		t.Errorf("avg(1,2) with integer division should be 1, got %s", field.String())
	}
}

func TestAvg_SingleElementGroup(t *testing.T) {
	td := groupedDesc(t)

	source := newSliceScan(td, []*tuple.Tuple{groupedTuple(t, td, "only", 42)})
	agg, _ := NewAggregate(source, 1, 0, Avg)
	agg.Open()
	defer agg.Close()

	rows, _ := iterator.Collect(agg)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(rows))
	}

	field, _ := rows[0].GetField(1)
	if !field.Equals(types.NewIntField(42)) {
		t.Errorf("avg of single-element group should be that element, got %s", field.String())
	}
}

func TestCount_PerGroupEqualsInputCount(t *testing.T) {
	td := groupedDesc(t)

	source := newSliceScan(td, []*tuple.Tuple{
		groupedTuple(t, td, "a", 1),
		groupedTuple(t, td, "a", 9),
		groupedTuple(t, td, "b", 4),
	})

	agg, _ := NewAggregate(source, 1, 0, Count)
	agg.Open()
	defer agg.Close()

	rows, _ := iterator.Collect(agg)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(rows))
	}

	counts := map[string]int32{"a": 2, "b": 1}
	for _, row := range rows {
		group, _ := row.GetField(0)
		count, _ := row.GetField(1)
		if !count.Equals(types.NewIntField(counts[group.String()])) {
			t.Errorf("Group %q: expected count %d, got %s", group.String(), counts[group.String()], count.String())
		}
	}
}

func TestCount_EmptyInputIsZero(t *testing.T) {
	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})

	agg, err := NewAggregate(newSliceScan(td, nil), 0, NoGrouping, Count)
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if err := agg.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer agg.Close()

	rows, _ := iterator.Collect(agg)
	if len(rows) != 1 {
		t.Fatalf("count() of empty input should produce one tuple, got %d", len(rows))
	}

	field, _ := rows[0].GetField(0)
	if !field.Equals(types.NewIntField(0)) {
		t.Errorf("count() of empty input should be 0, got %s", field.String())
	}
}

func TestMin_EmptyInputYieldsNothing(t *testing.T) {
	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})

	agg, _ := NewAggregate(newSliceScan(td, nil), 0, NoGrouping, Min)
	agg.Open()
	defer agg.Close()

	rows, _ := iterator.Collect(agg)
	if len(rows) != 0 {
		t.Errorf("min() of empty input should yield nothing, got %d tuples", len(rows))
	}
}

func TestStringAggregator_CountOnly(t *testing.T) {
	for _, op := range []AggregateOp{Min, Max, Sum, Avg} {
		if _, err := NewStringAggregator(NoGrouping, 0, 0, op); err == nil {
			t.Errorf("NewStringAggregator(%s) should fail", op)
		}
	}

	if _, err := NewStringAggregator(NoGrouping, 0, 0, Count); err != nil {
		t.Errorf("NewStringAggregator(count) failed: %v", err)
	}
}

func TestStringAggregator_GroupedCount(t *testing.T) {
	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"grp", "name"})

	makeTup := func(grp int32, name string) *tuple.Tuple {
		tup := tuple.NewTuple(td)
		tup.SetField(0, types.NewIntField(grp))
		tup.SetField(1, types.NewDefaultStringField(name))
		return tup
	}

	source := newSliceScan(td, []*tuple.Tuple{
		makeTup(2, "x"),
		makeTup(1, "y"),
		makeTup(2, "z"),
	})

	agg, err := NewAggregate(source, 1, 0, Count)
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	agg.Open()
	defer agg.Close()

	rows, _ := iterator.Collect(agg)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(rows))
	}

	// Int group keys come out ascending
	firstKey, _ := rows[0].GetField(0)
	if !firstKey.Equals(types.NewIntField(1)) {
		t.Errorf("Expected group 1 first, got %s", firstKey.String())
	}

	secondCount, _ := rows[1].GetField(1)
	if !secondCount.Equals(types.NewIntField(2)) {
		t.Errorf("Expected group 2 count 2, got %s", secondCount.String())
	}
}

func TestAggregate_Rewind(t *testing.T) {
	td := groupedDesc(t)

	source := newSliceScan(td, []*tuple.Tuple{
		groupedTuple(t, td, "a", 1),
		groupedTuple(t, td, "b", 2),
	})

	agg, _ := NewAggregate(source, 1, 0, Sum)
	agg.Open()
	defer agg.Close()

	first, _ := iterator.Collect(agg)
	if err := agg.Rewind(); err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	second, _ := iterator.Collect(agg)

	if len(first) != 2 || len(second) != 2 {
		t.Errorf("Expected 2 groups before and after rewind, got %d and %d", len(first), len(second))
	}
}
