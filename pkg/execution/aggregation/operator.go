package aggregation

import (
	"fmt"
	"relstore/pkg/execution"
	"relstore/pkg/iterator"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// Aggregate is the aggregation operator. Open drains the child into the
// underlying aggregator, then serves the accumulated results through the
// aggregator's snapshot iterator.
type Aggregate struct {
	base       *execution.BaseIterator
	source     iterator.DbIterator
	aField     int
	gField     int
	op         AggregateOp
	aggregator Aggregator
	results    iterator.DbIterator
	tupleDesc  *tuple.TupleDescription
}

// NewAggregate creates an aggregation over source, aggregating field
// aField with op, grouped by gField (or NoGrouping). The aggregator
// implementation is chosen by the aggregated field's type; string columns
// only support Count.
func NewAggregate(source iterator.DbIterator, aField, gField int, op AggregateOp) (*Aggregate, error) {
	if source == nil {
		return nil, fmt.Errorf("source iterator cannot be nil")
	}

	sourceDesc := source.GetTupleDesc()
	if sourceDesc == nil {
		return nil, fmt.Errorf("source tuple description cannot be nil")
	}

	if aField < 0 || aField >= sourceDesc.NumFields() {
		return nil, fmt.Errorf("invalid aggregate field index: %d", aField)
	}

	if gField != NoGrouping && (gField < 0 || gField >= sourceDesc.NumFields()) {
		return nil, fmt.Errorf("invalid group field index: %d", gField)
	}

	var gbFieldType types.Type
	if gField != NoGrouping {
		gbFieldType = sourceDesc.Types[gField]
	}

	var aggregator Aggregator
	var err error
	switch sourceDesc.Types[aField] {
	case types.IntType:
		aggregator, err = NewIntAggregator(gField, gbFieldType, aField, op)

	case types.StringType:
		aggregator, err = NewStringAggregator(gField, gbFieldType, aField, op)

	default:
		return nil, fmt.Errorf("unsupported field type for aggregation: %v", sourceDesc.Types[aField])
	}
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{
		source:     source,
		aField:     aField,
		gField:     gField,
		op:         op,
		aggregator: aggregator,
		tupleDesc:  aggregator.GetTupleDesc(),
	}

	agg.base = execution.NewBaseIterator(agg.readNext)
	return agg, nil
}

// Open drains the child into the accumulator, then opens the accumulator's
// result iterator.
func (agg *Aggregate) Open() error {
	if err := agg.source.Open(); err != nil {
		return fmt.Errorf("failed to open source iterator: %w", err)
	}

	if err := iterator.ForEach(agg.source, agg.aggregator.Merge); err != nil {
		return fmt.Errorf("error draining child into aggregator: %w", err)
	}

	agg.results = agg.aggregator.Iterator()
	if err := agg.results.Open(); err != nil {
		return fmt.Errorf("failed to open aggregate result iterator: %w", err)
	}

	agg.base.MarkOpened()
	return nil
}

func (agg *Aggregate) Close() error {
	if agg.source != nil {
		agg.source.Close()
	}
	if agg.results != nil {
		agg.results.Close()
		agg.results = nil
	}

	return agg.base.Close()
}

// GetTupleDesc returns (groupValue, aggregateValue) with grouping, or the
// single (aggregateValue) field without.
func (agg *Aggregate) GetTupleDesc() *tuple.TupleDescription {
	return agg.tupleDesc
}

func (agg *Aggregate) HasNext() (bool, error) { return agg.base.HasNext() }

func (agg *Aggregate) Next() (*tuple.Tuple, error) { return agg.base.Next() }

func (agg *Aggregate) readNext() (*tuple.Tuple, error) {
	if agg.results == nil {
		return nil, nil
	}

	hasNext, err := agg.results.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}

	return agg.results.Next()
}

// Rewind restarts result iteration. The accumulated snapshot is reused;
// the child is not re-drained.
func (agg *Aggregate) Rewind() error {
	if agg.results == nil {
		return fmt.Errorf("aggregate operator not opened")
	}

	if err := agg.results.Rewind(); err != nil {
		return err
	}

	agg.base.ClearCache()
	return nil
}

func (agg *Aggregate) GetChildren() []iterator.DbIterator {
	return []iterator.DbIterator{agg.source}
}

func (agg *Aggregate) SetChildren(children []iterator.DbIterator) error {
	if len(children) != 1 {
		return fmt.Errorf("aggregate expects exactly one child, got %d", len(children))
	}
	agg.source = children[0]
	return nil
}

var _ execution.Operator = (*Aggregate)(nil)
