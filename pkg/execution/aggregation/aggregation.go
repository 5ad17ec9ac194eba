package aggregation

import (
	"fmt"
	"relstore/pkg/iterator"
	"relstore/pkg/tuple"
)

// AggregateOp identifies an aggregation operation
type AggregateOp int

const (
	Min AggregateOp = iota
	Max
	Sum
	Avg
	Count
)

// NoGrouping is the grouping-field value meaning "aggregate everything
// into one group".
const NoGrouping = -1

func (op AggregateOp) String() string {
	switch op {
	case Min:
		return "min"
	case Max:
		return "max"
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	case Count:
		return "count"
	default:
		return "unknown"
	}
}

// ParseAggregateOp converts an operation name to its AggregateOp.
func ParseAggregateOp(s string) (AggregateOp, error) {
	switch s {
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "sum":
		return Sum, nil
	case "avg":
		return Avg, nil
	case "count":
		return Count, nil
	default:
		return 0, fmt.Errorf("unknown aggregate operation: %q", s)
	}
}

// Aggregator accumulates tuples group by group and then serves the results
// as an iterator. Grouped output is ordered by ascending group key.
type Aggregator interface {
	// Merge folds a new tuple into the aggregate
	Merge(tup *tuple.Tuple) error

	// Iterator returns an iterator over the aggregate results: one tuple
	// per group of (groupValue, aggregateValue), or a single
	// (aggregateValue) tuple without grouping.
	Iterator() iterator.DbIterator

	// GetTupleDesc returns the schema of the aggregate results
	GetTupleDesc() *tuple.TupleDescription
}
