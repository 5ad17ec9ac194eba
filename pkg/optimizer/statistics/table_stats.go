package statistics

import (
	"fmt"
	"math"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/iterator"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/page"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

const (
	// NumHistBins is the bucket count used for column histograms.
	NumHistBins = 100

	// DefaultCostPerPage is the assumed cost of reading one page from disk.
	DefaultCostPerPage = 1000.0

	// stringSelectivity is the flat estimate used for predicates over
	// string columns, which carry no histogram.
	stringSelectivity = 0.1
)

// TableStats holds per-column statistics for one table: an IntHistogram for
// every integer column plus scan-level counts. It backs the optimizer's
// selectivity and cardinality estimates.
type TableStats struct {
	tableID     primitives.TableID
	numTuples   int64
	numPages    primitives.PageNumber
	costPerPage float64
	intHists    map[int]*IntHistogram
}

// ComputeTableStats scans the table twice under tx: once to find each
// integer column's range and count the tuples, once to fill the
// histograms. The scan shared-locks every page, so run it in its own
// transaction when other work is in flight.
func ComputeTableStats(tx *transaction.TransactionContext, file page.DbFile, pool page.Pool, costPerPage float64) (*TableStats, error) {
	if costPerPage <= 0 {
		costPerPage = DefaultCostPerPage
	}

	td := file.GetTupleDesc()
	mins := make(map[int]int32)
	maxs := make(map[int]int32)
	for i := 0; i < td.NumFields(); i++ {
		if td.Types[i] == types.IntType {
			mins[i] = math.MaxInt32
			maxs[i] = math.MinInt32
		}
	}

	numTuples := int64(0)

	rangeScan := file.Iterator(tx, pool)
	if err := rangeScan.Open(); err != nil {
		return nil, fmt.Errorf("failed to open statistics scan: %w", err)
	}
	err := iterator.ForEach(rangeScan, func(t *tuple.Tuple) error {
		numTuples++
		for col := range mins {
			v, err := intValueAt(t, col)
			if err != nil {
				return err
			}
			if v < mins[col] {
				mins[col] = v
			}
			if v > maxs[col] {
				maxs[col] = v
			}
		}
		return nil
	})
	rangeScan.Close()
	if err != nil {
		return nil, err
	}

	stats := &TableStats{
		tableID:     file.GetID(),
		numTuples:   numTuples,
		costPerPage: costPerPage,
		intHists:    make(map[int]*IntHistogram),
	}

	if stats.numPages, err = file.NumPages(); err != nil {
		return nil, err
	}

	if numTuples == 0 {
		return stats, nil
	}

	for col := range mins {
		hist, err := NewIntHistogram(NumHistBins, mins[col], maxs[col])
		if err != nil {
			return nil, err
		}
		stats.intHists[col] = hist
	}

	fillScan := file.Iterator(tx, pool)
	if err := fillScan.Open(); err != nil {
		return nil, fmt.Errorf("failed to open statistics scan: %w", err)
	}
	err = iterator.ForEach(fillScan, func(t *tuple.Tuple) error {
		for col, hist := range stats.intHists {
			v, err := intValueAt(t, col)
			if err != nil {
				return err
			}
			hist.AddValue(v)
		}
		return nil
	})
	fillScan.Close()
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func intValueAt(t *tuple.Tuple, col int) (int32, error) {
	field, err := t.GetField(col)
	if err != nil {
		return 0, err
	}
	intField, ok := field.(*types.IntField)
	if !ok {
		return 0, fmt.Errorf("column %d is not an integer", col)
	}
	return intField.Value, nil
}

// EstimateScanCost estimates the cost of a full sequential scan, assuming
// every page is read from disk.
func (ts *TableStats) EstimateScanCost() float64 {
	return float64(ts.numPages) * ts.costPerPage
}

// EstimateTableCardinality estimates the row count of a scan filtered to
// the given selectivity.
func (ts *TableStats) EstimateTableCardinality(selectivity float64) int64 {
	return int64(float64(ts.numTuples) * selectivity)
}

// EstimateSelectivity estimates the fraction of the table's rows whose
// value in column col satisfies (value op constant).
func (ts *TableStats) EstimateSelectivity(col int, op primitives.Predicate, constant types.Field) (float64, error) {
	switch c := constant.(type) {
	case *types.IntField:
		hist, exists := ts.intHists[col]
		if !exists {
			return 0, fmt.Errorf("no histogram for column %d", col)
		}
		return hist.EstimateSelectivity(op, c.Value), nil

	case *types.StringField:
		return stringSelectivity, nil

	default:
		return 0, fmt.Errorf("unsupported constant type for selectivity estimation")
	}
}

// NumTuples returns the table's row count as of the statistics scan.
func (ts *TableStats) NumTuples() int64 {
	return ts.numTuples
}

// TableID returns the table these statistics describe.
func (ts *TableStats) TableID() primitives.TableID {
	return ts.tableID
}
