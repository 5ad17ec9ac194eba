package iterator

import "relstore/pkg/tuple"

// Iterate encapsulates the HasNext/Next ceremony, skipping nil tuples.
// The processFunc controls iteration flow: return (false, nil) to stop
// early, (true, nil) to continue, or an error to stop with that error.
func Iterate(iter TupleIterator, processFunc func(*tuple.Tuple) (continueLooping bool, err error)) error {
	for {
		hasNext, err := iter.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}

		tup, err := iter.Next()
		if err != nil {
			return err
		}
		if tup == nil {
			continue
		}

		shouldContinue, err := processFunc(tup)
		if err != nil {
			return err
		}
		if !shouldContinue {
			break
		}
	}

	return nil
}

// ForEach applies a processing function to each tuple in the iterator,
// stopping early if processFunc returns an error.
func ForEach(iter TupleIterator, processFunc func(*tuple.Tuple) error) error {
	return Iterate(iter, func(tup *tuple.Tuple) (bool, error) {
		err := processFunc(tup)
		return true, err
	})
}

// Count returns the total number of tuples in the iterator.
// Note: this consumes the entire iterator.
func Count(iter TupleIterator) (int, error) {
	count := 0
	err := Iterate(iter, func(*tuple.Tuple) (bool, error) {
		count++
		return true, nil
	})
	return count, err
}

// Collect returns all tuples from the iterator as a slice.
// Note: this consumes the entire iterator and loads everything into memory.
func Collect(iter TupleIterator) ([]*tuple.Tuple, error) {
	var results []*tuple.Tuple

	err := Iterate(iter, func(tup *tuple.Tuple) (bool, error) {
		results = append(results, tup)
		return true, nil
	})

	return results, err
}
