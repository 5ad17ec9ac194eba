package tuple

import "fmt"

// Iterator walks an in-memory slice of tuples. Operators use it to serve
// the tuples of a single page or a materialized result.
type Iterator struct {
	tuples  []*Tuple
	current int
}

// NewIterator creates an iterator over the given tuples
func NewIterator(tuples []*Tuple) *Iterator {
	return &Iterator{
		tuples:  tuples,
		current: -1,
	}
}

func (it *Iterator) HasNext() (bool, error) {
	return it.current+1 < len(it.tuples), nil
}

func (it *Iterator) Next() (*Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more tuples")
	}

	it.current++
	return it.tuples[it.current], nil
}

// Rewind resets the iterator to the first tuple.
func (it *Iterator) Rewind() error {
	it.current = -1
	return nil
}
