package join

import (
	"fmt"
	"relstore/pkg/execution"
	"relstore/pkg/iterator"
	"relstore/pkg/tuple"
)

// Join is a nested-loop join. For each left tuple it walks the entire right
// child, rewinding the right side every time the left cursor advances, so
// output order is lexicographic in (left position, right position). Output
// tuples are the concatenation of the matching pair.
type Join struct {
	base      *execution.BaseIterator
	predicate *JoinPredicate
	left      iterator.DbIterator
	right     iterator.DbIterator
	desc      *tuple.TupleDescription
	current   *tuple.Tuple // left tuple currently being matched
}

// NewJoin creates a nested-loop join of left and right under pred.
func NewJoin(pred *JoinPredicate, left, right iterator.DbIterator) (*Join, error) {
	if pred == nil {
		return nil, fmt.Errorf("join predicate cannot be nil")
	}
	if left == nil || right == nil {
		return nil, fmt.Errorf("join children cannot be nil")
	}

	j := &Join{
		predicate: pred,
		left:      left,
		right:     right,
		desc:      tuple.Combine(left.GetTupleDesc(), right.GetTupleDesc()),
	}

	j.base = execution.NewBaseIterator(j.readNext)
	return j, nil
}

// readNext advances the nested loop to the next matching pair.
func (j *Join) readNext() (*tuple.Tuple, error) {
	for {
		if j.current == nil {
			hasNext, err := j.left.HasNext()
			if err != nil {
				return nil, err
			}
			if !hasNext {
				return nil, nil
			}

			j.current, err = j.left.Next()
			if err != nil {
				return nil, err
			}

			if err := j.right.Rewind(); err != nil {
				return nil, err
			}
		}

		for {
			hasNext, err := j.right.HasNext()
			if err != nil {
				return nil, err
			}
			if !hasNext {
				break
			}

			rightTuple, err := j.right.Next()
			if err != nil {
				return nil, err
			}

			matches, err := j.predicate.Filter(j.current, rightTuple)
			if err != nil {
				return nil, err
			}
			if matches {
				return tuple.CombineTuples(j.current, rightTuple)
			}
		}

		// Right side exhausted for this left tuple
		j.current = nil
	}
}

// Open opens both children. The right child is rewound per left tuple, so
// it must be rewindable (all operators are).
func (j *Join) Open() error {
	if err := j.left.Open(); err != nil {
		return err
	}
	if err := j.right.Open(); err != nil {
		j.left.Close()
		return err
	}

	j.current = nil
	j.base.MarkOpened()
	return nil
}

func (j *Join) Close() error {
	j.left.Close()
	j.right.Close()
	j.current = nil
	return j.base.Close()
}

// GetTupleDesc returns the concatenation of the children's schemas.
func (j *Join) GetTupleDesc() *tuple.TupleDescription {
	return j.desc
}

func (j *Join) HasNext() (bool, error) { return j.base.HasNext() }

func (j *Join) Next() (*tuple.Tuple, error) { return j.base.Next() }

func (j *Join) Rewind() error {
	if err := j.left.Rewind(); err != nil {
		return err
	}
	if err := j.right.Rewind(); err != nil {
		return err
	}

	j.current = nil
	j.base.ClearCache()
	return nil
}

func (j *Join) GetChildren() []iterator.DbIterator {
	return []iterator.DbIterator{j.left, j.right}
}

func (j *Join) SetChildren(children []iterator.DbIterator) error {
	if len(children) != 2 {
		return fmt.Errorf("join expects exactly two children, got %d", len(children))
	}

	j.left = children[0]
	j.right = children[1]
	j.desc = tuple.Combine(j.left.GetTupleDesc(), j.right.GetTupleDesc())
	return nil
}

var _ execution.Operator = (*Join)(nil)
