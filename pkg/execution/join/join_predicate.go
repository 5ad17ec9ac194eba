package join

import (
	"fmt"
	"relstore/pkg/primitives"
	"relstore/pkg/tuple"
)

// JoinPredicate compares a field of a left tuple against a field of a right
// tuple under a predicate operation. The Join operator uses it to decide
// which tuple pairs combine.
type JoinPredicate struct {
	field1 int                  // Field index in the first (left) tuple
	field2 int                  // Field index in the second (right) tuple
	op     primitives.Predicate // The comparison operation to apply
}

func NewJoinPredicate(field1, field2 int, op primitives.Predicate) (*JoinPredicate, error) {
	if field1 < 0 {
		return nil, fmt.Errorf("field1 index cannot be negative: %d", field1)
	}
	if field2 < 0 {
		return nil, fmt.Errorf("field2 index cannot be negative: %d", field2)
	}

	return &JoinPredicate{
		field1: field1,
		field2: field2,
		op:     op,
	}, nil
}

// Filter evaluates the join predicate against a pair of tuples.
func (jp *JoinPredicate) Filter(t1, t2 *tuple.Tuple) (bool, error) {
	if t1 == nil || t2 == nil {
		return false, fmt.Errorf("tuples cannot be nil")
	}

	field1, err := t1.GetField(jp.field1)
	if err != nil {
		return false, fmt.Errorf("failed to get field %d from first tuple: %w", jp.field1, err)
	}

	field2, err := t2.GetField(jp.field2)
	if err != nil {
		return false, fmt.Errorf("failed to get field %d from second tuple: %w", jp.field2, err)
	}

	if field1 == nil || field2 == nil {
		return false, nil // Null fields never match
	}

	return field1.Compare(jp.op, field2)
}

func (jp *JoinPredicate) String() string {
	return fmt.Sprintf("JoinPredicate(left[%d] %s right[%d])", jp.field1, jp.op.String(), jp.field2)
}

// GetField1 returns the left tuple's field index.
func (jp *JoinPredicate) GetField1() int {
	return jp.field1
}

// GetField2 returns the right tuple's field index.
func (jp *JoinPredicate) GetField2() int {
	return jp.field2
}

// GetOp returns the comparison operation.
func (jp *JoinPredicate) GetOp() primitives.Predicate {
	return jp.op
}
