package query

import (
	"fmt"
	"relstore/pkg/primitives"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

// Predicate compares a tuple field to a constant value using a specified
// operation. It is the reusable filter condition Filter evaluates per tuple.
type Predicate struct {
	fieldIndex int                  // Which field in the tuple to compare
	op         primitives.Predicate // The comparison operation to perform
	operand    types.Field          // The constant value to compare against
}

func NewPredicate(fieldIndex int, op primitives.Predicate, operand types.Field) *Predicate {
	return &Predicate{
		fieldIndex: fieldIndex,
		op:         op,
		operand:    operand,
	}
}

// Filter evaluates the predicate against one tuple.
func (p *Predicate) Filter(t *tuple.Tuple) (bool, error) {
	field, err := t.GetField(p.fieldIndex)
	if err != nil {
		return false, err
	}

	if field == nil {
		return false, nil
	}

	return field.Compare(p.op, p.operand)
}

func (p *Predicate) String() string {
	return fmt.Sprintf("field[%d] %s %s", p.fieldIndex, p.op.String(), p.operand.String())
}

// FieldIndex returns the tuple field index this predicate evaluates.
func (p *Predicate) FieldIndex() int {
	return p.fieldIndex
}

// Operation returns the comparison operation applied by this predicate.
func (p *Predicate) Operation() primitives.Predicate {
	return p.op
}

// Value returns the constant operand the tuple field is compared against.
func (p *Predicate) Value() types.Field {
	return p.operand
}
