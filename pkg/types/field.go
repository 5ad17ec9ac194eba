package types

import (
	"io"
	"relstore/pkg/primitives"
)

// Field is a single typed value stored in a tuple.
type Field interface {
	// Serialize writes the field's fixed-width wire form to w
	Serialize(w io.Writer) error

	// Compare evaluates this field against other under the given predicate
	Compare(op primitives.Predicate, other Field) (bool, error)

	// Type returns the field's type tag
	Type() Type

	String() string

	// Equals reports value equality with another field
	Equals(other Field) bool

	// Hash returns a hash code suitable for grouping and map keys
	Hash() (primitives.HashCode, error)

	// Length returns the serialized size in bytes
	Length() uint32
}
