package types

import "relstore/pkg/config"

type Type int

const (
	IntType Type = iota
	StringType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT_TYPE"
	case StringType:
		return "STRING_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Size returns the number of bytes a serialized field of this type occupies.
// Integers are 4-byte big-endian; strings carry a 4-byte length prefix
// followed by config.StringLen bytes of padded data.
func (t Type) Size() uint32 {
	switch t {
	case IntType:
		return 4
	case StringType:
		return 4 + uint32(config.StringLen)
	default:
		return 0
	}
}
