package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"relstore/pkg/config"
)

// ParseField reads one serialized field of the given type from r.
// String fields are trimmed to their declared length; whatever padding
// follows on the wire is consumed but discarded.
func ParseField(r io.Reader, t Type) (Field, error) {
	switch t {
	case IntType:
		return parseIntField(r)
	case StringType:
		return parseStringField(r)
	default:
		return nil, fmt.Errorf("unknown field type: %v", t)
	}
}

func parseIntField(r io.Reader) (*IntField, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read int field: %w", err)
	}
	return NewIntField(int32(binary.BigEndian.Uint32(buf))), nil
}

func parseStringField(r io.Reader) (*StringField, error) {
	lengthBytes := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthBytes); err != nil {
		return nil, fmt.Errorf("failed to read string length: %w", err)
	}

	length := binary.BigEndian.Uint32(lengthBytes)
	if length > uint32(config.StringLen) {
		return nil, fmt.Errorf("declared string length %d exceeds maximum %d", length, config.StringLen)
	}

	data := make([]byte, config.StringLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read string data: %w", err)
	}

	return NewStringField(string(data[:length]), config.StringLen), nil
}
