package types

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"relstore/pkg/config"
	"relstore/pkg/primitives"
	"strings"
)

// StringField represents a fixed-length string field. The value is stored
// truncated to MaxSize; serialization pads with zero bytes up to MaxSize.
type StringField struct {
	Value   string
	MaxSize int
}

// NewStringField creates a new StringField with the specified value and
// maximum size. Values longer than maxSize are truncated to fit.
func NewStringField(value string, maxSize int) *StringField {
	if len(value) > maxSize {
		value = value[:maxSize]
	}

	return &StringField{
		Value:   value,
		MaxSize: maxSize,
	}
}

// NewDefaultStringField creates a StringField sized to the process-wide
// string length, which is the size stored fields always use.
func NewDefaultStringField(value string) *StringField {
	return NewStringField(value, config.StringLen)
}

// Compare performs a lexicographic comparison against another StringField.
// Like is interpreted as substring containment.
func (s *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	otherStringField, ok := other.(*StringField)
	if !ok {
		return false, nil
	}

	cmp := strings.Compare(s.Value, otherStringField.Value)

	switch op {
	case primitives.Equals:
		return cmp == 0, nil

	case primitives.LessThan:
		return cmp < 0, nil

	case primitives.GreaterThan:
		return cmp > 0, nil

	case primitives.LessThanOrEqual:
		return cmp <= 0, nil

	case primitives.GreaterThanOrEqual:
		return cmp >= 0, nil

	case primitives.NotEqual:
		return cmp != 0, nil

	case primitives.Like:
		return strings.Contains(s.Value, otherStringField.Value), nil

	default:
		return false, nil
	}
}

// Serialize writes the string field in binary form:
// a 4-byte big-endian length followed by the string bytes, zero-padded
// out to MaxSize.
func (s *StringField) Serialize(w io.Writer) error {
	length := min(len(s.Value), s.MaxSize)

	lengthBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(lengthBytes, uint32(length))

	if _, err := w.Write(lengthBytes); err != nil {
		return err
	}

	if _, err := w.Write([]byte(s.Value[:length])); err != nil {
		return err
	}

	padding := make([]byte, s.MaxSize-length)
	_, err := w.Write(padding)
	return err
}

func (s *StringField) Type() Type {
	return StringType
}

func (s *StringField) String() string {
	return s.Value
}

// Equals checks if this StringField holds the same value and size bound
// as another field.
func (s *StringField) Equals(other Field) bool {
	otherStringField, ok := other.(*StringField)
	if !ok {
		return false
	}
	return s.Value == otherStringField.Value && s.MaxSize == otherStringField.MaxSize
}

func (s *StringField) Hash() (primitives.HashCode, error) {
	h := fnv.New64a()
	h.Write([]byte(s.Value))
	return primitives.HashCode(h.Sum64()), nil
}

// Length returns the serialized size: the 4-byte prefix plus MaxSize bytes.
func (s *StringField) Length() uint32 {
	return 4 + uint32(s.MaxSize)
}
