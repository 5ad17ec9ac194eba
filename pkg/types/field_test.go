package types

import (
	"bytes"
	"relstore/pkg/config"
	"relstore/pkg/primitives"
	"testing"
)

func TestNewIntField(t *testing.T) {
	field := NewIntField(42)

	if field.Value != 42 {
		t.Errorf("Expected value 42, got %d", field.Value)
	}
	if field.Type() != IntType {
		t.Errorf("Expected type %v, got %v", IntType, field.Type())
	}
	if field.Length() != 4 {
		t.Errorf("Expected length 4, got %d", field.Length())
	}
}

func TestIntField_Serialize(t *testing.T) {
	field := NewIntField(0x01020304)

	var buf bytes.Buffer
	if err := field.Serialize(&buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []byte{0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("Expected big-endian bytes %v, got %v", expected, buf.Bytes())
	}
}

func TestIntField_SerializeNegative(t *testing.T) {
	field := NewIntField(-1)

	var buf bytes.Buffer
	if err := field.Serialize(&buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("Expected two's complement bytes %v, got %v", expected, buf.Bytes())
	}
}

func TestIntField_RoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 42, -2147483648, 2147483647}

	for _, v := range values {
		field := NewIntField(v)

		var buf bytes.Buffer
		if err := field.Serialize(&buf); err != nil {
			t.Fatalf("Serialize(%d) failed: %v", v, err)
		}

		parsed, err := ParseField(&buf, IntType)
		if err != nil {
			t.Fatalf("ParseField(%d) failed: %v", v, err)
		}

		if !field.Equals(parsed) {
			t.Errorf("Round trip of %d produced %s", v, parsed.String())
		}
	}
}

func TestIntField_Compare(t *testing.T) {
	tests := []struct {
		a, b     int32
		op       primitives.Predicate
		expected bool
	}{
		{1, 1, primitives.Equals, true},
		{1, 2, primitives.Equals, false},
		{1, 2, primitives.LessThan, true},
		{2, 1, primitives.GreaterThan, true},
		{1, 1, primitives.LessThanOrEqual, true},
		{1, 1, primitives.GreaterThanOrEqual, true},
		{1, 2, primitives.NotEqual, true},
		{2, 2, primitives.NotEqual, false},
	}

	for _, tt := range tests {
		a := NewIntField(tt.a)
		b := NewIntField(tt.b)

		result, err := a.Compare(tt.op, b)
		if err != nil {
			t.Fatalf("Compare(%d %s %d) failed: %v", tt.a, tt.op, tt.b, err)
		}
		if result != tt.expected {
			t.Errorf("Compare(%d %s %d): expected %v, got %v", tt.a, tt.op, tt.b, tt.expected, result)
		}
	}
}

func TestStringField_RoundTrip(t *testing.T) {
	field := NewDefaultStringField("hello")

	var buf bytes.Buffer
	if err := field.Serialize(&buf); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	if buf.Len() != 4+config.StringLen {
		t.Fatalf("Expected %d serialized bytes, got %d", 4+config.StringLen, buf.Len())
	}

	parsed, err := ParseField(&buf, StringType)
	if err != nil {
		t.Fatalf("ParseField failed: %v", err)
	}

	parsedString, ok := parsed.(*StringField)
	if !ok {
		t.Fatalf("Expected StringField, got %T", parsed)
	}

	if parsedString.Value != "hello" {
		t.Errorf("Expected value 'hello', got %q", parsedString.Value)
	}
}

func TestStringField_Truncation(t *testing.T) {
	field := NewStringField("truncate me", 8)

	if field.Value != "truncate" {
		t.Errorf("Expected truncated value 'truncate', got %q", field.Value)
	}
}

func TestStringField_Compare(t *testing.T) {
	a := NewStringField("apple", 32)
	b := NewStringField("banana", 32)

	less, err := a.Compare(primitives.LessThan, b)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !less {
		t.Error("Expected 'apple' < 'banana'")
	}

	contains, err := b.Compare(primitives.Like, NewStringField("nan", 32))
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !contains {
		t.Error("Expected 'banana' LIKE 'nan'")
	}
}

func TestType_Size(t *testing.T) {
	if IntType.Size() != 4 {
		t.Errorf("Expected int size 4, got %d", IntType.Size())
	}

	expected := uint32(4 + config.StringLen)
	if StringType.Size() != expected {
		t.Errorf("Expected string size %d, got %d", expected, StringType.Size())
	}
}

func TestField_CrossTypeEquals(t *testing.T) {
	intField := NewIntField(42)
	stringField := NewDefaultStringField("42")

	if intField.Equals(stringField) {
		t.Error("Expected different field types to be unequal")
	}
}
