package statistics

import (
	"math"
	"relstore/pkg/primitives"
	"testing"
)

func TestNewIntHistogram_Validation(t *testing.T) {
	if _, err := NewIntHistogram(0, 0, 10); err == nil {
		t.Error("Expected error for zero buckets")
	}
	if _, err := NewIntHistogram(10, 5, 4); err == nil {
		t.Error("Expected error for min > max")
	}
	if _, err := NewIntHistogram(10, 5, 5); err != nil {
		t.Errorf("Single-value range should be valid: %v", err)
	}
}

func TestIntHistogram_EmptyIsZero(t *testing.T) {
	h, _ := NewIntHistogram(10, 0, 100)

	if sel := h.EstimateSelectivity(primitives.Equals, 50); sel != 0.0 {
		t.Errorf("Empty histogram should estimate 0, got %f", sel)
	}
}

func TestIntHistogram_OutOfRangeIgnored(t *testing.T) {
	h, _ := NewIntHistogram(10, 0, 9)

	h.AddValue(-5)
	h.AddValue(100)
	if h.Total() != 0 {
		t.Errorf("Out-of-range values should be ignored, total is %d", h.Total())
	}

	h.AddValue(5)
	if h.Total() != 1 {
		t.Errorf("Expected total 1, got %d", h.Total())
	}
}

func TestIntHistogram_EqualsOutsideRange(t *testing.T) {
	h, _ := NewIntHistogram(10, 0, 9)
	for v := int32(0); v < 10; v++ {
		h.AddValue(v)
	}

	if sel := h.EstimateSelectivity(primitives.Equals, -1); sel != 0.0 {
		t.Errorf("EQ below range should be 0, got %f", sel)
	}
	if sel := h.EstimateSelectivity(primitives.Equals, 10); sel != 0.0 {
		t.Errorf("EQ above range should be 0, got %f", sel)
	}
}

func TestIntHistogram_Boundaries(t *testing.T) {
	h, _ := NewIntHistogram(10, 0, 99)
	for v := int32(0); v < 100; v++ {
		h.AddValue(v)
	}

	if sel := h.EstimateSelectivity(primitives.GreaterThan, 99); sel != 0.0 {
		t.Errorf("GT(max) should be 0, got %f", sel)
	}
	if sel := h.EstimateSelectivity(primitives.LessThan, 0); sel != 0.0 {
		t.Errorf("LT(min) should be 0, got %f", sel)
	}
	if sel := h.EstimateSelectivity(primitives.GreaterThan, -1); sel != 1.0 {
		t.Errorf("GT below range should be 1, got %f", sel)
	}
	if sel := h.EstimateSelectivity(primitives.LessThan, 100); sel != 1.0 {
		t.Errorf("LT above range should be 1, got %f", sel)
	}
}

func TestIntHistogram_Partition(t *testing.T) {
	h, _ := NewIntHistogram(10, 0, 99)
	for v := int32(0); v < 100; v++ {
		h.AddValue(v)
	}

	// GT(v) + EQ(v) + LT(v) should cover the whole distribution
	for _, v := range []int32{5, 37, 50, 82} {
		total := h.EstimateSelectivity(primitives.GreaterThan, v) +
			h.EstimateSelectivity(primitives.Equals, v) +
			h.EstimateSelectivity(primitives.LessThan, v)

		if math.Abs(total-1.0) > 0.05 {
			t.Errorf("GT+EQ+LT at %d should be ~1.0, got %f", v, total)
		}
	}
}

func TestIntHistogram_EqualsUniform(t *testing.T) {
	h, _ := NewIntHistogram(100, 0, 99)
	for v := int32(0); v < 100; v++ {
		h.AddValue(v)
	}

	// Uniform single-width buckets: each value is 1% of the data
	sel := h.EstimateSelectivity(primitives.Equals, 42)
	if math.Abs(sel-0.01) > 0.001 {
		t.Errorf("EQ on uniform data should be ~0.01, got %f", sel)
	}
}

func TestIntHistogram_NotEqual(t *testing.T) {
	h, _ := NewIntHistogram(10, 0, 9)
	for v := int32(0); v < 10; v++ {
		h.AddValue(v)
	}

	eq := h.EstimateSelectivity(primitives.Equals, 5)
	neq := h.EstimateSelectivity(primitives.NotEqual, 5)

	if math.Abs(eq+neq-1.0) > 1e-9 {
		t.Errorf("EQ + NEQ should be 1, got %f + %f", eq, neq)
	}
}

func TestIntHistogram_RangeOps(t *testing.T) {
	h, _ := NewIntHistogram(10, 0, 99)
	for v := int32(0); v < 100; v++ {
		h.AddValue(v)
	}

	// GE(min) and LE(max) cover everything
	if sel := h.EstimateSelectivity(primitives.GreaterThanOrEqual, 0); sel != 1.0 {
		t.Errorf("GE(min) should be 1, got %f", sel)
	}
	if sel := h.EstimateSelectivity(primitives.LessThanOrEqual, 99); sel != 1.0 {
		t.Errorf("LE(max) should be 1, got %f", sel)
	}

	// Roughly half the data is above the midpoint
	gt := h.EstimateSelectivity(primitives.GreaterThan, 49)
	if math.Abs(gt-0.5) > 0.1 {
		t.Errorf("GT(49) on uniform 0..99 should be ~0.5, got %f", gt)
	}
}

func TestIntHistogram_SkewedData(t *testing.T) {
	h, _ := NewIntHistogram(10, 0, 99)
	// All mass in one bucket
	for i := 0; i < 100; i++ {
		h.AddValue(5)
	}

	high := h.EstimateSelectivity(primitives.Equals, 5)
	low := h.EstimateSelectivity(primitives.Equals, 95)

	if high <= low {
		t.Errorf("Hot value should estimate higher than cold: %f vs %f", high, low)
	}
	if low != 0.0 {
		t.Errorf("Empty bucket should estimate 0, got %f", low)
	}
}

func TestIntHistogram_WidthRounding(t *testing.T) {
	// Range of 10 values over 3 buckets: width rounds up to 4, three buckets cover it
	h, err := NewIntHistogram(3, 0, 9)
	if err != nil {
		t.Fatalf("NewIntHistogram failed: %v", err)
	}

	if h.NumBuckets() != 3 {
		t.Errorf("Expected 3 effective buckets for span 10 width 4, got %d", h.NumBuckets())
	}

	// Every value still lands in a bucket
	for v := int32(0); v < 10; v++ {
		h.AddValue(v)
	}
	if h.Total() != 10 {
		t.Errorf("Expected all 10 values recorded, got %d", h.Total())
	}
}
