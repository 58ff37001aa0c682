package units

import (
	"math"
	"testing"
)

func TestSpeedConversions(t *testing.T) {
	tests := []struct {
		name string
		kmh  float64
		mps  float64
	}{
		{"zero", 0, 0},
		{"city limit", 36, 10},
		{"highway", 120, 33.333333333333336},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MetersPerSecond(tt.kmh); math.Abs(got-tt.mps) > 1e-9 {
				t.Errorf("MetersPerSecond(%v) = %v, want %v", tt.kmh, got, tt.mps)
			}
			if got := KilometersPerHour(tt.mps); math.Abs(got-tt.kmh) > 1e-9 {
				t.Errorf("KilometersPerHour(%v) = %v, want %v", tt.mps, got, tt.kmh)
			}
		})
	}
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{725, 5},
		{-90, 270},
		{-720, 0},
	}

	for _, tt := range tests {
		if got := NormalizeHeading(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeHeading(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHeadingVector(t *testing.T) {
	dx, dy := HeadingVector(0)
	if math.Abs(dx-1) > 1e-9 || math.Abs(dy) > 1e-9 {
		t.Errorf("HeadingVector(0) = (%v, %v), want (1, 0)", dx, dy)
	}

	dx, dy = HeadingVector(90)
	if math.Abs(dx) > 1e-9 || math.Abs(dy-1) > 1e-9 {
		t.Errorf("HeadingVector(90) = (%v, %v), want (0, 1)", dx, dy)
	}

	// Unit length at an arbitrary angle.
	dx, dy = HeadingVector(123.4)
	if math.Abs(math.Hypot(dx, dy)-1) > 1e-9 {
		t.Errorf("HeadingVector(123.4) is not unit length: (%v, %v)", dx, dy)
	}
}
