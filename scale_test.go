package archivekit

import "testing"

func TestScaleBytes(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		unit Unit
		want float64
	}{
		{"bytes", 42, UnitBytes, 42},
		{"kB", 1536, UnitKB, 1.5},
		{"MB", 1 << 20, UnitMB, 1},
		{"GB", 1 << 30, UnitGB, 1},
		{"TB", 1 << 40, UnitTB, 1},
		{"fractional GB", 512 << 20, UnitGB, 0.5},
		{"zero", 0, UnitTB, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ScaleBytes(tc.n, tc.unit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ScaleBytes(%d, %q) = %v, want %v", tc.n, tc.unit, got, tc.want)
			}
		})
	}
}

func TestScaleBytesUnknownUnit(t *testing.T) {
	_, err := ScaleBytes(1024, Unit("PB"))
	if err == nil {
		t.Fatal("expected an error for an unknown unit")
	}
	if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}
