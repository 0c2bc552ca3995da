package archivekit

// Unit is a byte-count unit for size reporting.
type Unit string

// Supported units. Scaling is by powers of 1024.
const (
	UnitBytes Unit = "bytes"
	UnitKB    Unit = "kB"
	UnitMB    Unit = "MB"
	UnitGB    Unit = "GB"
	UnitTB    Unit = "TB"
)

var unitScales = map[Unit]float64{
	UnitBytes: 1,
	UnitKB:    1 << 10,
	UnitMB:    1 << 20,
	UnitGB:    1 << 30,
	UnitTB:    1 << 40,
}

// ScaleBytes converts a byte count to the given unit.
func ScaleBytes(n int64, unit Unit) (float64, error) {
	scale, ok := unitScales[unit]
	if !ok {
		return 0, newError(ErrCodeValidation,
			"unit must be one of [%s %s %s %s %s], got %q",
			UnitBytes, UnitKB, UnitMB, UnitGB, UnitTB, unit)
	}
	return float64(n) / scale, nil
}
