package sensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DistLookupLen is the number of calibration breakpoints.
const DistLookupLen = 16

// DistanceTable holds the breakpoint distances in cm, nearest first.
var DistanceTable = [DistLookupLen]uint16{
	0, 2, 4, 6, 8,
	10, 12, 14, 16, 18,
	20, 22, 24, 26, 28,
	30,
}

// DefaultProximityTable is a bench calibration for the VCNL proximity
// counts at each DistanceTable entry.
var DefaultProximityTable = [DistLookupLen]uint16{
	65535, 18000, 4000, 2000, 1275,
	1150, 920, 810, 765, 740,
	720, 710, 700, 690, 680,
	670,
}

// DistanceLookup maps a proximity count to a distance by linear
// interpolation between breakpoints. proxTable must be strictly decreasing
// and distTable at least as long. Values at or above proxTable[0] return
// distTable[0]; values below every entry return the last distance.
// An empty table yields 0.
func DistanceLookup(ps uint16, proxTable, distTable []uint16) float64 {
	n := len(proxTable)
	if n == 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		if ps < proxTable[i] {
			continue
		}
		if i == 0 {
			return float64(distTable[0])
		}
		d0, d1 := float64(distTable[i-1]), float64(distTable[i])
		p0, p1 := float64(proxTable[i-1]), float64(proxTable[i])
		return d0 + (float64(ps)-p0)*(d1-d0)/(p1-p0)
	}
	return float64(distTable[n-1])
}

var (
	// ErrTableLength is returned when a table does not have DistLookupLen entries.
	ErrTableLength = errors.New("sensor: table length mismatch")
	// ErrTableOrder is returned when a table is not strictly monotonic.
	ErrTableOrder = errors.New("sensor: table not strictly monotonic")
)

// ValidateTable checks a proximity table against a distance table: both of
// DistLookupLen entries, proximity strictly decreasing, distance strictly
// increasing.
func ValidateTable(proxTable, distTable []uint16) error {
	if len(proxTable) != DistLookupLen {
		return fmt.Errorf("proximity table has %d entries, want %d: %w", len(proxTable), DistLookupLen, ErrTableLength)
	}
	if len(distTable) != DistLookupLen {
		return fmt.Errorf("distance table has %d entries, want %d: %w", len(distTable), DistLookupLen, ErrTableLength)
	}
	for i := 1; i < DistLookupLen; i++ {
		if proxTable[i] >= proxTable[i-1] {
			return fmt.Errorf("proximity entry %d (%d) not below %d: %w", i, proxTable[i], proxTable[i-1], ErrTableOrder)
		}
		if distTable[i] <= distTable[i-1] {
			return fmt.Errorf("distance entry %d (%d) not above %d: %w", i, distTable[i], distTable[i-1], ErrTableOrder)
		}
	}
	return nil
}

// ParseTable parses a comma separated list of proximity counts.
func ParseTable(s string) ([]uint16, error) {
	fields := strings.Split(s, ",")
	out := make([]uint16, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		v, err := strconv.ParseUint(f, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("parse table entry %q: %w", f, err)
		}
		out = append(out, uint16(v))
	}
	return out, nil
}
