package sensor

import (
	"errors"
	"math"
	"testing"
)

func TestDistanceLookupBreakpoints(t *testing.T) {
	for i, p := range DefaultProximityTable {
		got := DistanceLookup(p, DefaultProximityTable[:], DistanceTable[:])
		if got != float64(DistanceTable[i]) {
			t.Errorf("breakpoint %d (ps=%d): got %v, want %d", i, p, got, DistanceTable[i])
		}
	}
}

func TestDistanceLookupMidpoints(t *testing.T) {
	prox := DefaultProximityTable
	for i := 1; i < DistLookupLen; i++ {
		p0, p1 := prox[i-1], prox[i]
		mid := p1 + (p0-p1)/2
		d0, d1 := float64(DistanceTable[i-1]), float64(DistanceTable[i])

		got := DistanceLookup(mid, prox[:], DistanceTable[:])
		want := d0 + (float64(mid)-float64(p0))*(d1-d0)/(float64(p1)-float64(p0))
		if got != want {
			t.Errorf("segment %d (ps=%d): got %v, want %v", i, mid, got, want)
		}
		if got <= d0 || got >= d1 {
			t.Errorf("segment %d (ps=%d): %v not strictly between %v and %v", i, mid, got, d0, d1)
		}
		if (p0-p1)%2 == 0 && got != (d0+d1)/2 {
			t.Errorf("segment %d (ps=%d): exact midpoint gave %v, want %v", i, mid, got, (d0+d1)/2)
		}
	}
}

func TestDistanceLookupKnownValues(t *testing.T) {
	tests := []struct {
		ps   uint16
		want float64
	}{
		{11000, 3},    // halfway 18000..4000
		{3000, 5},     // halfway 4000..2000
		{750, 17.2},   // 765..740
		{705, 23},     // halfway 710..700
		{675, 29},     // halfway 680..670
		{65535, 0},    // first entry
		{670, 30},     // last entry
		{669, 30},     // beyond last entry
		{0, 30},       // far
		{18001, 2},    // just inside the first segment
	}
	for _, tt := range tests {
		got := DistanceLookup(tt.ps, DefaultProximityTable[:], DistanceTable[:])
		if math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("DistanceLookup(%d) = %v, want %v", tt.ps, got, tt.want)
		}
	}
}

func TestDistanceLookupClamp(t *testing.T) {
	prox := []uint16{1000, 800, 600}
	dist := []uint16{5, 10, 15}

	if got := DistanceLookup(5000, prox, dist); got != 5 {
		t.Errorf("above first entry: got %v, want 5", got)
	}
	if got := DistanceLookup(1000, prox, dist); got != 5 {
		t.Errorf("at first entry: got %v, want 5", got)
	}
	if got := DistanceLookup(599, prox, dist); got != 15 {
		t.Errorf("below last entry: got %v, want 15", got)
	}
	if got := DistanceLookup(0, prox, dist); got != 15 {
		t.Errorf("zero: got %v, want 15", got)
	}
}

func TestDistanceLookupEmptyTable(t *testing.T) {
	if got := DistanceLookup(100, nil, nil); got != 0 {
		t.Errorf("empty table: got %v, want 0", got)
	}
}

func TestValidateTable(t *testing.T) {
	if err := ValidateTable(DefaultProximityTable[:], DistanceTable[:]); err != nil {
		t.Fatalf("default table rejected: %v", err)
	}

	short := DefaultProximityTable[:DistLookupLen-1]
	if err := ValidateTable(short, DistanceTable[:]); !errors.Is(err, ErrTableLength) {
		t.Errorf("short table: expected ErrTableLength, got %v", err)
	}

	flat := DefaultProximityTable
	flat[5] = flat[4]
	if err := ValidateTable(flat[:], DistanceTable[:]); !errors.Is(err, ErrTableOrder) {
		t.Errorf("flat table: expected ErrTableOrder, got %v", err)
	}

	dist := DistanceTable
	dist[3], dist[4] = dist[4], dist[3]
	if err := ValidateTable(DefaultProximityTable[:], dist[:]); !errors.Is(err, ErrTableOrder) {
		t.Errorf("unordered distances: expected ErrTableOrder, got %v", err)
	}
}

func TestParseTable(t *testing.T) {
	got, err := ParseTable("65535, 18000,4000 ,670")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint16{65535, 18000, 4000, 670}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %d, want %d", i, got[i], want[i])
		}
	}

	for _, bad := range []string{"", "1,,2", "70000", "-1", "12a"} {
		if _, err := ParseTable(bad); err == nil {
			t.Errorf("ParseTable(%q): expected error", bad)
		}
	}
}
