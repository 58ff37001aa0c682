package zones

import (
	"fmt"
	"testing"

	"github.com/smartspeed/speedguard/internal/monitoring"
)

func testZones() []Zone {
	return []Zone{
		{Name: "School Zone", SpeedLimit: 50, MinX: -100, MaxX: 0, Color: Color{R: 255, G: 204, B: 0}},
		{Name: "City Road", SpeedLimit: 60, MinX: 0, MaxX: 100, Color: Color{R: 204, G: 204, B: 204}},
		{Name: "Highway", SpeedLimit: 80, MinX: 100, MaxX: 300, Color: Color{R: 102, G: 102, B: 102}},
	}
}

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		zones   []Zone
		wantErr bool
	}{
		{"valid", testZones(), false},
		{"empty table", nil, true},
		{"unnamed zone", []Zone{{SpeedLimit: 50, MinX: 0, MaxX: 10}}, true},
		{"zero limit", []Zone{{Name: "z", SpeedLimit: 0, MinX: 0, MaxX: 10}}, true},
		{"negative limit", []Zone{{Name: "z", SpeedLimit: -5, MinX: 0, MaxX: 10}}, true},
		{"empty interval", []Zone{{Name: "z", SpeedLimit: 50, MinX: 10, MaxX: 10}}, true},
		{"inverted interval", []Zone{{Name: "z", SpeedLimit: 50, MinX: 10, MaxX: 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.zones)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	table, err := NewTable(testZones())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	tests := []struct {
		name string
		x    float64
		want string
	}{
		{"inside school zone", -50, "School Zone"},
		{"school lower bound inclusive", -100, "School Zone"},
		{"boundary belongs to next zone", 0, "City Road"},
		{"inside city", 42, "City Road"},
		{"city/highway boundary", 100, "Highway"},
		{"inside highway", 250, "Highway"},
		{"last zone upper bound inclusive", 300, "Highway"},
		{"left of all zones falls back", -500, "Highway"},
		{"right of all zones falls back", 1000, "Highway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Resolve(tt.x); got.Name != tt.want {
				t.Errorf("Resolve(%v) = %q, want %q", tt.x, got.Name, tt.want)
			}
		})
	}
}

func TestResolveEveryPositionInRangeHitsExactlyOneZone(t *testing.T) {
	table, err := NewTable(testZones())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	for x := -100.0; x <= 300; x += 0.5 {
		z := table.Resolve(x)
		matches := 0
		for i, cand := range table.Zones() {
			upperOK := x < cand.MaxX || (i == 2 && x == cand.MaxX)
			if x >= cand.MinX && upperOK {
				matches++
				if cand.Name != z.Name {
					t.Fatalf("Resolve(%v) = %q but interval match is %q", x, z.Name, cand.Name)
				}
			}
		}
		if matches != 1 {
			t.Fatalf("position %v matched %d zones, want exactly 1", x, matches)
		}
	}
}

func TestResolveOverlapFirstDefinedWins(t *testing.T) {
	orig := monitoring.Logf
	monitoring.SetLogger(nil) // mute the overlap warning
	defer monitoring.SetLogger(orig)

	table, err := NewTable([]Zone{
		{Name: "first", SpeedLimit: 40, MinX: 0, MaxX: 100},
		{Name: "second", SpeedLimit: 90, MinX: 50, MaxX: 150},
	})
	if err != nil {
		t.Fatalf("overlap must not be a construction error: %v", err)
	}

	if got := table.Resolve(75); got.Name != "first" {
		t.Errorf("Resolve(75) = %q, want first-defined zone", got.Name)
	}
}

func TestFallbackIsHighestLimitZone(t *testing.T) {
	table, err := NewTable(testZones())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if got := table.Fallback(); got.Name != "Highway" {
		t.Errorf("Fallback() = %q, want Highway", got.Name)
	}
}

func TestResolveLargeTableBinarySearch(t *testing.T) {
	var zs []Zone
	for i := 0; i < 64; i++ {
		zs = append(zs, Zone{
			Name:       fmt.Sprintf("segment-%02d", i),
			SpeedLimit: 30 + float64(i),
			MinX:       float64(i * 100),
			MaxX:       float64((i + 1) * 100),
		})
	}
	table, err := NewTable(zs)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	tests := []struct {
		x    float64
		want string
	}{
		{0, "segment-00"},
		{99.99, "segment-00"},
		{100, "segment-01"},
		{3250, "segment-32"},
		{6400, "segment-63"}, // last upper bound inclusive
		{-1, "segment-63"},   // fallback: highest limit
		{9999, "segment-63"},
	}
	for _, tt := range tests {
		if got := table.Resolve(tt.x); got.Name != tt.want {
			t.Errorf("Resolve(%v) = %q, want %q", tt.x, got.Name, tt.want)
		}
	}
}
