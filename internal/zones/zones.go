// Package zones maps vehicle position to the legal speed limit in force.
//
// The zone table is an ordered list of intervals along the X axis, loaded once
// at startup and immutable afterwards. Resolution never fails: positions that
// fall outside every interval resolve to the fallback zone (the zone with the
// highest limit), matching open-road behaviour.
package zones

import (
	"fmt"
	"sort"

	"github.com/smartspeed/speedguard/internal/monitoring"
)

// Color is an RGB indicator hint carried on zone and state payloads.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Zone is a spatial interval with an associated legal speed limit.
// Intervals are lower-inclusive, upper-exclusive; the last zone in the table
// is upper-inclusive so the drivable range has no uncovered right edge.
type Zone struct {
	Name       string
	SpeedLimit float64 // km/h
	MinX       float64 // metres, inclusive
	MaxX       float64 // metres, exclusive (inclusive for the last zone)
	Color      Color
}

// Table resolves positions to zones. Construct with NewTable; zero value is
// not usable.
type Table struct {
	zones    []Zone
	fallback Zone
	sorted   bool // sorted and disjoint: binary search is valid
}

// Tables at or above this size use binary search when the intervals allow it.
const binarySearchMin = 16

// NewTable validates the configured zones and builds a resolver over them.
// Validation failures are configuration errors and are fatal at startup.
func NewTable(zones []Zone) (*Table, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("zone table is empty")
	}
	for i, z := range zones {
		if z.Name == "" {
			return nil, fmt.Errorf("zone %d has no name", i)
		}
		if z.SpeedLimit <= 0 {
			return nil, fmt.Errorf("zone %q: speed limit must be positive, got %v", z.Name, z.SpeedLimit)
		}
		if z.MinX >= z.MaxX {
			return nil, fmt.Errorf("zone %q: interval [%v, %v) is empty", z.Name, z.MinX, z.MaxX)
		}
	}

	t := &Table{zones: append([]Zone(nil), zones...)}

	// Fallback is the highest-limit zone; first-defined wins a tie.
	t.fallback = t.zones[0]
	for _, z := range t.zones[1:] {
		if z.SpeedLimit > t.fallback.SpeedLimit {
			t.fallback = z
		}
	}

	// Overlapping intervals are a configuration error worth flagging but not
	// crashing on: resolution stays deterministic (first-defined wins).
	t.sorted = true
	for i := 1; i < len(t.zones); i++ {
		if t.zones[i].MinX < t.zones[i-1].MaxX {
			t.sorted = false
			if t.zones[i].MinX < t.zones[i-1].MaxX && t.zones[i].MaxX > t.zones[i-1].MinX {
				monitoring.Logf("zones: %q and %q overlap; first-defined zone wins",
					t.zones[i-1].Name, t.zones[i].Name)
			}
		}
	}

	return t, nil
}

// Zones returns the configured zones in table order.
func (t *Table) Zones() []Zone {
	return append([]Zone(nil), t.zones...)
}

// Fallback returns the zone used for positions outside every interval.
func (t *Table) Fallback() Zone {
	return t.fallback
}

// Resolve returns the zone containing x, or the fallback zone when x is
// outside the covered range. Resolution is deterministic and never fails.
func (t *Table) Resolve(x float64) Zone {
	if t.sorted && len(t.zones) >= binarySearchMin {
		return t.resolveSorted(x)
	}
	for i, z := range t.zones {
		if t.contains(i, z, x) {
			return z
		}
	}
	return t.fallback
}

func (t *Table) resolveSorted(x float64) Zone {
	i := sort.Search(len(t.zones), func(i int) bool { return x < t.zones[i].MaxX })
	if i < len(t.zones) && t.contains(i, t.zones[i], x) {
		return t.zones[i]
	}
	// The last zone's upper bound is inclusive.
	if last := len(t.zones) - 1; i == len(t.zones) && x == t.zones[last].MaxX {
		return t.zones[last]
	}
	return t.fallback
}

func (t *Table) contains(i int, z Zone, x float64) bool {
	if x < z.MinX {
		return false
	}
	if i == len(t.zones)-1 {
		return x <= z.MaxX
	}
	return x < z.MaxX
}
