package sim

import (
	"sync/atomic"
	"time"

	"github.com/smartspeed/speedguard/internal/control"
)

// Snapshot is the read-only view of the simulation the telemetry and status
// surfaces consume. Written once per tick by the loop; readers always see a
// complete, never-torn value because the pointer is swapped atomically.
type Snapshot struct {
	Tick       uint64        `json:"tick"`
	Time       time.Time     `json:"time"`
	X          float64       `json:"x"`
	Y          float64       `json:"y"`
	HeadingDeg float64       `json:"heading_deg"`
	Speed      float64       `json:"speed"`
	Limit      float64       `json:"limit"`
	ZoneName   string        `json:"zone"`
	State      control.State `json:"-"`
	StateName  string        `json:"state"`
	Damping    float64       `json:"damping"`
}

// snapshotStore is an atomically swapped latest-value cell: single writer
// (the loop), any number of readers.
type snapshotStore struct {
	p atomic.Pointer[Snapshot]
}

func (s *snapshotStore) set(snap Snapshot) {
	s.p.Store(&snap)
}

func (s *snapshotStore) get() (Snapshot, bool) {
	p := s.p.Load()
	if p == nil {
		return Snapshot{}, false
	}
	return *p, true
}
