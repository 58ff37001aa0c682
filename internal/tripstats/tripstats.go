// Package tripstats accumulates per-tick speed and state samples and
// summarises the trip at shutdown.
package tripstats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/smartspeed/speedguard/internal/control"
)

// Recorder accumulates samples from the simulation loop. Not safe for
// concurrent use; the loop is the only writer and reads happen after it stops.
type Recorder struct {
	speeds    []float64
	stateTime map[control.State]time.Duration
	total     time.Duration
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{stateTime: make(map[control.State]time.Duration)}
}

// Add records one tick's speed and state over dt.
func (r *Recorder) Add(speed float64, state control.State, dt time.Duration) {
	r.speeds = append(r.speeds, speed)
	r.stateTime[state] += dt
	r.total += dt
}

// Summary is the aggregated view of a trip.
type Summary struct {
	Samples   int
	Duration  time.Duration
	MeanSpeed float64 // km/h
	MaxSpeed  float64 // km/h
	P95Speed  float64 // km/h
	StateTime map[control.State]time.Duration
	StatePct  map[control.State]float64
}

// Summarise computes the trip summary. Returns a zero Summary when no samples
// were recorded.
func (r *Recorder) Summarise() Summary {
	if len(r.speeds) == 0 {
		return Summary{}
	}

	sorted := append([]float64(nil), r.speeds...)
	sort.Float64s(sorted)

	s := Summary{
		Samples:   len(r.speeds),
		Duration:  r.total,
		MeanSpeed: stat.Mean(sorted, nil),
		MaxSpeed:  sorted[len(sorted)-1],
		P95Speed:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
		StateTime: make(map[control.State]time.Duration, len(r.stateTime)),
		StatePct:  make(map[control.State]float64, len(r.stateTime)),
	}
	for state, d := range r.stateTime {
		s.StateTime[state] = d
		if r.total > 0 {
			s.StatePct[state] = 100 * float64(d) / float64(r.total)
		}
	}
	return s
}

// String renders a one-line trip report for the shutdown log.
func (s Summary) String() string {
	if s.Samples == 0 {
		return "no trip data"
	}
	var states []string
	for _, st := range []control.State{control.Compliant, control.Advisory, control.Enforced} {
		if pct, ok := s.StatePct[st]; ok {
			states = append(states, fmt.Sprintf("%s %.1f%%", st, pct))
		}
	}
	return fmt.Sprintf("trip %.1fs: mean %.1f km/h, max %.1f km/h, p95 %.1f km/h (%s)",
		s.Duration.Seconds(), s.MeanSpeed, s.MaxSpeed, s.P95Speed, strings.Join(states, ", "))
}
