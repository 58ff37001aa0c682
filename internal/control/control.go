// Package control classifies speed compliance and derives the acceleration
// damping applied as a countermeasure.
//
// Classification is memoryless: every tick is a pure function of the current
// (speed, limit) pair, with no hysteresis around the thresholds. The only
// state carried across ticks is the previous classification, used to emit one
// event per actual transition.
package control

import (
	"fmt"

	"github.com/smartspeed/speedguard/internal/monitoring"
	"github.com/smartspeed/speedguard/internal/zones"
)

// State classifies the vehicle's compliance with the limit in force, ordered
// by severity.
type State int

const (
	// Compliant: speed at or under the limit.
	Compliant State = iota
	// Advisory: over the limit but within the warning tolerance.
	Advisory
	// Enforced: over the limit beyond tolerance; acceleration is suppressed.
	Enforced
)

// String returns the wire name used on the state topic.
func (s State) String() string {
	switch s {
	case Compliant:
		return "NORMAL"
	case Advisory:
		return "WARNING"
	case Enforced:
		return "REGULATING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Color returns the indicator colour hint published with the state.
func (s State) Color() zones.Color {
	switch s {
	case Advisory:
		return zones.Color{R: 255, G: 255, B: 0}
	case Enforced:
		return zones.Color{R: 255, G: 0, B: 0}
	default:
		return zones.Color{R: 0, G: 255, B: 0}
	}
}

// Event reports one state transition. Emitted exactly once per actual change.
type Event struct {
	Old   State
	New   State
	Speed float64 // km/h at the moment of transition
	Limit float64 // km/h limit in force
}

// Config holds the classifier's thresholds.
type Config struct {
	// WarningTolerance is the overspeed band (km/h) treated as Advisory
	// before enforcement kicks in.
	WarningTolerance float64
	// MinDamping is the floor for the damping factor under enforcement, so
	// the vehicle never becomes inert under automatic control.
	MinDamping float64
}

// Validate reports configuration errors. These are fatal at startup.
func (c Config) Validate() error {
	if c.WarningTolerance < 0 {
		return fmt.Errorf("warning tolerance must be non-negative, got %v", c.WarningTolerance)
	}
	if c.MinDamping <= 0 || c.MinDamping > 1 {
		return fmt.Errorf("minimum damping must be in (0, 1], got %v", c.MinDamping)
	}
	return nil
}

// advisoryDamping is the fixed acceleration reduction while in Advisory.
const advisoryDamping = 0.5

// Engine wraps classification with transition tracking and listener fan-out.
type Engine struct {
	cfg       Config
	prev      State
	listeners []func(Event)
}

// NewEngine validates cfg and returns an engine starting in Compliant.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("control config: %w", err)
	}
	return &Engine{cfg: cfg, prev: Compliant}, nil
}

// OnStateChange registers a listener for transition events. Listeners run
// synchronously on the tick goroutine; panics are recovered and logged so a
// misbehaving collaborator cannot take down the simulation.
func (e *Engine) OnStateChange(fn func(Event)) {
	e.listeners = append(e.listeners, fn)
}

// Classify is the pure classification function: identical inputs always yield
// the identical (state, damping) pair.
func (e *Engine) Classify(speed, limit float64) (State, float64) {
	overspeed := speed - limit
	switch {
	case overspeed <= 0:
		return Compliant, 1.0
	case overspeed <= e.cfg.WarningTolerance:
		return Advisory, advisoryDamping
	default:
		return Enforced, e.enforcedDamping(overspeed)
	}
}

// enforcedDamping rolls damping off linearly with overspeed, reaching the
// floor at twice the warning tolerance.
func (e *Engine) enforcedDamping(overspeed float64) float64 {
	if e.cfg.WarningTolerance == 0 {
		return e.cfg.MinDamping
	}
	d := 1 - overspeed/(2*e.cfg.WarningTolerance)
	if d < e.cfg.MinDamping {
		return e.cfg.MinDamping
	}
	return d
}

// Update classifies the current tick and emits a transition event when the
// state differs from the previous tick's.
func (e *Engine) Update(speed, limit float64) (State, float64) {
	state, damping := e.Classify(speed, limit)
	if state != e.prev {
		ev := Event{Old: e.prev, New: state, Speed: speed, Limit: limit}
		e.prev = state
		for _, fn := range e.listeners {
			e.notify(fn, ev)
		}
	}
	return state, damping
}

// Current returns the most recent classification.
func (e *Engine) Current() State {
	return e.prev
}

func (e *Engine) notify(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("control: state listener panicked on %s->%s: %v", ev.Old, ev.New, r)
		}
	}()
	fn(ev)
}
