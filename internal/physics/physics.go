// Package physics advances vehicle kinematics from control input.
//
// Speeds are km/h, positions metres, headings degrees in [0, 360). The
// integrator owns the vehicle's pose and speed; nothing else mutates them.
package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/smartspeed/speedguard/internal/units"
)

// ErrInvalidInput reports a caller contract violation (bad dt, bad ceiling,
// conflicting pedals). The vehicle state is left untouched.
var ErrInvalidInput = errors.New("invalid control input")

// MaxStep caps dt to keep the integration stable across frame hitches.
const MaxStep = 0.1 // seconds

// ControlInput is one tick's worth of driver input. Steering flags may be
// combined with a pedal; Accelerate and Brake are mutually exclusive.
type ControlInput struct {
	Accelerate bool
	Brake      bool
	SteerLeft  bool
	SteerRight bool
}

// Config holds the vehicle's physical constants. All rates are per second.
type Config struct {
	MaxSpeed     float64 // km/h
	AccelRate    float64 // km/h per second
	BrakeRate    float64 // km/h per second
	FrictionRate float64 // km/h per second, passive deceleration
	SteerRate    float64 // degrees per second

	InitialX       float64 // metres
	InitialY       float64 // metres
	InitialHeading float64 // degrees
}

// Validate reports configuration errors. These are fatal at startup.
func (c Config) Validate() error {
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("max speed must be positive, got %v", c.MaxSpeed)
	}
	if c.AccelRate <= 0 {
		return fmt.Errorf("acceleration rate must be positive, got %v", c.AccelRate)
	}
	if c.BrakeRate <= 0 {
		return fmt.Errorf("brake rate must be positive, got %v", c.BrakeRate)
	}
	if c.FrictionRate < 0 {
		return fmt.Errorf("friction rate must be non-negative, got %v", c.FrictionRate)
	}
	if c.SteerRate <= 0 {
		return fmt.Errorf("steering rate must be positive, got %v", c.SteerRate)
	}
	return nil
}

// State is a value snapshot of the vehicle's kinematics.
type State struct {
	X          float64 // metres
	Y          float64 // metres
	HeadingDeg float64 // [0, 360)
	Speed      float64 // km/h, always within [0, MaxSpeed]
}

// Vehicle integrates control input into pose and speed.
type Vehicle struct {
	cfg   Config
	state State
}

// NewVehicle builds a vehicle at the configured initial pose, at rest.
func NewVehicle(cfg Config) (*Vehicle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("physics config: %w", err)
	}
	v := &Vehicle{cfg: cfg}
	v.Reset()
	return v, nil
}

// State returns a copy of the current kinematic state.
func (v *Vehicle) State() State {
	return v.state
}

// Config returns the vehicle's physical constants.
func (v *Vehicle) Config() Config {
	return v.cfg
}

// Reset returns the vehicle to its initial pose, at rest.
func (v *Vehicle) Reset() {
	v.state = State{
		X:          v.cfg.InitialX,
		Y:          v.cfg.InitialY,
		HeadingDeg: units.NormalizeHeading(v.cfg.InitialHeading),
	}
}

// Advance integrates one tick of dt seconds.
//
// ceiling is the maximum speed achievable this tick (the damped limit supplied
// by the control engine); accelScale attenuates the acceleration rate and
// never the brake. A ceiling above MaxSpeed is clamped; a negative ceiling,
// non-positive dt, or Accelerate+Brake together fail with ErrInvalidInput and
// leave the state unchanged.
func (v *Vehicle) Advance(in ControlInput, ceiling, accelScale, dt float64) (State, error) {
	if dt <= 0 || math.IsNaN(dt) {
		return v.state, fmt.Errorf("dt must be positive, got %v: %w", dt, ErrInvalidInput)
	}
	if ceiling < 0 || math.IsNaN(ceiling) {
		return v.state, fmt.Errorf("ceiling must be non-negative, got %v: %w", ceiling, ErrInvalidInput)
	}
	if accelScale < 0 || accelScale > 1 || math.IsNaN(accelScale) {
		return v.state, fmt.Errorf("acceleration scale must be in [0,1], got %v: %w", accelScale, ErrInvalidInput)
	}
	if in.Accelerate && in.Brake {
		return v.state, fmt.Errorf("accelerate and brake are mutually exclusive: %w", ErrInvalidInput)
	}

	if dt > MaxStep {
		dt = MaxStep
	}
	if ceiling > v.cfg.MaxSpeed {
		ceiling = v.cfg.MaxSpeed
	}

	s := v.state

	switch {
	case in.Brake:
		s.Speed -= v.cfg.BrakeRate * dt
	case in.Accelerate:
		next := s.Speed + v.cfg.AccelRate*accelScale*dt
		if next > ceiling {
			// Never accelerate through the ceiling; if already above it
			// (ceiling dropped under us), hold rather than snap down.
			next = math.Max(ceiling, s.Speed)
		}
		s.Speed = next
	default:
		s.Speed -= v.cfg.FrictionRate * dt
	}
	s.Speed = math.Max(0, math.Min(s.Speed, v.cfg.MaxSpeed))

	if in.SteerLeft {
		s.HeadingDeg += v.cfg.SteerRate * dt
	}
	if in.SteerRight {
		s.HeadingDeg -= v.cfg.SteerRate * dt
	}
	s.HeadingDeg = units.NormalizeHeading(s.HeadingDeg)

	dx, dy := units.HeadingVector(s.HeadingDeg)
	dist := units.MetersPerSecond(s.Speed) * dt
	s.X += dist * dx
	s.Y += dist * dy

	v.state = s
	return s, nil
}
