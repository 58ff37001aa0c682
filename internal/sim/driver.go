package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/smartspeed/speedguard/internal/physics"
)

// Driver produces the control input for each tick. It stands in for the
// out-of-scope keyboard layer: the loop does not care where input comes from.
type Driver interface {
	Input(elapsed time.Duration, snap Snapshot) physics.ControlInput
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(elapsed time.Duration, snap Snapshot) physics.ControlInput

func (f DriverFunc) Input(elapsed time.Duration, snap Snapshot) physics.ControlInput {
	return f(elapsed, snap)
}

// Segment is one leg of a scripted drive.
type Segment struct {
	Input    physics.ControlInput
	Duration time.Duration
}

// ScriptDriver replays a fixed sequence of input segments, holding the last
// segment's input once the script runs out. The zero segment (coast) is a
// valid leg.
type ScriptDriver struct {
	segments []Segment
}

// NewScriptDriver builds a driver over the given segments.
func NewScriptDriver(segments []Segment) *ScriptDriver {
	return &ScriptDriver{segments: segments}
}

// Input returns the scripted input for the given elapsed trip time.
func (d *ScriptDriver) Input(elapsed time.Duration, _ Snapshot) physics.ControlInput {
	if len(d.segments) == 0 {
		return physics.ControlInput{}
	}
	var at time.Duration
	for _, seg := range d.segments {
		at += seg.Duration
		if elapsed < at {
			return seg.Input
		}
	}
	return d.segments[len(d.segments)-1].Input
}

// ParseScript parses a drive script like "accel:5s,coast:2s,brake:1s".
// Recognised actions: accel, brake, coast, left, right, accel-left,
// accel-right, brake-left, brake-right.
func ParseScript(s string) ([]Segment, error) {
	var segments []Segment
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		action, durStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("script segment %q: want action:duration", part)
		}
		dur, err := time.ParseDuration(strings.TrimSpace(durStr))
		if err != nil {
			return nil, fmt.Errorf("script segment %q: %w", part, err)
		}
		if dur <= 0 {
			return nil, fmt.Errorf("script segment %q: duration must be positive", part)
		}

		var in physics.ControlInput
		switch strings.TrimSpace(action) {
		case "accel":
			in.Accelerate = true
		case "brake":
			in.Brake = true
		case "coast":
		case "left":
			in.SteerLeft = true
		case "right":
			in.SteerRight = true
		case "accel-left":
			in.Accelerate, in.SteerLeft = true, true
		case "accel-right":
			in.Accelerate, in.SteerRight = true, true
		case "brake-left":
			in.Brake, in.SteerLeft = true, true
		case "brake-right":
			in.Brake, in.SteerRight = true, true
		default:
			return nil, fmt.Errorf("script segment %q: unknown action %q", part, action)
		}
		segments = append(segments, Segment{Input: in, Duration: dur})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("empty drive script")
	}
	return segments, nil
}
