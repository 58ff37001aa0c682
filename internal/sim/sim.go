// Package sim runs the monitor-and-report tick loop.
//
// Per tick: driver input -> physics integration under the previous tick's
// damping -> zone resolution -> compliance classification producing the next
// tick's damping. The feedback is deliberately one step delayed; the loop
// never solves ceiling and speed simultaneously within a tick.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/smartspeed/speedguard/internal/control"
	"github.com/smartspeed/speedguard/internal/monitoring"
	"github.com/smartspeed/speedguard/internal/physics"
	"github.com/smartspeed/speedguard/internal/timeutil"
	"github.com/smartspeed/speedguard/internal/tripstats"
	"github.com/smartspeed/speedguard/internal/zones"
)

// DefaultTickInterval approximates a 60 Hz frame-bound simulation.
const DefaultTickInterval = 16 * time.Millisecond

// Config holds the loop's schedule.
type Config struct {
	TickInterval time.Duration
}

// Loop owns the vehicle, zone table, and control engine, and is the single
// writer of the shared snapshot.
type Loop struct {
	vehicle *physics.Vehicle
	table   *zones.Table
	engine  *control.Engine
	driver  Driver
	clock   timeutil.Clock
	cfg     Config

	store   snapshotStore
	stats   *tripstats.Recorder
	tick    uint64
	elapsed time.Duration
	damping float64 // produced by the previous tick's classification
}

// New wires a loop together. The engine's state-change events remain
// available to additional listeners registered before Run.
func New(vehicle *physics.Vehicle, table *zones.Table, engine *control.Engine, driver Driver, clock timeutil.Clock, cfg Config) (*Loop, error) {
	if vehicle == nil || table == nil || engine == nil || driver == nil || clock == nil {
		return nil, fmt.Errorf("sim: nil dependency")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	return &Loop{
		vehicle: vehicle,
		table:   table,
		engine:  engine,
		driver:  driver,
		clock:   clock,
		cfg:     cfg,
		stats:   tripstats.NewRecorder(),
		damping: 1.0,
	}, nil
}

// Snapshot returns the latest published snapshot. The bool is false until the
// first tick completes.
func (l *Loop) Snapshot() (Snapshot, bool) {
	return l.store.get()
}

// Stats summarises the trip so far. Call after Run returns.
func (l *Loop) Stats() tripstats.Summary {
	return l.stats.Summarise()
}

// Step advances the simulation by dt. Exposed for deterministic tests; Run is
// the production entry point.
func (l *Loop) Step(dt time.Duration) error {
	snap, _ := l.store.get()
	in := l.driver.Input(l.elapsed, snap)

	maxSpeed := l.vehicle.Config().MaxSpeed
	ceiling := l.damping * maxSpeed
	state, err := l.vehicle.Advance(in, ceiling, l.damping, dt.Seconds())
	if err != nil {
		// A driver handing the integrator contradictory input is a
		// programming error in the driver, not a runtime condition; the
		// tick is skipped with the vehicle untouched.
		return fmt.Errorf("tick %d: %w", l.tick, err)
	}

	zone := l.table.Resolve(state.X)
	opState, damping := l.engine.Update(state.Speed, zone.SpeedLimit)
	l.damping = damping

	l.tick++
	l.elapsed += dt
	l.stats.Add(state.Speed, opState, dt)
	l.store.set(Snapshot{
		Tick:       l.tick,
		Time:       l.clock.Now(),
		X:          state.X,
		Y:          state.Y,
		HeadingDeg: state.HeadingDeg,
		Speed:      state.Speed,
		Limit:      zone.SpeedLimit,
		ZoneName:   zone.Name,
		State:      opState,
		StateName:  opState.String(),
		Damping:    damping,
	})
	return nil
}

// Run ticks the simulation until ctx is cancelled. Elapsed wall time between
// ticks is integrated (and clamped by the physics layer) so frame hitches
// slow the simulation rather than destabilise it.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	last := l.clock.Now()
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("sim: %s", l.Stats())
			return nil
		case <-ticker.C():
			now := l.clock.Now()
			dt := now.Sub(last)
			last = now
			if dt <= 0 {
				continue
			}
			if err := l.Step(dt); err != nil {
				monitoring.Logf("sim: %v", err)
			}
		}
	}
}
