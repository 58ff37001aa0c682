// Package timeutil provides a testable abstraction over timers and tickers.
//
// The telemetry publisher and link manager schedule all their work through a
// Clock so that reconnect and publish cadence can be driven deterministically
// in tests without sleeping.
package timeutil

import "time"

// Clock abstracts the time operations the scheduling code depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration

	// NewTimer creates a timer that fires once after d.
	NewTimer(d time.Duration) Timer

	// NewTicker creates a ticker that fires every d.
	NewTicker(d time.Duration) Ticker
}

// Timer is a single-shot timer.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// Ticker delivers ticks at a fixed period.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock implements Clock with the standard time package.
type RealClock struct{}

func (RealClock) Now() time.Time                    { return time.Now() }
func (RealClock) Since(t time.Time) time.Duration   { return time.Since(t) }
func (RealClock) NewTimer(d time.Duration) Timer    { return &realTimer{t: time.NewTimer(d)} }
func (RealClock) NewTicker(d time.Duration) Ticker  { return &realTicker{t: time.NewTicker(d)} }

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) C() <-chan time.Time          { return r.t.C }
func (r *realTimer) Stop() bool                   { return r.t.Stop() }
func (r *realTimer) Reset(d time.Duration) bool   { return r.t.Reset(d) }

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }
