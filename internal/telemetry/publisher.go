package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/smartspeed/speedguard/internal/monitoring"
	"github.com/smartspeed/speedguard/internal/timeutil"
)

// Counters exposes the publisher's observability counters. All fields are
// read with atomic loads; Snapshot returns a plain copy for reporting.
type Counters struct {
	Published uint64 `json:"published"` // payloads delivered to the transport
	Skipped   uint64 `json:"skipped"`   // cycles skipped while disconnected
	Dropped   uint64 `json:"dropped"`   // payloads dropped on a full send buffer
	Faults    uint64 `json:"faults"`    // transport faults observed mid-cycle
	Encoding  uint64 `json:"encoding"`  // serialization failures (cycle skipped)
}

type counters struct {
	published atomic.Uint64
	skipped   atomic.Uint64
	dropped   atomic.Uint64
	faults    atomic.Uint64
	encoding  atomic.Uint64
}

func (c *counters) snapshot() Counters {
	return Counters{
		Published: c.published.Load(),
		Skipped:   c.skipped.Load(),
		Dropped:   c.dropped.Load(),
		Faults:    c.faults.Load(),
		Encoding:  c.encoding.Load(),
	}
}

// Config holds the publisher's schedule and topic layout.
type Config struct {
	Topics  Topics
	Origin  GeoOrigin
	Period  time.Duration // publish cadence, default 500ms
	Backoff time.Duration // reconnect backoff, default 5s
}

// DefaultPeriod is the publish cadence when none is configured.
const DefaultPeriod = 500 * time.Millisecond

// DefaultBackoff is the reconnect interval when none is configured.
const DefaultBackoff = 5 * time.Second

// Source supplies the latest simulation sample. The bool reports whether a
// sample is available yet; reads must be cheap and non-blocking.
type Source func() (Sample, bool)

// Publisher serializes the latest sample into three independent payloads on
// its own fixed-period timer, decoupled from the simulation tick rate.
type Publisher struct {
	link   *Link
	source Source
	clock  timeutil.Clock
	cfg    Config
	n      counters
}

// NewPublisher wires a publisher to a link and a sample source.
func NewPublisher(link *Link, source Source, clock timeutil.Clock, cfg Config) *Publisher {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Topics == (Topics{}) {
		cfg.Topics = DefaultTopics()
	}
	p := &Publisher{link: link, source: source, clock: clock, cfg: cfg}
	link.OnConnect(p.announceOnline)
	return p
}

// Counters returns a copy of the publish counters.
func (p *Publisher) Counters() Counters {
	return p.n.snapshot()
}

// Link returns the managed link, for status reporting.
func (p *Publisher) Link() *Link {
	return p.link
}

// Run drives both the publish timer and the link maintenance loop until ctx
// is cancelled. It never returns a non-nil error: telemetry failures are
// recoverable and must not take down the simulation.
func (p *Publisher) Run(ctx context.Context) error {
	go p.link.Maintain(ctx, p.clock, p.cfg.Backoff)

	ticker := p.clock.NewTicker(p.cfg.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			p.publishCycle()
		}
	}
}

// publishCycle sends one frame as three self-contained payloads. Partial
// delivery is acceptable; a transport fault ends the cycle and the link
// recovery takes it from there.
func (p *Publisher) publishCycle() {
	if p.link.State() != Connected {
		// Counted no-op: the simulation must never stall on a lost link.
		p.n.skipped.Add(1)
		return
	}

	sample, ok := p.source()
	if !ok {
		return
	}
	frame := NewFrame(sample, p.clock.Now())

	type payload struct {
		topic    string
		retained bool
		encode   func() ([]byte, error)
	}
	cycle := []payload{
		{p.cfg.Topics.Location, false, func() ([]byte, error) { return frame.MarshalLocation(p.cfg.Origin) }},
		{p.cfg.Topics.Speed, false, frame.MarshalSpeed},
		// Retained so a late subscriber immediately learns the last state.
		{p.cfg.Topics.State, true, frame.MarshalState},
	}

	for _, pl := range cycle {
		data, err := pl.encode()
		if err != nil {
			p.n.encoding.Add(1)
			monitoring.Logf("telemetry: encode %s failed, cycle skipped: %v", pl.topic, err)
			return
		}
		switch err := p.link.Publish(pl.topic, pl.retained, data); {
		case err == nil:
			p.n.published.Add(1)
		case errors.Is(err, ErrBufferFull):
			// Best-effort semantics: drop this cycle's remaining payloads.
			p.n.dropped.Add(1)
			return
		case errors.Is(err, ErrNotConnected):
			p.n.skipped.Add(1)
			return
		default:
			p.n.faults.Add(1)
			return
		}
	}
}

// announceOnline publishes the retained-free online announcement after each
// successful connect; the broker's will covers the offline side.
func (p *Publisher) announceOnline() {
	data, err := MarshalStatus("online", p.clock.Now())
	if err != nil {
		p.n.encoding.Add(1)
		return
	}
	if err := p.link.Publish(p.cfg.Topics.Status, false, data); err != nil {
		monitoring.Logf("telemetry: online announcement failed: %v", err)
	}
}
