package telemetry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smartspeed/speedguard/internal/monitoring"
	"github.com/smartspeed/speedguard/internal/timeutil"
)

// LinkState is the lifecycle of the broker connection.
type LinkState int32

const (
	Disconnected LinkState = iota
	Connecting
	Connected
)

func (s LinkState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// ErrBufferFull reports that the transport could not take the payload without
// blocking. The publisher drops the cycle rather than queue unboundedly.
var ErrBufferFull = errors.New("transport send buffer full")

// ErrNotConnected reports a publish attempt while the link is down.
var ErrNotConnected = errors.New("link not connected")

// Transport is the narrow broker interface the link manages. The real
// implementation wraps an MQTT client; tests substitute a fake.
type Transport interface {
	// Connect dials the broker, establishing a fresh session.
	Connect(ctx context.Context) error
	// Publish sends one payload. It must not block indefinitely; a full send
	// buffer surfaces as ErrBufferFull.
	Publish(topic string, retained bool, payload []byte) error
	// Disconnect tears the session down. Safe to call in any state.
	Disconnect()
}

// Link owns the connection lifecycle: Disconnected -> Connecting -> Connected,
// back to Disconnected on any transport fault. It is the only component that
// touches the transport's session state.
type Link struct {
	transport Transport
	state     atomic.Int32

	// connectMu serialises dial attempts so a session is always fully torn
	// down before a new one is established.
	connectMu sync.Mutex

	onConnect func()
}

// NewLink wraps a transport in a lifecycle manager, starting Disconnected.
func NewLink(t Transport) *Link {
	return &Link{transport: t}
}

// OnConnect registers a callback invoked after each successful (re)connect,
// e.g. to announce online status. Must be set before Maintain starts.
func (l *Link) OnConnect(fn func()) {
	l.onConnect = fn
}

// State returns the current lifecycle state.
func (l *Link) State() LinkState {
	return LinkState(l.state.Load())
}

// Connect dials the broker. A call while already Connected is a no-op.
func (l *Link) Connect(ctx context.Context) error {
	l.connectMu.Lock()
	defer l.connectMu.Unlock()

	if l.State() == Connected {
		return nil
	}

	// Full teardown before a new session: no dual-session states.
	l.transport.Disconnect()
	l.state.Store(int32(Connecting))

	if err := l.transport.Connect(ctx); err != nil {
		l.state.Store(int32(Disconnected))
		return err
	}
	l.state.Store(int32(Connected))
	if l.onConnect != nil {
		l.onConnect()
	}
	return nil
}

// Publish sends one payload if the link is up. Any transport fault other than
// a full buffer drives the link back to Disconnected.
func (l *Link) Publish(topic string, retained bool, payload []byte) error {
	if l.State() != Connected {
		return ErrNotConnected
	}
	err := l.transport.Publish(topic, retained, payload)
	if err != nil && !errors.Is(err, ErrBufferFull) {
		l.Fault(err)
	}
	return err
}

// Fault records a transport-level failure: the session is torn down and the
// link returns to Disconnected until the maintenance loop redials.
func (l *Link) Fault(err error) {
	if l.state.CompareAndSwap(int32(Connected), int32(Disconnected)) {
		monitoring.Logf("telemetry: link fault, reconnect pending: %v", err)
		l.transport.Disconnect()
	}
}

// Close tears the link down for good.
func (l *Link) Close() {
	l.state.Store(int32(Disconnected))
	l.transport.Disconnect()
}

// Maintain runs the reconnect loop: an immediate dial attempt, then one per
// backoff period while Disconnected, until ctx is cancelled. Attempts while
// Connected are no-ops. Never returns an error to the caller; link failures
// are recoverable by design.
func (l *Link) Maintain(ctx context.Context, clock timeutil.Clock, backoff time.Duration) {
	attempt := func() {
		if l.State() == Connected {
			return
		}
		if err := l.Connect(ctx); err != nil {
			monitoring.Logf("telemetry: connect failed, retrying in %v: %v", backoff, err)
		} else {
			monitoring.Logf("telemetry: link connected")
		}
	}

	attempt()
	ticker := clock.NewTicker(backoff)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-ticker.C():
			attempt()
		}
	}
}
