package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartspeed/speedguard/internal/monitoring"
	"github.com/smartspeed/speedguard/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

type fakeMsg struct {
	topic    string
	retained bool
	payload  string
}

// fakeTransport records calls and fails on demand.
type fakeTransport struct {
	mu          sync.Mutex
	connectErr  error
	publishErr  error
	connects    int
	disconnects int
	published   []fakeMsg
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeTransport) Publish(topic string, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, fakeMsg{topic, retained, string(payload)})
	return nil
}

func (f *fakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeTransport) setConnectErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErr = err
}

func (f *fakeTransport) setPublishErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishErr = err
}

func (f *fakeTransport) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeTransport) messages() []fakeMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeMsg(nil), f.published...)
}

func TestLinkConnectLifecycle(t *testing.T) {
	ft := &fakeTransport{}
	link := NewLink(ft)

	require.Equal(t, Disconnected, link.State())
	require.NoError(t, link.Connect(context.Background()))
	require.Equal(t, Connected, link.State())
}

func TestLinkConnectWhileConnectedIsNoOp(t *testing.T) {
	ft := &fakeTransport{}
	link := NewLink(ft)

	require.NoError(t, link.Connect(context.Background()))
	first := ft.connectCount()
	require.NoError(t, link.Connect(context.Background()))
	require.Equal(t, first, ft.connectCount(), "reconnect while connected must not redial")
}

func TestLinkConnectFailureReturnsToDisconnected(t *testing.T) {
	ft := &fakeTransport{connectErr: errors.New("broker unreachable")}
	link := NewLink(ft)

	require.Error(t, link.Connect(context.Background()))
	require.Equal(t, Disconnected, link.State())
}

func TestLinkTearsDownBeforeRedial(t *testing.T) {
	ft := &fakeTransport{}
	link := NewLink(ft)

	require.NoError(t, link.Connect(context.Background()))
	link.Fault(errors.New("reset by peer"))
	require.Equal(t, Disconnected, link.State())

	before := ft.disconnects
	require.NoError(t, link.Connect(context.Background()))
	ft.mu.Lock()
	after := ft.disconnects
	ft.mu.Unlock()
	require.Greater(t, after, before, "a session must be torn down before a new one is dialed")
	require.Equal(t, Connected, link.State())
}

func TestLinkPublishWhileDisconnected(t *testing.T) {
	link := NewLink(&fakeTransport{})
	err := link.Publish("t", false, []byte("x"))
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestLinkPublishFaultDisconnects(t *testing.T) {
	ft := &fakeTransport{}
	link := NewLink(ft)
	require.NoError(t, link.Connect(context.Background()))

	ft.setPublishErr(errors.New("connection reset"))
	err := link.Publish("t", false, []byte("x"))
	require.Error(t, err)
	require.Equal(t, Disconnected, link.State(), "transport fault must drive the link down")
}

func TestLinkBufferFullDoesNotDisconnect(t *testing.T) {
	ft := &fakeTransport{}
	link := NewLink(ft)
	require.NoError(t, link.Connect(context.Background()))

	ft.setPublishErr(ErrBufferFull)
	err := link.Publish("t", false, []byte("x"))
	require.ErrorIs(t, err, ErrBufferFull)
	require.Equal(t, Connected, link.State(), "a full buffer is backpressure, not a link fault")
}

func TestLinkMaintainReconnects(t *testing.T) {
	ft := &fakeTransport{connectErr: errors.New("down")}
	link := NewLink(ft)
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		link.Maintain(ctx, clock, 5*time.Second)
	}()

	// Immediate attempt fails.
	require.Eventually(t, func() bool { return ft.connectCount() >= 1 }, time.Second, time.Millisecond)
	require.Equal(t, Disconnected, link.State())

	// Broker comes back; the next backoff tick recovers the link.
	ft.setConnectErr(nil)
	require.Eventually(t, func() bool {
		clock.Advance(5 * time.Second)
		return link.State() == Connected
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Maintain did not stop on cancellation")
	}
	require.Equal(t, Disconnected, link.State(), "shutdown must release the link")
}
