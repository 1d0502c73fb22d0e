package component

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/alertflow/errors"
)

type fakeComponent struct {
	name    string
	initErr error
	startFn func(ctx context.Context) error

	state   atomic.Int32
	stopped chan struct{}
}

func newFakeComponent(name string) *fakeComponent {
	return &fakeComponent{name: name, stopped: make(chan struct{})}
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Initialize(context.Context) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.state.Store(int32(StateInitialized))
	return nil
}

func (f *fakeComponent) Start(ctx context.Context) error {
	f.state.Store(int32(StateRunning))
	if f.startFn != nil {
		return f.startFn(ctx)
	}
	select {
	case <-ctx.Done():
	case <-f.stopped:
	}
	return nil
}

func (f *fakeComponent) Stop(time.Duration) error {
	select {
	case <-f.stopped:
	default:
		close(f.stopped)
	}
	f.state.Store(int32(StateStopped))
	return nil
}

func (f *fakeComponent) State() State { return State(f.state.Load()) }

func TestManagerStartStop(t *testing.T) {
	m := NewManager()
	a := newFakeComponent("a")
	b := newFakeComponent("b")
	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, StateRunning, a.State())
	assert.Equal(t, StateRunning, b.State())

	require.NoError(t, m.Stop(time.Second))
	assert.Equal(t, StateStopped, a.State())
	assert.Equal(t, StateStopped, b.State())
}

func TestManagerDoubleStart(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(newFakeComponent("a")))
	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop(time.Second) }()

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyStarted))
}

func TestManagerRegisterAfterStart(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(newFakeComponent("a")))
	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop(time.Second) }()

	err := m.Register(newFakeComponent("late"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyStarted))
}

func TestManagerInitFailureAborts(t *testing.T) {
	m := NewManager()
	bad := newFakeComponent("bad")
	bad.initErr = stderrors.New("no resources")
	require.NoError(t, m.Register(bad))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	err = m.Stop(time.Second)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotStarted))
}

func TestManagerSurfacesRunFailure(t *testing.T) {
	m := NewManager()
	failing := newFakeComponent("failing")
	failing.startFn = func(context.Context) error {
		return stderrors.New("crashed")
	}
	require.NoError(t, m.Register(failing))
	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop(time.Second) }()

	select {
	case err := <-m.Errors():
		assert.Contains(t, err.Error(), "failing")
	case <-time.After(time.Second):
		t.Fatal("expected a component failure")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "unknown", State(99).String())
}
