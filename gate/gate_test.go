package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tflitebridge/tflite/engine"
	"github.com/tflitebridge/tflite/engine/enginetest"
	"github.com/tflitebridge/tflite/tensor"
)

func newFake() *enginetest.Engine {
	return enginetest.New(
		tensor.Spec{Shape: []int{1, 1}, Type: tensor.Uint8},
		tensor.Spec{Shape: []int{1, 1}, Type: tensor.Uint8},
	)
}

func newGate(t *testing.T) (*Gate, *enginetest.Engine) {
	t.Helper()
	eng := newFake()
	g := New(eng)
	t.Cleanup(func() { g.Close() })
	return g, eng
}

func constant(v int) func(engine.Engine) (int, error) {
	return func(engine.Engine) (int, error) { return v, nil }
}

func TestSyncRunsInline(t *testing.T) {
	g, _ := newGate(t)

	var calls int
	var busyInSink bool
	f, err := Submit(g, Sync, constant(7), func(v int, err error) {
		calls++
		busyInSink = g.Busy()
		require.NoError(t, err)
		require.Equal(t, 7, v)
	})
	require.NoError(t, err)

	// Sync: Ergebnis liegt vor wenn Submit zurueckkehrt
	v, err := f.Result()
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, 1, calls)
	require.False(t, busyInSink, "Gate muss vor dem Sink frei sein")
	require.False(t, g.Busy())
}

func TestAsyncRunsOnWorker(t *testing.T) {
	g, _ := newGate(t)

	sunk := make(chan int, 1)
	var busyInSink atomic.Bool
	f, err := Submit(g, Async, constant(3), func(v int, err error) {
		busyInSink.Store(g.Busy())
		sunk <- v
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v, err := f.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, v)
	require.Equal(t, 3, <-sunk)
	require.False(t, busyInSink.Load(), "Gate muss vor dem Sink frei sein")
}

func TestBusyRejectsWithoutSink(t *testing.T) {
	g, _ := newGate(t)

	started := make(chan struct{})
	unblock := make(chan struct{})
	f, err := Submit(g, Async, func(engine.Engine) (int, error) {
		close(started)
		<-unblock
		return 1, nil
	}, nil)
	require.NoError(t, err)
	<-started
	require.True(t, g.Busy())

	var sinkCalled atomic.Bool
	_, err = Submit(g, Sync, constant(2), func(int, error) { sinkCalled.Store(true) })
	require.ErrorIs(t, err, ErrBusy)
	require.EqualError(t, err, "interpreter busy")

	require.ErrorIs(t, g.Replace(newFake()), ErrBusy)

	close(unblock)
	_, err = f.Wait(context.Background())
	require.NoError(t, err)
	require.False(t, sinkCalled.Load())

	// nach der Freigabe wird wieder zugelassen
	_, err = Submit(g, Sync, constant(2), nil)
	require.NoError(t, err)

	st := g.Stats()
	require.Equal(t, Stats{Admitted: 2, Rejected: 1, Completed: 2}, st)
}

func TestConcurrentAdmission(t *testing.T) {
	g, _ := newGate(t)

	const attempts = 50
	unblock := make(chan struct{})
	var (
		wg       sync.WaitGroup
		busy     atomic.Int32
		admitted atomic.Int32
		sinks    atomic.Int32
		futures  = make(chan *Future[int], attempts)
	)

	task := func(engine.Engine) (int, error) {
		<-unblock
		return 0, nil
	}

	start := make(chan struct{})
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			f, err := Submit(g, Async, task, func(int, error) { sinks.Add(1) })
			switch {
			case errors.Is(err, ErrBusy):
				busy.Add(1)
			case err == nil:
				admitted.Add(1)
				futures <- f
			default:
				t.Errorf("Submit() error = %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()
	close(unblock)

	require.Equal(t, int32(1), admitted.Load())
	require.Equal(t, int32(attempts-1), busy.Load())

	_, err := (<-futures).Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), sinks.Load())
}

func TestPanicReleasesGate(t *testing.T) {
	g, _ := newGate(t)

	var sinkErr error
	_, err := Submit(g, Sync, func(engine.Engine) (int, error) {
		panic("decoder exploded")
	}, func(_ int, err error) { sinkErr = err })
	require.NoError(t, err)
	require.ErrorIs(t, sinkErr, ErrTaskPanic)
	require.False(t, g.Busy())

	_, err = Submit(g, Sync, constant(1), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), g.Stats().Failed)
}

func TestTaskErrorReachesSink(t *testing.T) {
	g, _ := newGate(t)
	boom := errors.New("boom")

	var got []error
	f, err := Submit(g, Async, func(engine.Engine) (int, error) { return 0, boom }, func(_ int, err error) { got = append(got, err) })
	require.NoError(t, err)

	_, err = f.Wait(context.Background())
	require.ErrorIs(t, err, boom)
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0], boom)
}

func TestSinkPanicDoesNotKillWorker(t *testing.T) {
	g, _ := newGate(t)

	f, err := Submit(g, Async, constant(1), func(int, error) { panic("sink") })
	require.NoError(t, err)
	_, err = f.Wait(context.Background())
	require.NoError(t, err)

	f, err = Submit(g, Async, constant(2), nil)
	require.NoError(t, err)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestNoEngine(t *testing.T) {
	g := New(nil)
	defer g.Close()

	require.False(t, g.Loaded())
	_, err := Submit(g, Sync, constant(1), nil)
	require.ErrorIs(t, err, ErrNoEngine)
	require.False(t, g.Busy())
}

func TestReplaceClosesOldEngine(t *testing.T) {
	g, old := newGate(t)
	next := newFake()

	require.NoError(t, g.Replace(next))
	require.True(t, old.Closed())
	require.False(t, next.Closed())

	var used engine.Engine
	_, err := Submit(g, Sync, func(e engine.Engine) (int, error) {
		used = e
		return 0, nil
	}, nil)
	require.NoError(t, err)
	require.Same(t, next, used)
}

func TestCloseWaitsAndClosesEngine(t *testing.T) {
	eng := newFake()
	g := New(eng)

	started := make(chan struct{})
	unblock := make(chan struct{})
	f, err := Submit(g, Async, func(engine.Engine) (int, error) {
		close(started)
		<-unblock
		return 5, nil
	}, nil)
	require.NoError(t, err)
	<-started

	closed := make(chan error, 1)
	go func() { closed <- g.Close() }()

	select {
	case <-closed:
		t.Fatal("Close() darf nicht vor dem Ende der Anfrage zurueckkehren")
	case <-time.After(50 * time.Millisecond):
	}

	close(unblock)
	require.NoError(t, <-closed)
	require.True(t, eng.Closed())

	v, err := f.Result()
	require.NoError(t, err)
	require.Equal(t, 5, v)

	_, err = Submit(g, Sync, constant(1), nil)
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, g.Close())
}

func TestWaitHonorsContext(t *testing.T) {
	g, _ := newGate(t)

	unblock := make(chan struct{})
	f, err := Submit(g, Async, func(engine.Engine) (int, error) {
		<-unblock
		return 1, nil
	}, nil)
	require.NoError(t, err)

	_, err = f.Result()
	require.ErrorIs(t, err, ErrPending)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(unblock)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestModeOf(t *testing.T) {
	require.Equal(t, Async, ModeOf(true))
	require.Equal(t, Sync, ModeOf(false))
	require.Equal(t, "async", Async.String())
}
