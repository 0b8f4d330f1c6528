package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStepRunsPriorityLevelsInOrder(t *testing.T) {
	var order []int
	record := func(lv int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			require.Equal(t, lv, cc.PriorityLevel())
			order = append(order, lv)
			return nil
		})
	}
	l := NewLoop()
	l.AddController(PrLvPostProc, record(PrLvPostProc))
	l.AddController(PrLvSense, record(PrLvSense))
	l.AddController(PrLvFlush, record(PrLvFlush))
	l.AddController(PrLvControl, record(PrLvControl), ControlFunc(func(ControlContext) error {
		return errors.New("ignored")
	}))
	l.Step(context.Background())
	require.Equal(t, []int{PrLvSense, PrLvControl, PrLvFlush, PrLvPostProc}, order)
	require.Equal(t, uint64(1), l.Cycles())
}

func TestMessagesConsumedOnce(t *testing.T) {
	l := NewLoop()
	var got []Message
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(func(msg Message) bool {
			if s, ok := msg.(string); ok {
				got = append(got, s)
				return true
			}
			return false
		})
		return nil
	}))
	var leftover int
	l.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(func(Message) bool {
			leftover++
			return false
		})
		return nil
	}))

	l.PostMessage("a")
	l.PostMessage(1)
	l.PostMessage("b")
	l.Step(context.Background())
	require.Equal(t, []Message{"a", "b"}, got)
	require.Equal(t, 1, leftover)

	l.Step(context.Background())
	require.Len(t, got, 2)
	require.Equal(t, 1, leftover)
}

func TestCycleContext(t *testing.T) {
	l := NewLoop()
	var cycles []uint64
	var elapsed []time.Duration
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cycles = append(cycles, cc.Cycle())
		elapsed = append(elapsed, cc.Elapsed())
		if cc.Cycle() == 1 {
			cc.PostMessage("next")
		}
		return nil
	}))
	l.Step(context.Background())
	time.Sleep(time.Millisecond)
	l.Step(context.Background())
	require.Equal(t, []uint64{1, 2}, cycles)
	require.Zero(t, elapsed[0])
	require.True(t, elapsed[1] > 0)
}

func TestRunTriggerNext(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		if cc.Cycle() < 3 {
			cc.TriggerNext()
		} else {
			close(done)
		}
		return nil
	}))
	l.TriggerNext()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not cycle")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

type fakeRunnable struct {
	err error
}

func (r *fakeRunnable) Run(ctx context.Context) error {
	if r.err != nil {
		return r.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerAggregatesErrors(t *testing.T) {
	err := NewRunner().Go(
		&fakeRunnable{err: errors.New("a")},
		NamedRun("b", &fakeRunnable{err: errors.New("b")}),
	).Wait()
	var agg *AggregatedError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 2)

	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunnerWith(ctx).Go(&fakeRunnable{})
	cancel()
	require.NoError(t, runner.Wait())

	var one AggregatedError
	require.EqualError(t, one.Add(nil, errors.New("x")).Aggregate(), "x")
	require.NoError(t, (&AggregatedError{}).Aggregate())
}

func TestLoopCtlFrom(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan LoopControl, 1)
	l.AddRunnable(runFunc(func(ctx context.Context) error {
		got <- LoopCtlFrom(ctx)
		return nil
	}))
	go l.Run(ctx)
	require.Equal(t, LoopControl(l), <-got)
	cancel()
}

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }
