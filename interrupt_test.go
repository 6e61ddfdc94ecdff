package pull

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestInterruptibleEval_EffectWinsReturnsNormally(t *testing.T) {
	root := NewRootScope()
	child, err := root.Open(&ExecArgs{Executor: DefaultExecutor()})
	require.NoError(t, err)

	v, err := InterruptibleEval(child, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestInterruptibleEval_InterruptWinsReturnsCause(t *testing.T) {
	root := NewRootScope()
	child, err := root.Open(&ExecArgs{Executor: DefaultExecutor()})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})

	resultCh := make(chan error, 1)
	go func() {
		_, err := InterruptibleEval(child, func() (int, error) {
			close(started)
			<-release
			return 0, nil
		})
		resultCh <- err
	}()

	<-started
	require.NoError(t, child.Interrupt(nil))

	select {
	case err := <-resultCh:
		require.Error(t, err)
		var ie *InterruptedError
		require.ErrorAs(t, err, &ie)
	case <-time.After(2 * time.Second):
		t.Fatal("interruptibleEval did not observe the interrupt in time")
	}
	close(release)
}

func TestInterruptContext_SignalIsIdempotent(t *testing.T) {
	ic := NewInterruptContext(DefaultExecutor(), NewToken())
	first := errors.New("first")
	second := errors.New("second")

	ic.Signal(first)
	ic.Signal(second)

	cause, ok := ic.Consume()
	require.True(t, ok)
	require.Equal(t, first, cause)

	_, ok = ic.Consume()
	require.False(t, ok, "a second Consume must not re-deliver the same interrupt")
}

func TestInterrupt_ConcurrentInterruptersOnlyOneWins(t *testing.T) {
	root := NewRootScope()
	child, err := root.Open(&ExecArgs{Executor: DefaultExecutor()})
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			return child.Interrupt(nil)
		})
	}
	require.NoError(t, g.Wait())

	cause := child.ShallInterrupt()
	require.NotNil(t, cause)
	require.Nil(t, child.ShallInterrupt())
}

// TestInterrupt_DepthCapStopsUnwindLoop models a handler that keeps
// re-observing its own scope's interrupt (by feeding the same
// InterruptedError back through an Eval step) and checks the
// interpreter fails hard instead of looping forever once
// MaxInterruptDepth is reached.
func TestInterrupt_DepthCapStopsUnwindLoop(t *testing.T) {
	root := NewRootScope()
	child, err := root.Open(&ExecArgs{Executor: DefaultExecutor()})
	require.NoError(t, err)
	child.interrupt.MaxInterruptDepth = 3

	require.NoError(t, child.Interrupt(nil))

	var lastErr error
	var k func(Result) Term
	k = func(r Result) Term {
		if r.Err == nil {
			return Pure(nil)
		}
		lastErr = r.Err
		return Bind(Eval(func() (any, error) { return nil, lastErr }), k)
	}
	term := Bind(Eval(func() (any, error) { return nil, nil }), k)

	_, foldErr := Fold(child, term, nil, func(acc, _ any) any { return acc })
	require.Error(t, foldErr)
	var ie *InterruptedError
	require.ErrorAs(t, foldErr, &ie)
	require.GreaterOrEqual(t, ie.Loop, 3)
}
