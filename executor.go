package pull

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// errgroupExecutor adapts golang.org/x/sync/errgroup's goroutine group
// to the Executor capability interruptibleEval needs: "can schedule a
// task", nothing more. An interruptible scope whose ExecArgs carry no
// Executor runs its effect, in the race against its interrupt promise,
// through DefaultExecutor, which is one of these.
type errgroupExecutor struct {
	g *errgroup.Group
}

// NewErrgroupExecutor returns an Executor backed by an errgroup.Group
// derived from ctx. Tasks are not handed the group's context: cancelling
// ctx does not stop a task already scheduled, and every task runs to
// completion.
func NewErrgroupExecutor(ctx context.Context) Executor {
	g, _ := errgroup.WithContext(ctx)
	return &errgroupExecutor{g: g}
}

func (e *errgroupExecutor) Go(task func()) {
	e.g.Go(func() error {
		task()
		return nil
	})
}

var (
	defaultExecutorOnce sync.Once
	defaultExecutorInst Executor
)

// DefaultExecutor returns a process-wide errgroup-backed Executor for
// callers that don't supply their own via ExecArgs — convenient for
// tests and for Acquire/Eval sites that don't otherwise need an
// executor of their own.
func DefaultExecutor() Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutorInst = NewErrgroupExecutor(context.Background())
	})
	return defaultExecutorInst
}
