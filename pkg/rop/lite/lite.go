package lite

import (
	"context"
	"sync"
	"time"

	"github.com/ib-77/seqflow/pkg/rop"
	"github.com/ib-77/seqflow/pkg/rop/core"
	"github.com/ib-77/seqflow/pkg/rop/mass"
)

// Turnout starts lines locomotives over inputCh and merges what they produce
// into one channel, in completion order. The channel closes once every
// locomotive has stopped.
func Turnout[In, Out any](ctx context.Context, inputCh <-chan In,
	engine func(ctx context.Context, input In) <-chan Out,
	lines int, handlers core.CancellationHandlers[In, Out]) <-chan Out {

	out := make(chan Out)
	wg := &sync.WaitGroup{}

	if lines < 1 {
		lines = 1
	}

	for i := 0; i < lines; i++ {
		wg.Add(1)
		go core.Locomotive(ctx, inputCh, out, engine, handlers, wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Settle lifts onTryExecute into an engine for Turnout.
func Settle[In, Out any](onTryExecute func(ctx context.Context, r In) (Out, error),
	timeout time.Duration) func(ctx context.Context, input In) <-chan rop.Settled[In, Out] {
	return func(ctx context.Context, input In) <-chan rop.Settled[In, Out] {
		return mass.Settling(ctx, input, onTryExecute, timeout, nil)
	}
}
