package mass

import (
	"context"
	"fmt"
	"time"

	"github.com/ib-77/seqflow/pkg/rop"
	"github.com/ib-77/seqflow/pkg/rop/solo"
)

// Settling runs onTryExecute for one input in its own goroutine and yields
// exactly one Settled value, unless ctx ends first, in which case the channel
// closes empty and the running call is abandoned. Errors and panics become a
// failed Result; a positive timeout that expires first becomes a cancelled
// Result wrapping rop.ErrItemTimeout. The call itself is never interrupted:
// it only sees its context being cancelled.
func Settling[In, Out any](ctx context.Context, input In,
	onTryExecute func(ctx context.Context, in In) (Out, error),
	timeout time.Duration,
	onCancel func(ctx context.Context, in In)) <-chan rop.Settled[In, Out] {

	// buffered so an abandoned call can still deliver and exit
	ch := make(chan rop.Result[Out], 1)
	out := make(chan rop.Settled[In, Out], 1)

	itemCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		itemCtx, cancel = context.WithTimeout(ctx, timeout)
	}

	go func() {
		defer close(ch)

		if itemCtx.Err() == nil {
			ch <- solo.TryRecover(itemCtx, solo.Succeed(input), onTryExecute)
		}
	}()

	go func() {
		defer close(out)
		defer cancel()

		select {
		case pr, ok := <-ch:
			if ok {
				out <- rop.Settled[In, Out]{Input: input, Result: pr}
				return
			}
		case <-itemCtx.Done():
		}

		if ctx.Err() != nil {
			if onCancel != nil {
				onCancel(ctx, input)
			}
			return
		}
		out <- rop.Settled[In, Out]{
			Input:  input,
			Result: rop.Cancel[Out](fmt.Errorf("%w after %s: %w", rop.ErrItemTimeout, timeout, itemCtx.Err())),
		}
	}()

	return out
}
