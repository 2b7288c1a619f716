package core

import (
	"context"
	"sync"
)

// CancellationHandlers observe what a locomotive leaves behind when ctx ends:
// the input it never took (OnCancel), an input it took but never ran
// (OnCancelUnprocessed) and a finished result nobody will receive
// (OnCancelProcessed).
type CancellationHandlers[In, Out any] struct {
	OnCancel            func(ctx context.Context, inputCh <-chan In)
	OnCancelUnprocessed func(ctx context.Context, unprocessed In)
	OnCancelProcessed   func(ctx context.Context, in In, processed Out)
}

// Locomotive is one worker: it pulls inputs off the shared inputCh, runs the
// engine for each and pushes what the engine yields onto the shared outCh, in
// whatever order the engines finish. An engine that closes without a value
// means its input was abandoned and the locomotive stops.
func Locomotive[In, Out any](ctx context.Context, inputCh <-chan In, outCh chan<- Out,
	engine func(ctx context.Context, input In) <-chan Out,
	handlers CancellationHandlers[In, Out], wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			if handlers.OnCancel != nil {
				handlers.OnCancel(ctx, inputCh)
			}
			return
		case in, ok := <-inputCh:
			if !ok {
				return
			}

			if ctx.Err() != nil {
				if handlers.OnCancelUnprocessed != nil {
					handlers.OnCancelUnprocessed(ctx, in)
				}
				if handlers.OnCancel != nil {
					handlers.OnCancel(ctx, inputCh)
				}
				return
			}

			pr, running := <-engine(ctx, in)
			if !running {
				if handlers.OnCancelUnprocessed != nil {
					handlers.OnCancelUnprocessed(ctx, in)
				}
				return
			}

			select {
			case <-ctx.Done():
				if handlers.OnCancelProcessed != nil {
					handlers.OnCancelProcessed(ctx, in, pr)
				}
				if handlers.OnCancel != nil {
					handlers.OnCancel(ctx, inputCh)
				}
				return
			case outCh <- pr:
			}
		}
	}
}
