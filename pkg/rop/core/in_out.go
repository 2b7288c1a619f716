package core

import (
	"context"
)

// ToChanHandlers observe the feeder: OnBreak receives the values that were
// never handed to a worker because ctx ended first.
type ToChanHandlers[T any] struct {
	OnStartFail func(ctx context.Context, input []T)
	OnBreak     func(ctx context.Context, rest []T)
}

func ToChanFromArgs[T any](ctx context.Context, handlers ToChanHandlers[T], values ...T) <-chan T {
	in := make(chan T)

	go func() {
		defer close(in)

		if ctx.Err() != nil {
			if handlers.OnStartFail != nil {
				handlers.OnStartFail(ctx, values)
			}
			return
		}

		for i, v := range values {
			select {
			case in <- v:
			case <-ctx.Done():
				if handlers.OnBreak != nil {
					handlers.OnBreak(ctx, values[i:])
				}
				return
			}
		}
	}()

	return in
}

func ToChanMany[T any](ctx context.Context, values []T) <-chan T {
	return ToChanFromArgs[T](ctx, ToChanHandlers[T]{}, values...)
}

func ToChanManyWithHandlers[T any](ctx context.Context, handlers ToChanHandlers[T], values []T) <-chan T {
	return ToChanFromArgs[T](ctx, handlers, values...)
}

// FromChanMany collects out until it closes or ctx ends.
func FromChanMany[T any](ctx context.Context, out <-chan T) []T {
	res := make([]T, 0)
	for {
		select {
		case v, ok := <-out:
			if !ok {
				return res
			}
			res = append(res, v)
		case <-ctx.Done():
			go Drain(out)
			return res
		}
	}
}

// Drain discards everything left on ch in the background so producers
// blocked on it can finish. Use it when a consumer stops early.
func Drain[T any](ch <-chan T) {
	for range ch {
	}
}
