package solo

import (
	"context"

	"github.com/ib-77/seqflow/pkg/rop"
)

func Succeed[T any](input T) rop.Result[T] {
	return rop.Success(input)
}

func Fail[T any](err error) rop.Result[T] {
	return rop.Fail[T](err)
}

func Cancel[T any](err error) rop.Result[T] {
	return rop.Cancel[T](err)
}

// Check fails input with the error check returns, keeping the error's
// identity for errors.Is and errors.As.
func Check[T any](ctx context.Context, input rop.Result[T],
	check func(ctx context.Context, in T) error) rop.Result[T] {

	if input.IsSuccess() {
		if err := check(ctx, input.Result()); err != nil {
			return rop.Fail[T](err)
		}
	}
	return input
}

func Map[In any, Out any](ctx context.Context,
	input rop.Result[In],
	onSuccess func(ctx context.Context, r In) Out) rop.Result[Out] {

	if input.IsSuccess() {
		return rop.Success(onSuccess(ctx, input.Result()))
	}
	return rop.CancelFrom[In, Out](input)
}

func Try[In any, Out any](ctx context.Context, input rop.Result[In],
	onTryExecute func(ctx context.Context, r In) (Out, error)) rop.Result[Out] {

	if input.IsSuccess() {
		out, err := onTryExecute(ctx, input.Result())
		if err != nil {
			return rop.Fail[Out](err)
		}

		return rop.Success(out)
	}
	return rop.CancelFrom[In, Out](input)
}

// TryRecover is Try that also turns a panic inside onTryExecute into a
// failure carrying *rop.PanicError, so one bad input cannot take down the
// goroutine running it.
func TryRecover[In any, Out any](ctx context.Context, input rop.Result[In],
	onTryExecute func(ctx context.Context, r In) (Out, error)) (res rop.Result[Out]) {

	defer func() {
		if v := recover(); v != nil {
			res = rop.Fail[Out](&rop.PanicError{Value: v})
		}
	}()

	return Try(ctx, input, onTryExecute)
}

func Finally[In, Out any](ctx context.Context, input rop.Result[In],
	onSuccess func(ctx context.Context, r In) Out,
	onError func(ctx context.Context, err error) Out,
	onCancel func(ctx context.Context, err error) Out) Out {

	if input.IsSuccess() {
		return onSuccess(ctx, input.Result())
	} else if input.IsCancel() {
		return onCancel(ctx, input.Err())
	} else {
		return onError(ctx, input.Err())
	}
}
