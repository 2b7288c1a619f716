package core

import (
	"context"
	"time"
)

type OptionKey string

const (
	WorkerOptionKey OptionKey = "worker_options"
	ItemOptionKey   OptionKey = "item_options"
)

type MaxLimitOption struct {
	Value int
}

type WorkerOptions struct {
	MaxCount MaxLimitOption
}

// ItemOptions apply to every single unit of work run by a worker.
type ItemOptions struct {
	Timeout time.Duration
}

func WithWorkerOptions(ctx context.Context, maxWorkers int) context.Context {
	return context.WithValue(ctx, WorkerOptionKey, WorkerOptions{MaxLimitOption{Value: maxWorkers}})
}

// GetWorkerMaxCount never returns less than one worker.
func GetWorkerMaxCount(ctx context.Context, defaultMaxWorkers int) int {
	n := defaultMaxWorkers
	if options, ok := ctx.Value(WorkerOptionKey).(WorkerOptions); ok {
		n = options.MaxCount.Value
	}
	if n < 1 {
		return 1
	}
	return n
}

func WithItemTimeout(ctx context.Context, timeout time.Duration) context.Context {
	return context.WithValue(ctx, ItemOptionKey, ItemOptions{Timeout: timeout})
}

// GetItemTimeout returns the per-item deadline; zero or negative means none.
func GetItemTimeout(ctx context.Context, defaultTimeout time.Duration) time.Duration {
	t := defaultTimeout
	if options, ok := ctx.Value(ItemOptionKey).(ItemOptions); ok {
		t = options.Timeout
	}
	if t < 0 {
		return 0
	}
	return t
}
