// Package dispatch fans records out to a bounded pool of workers running an
// Item Processor, and streams (record, outcome) pairs back as each one
// finishes.
//
// One item's failure, panic or deadline never reaches another item: every
// task settles into its own rop.Result and the worker moves on.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ib-77/seqflow/pkg/processor"
	"github.com/ib-77/seqflow/pkg/rop"
	"github.com/ib-77/seqflow/pkg/rop/core"
	"github.com/ib-77/seqflow/pkg/rop/lite"
	"github.com/ib-77/seqflow/pkg/table"
)

const (
	DefaultWorkers  = 4
	DefaultKeyField = "sequence"
)

// Task is one record scheduled for processing.
type Task struct {
	// Index is the record's position in the source
	Index  int
	Key    string
	Record table.Record
}

// Completion is a finished task and its outcome: success with the payload,
// failure with the error, or cancel when the per-item deadline expired.
type Completion = rop.Settled[Task, processor.Payload]

type Dispatcher struct {
	workers     int
	itemTimeout time.Duration
	keyField    string
	logger      *slog.Logger
}

type Option func(*Dispatcher)

// WithWorkers caps concurrently running tasks; values below one mean one.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) { d.workers = n }
}

// WithItemTimeout gives every task its own deadline; zero disables it.
func WithItemTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.itemTimeout = t }
}

func WithKeyField(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.keyField = name
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		workers:  DefaultWorkers,
		keyField: DefaultKeyField,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Dispatcher) KeyField() string { return d.keyField }

// Tasks builds one task per record, failing if any record lacks the key field.
func (d *Dispatcher) Tasks(records []table.Record) ([]Task, error) {
	tasks := make([]Task, 0, len(records))
	for i, rec := range records {
		key, ok := rec.Get(d.keyField)
		if !ok || key.IsAbsent() {
			return nil, fmt.Errorf("record %d: field %q: %w", i+1, d.keyField, table.ErrKeyFieldMissing)
		}
		tasks = append(tasks, Task{Index: i, Key: key.String(), Record: rec})
	}
	return tasks, nil
}

// Dispatch submits exactly one task per record and returns at once. The
// returned channel yields completions as tasks finish and closes after the
// last one. Worker count and item deadline set on ctx via core.WithWorkerOptions
// and core.WithItemTimeout take precedence over the dispatcher's own.
//
// Cancelling ctx stops handing out tasks; tasks already running finish in
// the background and their results are dropped. A consumer that stops
// reading early without cancelling must pass the channel to core.Drain.
func (d *Dispatcher) Dispatch(ctx context.Context, records []table.Record, p processor.Processor) (<-chan Completion, error) {
	tasks, err := d.Tasks(records)
	if err != nil {
		return nil, err
	}

	workers := core.GetWorkerMaxCount(ctx, d.workers)
	timeout := core.GetItemTimeout(ctx, d.itemTimeout)

	logger := d.logger.With("processor", p.Name())
	logger.Debug("dispatch start", "tasks", len(tasks), "workers", workers, "item_timeout", timeout)

	var unstarted, dropped atomic.Int64
	handlers := core.CancellationHandlers[Task, Completion]{
		OnCancelUnprocessed: func(context.Context, Task) {
			dropped.Add(1)
		},
		OnCancelProcessed: func(context.Context, Task, Completion) {
			dropped.Add(1)
		},
	}

	feed := core.ToChanManyWithHandlers(ctx, core.ToChanHandlers[Task]{
		OnStartFail: func(_ context.Context, all []Task) {
			unstarted.Add(int64(len(all)))
		},
		OnBreak: func(_ context.Context, rest []Task) {
			unstarted.Add(int64(len(rest)))
		},
	}, tasks)

	run := func(ctx context.Context, t Task) (processor.Payload, error) {
		return p.Process(ctx, t.Key)
	}
	out := lite.Turnout(ctx, feed, lite.Settle(run, timeout), workers, handlers)

	res := make(chan Completion)
	go func() {
		defer close(res)
		for c := range out {
			select {
			case res <- c:
			case <-ctx.Done():
				dropped.Add(1)
			}
		}
		if ctx.Err() != nil {
			logger.Debug("dispatch cancelled",
				"unstarted", unstarted.Load(), "dropped", dropped.Load(), "cause", ctx.Err())
		}
	}()
	return res, nil
}
