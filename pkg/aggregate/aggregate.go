// Package aggregate folds a dispatcher's completion stream into a keyed
// result table, routing every failure to a diagnostic sink.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/ib-77/seqflow/pkg/dispatch"
	"github.com/ib-77/seqflow/pkg/processor"
	"github.com/ib-77/seqflow/pkg/rop/core"
	"github.com/ib-77/seqflow/pkg/rop/solo"
)

// Sink receives one diagnostic per failed item.
type Sink interface {
	Failure(key string, err error)
}

// Summary counts what the aggregation saw.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// TimedOut is the part of Failed that hit the per-item deadline
	TimedOut int
	// Repeated counts successes for a key that already had one
	Repeated int
	Duration time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d processed, %d succeeded, %d failed (%d timed out) in %s",
		s.Total, s.Succeeded, s.Failed, s.TimedOut, s.Duration.Round(time.Millisecond))
}

type fold int

const (
	folded fold = iota
	failed
	timedOut
)

// Aggregate consumes completions until the channel closes or ctx ends. It
// blocks only while waiting for the next completion. On ctx end the rest of
// the stream is drained in the background and not counted.
func Aggregate(ctx context.Context, completions <-chan dispatch.Completion, sink Sink) (*ResultTable, Summary) {
	start := time.Now()
	results := NewResultTable()
	var sum Summary

	for {
		select {
		case <-ctx.Done():
			go core.Drain(completions)
			sum.Duration = time.Since(start)
			return results, sum
		case c, ok := <-completions:
			if !ok {
				sum.Duration = time.Since(start)
				return results, sum
			}

			sum.Total++
			key := c.Input.Key
			switch solo.Finally(ctx, c.Result,
				func(_ context.Context, p processor.Payload) fold {
					if !results.Add(key, p) {
						sum.Repeated++
					}
					return folded
				},
				func(_ context.Context, err error) fold {
					if sink != nil {
						sink.Failure(key, err)
					}
					return failed
				},
				func(_ context.Context, err error) fold {
					if sink != nil {
						sink.Failure(key, err)
					}
					return timedOut
				}) {
			case folded:
				sum.Succeeded++
			case failed:
				sum.Failed++
			case timedOut:
				sum.Failed++
				sum.TimedOut++
			}
		}
	}
}
