// Package processor defines the per-record analysis contract and the
// processors shipped with seqflow: a simulated structure predictor, a
// simulated functional annotator and an adapter for external commands.
//
// A Processor is called concurrently from several workers and must not share
// mutable state between calls.
package processor

import (
	"context"

	"github.com/ib-77/seqflow/pkg/table"
)

// Payload holds the result fields produced for one key.
type Payload map[string]table.Value

// Processor turns one record key into a payload or fails.
type Processor interface {
	// Name identifies the processor in logs and reports
	Name() string
	// Fields lists, in output order, the payload fields Process produces
	Fields() []string
	// Process analyses one key; it must be safe for concurrent use
	Process(ctx context.Context, key string) (Payload, error)
}

type funcProcessor struct {
	name   string
	fields []string
	fn     func(ctx context.Context, key string) (Payload, error)
}

// Func adapts a plain function to Processor.
func Func(name string, fields []string, fn func(ctx context.Context, key string) (Payload, error)) Processor {
	cp := make([]string, len(fields))
	copy(cp, fields)
	return &funcProcessor{name: name, fields: cp, fn: fn}
}

func (f *funcProcessor) Name() string { return f.name }

func (f *funcProcessor) Fields() []string {
	cp := make([]string, len(f.fields))
	copy(cp, f.fields)
	return cp
}

func (f *funcProcessor) Process(ctx context.Context, key string) (Payload, error) {
	return f.fn(ctx, key)
}
