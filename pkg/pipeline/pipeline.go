// Package pipeline runs one enrichment job end to end: load the record
// table, dispatch every record to a processor, fold the outcomes, left-join
// them back and save the result. Nothing outlives one call to Run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ib-77/seqflow/internal/diag"
	"github.com/ib-77/seqflow/pkg/aggregate"
	"github.com/ib-77/seqflow/pkg/dispatch"
	"github.com/ib-77/seqflow/pkg/join"
	"github.com/ib-77/seqflow/pkg/processor"
	"github.com/ib-77/seqflow/pkg/table"
)

// ErrNoProcessor indicates Options without a processor
var ErrNoProcessor = errors.New("no processor configured")

type Options struct {
	Input  string
	Output string
	// InputDelimiter and OutputDelimiter default to a guess from the file
	// extension when zero.
	InputDelimiter  rune
	OutputDelimiter rune

	KeyField    string
	Workers     int
	ItemTimeout time.Duration

	Processor processor.Processor
	// Sink receives failures in addition to the run logger.
	Sink   diag.FailureSink
	Logger *slog.Logger
	// RunID identifies the run in logs and audit records; a zero value
	// gets a fresh one.
	RunID uuid.UUID
}

// Report describes a finished run.
type Report struct {
	RunID         uuid.UUID
	Processor     string
	Summary       aggregate.Summary
	DuplicateKeys []string
	Rows          int
	Output        string
	Table         *table.Table
}

// Run loads opts.Input, enriches it and writes opts.Output atomically. Only
// structural problems (unreadable input, missing key column, unwritable
// output) return an error, and then nothing is written. Failed items only
// show up as absent cells, diagnostics and counts.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Processor == nil {
		return nil, ErrNoProcessor
	}

	src, err := table.Load(opts.Input, table.WithDelimiter(opts.InputDelimiter))
	if err != nil {
		return nil, err
	}

	rep, err := Process(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	delim := opts.OutputDelimiter
	if delim == 0 {
		delim = table.DelimiterFor(opts.Output)
	}
	if err := table.Save(ctx, opts.Output, rep.Table, delim); err != nil {
		return nil, fmt.Errorf("save output: %w", err)
	}
	rep.Output = opts.Output

	rep.logger(opts).Info("results saved", "output", opts.Output, "rows", rep.Rows)
	return rep, nil
}

// Process enriches an in-memory table; Run is Process plus file I/O.
func Process(ctx context.Context, src *table.Table, opts Options) (*Report, error) {
	if opts.Processor == nil {
		return nil, ErrNoProcessor
	}
	keyField := opts.KeyField
	if keyField == "" {
		keyField = dispatch.DefaultKeyField
	}

	rep := &Report{RunID: opts.RunID, Processor: opts.Processor.Name()}
	if rep.RunID == uuid.Nil {
		rep.RunID = uuid.New()
	}
	logger := rep.logger(opts)

	if err := src.RequireField(keyField); err != nil {
		return nil, err
	}

	if dups := table.DuplicateKeys(src, keyField); len(dups) > 0 {
		rep.DuplicateKeys = dups
		logger.Warn("duplicate keys in input; their rows share one result",
			"key_field", keyField, "count", len(dups), "keys", dups)
	}

	d := dispatch.New(
		dispatch.WithWorkers(opts.Workers),
		dispatch.WithItemTimeout(opts.ItemTimeout),
		dispatch.WithKeyField(keyField),
		dispatch.WithLogger(logger),
	)

	logger.Info("processing started", "records", src.Len())
	completions, err := d.Dispatch(ctx, src.Rows(), opts.Processor)
	if err != nil {
		return nil, err
	}

	sink := diag.MultiSink{diag.LogSink{Logger: logger}, opts.Sink}
	results, sum := aggregate.Aggregate(ctx, completions, sink)
	rep.Summary = sum
	logger.Info("processing finished",
		"total", sum.Total, "succeeded", sum.Succeeded, "failed", sum.Failed,
		"timed_out", sum.TimedOut, "duration", sum.Duration.Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s interrupted: %w", rep.RunID, err)
	}

	joined, err := join.Left(src, keyField, results, opts.Processor.Fields())
	if err != nil {
		return nil, err
	}
	rep.Table = joined
	rep.Rows = joined.Len()
	return rep, nil
}

func (r *Report) logger(opts Options) *slog.Logger {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("run_id", r.RunID.String(), "processor", r.Processor)
}
