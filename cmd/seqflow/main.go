// Command seqflow enriches a table of protein sequences with per-sequence
// structure predictions or functional annotations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/ib-77/seqflow/internal/config"
	"github.com/ib-77/seqflow/internal/diag"
	"github.com/ib-77/seqflow/pkg/aggregate"
	"github.com/ib-77/seqflow/pkg/pipeline"
	"github.com/ib-77/seqflow/pkg/processor"
)

const usage = `usage:
  seqflow predict  <input> <output> [output_dir] [flags]
  seqflow annotate <input> <output> [flags]
  seqflow exec     <input> <output> --config <file> [flags]

Failed sequences leave empty result cells; the exit status is non-zero only
when the run itself could not complete.
`

var errUsage = errors.New("usage")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping...")
		cancel()
		<-sigCh
		os.Exit(130)
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// invocation is one parsed command line.
type invocation struct {
	command   string
	input     string
	output    string
	outputDir string
	cfg       *config.Config
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	inv, err := parse(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		fmt.Fprint(stderr, usage)
		return 1
	}

	logger := diag.NewLogger(inv.cfg.LogLevel, stderr)
	if err := execute(ctx, inv, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parse(args []string, stderr io.Writer) (*invocation, error) {
	if len(args) == 0 {
		return nil, errUsage
	}
	inv := &invocation{command: args[0]}

	fs := flag.NewFlagSet("seqflow "+inv.command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		workers     = fs.IntP("workers", "w", config.DefaultWorkers, "Number of sequences processed concurrently")
		keyField    = fs.String("key", config.DefaultKeyField, "Column holding the sequence")
		itemTimeout = fs.Duration("item-timeout", 0, "Deadline per sequence (0 disables)")
		configPath  = fs.String("config", "", "YAML config file")
		auditLog    = fs.String("audit-log", "", "Append one JSON line per failed sequence to this file")
		logLevel    = fs.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
		delimiter   = fs.String("delimiter", "", "Input delimiter: tab, comma or one character (default by extension)")
	)
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	pos := fs.Args()
	switch inv.command {
	case "predict":
		if len(pos) < 2 || len(pos) > 3 {
			return nil, fmt.Errorf("predict needs <input> <output> [output_dir]")
		}
		if len(pos) == 3 {
			inv.outputDir = pos[2]
		}
	case "annotate", "exec":
		if len(pos) != 2 {
			return nil, fmt.Errorf("%s needs <input> <output>", inv.command)
		}
	default:
		return nil, fmt.Errorf("unknown command %q", inv.command)
	}
	inv.input, inv.output = pos[0], pos[1]

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	// explicit flags win over file and environment
	if fs.Changed("workers") {
		cfg.Workers = *workers
	}
	if fs.Changed("key") {
		cfg.KeyField = *keyField
	}
	if fs.Changed("item-timeout") {
		cfg.ItemTimeout = itemTimeout.String()
	}
	if fs.Changed("audit-log") {
		cfg.AuditLog = *auditLog
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("delimiter") {
		cfg.Delimiter = *delimiter
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if inv.command == "exec" && cfg.Command.Path == "" {
		return nil, errors.New("exec needs command.path in the config file")
	}
	inv.cfg = cfg
	return inv, nil
}

func newProcessor(inv *invocation) processor.Processor {
	switch inv.command {
	case "predict":
		return &processor.StructurePredictor{OutputDir: inv.outputDir}
	case "annotate":
		return &processor.Annotator{}
	default:
		return &processor.Command{
			Path:    inv.cfg.Command.Path,
			Args:    inv.cfg.Command.Args,
			Outputs: inv.cfg.Command.Outputs,
		}
	}
}

func execute(ctx context.Context, inv *invocation, logger *slog.Logger, stdout io.Writer) error {
	cfg := inv.cfg
	timeout, _ := cfg.Timeout()
	delim, _ := cfg.Delim()
	runID := uuid.New()

	opts := pipeline.Options{
		Input:          inv.input,
		Output:         inv.output,
		InputDelimiter: delim,
		KeyField:       cfg.KeyField,
		Workers:        cfg.Workers,
		ItemTimeout:    timeout,
		Processor:      newProcessor(inv),
		Logger:         logger,
		RunID:          runID,
	}

	if cfg.AuditLog != "" {
		audit, err := diag.OpenAudit(cfg.AuditLog, runID.String())
		if err != nil {
			return err
		}
		defer func() {
			if err := audit.Close(); err != nil {
				logger.Error("failed to close audit log", "path", cfg.AuditLog, "error", err)
			}
		}()
		opts.Sink = audit
	}

	start := time.Now()
	rep, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Run %s: %s\n", rep.RunID, rep.Summary)
	if len(rep.DuplicateKeys) > 0 {
		fmt.Fprintf(stdout, "Duplicate keys (%d) share one result: %v\n", len(rep.DuplicateKeys), rep.DuplicateKeys)
	}
	fmt.Fprintf(stdout, "Wrote %d rows to %s in %s\n", rep.Rows, rep.Output, time.Since(start).Round(time.Millisecond))

	if inv.command == "annotate" {
		shares := aggregate.Distribution(rep.Table, processor.FieldFamily)
		if err := aggregate.WriteDistribution(stdout, "Protein family distribution:", shares); err != nil {
			return err
		}
	}
	return nil
}
