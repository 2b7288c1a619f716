package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ib-77/seqflow/pkg/table"
)

// ExecError describes a failed external command run.
type ExecError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Path, e.Err, msg)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Command runs an external program once per key. The key is written to the
// program's stdin followed by a newline; the program must print one JSON
// object whose members named in Outputs become the payload. Members missing
// from the object are reported as absent.
type Command struct {
	Label   string
	Path    string
	Args    []string
	Outputs []string
}

var _ Processor = (*Command)(nil)

func (c *Command) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return "command"
}

func (c *Command) Fields() []string {
	cp := make([]string, len(c.Outputs))
	copy(cp, c.Outputs)
	return cp
}

func (c *Command) Process(ctx context.Context, key string) (Payload, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = strings.NewReader(key + "\n")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExecError{Path: c.Path, Stderr: stderr.String(), Err: err}
	}

	dec := json.NewDecoder(&stdout)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ExecError{Path: c.Path, Stderr: stderr.String(), Err: fmt.Errorf("decode output: %w", err)}
	}

	payload := make(Payload, len(c.Outputs))
	for _, name := range c.Outputs {
		raw, ok := doc[name]
		if !ok {
			payload[name] = table.Absent()
			continue
		}
		v, err := toValue(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		payload[name] = v
	}
	return payload, nil
}

func toValue(raw any) (table.Value, error) {
	switch v := raw.(type) {
	case nil:
		return table.Absent(), nil
	case string:
		return table.Scalar(v), nil
	case json.Number:
		return table.Scalar(v.String()), nil
	case bool:
		return table.Scalar(fmt.Sprint(v)), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, it := range v {
			s, err := toValue(it)
			if err != nil {
				return table.Value{}, err
			}
			items = append(items, s.String())
		}
		return table.List(items...), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return table.Value{}, err
		}
		return table.Scalar(string(b)), nil
	}
}
