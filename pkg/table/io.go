package table

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DelimiterFor picks the delimiter from the file extension: tab for
// .tsv/.tab/.txt, comma otherwise.
func DelimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab", ".txt":
		return '\t'
	}
	return ','
}

type loadConfig struct {
	delim rune
}

type LoadOption func(*loadConfig)

// WithDelimiter overrides the delimiter guessed from the file name.
func WithDelimiter(d rune) LoadOption {
	return func(c *loadConfig) {
		if d != 0 {
			c.delim = d
		}
	}
}

// Load reads a delimited file with a header line.
func Load(path string, opts ...LoadOption) (*Table, error) {
	cfg := loadConfig{delim: DelimiterFor(path)}
	for _, o := range opts {
		o(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, cfg.delim)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}
	return t, nil
}

// Read parses delimited text. Cells are kept as scalars; a short row simply
// lacks the trailing fields.
func Read(r io.Reader, delim rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyHeader
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, h)
		}
		seen[h] = struct{}{}
		header[i] = h
	}

	t := New(header...)
	line := 1
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := Record{fields: make([]Field, 0, len(header))}
		for i, c := range cells {
			if i >= len(header) {
				break
			}
			rec.fields = append(rec.fields, Field{Name: header[i], Value: Scalar(c)})
		}
		t.Append(rec)
	}
	return t, nil
}

// Write renders t as delimited text, header first. Missing fields and absent
// values become empty cells.
func (t *Table) Write(w io.Writer, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim

	if err := writer.Write(t.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(t.header))
	for i, r := range t.rows {
		for j, name := range t.header {
			v, _ := r.Get(name)
			row[j] = v.String()
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Save writes t to path atomically: a temp file in the same directory is
// written, synced and renamed over path, so a failed save leaves nothing.
func Save(ctx context.Context, path string, t *Table, delim rune) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".seqflow-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := t.Write(bw, delim); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = os.Chmod(tmpPath, 0o644)

	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
