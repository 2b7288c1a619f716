package diag

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// auditRecord is one JSONL line of the audit file.
type auditRecord struct {
	TS    string `json:"ts"`
	RunID string `json:"run_id"`
	Key   string `json:"key"`
	Code  Code   `json:"code"`
	Error string `json:"error"`
}

// AuditFile appends one JSON object per failure to a file. Lines are encoded
// by a single goroutine; Failure only queues.
type AuditFile struct {
	runID string
	f     *os.File
	in    chan auditRecord
	done  chan error

	once     sync.Once
	closeErr error
}

// OpenAudit opens (appending) the audit file at path.
func OpenAudit(path, runID string) (*AuditFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	a := &AuditFile{
		runID: runID,
		f:     f,
		in:    make(chan auditRecord, 64),
		done:  make(chan error, 1),
	}
	go a.encode()
	return a, nil
}

func (a *AuditFile) encode() {
	bw := bufio.NewWriterSize(a.f, 64<<10)
	enc := json.NewEncoder(bw)

	var firstErr error
	for rec := range a.in {
		if firstErr != nil {
			continue
		}
		firstErr = enc.Encode(rec)
	}
	if err := bw.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	a.done <- firstErr
}

func (a *AuditFile) Failure(key string, err error) {
	a.in <- auditRecord{
		TS:    time.Now().UTC().Format(time.RFC3339Nano),
		RunID: a.runID,
		Key:   key,
		Code:  Classify(err),
		Error: err.Error(),
	}
}

// Close flushes pending lines and closes the file. Failure must not be
// called after Close.
func (a *AuditFile) Close() error {
	a.once.Do(func() {
		close(a.in)
		err := <-a.done
		if cerr := a.f.Close(); err == nil {
			err = cerr
		}
		a.closeErr = err
	})
	return a.closeErr
}
