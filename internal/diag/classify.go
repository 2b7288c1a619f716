package diag

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/ib-77/seqflow/pkg/processor"
	"github.com/ib-77/seqflow/pkg/rop"
)

// Code is a coarse failure class, used for logs and counters only.
type Code string

const (
	CodeUnknown Code = "unknown"
	CodeTimeout Code = "timeout"
	CodeCancel  Code = "cancel"
	CodePanic   Code = "panic"
	CodeInvalid Code = "invalid"
	CodeExec    Code = "exec"
	CodeIO      Code = "io"
)

// Classify sorts an item failure into a Code using sentinel errors and
// error types only.
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	if errors.Is(err, rop.ErrItemTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	if rop.IsCancellationError(err) {
		return CodeCancel
	}
	var perr *rop.PanicError
	if errors.As(err, &perr) {
		return CodePanic
	}
	if errors.Is(err, processor.ErrEmptySequence) || errors.Is(err, processor.ErrInvalidResidue) {
		return CodeInvalid
	}
	var eerr *processor.ExecError
	var xerr *exec.Error
	if errors.As(err, &eerr) || errors.As(err, &xerr) {
		return CodeExec
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return CodeIO
	}
	return CodeUnknown
}
