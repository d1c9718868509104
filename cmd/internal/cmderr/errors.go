package cmderr

import (
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/common"
)

// Exit codes of the applications.
const (
	CodeInternal  = 1
	CodeNotFound  = 2
	CodeLocked    = 3
	CodeCorrupted = 4
	CodeReadOnly  = 5
)

// ExitErr specific error for ExitOnErr function that passes the exit code and error caused.
type ExitErr struct {
	Code  int
	Cause error
}

func (x ExitErr) Error() string { return x.Cause.Error() }

func (x ExitErr) Unwrap() error { return x.Cause }

// Wrap attaches an exit code to err according to its kind. Errors that
// already carry an exit code are returned as is. Nil err results in nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	var e ExitErr
	if errors.As(err, &e) {
		return err
	}

	return ExitErr{Code: Code(err), Cause: err}
}

// Code returns the exit code for err.
func Code(err error) int {
	var e ExitErr
	switch {
	case errors.As(err, &e):
		return e.Code
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrOutOfRange):
		return CodeNotFound
	case errors.Is(err, common.ErrLocked):
		return CodeLocked
	case errors.Is(err, common.ErrCorruptData), errors.Is(err, common.ErrNotADirectory):
		return CodeCorrupted
	case errors.Is(err, common.ErrReadOnly):
		return CodeReadOnly
	default:
		return CodeInternal
	}
}

// ExitOnErr writes error to os.Stderr and calls os.Exit with the exit code of
// err. Does nothing if err is nil.
func ExitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(Code(err))
	}
}
