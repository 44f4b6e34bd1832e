package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrChainExecutionFailed is matched by every chain failure.
	ErrChainExecutionFailed = errors.New("chain: execution failed")

	// ErrFormatMismatch is returned when a pass declares an input format
	// other than the output format of the pass before it.
	ErrFormatMismatch = errors.New("chain: input format mismatch")
)

// ChainError reports the pass at which a chain failed. Index is -1 when the
// failure happened after all passes were encoded (submission, GPU
// execution or readback).
type ChainError struct {
	Index int
	Err   error
}

func (e *ChainError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("chain: %v", e.Err)
	}
	return fmt.Sprintf("chain: pass %d: %v", e.Index, e.Err)
}

// Unwrap returns ErrChainExecutionFailed and the cause.
func (e *ChainError) Unwrap() []error {
	return []error{ErrChainExecutionFailed, e.Err}
}
