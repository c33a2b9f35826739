package core

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered panic out of an agent call.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("agent panicked: %v", e.Value)
}

// Capture runs fn and is the one place agent failures are normalised:
// a panic becomes *PanicError and a nil result with a nil error becomes
// ErrNilResult. A non-nil result is always confidence-clamped.
func Capture(fn func() (*FixResult, error)) (res *FixResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	res, err = fn()
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNilResult
	}
	return res.Normalize(), nil
}

// CaptureResult is Capture folded into a result: errors come back as
// ResultFromError and the error is still returned for logging.
func CaptureResult(fn func() (*FixResult, error)) (*FixResult, error) {
	res, err := Capture(fn)
	if err != nil {
		return ResultFromError(err), err
	}
	return res, nil
}
