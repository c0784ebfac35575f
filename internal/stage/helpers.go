package stage

import (
	"fmt"
	"runtime/debug"

	"salient/internal/services"
)

// PanicError reports a panic recovered from a stage.
type PanicError struct {
	Stage string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: unexpected failure: %v", e.Stage, e.Value)
}

// ErrorKind classifies recovered panics as transient failures.
func (e *PanicError) ErrorKind() string {
	return string(services.KindTransient)
}

// Guard runs fn and converts a panic into a *PanicError.
func Guard(stageName string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Stage: stageName, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
