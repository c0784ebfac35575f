package salience

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyWaveform     = errors.New("waveform is empty")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrNonFiniteWaveform = errors.New("waveform contains non-finite samples")
)

// DecodeInputError reports a waveform that cannot be analyzed.
type DecodeInputError struct {
	Source string
	Err    error
}

func (e *DecodeInputError) Error() string {
	if e == nil {
		return "decode input error"
	}
	if e.Source != "" {
		return fmt.Sprintf("decode input %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("decode input: %v", e.Err)
}

func (e *DecodeInputError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorKind classifies the failure for the workflow manager.
func (e *DecodeInputError) ErrorKind() string {
	return "validation"
}

// NewDecodeInputError wraps err as a DecodeInputError for source.
func NewDecodeInputError(source string, err error) error {
	return &DecodeInputError{Source: source, Err: err}
}

// IsDecodeInputError reports whether err carries a DecodeInputError.
func IsDecodeInputError(err error) bool {
	var target *DecodeInputError
	return errors.As(err, &target)
}
