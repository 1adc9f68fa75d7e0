package schelling

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration indicates parameters that cannot produce a valid run.
	ErrInvalidConfiguration = errors.New("schelling: invalid configuration")

	// ErrInvalidState indicates a violated grid invariant detected while stepping.
	ErrInvalidState = errors.New("schelling: invalid state")

	// ErrInvalidGrid indicates malformed grid input (ragged, non-square or bad values).
	ErrInvalidGrid = errors.New("schelling: invalid grid")
)

// ConfigError describes which parameter was rejected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// StepError wraps a fatal condition hit while relocating an agent.
type StepError struct {
	Step    int
	Unhappy int
	Empty   int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v (%d unhappy, %d empty)", e.Step, e.Wrapped, e.Unhappy, e.Empty)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
