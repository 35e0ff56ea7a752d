package commands

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a malformed command declaration: a bad syntax
// pattern or an unsupported parameter kind.
type ConfigurationError struct {
	Syntax string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid command declaration %q: %s", e.Syntax, e.Reason)
}

// ProviderLoadError reports a configured provider that could not be resolved
// or instantiated. The registry logs it and skips the provider.
type ProviderLoadError struct {
	Provider string
	Err      error
}

func (e *ProviderLoadError) Error() string {
	return fmt.Sprintf("failed to load command provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderLoadError) Unwrap() error { return e.Err }

// ResolutionError reports a command target whose operation could not be located.
type ResolutionError struct {
	Target Target
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot resolve operation %s", e.Target)
	}
	return fmt.Sprintf("cannot resolve operation %s: %v", e.Target, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// PanicError carries a panic recovered from a command operation together with
// the stack of the panicking goroutine.
type PanicError struct {
	Syntax string
	Value  any
	stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command %q panicked: %v", e.Syntax, e.Value)
}

// Trace returns the goroutine stack captured when the panic was recovered.
func (e *PanicError) Trace() string {
	return strings.TrimRight(string(e.stack), "\n")
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
