package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure by how the run reacts to it.
type Kind string

const (
	// KindInit: the management library session could not be opened.
	KindInit Kind = "INIT_FAILED"
	// KindDiscovery: device enumeration failed at some stage.
	KindDiscovery Kind = "DISCOVERY_FAILED"
	// KindQuery: a per-device read failed.
	KindQuery Kind = "QUERY_FAILED"
	// KindConfig: configuration could not be loaded or is invalid.
	KindConfig Kind = "CONFIG_INVALID"
)

// NoDevice marks errors that are not tied to a device index.
const NoDevice = -1

// Error is a classified failure. Op names the failing operation, e.g.
// "get GPU metrics".
type Error struct {
	Kind   Kind
	Op     string
	Device int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op
	if e.Device != NoDevice {
		msg = fmt.Sprintf("%s for device %d", e.Op, e.Device)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode is 1 for every classified failure.
func (e *Error) ExitCode() int {
	return 1
}

// Init wraps a session open failure.
func Init(op string, err error) *Error {
	return &Error{Kind: KindInit, Op: op, Device: NoDevice, Err: err}
}

// Discovery wraps an enumeration failure.
func Discovery(op string, err error) *Error {
	return &Error{Kind: KindDiscovery, Op: op, Device: NoDevice, Err: err}
}

// Query wraps a per-device read failure.
func Query(op string, device int, err error) *Error {
	return &Error{Kind: KindQuery, Op: op, Device: device, Err: err}
}

// Config wraps a configuration failure.
func Config(op string, err error) *Error {
	return &Error{Kind: KindConfig, Op: op, Device: NoDevice, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ExitCode maps an error returned by a run to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if stderrors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
