package dbsp

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicateEndpoint is returned when an input or output name is added twice.
	ErrDuplicateEndpoint = errors.New("duplicate endpoint name")
	// ErrInvalidTransition is returned when a lifecycle call is not valid from
	// the pipeline's last known state.
	ErrInvalidTransition = errors.New("invalid pipeline transition")
	// ErrNoRemoteConfig is returned by operations that need a stored config.
	ErrNoRemoteConfig = errors.New("config has not been published")
)

// ConnectionError reports that the initial reachability check failed.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ServerError is the single failure type for remote calls. Status is the HTTP
// status code, or zero when the request never produced a response, in which
// case Err holds the transport failure.
type ServerError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *ServerError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: server returned status %d: %s", e.Op, e.Status, e.Message)
}

func (e *ServerError) Unwrap() error { return e.Err }

// CompileErrorKind distinguishes SQL front-end failures from failures of the
// generated Rust program.
type CompileErrorKind string

const (
	CompileSQLError  CompileErrorKind = "SqlError"
	CompileRustError CompileErrorKind = "RustError"
)

// CompilationError is a terminal compile failure observed while waiting.
type CompilationError struct {
	Kind   CompileErrorKind
	Detail string
}

func (e *CompilationError) Error() string {
	switch e.Kind {
	case CompileSQLError:
		return "sql error: " + e.Detail
	case CompileRustError:
		return "rust compiler error: " + e.Detail
	default:
		return fmt.Sprintf("compilation error (%s): %s", e.Kind, e.Detail)
	}
}

// TimeoutError reports that compilation did not reach a terminal state in
// time. The server may still be compiling.
type TimeoutError struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for compilation after %s (timeout %s)", e.Elapsed, e.Limit)
}

// Timeout reports true so callers can treat the error like net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// ProtocolError reports a value outside the closed set the client understands.
type ProtocolError struct {
	Op    string
	Value string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected value %q", e.Op, e.Value)
}

// IsNotFound reports whether err is a server 404.
func IsNotFound(err error) bool {
	var srvErr *ServerError
	return errors.As(err, &srvErr) && srvErr.Status == 404
}
