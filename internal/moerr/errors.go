// Package moerr defines the error taxonomy shared by every stage of a
// conversion run and the single classification function the top-level
// handler matches on.
package moerr

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the user-facing failure category of an error.
type Kind int

const (
	// KindInternal is anything nobody anticipated. It is reported with a
	// full trace and a request to file a bug.
	KindInternal Kind = iota
	// KindConfiguration is a deliberate, user-fixable validation or
	// conversion failure.
	KindConfiguration
	// KindFramework is raised by a source framework's own model loader.
	KindFramework
	// KindFileNotFound is a referenced file or directory that does not exist.
	KindFileNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindFramework:
		return "framework"
	case KindFileNotFound:
		return "file_not_found"
	default:
		return "internal"
	}
}

// Error wraps an underlying error with operation context and a kind.
//
// Msg is a format string; Args are applied lazily so that callers can keep
// the offending values around for inspection in tests.
type Error struct {
	Op   string
	Kind Kind
	Path string // Optional: relevant file path
	Msg  string
	Args []any
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if len(e.Args) > 0 {
		msg = fmt.Sprintf(e.Msg, e.Args...)
	}
	if msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Configf builds a configuration error. The message is formatted with args
// when it is rendered.
func Configf(op, format string, args ...any) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Msg: format, Args: args}
}

// WrapConfigf is Configf with an underlying cause.
func WrapConfigf(err error, op, format string, args ...any) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Msg: format, Args: args, Err: err}
}

// Framework tags err as raised by a source framework.
func Framework(op string, err error) *Error {
	return &Error{Op: op, Kind: KindFramework, Err: err}
}

// NotFound reports a missing file or directory.
func NotFound(op, path string) *Error {
	return &Error{
		Op:   op,
		Kind: KindFileNotFound,
		Path: path,
		Msg:  "no such file or directory: %s",
		Args: []any{path},
		Err:  fs.ErrNotExist,
	}
}

// IsKind helps callers classify errors without depending on the concrete type.
func IsKind(err error, kind Kind) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// Classify maps any error onto exactly one Kind. Missing files win over
// everything else, then explicitly tagged errors, then internal.
func Classify(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return KindFileNotFound
	}
	var oe *Error
	if errors.As(err, &oe) {
		switch oe.Kind {
		case KindConfiguration, KindFramework, KindFileNotFound:
			return oe.Kind
		}
	}
	return KindInternal
}

// MissingPath extracts the offending path from a file-not-found error.
func MissingPath(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Path
	}
	var oe *Error
	if errors.As(err, &oe) && oe.Path != "" {
		return oe.Path
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, "no such file or directory:"); i >= 0 {
		return strings.TrimSpace(msg[i+len("no such file or directory:"):])
	}
	return msg
}

// WithStack records the current call stack on err unless it already has one.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
	var st stackTracer
	if errors.As(err, &st) {
		return err
	}
	return pkgerrors.WithStack(err)
}

// FromPanic converts a recovered panic value into an internal error carrying
// the stack of the panicking goroutine.
func FromPanic(r any) error {
	if err, ok := r.(error); ok {
		return pkgerrors.Wrap(err, "panic")
	}
	return pkgerrors.Errorf("panic: %v", r)
}

// Trace renders err with every recorded stack frame.
func Trace(err error) string {
	return fmt.Sprintf("%+v", err)
}
