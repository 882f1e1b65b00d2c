// Package failure classifies errors so callers can branch on what went wrong
// instead of inspecting empty results.
package failure

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// Unknown is reported for errors that did not pass through this package.
	Unknown Kind = iota
	// Connection covers opening, pinging and tunnelling to a database.
	Connection
	// SQL covers statement execution, scanning and transaction handling.
	SQL
	// NotFound is returned when a named database, table or file does not exist.
	NotFound
	// Input covers malformed files, invalid identifiers and bad operator input.
	Input
)

func (k Kind) String() string {
	switch k {
	case Connection:
		return "connection-failure"
	case SQL:
		return "sql-failure"
	case NotFound:
		return "not-found"
	case Input:
		return "invalid-input"
	default:
		return "unknown"
	}
}

// Error carries a Kind alongside the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error of the same Kind, so that
// errors.Is(err, failure.ErrSQL) works across wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrConnection = &Error{Kind: Connection}
	ErrSQL        = &Error{Kind: SQL}
	ErrNotFound   = &Error{Kind: NotFound}
	ErrInput      = &Error{Kind: Input}
)

// New creates a failure with a formatted message and a stack trace.
func New(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Wrap attaches kind and op to err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if stderrors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}
