package node

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	SchemeMismatch ErrorKind = iota + 1
	MissingField
	InvalidPort
	UnrecognizedScheme
	EmptyNodeList
)

func (k ErrorKind) String() string {
	switch k {
	case SchemeMismatch:
		return "scheme_mismatch"
	case MissingField:
		return "missing_field"
	case InvalidPort:
		return "invalid_port"
	case UnrecognizedScheme:
		return "unrecognized_scheme"
	case EmptyNodeList:
		return "empty_node_list"
	default:
		return "unknown"
	}
}

// Error is the single error type of the conversion core. errors.Is matches on
// Kind alone, so callers compare against the Err* sentinels below.
type Error struct {
	Kind  ErrorKind
	Field string // offending field, when known
	Link  string // offending input, when known
	Err   error
}

var (
	ErrSchemeMismatch     = &Error{Kind: SchemeMismatch}
	ErrMissingField       = &Error{Kind: MissingField}
	ErrInvalidPort        = &Error{Kind: InvalidPort}
	ErrUnrecognizedScheme = &Error{Kind: UnrecognizedScheme}
	ErrEmptyNodeList      = &Error{Kind: EmptyNodeList}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
