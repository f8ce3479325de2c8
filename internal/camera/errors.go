package camera

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the engine reports.
type ErrorKind string

// Error kinds.
const (
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindOutOfRange       ErrorKind = "OUT_OF_RANGE"
	KindUnsupportedMode  ErrorKind = "UNSUPPORTED_MODE"
	KindUnsupportedPair  ErrorKind = "UNSUPPORTED_PAIR"
	KindUnsupported      ErrorKind = "UNSUPPORTED"
	KindOutOfDomain      ErrorKind = "OUT_OF_DOMAIN"
	KindNotReady         ErrorKind = "NOT_READY"
	KindNotEnabled       ErrorKind = "NOT_ENABLED"
	KindNoStreamsEnabled ErrorKind = "NO_STREAMS_ENABLED"
	KindTransport        ErrorKind = "TRANSPORT_ERROR"
)

// Error is returned by every failing engine operation. It carries exactly
// one Kind; transport failures keep the collaborator's error as Cause.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks:
//
//	if errors.Is(err, camera.ErrNotReady) {
//	    // wait for start
//	}
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrOutOfRange       = &Error{Kind: KindOutOfRange}
	ErrUnsupportedMode  = &Error{Kind: KindUnsupportedMode}
	ErrUnsupportedPair  = &Error{Kind: KindUnsupportedPair}
	ErrUnsupported      = &Error{Kind: KindUnsupported}
	ErrOutOfDomain      = &Error{Kind: KindOutOfDomain}
	ErrNotReady         = &Error{Kind: KindNotReady}
	ErrNotEnabled       = &Error{Kind: KindNotEnabled}
	ErrNoStreamsEnabled = &Error{Kind: KindNoStreamsEnabled}
	ErrTransport        = &Error{Kind: KindTransport}
)

// KindOf returns the kind of an engine error, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// transportError wraps a collaborator failure verbatim.
func transportError(op string, cause error) *Error {
	return &Error{Kind: KindTransport, Op: op, Cause: cause}
}
