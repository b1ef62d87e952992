package submitter

import "fmt"

// ErrorKind classifies submission failures for caller-side mapping.
type ErrorKind int

const (
	// KindValidation marks malformed or missing required submission fields.
	KindValidation ErrorKind = iota
	// KindNotFound marks an unknown tenant.
	KindNotFound
	// KindTransientRemote marks network errors or 5xx responses after
	// retries were exhausted.
	KindTransientRemote
	// KindPermanentRemote marks a 4xx rejection by the remote service.
	KindPermanentRemote
	// KindPersistence marks a local store write failure.
	KindPersistence
	// KindInvariant marks an attempt to finalize a non-pending audit row or
	// a missing invoice reference on a success finalize.
	KindInvariant
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransientRemote:
		return "transient_remote"
	case KindPermanentRemote:
		return "permanent_remote"
	case KindPersistence:
		return "persistence"
	case KindInvariant:
		return "invariant_violation"
	}
	return "unknown"
}

// Error is the typed failure returned by the submission pipeline.
// HTTPStatus carries the last remote status code, 0 when none was received.
type Error struct {
	Kind       ErrorKind
	Message    string
	HTTPStatus int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
