// Package errors provides the structured error type returned by every
// operation in pkg/access: a closed set of error kinds, a retry-status
// classification, and an additive context chain. It keeps the teacher's
// fluent-builder shape (With* methods, a JSON() sink, errors.Is/As
// compatibility) but restructures the underlying model around
// kind/status/operation/context/source instead of the teacher's numeric
// ErrorCode/ErrorCategory lookup tables.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the closed set of error kinds a caller can discriminate on.
type Kind int

const (
	Unexpected Kind = iota
	Unsupported
	BackendConfigInvalid
	ObjectNotFound
	ObjectPermissionDenied
	ObjectIsADirectory
	ObjectNotADirectory
	ObjectAlreadyExists
	ObjectRateLimited
)

var kindNames = [...]string{
	"Unexpected",
	"Unsupported",
	"BackendConfigInvalid",
	"ObjectNotFound",
	"ObjectPermissionDenied",
	"ObjectIsADirectory",
	"ObjectNotADirectory",
	"ObjectAlreadyExists",
	"ObjectRateLimited",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unexpected"
	}
	return kindNames[k]
}

// Status is the retry classification carried alongside Kind.
type Status int

const (
	// Permanent errors never change without external intervention; never retry.
	Permanent Status = iota
	// Temporary errors may succeed if retried.
	Temporary
	// Persistent errors used to be Temporary but survived every retry attempt.
	Persistent
)

func (s Status) String() string {
	switch s {
	case Temporary:
		return "temporary"
	case Persistent:
		return "persistent"
	default:
		return "permanent"
	}
}

// Sentinel *Error values, one per Kind, for callers who prefer
// stdlib-style `errors.Is(err, apperrors.ErrObjectNotFound)` checks over
// `apperrors.Is(err, apperrors.ObjectNotFound)`. Both compare by Kind
// alone, via (*Error).Is.
var (
	ErrUnexpected             = &Error{kind: Unexpected}
	ErrUnsupported            = &Error{kind: Unsupported}
	ErrBackendConfigInvalid   = &Error{kind: BackendConfigInvalid}
	ErrObjectNotFound         = &Error{kind: ObjectNotFound}
	ErrObjectPermissionDenied = &Error{kind: ObjectPermissionDenied}
	ErrObjectIsADirectory     = &Error{kind: ObjectIsADirectory}
	ErrObjectNotADirectory    = &Error{kind: ObjectNotADirectory}
	ErrObjectAlreadyExists    = &Error{kind: ObjectAlreadyExists}
	ErrObjectRateLimited      = &Error{kind: ObjectRateLimited}
)

// ctxPair is one (key, value) entry in an Error's context chain. A slice of
// pairs (rather than a map) keeps context ordered, matching the Display
// format's left-to-right rendering.
type ctxPair struct {
	Key   string
	Value string
}

// Error is the error type returned by every pkg/access operation.
//
// Context is additive: inner layers record provenance, outer layers add
// framing, and nothing ever rewrites Kind or Status as an error crosses a
// layer boundary. Source may be set at most once.
type Error struct {
	kind      Kind
	message   string
	status    Status
	operation string
	context   []ctxPair
	source    error
}

// New creates an Error with the given kind and message. Status defaults to
// Permanent; callers needing a retryable error call WithTemporary.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message, status: Permanent}
}

// Kind returns the error's kind.
func (e *Error) Kind() Kind { return e.kind }

// Status returns the error's retry status.
func (e *Error) Status() Status { return e.status }

// Operation returns the operation that produced this error, or "" if none
// has been attached yet.
func (e *Error) Operation() string { return e.operation }

// IsTemporary reports whether this error should be retried.
func (e *Error) IsTemporary() bool { return e.status == Temporary }

// WithOperation sets the error's operation. If the error already carries
// one (it crossed a layer boundary already), the old value is preserved in
// the context chain under the key "called" before being overwritten.
func (e *Error) WithOperation(operation string) *Error {
	if e.operation != "" {
		e.context = append(e.context, ctxPair{"called", e.operation})
	}
	e.operation = operation
	return e
}

// WithContext appends one (key, value) pair to the error's context chain.
func (e *Error) WithContext(key, value string) *Error {
	e.context = append(e.context, ctxPair{key, value})
	return e
}

// WithSource attaches the underlying cause. Calling it twice panics: a
// source may be set at most once per Error.
func (e *Error) WithSource(src error) *Error {
	if e.source != nil {
		panic("errors.Error: source has already been set")
	}
	e.source = src
	return e
}

// WithPermanent marks the error non-retryable.
func (e *Error) WithPermanent() *Error {
	e.status = Permanent
	return e
}

// WithTemporary marks the error retryable.
func (e *Error) WithTemporary() *Error {
	e.status = Temporary
	return e
}

// WithPersistent marks the error as having survived every retry attempt.
func (e *Error) WithPersistent() *Error {
	e.status = Persistent
	return e
}

// Error implements the error interface with the single-line Display format:
// "<kind> (<status>) at <operation>, context: { k: v, ... } => <message>, source: <source>"
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) at %s", e.kind, e.status, e.operation)

	if len(e.context) > 0 {
		b.WriteString(", context: { ")
		for i, p := range e.context {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", p.Key, p.Value)
		}
		b.WriteString(" }")
	}

	if e.message != "" {
		fmt.Fprintf(&b, " => %s", e.message)
	}

	if e.source != nil {
		fmt.Fprintf(&b, ", source: %s", e.source)
	}

	return b.String()
}

// Format implements fmt.Formatter so that "%+v" renders a multi-line debug
// form (one context entry per line) while "%v"/"%s" keep the single-line
// Display form used by Error().
func (e *Error) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "%s (%s) at %s", e.kind, e.status, e.operation)
		if e.message != "" {
			fmt.Fprintf(f, " => %s", e.message)
		}
		fmt.Fprintln(f)

		if len(e.context) > 0 {
			fmt.Fprintln(f)
			fmt.Fprintln(f, "Context:")
			for _, p := range e.context {
				fmt.Fprintf(f, "    %s: %s\n", p.Key, p.Value)
			}
		}
		if e.source != nil {
			fmt.Fprintln(f)
			fmt.Fprintf(f, "Source: %+v\n", e.source)
		}
		return
	}
	fmt.Fprint(f, e.Error())
}

// Unwrap exposes the wrapped source error for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.source }

// Is reports equality for errors.Is: two *Error values match when their
// kinds match, so sentinel-style checks against a bare &Error{kind: X}
// value work the way the standard library expects.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == other.kind
}

// jsonError is the JSON wire shape for Error, used by JSON().
type jsonError struct {
	Kind      string            `json:"kind"`
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Operation string            `json:"operation"`
	Context   map[string]string `json:"context,omitempty"`
}

// JSON renders the error as a JSON string for structured logging sinks.
func (e *Error) JSON() string {
	var ctx map[string]string
	if len(e.context) > 0 {
		ctx = make(map[string]string, len(e.context))
		for _, p := range e.context {
			ctx[p.Key] = p.Value
		}
	}
	data, err := json.Marshal(jsonError{
		Kind:      e.kind.String(),
		Message:   e.message,
		Status:    e.status.String(),
		Operation: e.operation,
		Context:   ctx,
	})
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal error: %s"}`, err)
	}
	return string(data)
}

// Is is a package-level helper mirroring the standard library's errors.Is,
// specialized for matching by Kind alone: Is(err, ObjectNotFound) reports
// whether err is (or wraps) an *Error of that kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.kind == kind {
				return true
			}
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// As extracts the first *Error in err's chain, mirroring errors.As.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
