package errors

import (
	"fmt"
	"strings"
)

// Op indicates which registry operation the error occurred in
type Op string

const (
	OpRegister   Op = "register"   // resource registration
	OpUnregister Op = "unregister" // explicit release
	OpRetain     Op = "retain"     // advisory reference count
	OpCleanup    Op = "cleanup"    // bulk cleanup pass
	OpShutdown   Op = "shutdown"   // registry teardown
	OpDispatch   Op = "dispatch"   // owner-context marshalling
	OpGet        Op = "get"        // read path
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput         Kind = "invalid_input"
	KindNotWeakReferenceable Kind = "not_weak_referenceable"
	KindStillReferenced      Kind = "still_referenced"
	KindShutdown             Kind = "shutdown"
	KindCleanupFailure       Kind = "cleanup_failure"
	KindDispatchTimeout      Kind = "dispatch_timeout"
	KindNotFound             Kind = "not_found"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause      error
	Op         Op
	Kind       Kind
	ResourceID string
	Detail     string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Op))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.ResourceID != "" {
		b.WriteString(" resource ")
		b.WriteString(e.ResourceID)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match when
// their Kind agrees; a target with a non-empty Op must match Op too.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Op != "" && e.Op != t.Op {
			return false
		}
		return e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the error taxonomy

// InvalidInput creates an invalid input error
func InvalidInput(op Op, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Op:     op,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotWeakReferenceable reports a resource that cannot be tracked by a
// weak reference. There is no strong-reference fallback.
func NotWeakReferenceable(goType string) *Error {
	return &Error{
		Op:     OpRegister,
		Kind:   KindNotWeakReferenceable,
		Detail: fmt.Sprintf("cannot hold a weak reference to %s; resources must be pointer-shaped", goType),
	}
}

// StillReferenced reports an unregister attempt on a resource whose
// advisory reference count is still above one.
func StillReferenced(id string, refs int) *Error {
	return &Error{
		Op:         OpUnregister,
		Kind:       KindStillReferenced,
		ResourceID: id,
		Detail:     fmt.Sprintf("advisory reference count is %d; pass force to release anyway", refs),
	}
}

// Shutdown reports an operation against a registry that has been shut down
func Shutdown(op Op) *Error {
	return &Error{
		Op:     op,
		Kind:   KindShutdown,
		Detail: "registry is shut down",
	}
}

// CleanupFailure wraps an error (or recovered panic) from a cleanup handler.
// Cleanup failures are logged and never propagate past the registry.
func CleanupFailure(id string, cause error) *Error {
	return &Error{
		Op:         OpCleanup,
		Kind:       KindCleanupFailure,
		ResourceID: id,
		Cause:      cause,
	}
}

// DispatchTimeout reports that the owner context could not be reached
// within the bounded wait.
func DispatchTimeout(detail string) *Error {
	return &Error{
		Op:     OpDispatch,
		Kind:   KindDispatchTimeout,
		Detail: detail,
	}
}

// NotFound creates a not-found error for an unknown resource id
func NotFound(op Op, id string) *Error {
	return &Error{
		Op:         op,
		Kind:       KindNotFound,
		ResourceID: id,
	}
}
