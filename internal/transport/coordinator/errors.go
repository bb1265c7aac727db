package coordinator

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode classifies a failed Coordinator call.
type ErrorCode string

const (
	// CodeTimeout: the call exceeded its deadline. Retryable.
	CodeTimeout ErrorCode = "timeout"
	// CodeUnavailable: the Coordinator is unreachable. Retryable.
	CodeUnavailable ErrorCode = "unavailable"
	// CodeInternal: the Coordinator failed internally. Retryable.
	CodeInternal ErrorCode = "internal"
	// CodeNotFound: no downstream service could answer. Not retryable.
	CodeNotFound ErrorCode = "not_found"
	// CodeInvalidRequest: the envelope was rejected. Not retryable.
	CodeInvalidRequest ErrorCode = "invalid_request"
	// CodeUnknown: unclassified failure. Not retryable.
	CodeUnknown ErrorCode = "unknown"
)

// Retryable reports whether a later attempt could plausibly succeed.
// The client itself never retries; this informs the caller.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeTimeout, CodeUnavailable, CodeInternal:
		return true
	}
	return false
}

// Error is a classified Coordinator failure.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("coordinator %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps a gRPC error to a typed Coordinator error.
func classify(err error) *Error {
	switch status.Code(err) {
	case codes.DeadlineExceeded:
		return &Error{Code: CodeTimeout, Err: err}
	case codes.Unavailable:
		return &Error{Code: CodeUnavailable, Err: err}
	case codes.Internal:
		return &Error{Code: CodeInternal, Err: err}
	case codes.NotFound:
		return &Error{Code: CodeNotFound, Err: err}
	case codes.InvalidArgument:
		return &Error{Code: CodeInvalidRequest, Err: err}
	}
	return &Error{Code: CodeUnknown, Err: err}
}
