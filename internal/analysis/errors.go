package analysis

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies an analysis failure for user-facing routing. Every
// failure leaving this package carries exactly one kind.
type Kind string

const (
	KindConfig            Kind = "config"
	KindEmptyResponse     Kind = "empty_response"
	KindMalformedResponse Kind = "malformed_response"
	KindSafety            Kind = "safety"
	KindRateLimit         Kind = "rate_limit"
	KindUnavailable       Kind = "unavailable"
	KindTransport         Kind = "transport"
	KindCanceled          Kind = "canceled"
)

// Error is a classified analysis failure with optional cause.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

// Error formats the failure for logs.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}

	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf extracts the failure kind from err, or empty when err is not
// a classified analysis error.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// classifyTransport maps a request error onto the failure taxonomy
// using its gRPC status code.
func classifyTransport(err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Reason: "request canceled", Err: err}
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return &Error{Kind: KindRateLimit, Reason: "quota exceeded", Err: err}
		case codes.Unavailable, codes.Internal, codes.DeadlineExceeded:
			return &Error{Kind: KindUnavailable, Reason: "service overloaded", Err: err}
		case codes.Unauthenticated, codes.PermissionDenied:
			return &Error{Kind: KindConfig, Reason: "credential rejected", Err: err}
		case codes.Canceled:
			return &Error{Kind: KindCanceled, Reason: "request canceled", Err: err}
		}
	}

	return &Error{Kind: KindTransport, Reason: "request failed", Err: err}
}
