package relay

import (
	"errors"
	"fmt"
)

// Kind classifies a failed invocation. The set is closed: every failure
// raised by the bridge carries exactly one of these.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: the caller's arguments violate the tool schema. Never reaches the network.
	KindValidation
	// KindBackendUnreachable: transport failure or non-2xx status on the session endpoint.
	KindBackendUnreachable
	// KindSessionAcquisition: session endpoint answered but no session token was found.
	KindSessionAcquisition
	// KindBackendRPC: transport failure or non-2xx status on the message endpoint.
	KindBackendRPC
	// KindMalformedResponse: the message endpoint body is not a JSON-RPC result.
	KindMalformedResponse
	// KindBackend: the backend reported an error inside a well-formed envelope.
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindBackendUnreachable:
		return "BackendUnreachable"
	case KindSessionAcquisition:
		return "SessionAcquisitionFailed"
	case KindBackendRPC:
		return "BackendRpcError"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindBackend:
		return "BackendError"
	default:
		return "Unknown"
	}
}

// Error is the single error type produced by the bridge core.
type Error struct {
	Kind    Kind
	Message string
	// Status and Body are set for failures that carry an HTTP response.
	Status int
	Body   string
	// Detail holds the backend's structured error for KindBackend.
	Detail any
	Err    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NewValidationError reports bad tool arguments.
func NewValidationError(tool string, cause error) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("invalid arguments for %s: %v", tool, cause),
		Err:     cause,
	}
}

func unreachable(cause error) *Error {
	return &Error{
		Kind:    KindBackendUnreachable,
		Message: fmt.Sprintf("could not connect to backend: %v", cause),
		Err:     cause,
	}
}

func unreachableStatus(status int, body string) *Error {
	return &Error{
		Kind:    KindBackendUnreachable,
		Message: fmt.Sprintf("could not connect to backend: %d - %s", status, body),
		Status:  status,
		Body:    body,
	}
}

func noSession(cause error) *Error {
	return &Error{
		Kind:    KindSessionAcquisition,
		Message: "could not get session ID from backend",
		Err:     cause,
	}
}

func rpcFailed(cause error) *Error {
	return &Error{
		Kind:    KindBackendRPC,
		Message: fmt.Sprintf("backend server error: %v", cause),
		Err:     cause,
	}
}

func rpcStatus(status int, body string) *Error {
	return &Error{
		Kind:    KindBackendRPC,
		Message: fmt.Sprintf("backend server error: %d - %s", status, body),
		Status:  status,
		Body:    body,
	}
}

func malformed(body string, cause error) *Error {
	return &Error{
		Kind:    KindMalformedResponse,
		Message: "invalid JSON response from backend",
		Body:    body,
		Err:     cause,
	}
}

func backendError(message string, detail any) *Error {
	return &Error{
		Kind:    KindBackend,
		Message: message,
		Detail:  detail,
	}
}
