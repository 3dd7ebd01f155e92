// Package errors defines the behavioral error kinds the table-node kernel
// raises. Each kind is a distinct Go type so the HTTP boundary can classify
// failures without string matching.
package errors

import "fmt"

// CodecError is raised when a value codec payload is malformed or does not
// match the declared value type.
type CodecError struct {
	Payload   string
	ValueType string
	Message   string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec error: %s (payload=%q, type=%s)", e.Message, e.Payload, e.ValueType)
}

func NewCodecError(payload, valueType, message string) *CodecError {
	return &CodecError{Payload: payload, ValueType: valueType, Message: message}
}

// ParameterError is raised on bad arguments: slice arity mismatch, a
// double-receipt, an unknown trial_id, and similar local contract
// violations.
type ParameterError struct {
	Message string
}

func (e *ParameterError) Error() string { return fmt.Sprintf("parameter error: %s", e.Message) }

func NewParameterError(message string) *ParameterError {
	return &ParameterError{Message: message}
}

// InvalidSpaceError is raised when an aligned space violates its structural
// invariant (lower-filling) or declares an illegal infinite ambient axis.
type InvalidSpaceError struct {
	Message string
}

func (e *InvalidSpaceError) Error() string { return fmt.Sprintf("invalid space: %s", e.Message) }

func NewInvalidSpaceError(message string) *InvalidSpaceError {
	return &InvalidSpaceError{Message: message}
}

// UndefinedError is raised when a tagged-variant discriminator (a strategy
// "type" field, a value_type literal, ...) does not match any known variant.
type UndefinedError struct {
	Kind  string
	Value string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined %s: %q", e.Kind, e.Value)
}

func NewUndefinedError(kind, value string) *UndefinedError {
	return &UndefinedError{Kind: kind, Value: value}
}

// TypeError is raised when a strategy discriminator names a known-but-
// unimplemented variant (e.g. the "minimize" study strategy).
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return fmt.Sprintf("type error: %s", e.Message) }

func NewTypeError(message string) *TypeError {
	return &TypeError{Message: message}
}

// NotFoundError is raised when a study or trial cannot be located.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Kind, e.ID) }

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// SerializationError is raised when the snapshot file cannot be parsed.
type SerializationError struct {
	Path    string
	Cause   error
	Message string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error at %s: %s: %v", e.Path, e.Message, e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

func NewSerializationError(path, message string, cause error) *SerializationError {
	return &SerializationError{Path: path, Cause: cause, Message: message}
}

// TransportError wraps a collaborator (HTTP client/server) failure,
// classified by whether it originated server-side (5xx) or client-side
// (4xx).
type TransportError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%d): %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Cause }

func NewTransportError(statusCode int, message string, cause error) *TransportError {
	return &TransportError{StatusCode: statusCode, Message: message, Cause: cause}
}

// StatusCode classifies an error into the HTTP status the coordinator API
// surface should respond with. Unrecognized errors map to 500.
func StatusCode(err error) int {
	switch err.(type) {
	case *CodecError, *ParameterError, *InvalidSpaceError, *UndefinedError, *TypeError:
		return 400
	case *NotFoundError:
		return 404
	case *TransportError:
		if e, ok := err.(*TransportError); ok {
			return e.StatusCode
		}
		return 502
	default:
		return 500
	}
}
