// Package apperr defines the error taxonomy shared by the lifecycle services
// and the HTTP layer. Handlers translate these with errors.As; anything else
// is treated as an internal error.
package apperr

import "fmt"

// ValidationError: malformed or missing input. Caller-recoverable, never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return e.Msg
}

func Validation(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// AuthError: missing identity (401) or insufficient role/ownership (403).
type AuthError struct {
	Msg       string
	Forbidden bool
}

func (e *AuthError) Error() string { return e.Msg }

func Unauthorized(msg string) *AuthError { return &AuthError{Msg: msg} }
func Forbidden(msg string) *AuthError    { return &AuthError{Msg: msg, Forbidden: true} }

// StateError: an operation hit an entity outside its required precondition
// state. The caller must re-fetch before retrying.
type StateError struct {
	Entity  string
	Current string
	Msg     string
}

func (e *StateError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s is %s", e.Entity, e.Current)
}

func State(entity, current, msg string) *StateError {
	return &StateError{Entity: entity, Current: current, Msg: msg}
}

// NotFoundError: the referenced entity does not exist (or is not visible to
// the caller).
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func NotFound(entity string) *NotFoundError { return &NotFoundError{Entity: entity} }

// GatewayError: a synchronous failure at the payment-gateway boundary. State
// was not advanced, so the operation is safe to retry.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func Gateway(op string, err error) *GatewayError { return &GatewayError{Op: op, Err: err} }
