package types

import "fmt"

// ValidationError is returned for malformed caller input. It is the only error
// class surfaced to callers as a request failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// AuthError is returned when an upstream bearer token cannot be obtained.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// SchemaError is returned when an upstream payload is not valid JSON.
type SchemaError struct {
	Source string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema: %s payload: %v", e.Source, e.Err)
	}
	return "schema: invalid " + e.Source + " payload"
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
