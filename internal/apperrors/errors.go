// internal/apperrors/errors.go
package apperrors

import "fmt"

// NotFoundError identifies a missing entity ("campaign", "contact", "list").
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewNotFound(kind string, id any) error {
	return &NotFoundError{Kind: kind, ID: fmt.Sprintf("%v", id)}
}

// ValidationError carries an operator-facing message for bad input.
// No state change accompanies one.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// TransportError marks a failure of the outbound mail transport itself
// (cannot connect or authenticate) as opposed to a per-recipient refusal.
// The campaign runner stops on these and leaves remaining rows pending.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "mail transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

func NewTransport(err error) error {
	return &TransportError{Err: err}
}
