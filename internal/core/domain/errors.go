package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("access forbidden")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrSessionNotFound      = errors.New("session not found")
)

// PaymentStateError reports a violated payment precondition. It matches
// ErrInvalidPaymentState under errors.Is.
type PaymentStateError struct {
	Reason string
}

var ErrInvalidPaymentState = errors.New("invalid payment state")

func (e *PaymentStateError) Error() string { return e.Reason }

func (e *PaymentStateError) Is(target error) bool { return target == ErrInvalidPaymentState }

var (
	errNotConfirmed = &PaymentStateError{Reason: "payment is only possible for confirmed appointments"}
	errAlreadyPaid  = &PaymentStateError{Reason: "this appointment is already paid"}
	errNotPaid      = &PaymentStateError{Reason: "only paid appointments can be refunded"}
)

// PaymentPrecondition returns the error a client payment of a would fail with,
// or nil when the payment is allowed.
func PaymentPrecondition(a *Appointment) error {
	if a.Status != StatusConfirmed {
		return errNotConfirmed
	}
	if a.IsPaid() {
		return errAlreadyPaid
	}
	return nil
}

// RefundPrecondition returns the error a refund of a would fail with.
func RefundPrecondition(a *Appointment) error {
	if a.PaymentStatus != PaymentPaid {
		return errNotPaid
	}
	return nil
}

// ValidationError carries field-keyed, client-correctable input errors.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	ve := &ValidationError{Fields: map[string][]string{}}
	ve.Add(field, msg)
	return ve
}

// Add appends msg to the messages of field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
