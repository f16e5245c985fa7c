package domain

import "time"

// TransitionKind distinguishes status changes from payment changes.
type TransitionKind string

const (
	TransitionStatus  TransitionKind = "status"
	TransitionPayment TransitionKind = "payment"
)

// TransitionEvent is the audit record of a single lifecycle change.
type TransitionEvent struct {
	AppointmentID string
	Kind          TransitionKind
	From          string
	To            string
	ActorID       string
	ActorRole     RoleName
	At            time.Time
}
