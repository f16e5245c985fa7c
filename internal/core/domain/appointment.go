package domain

import (
	"fmt"
	"time"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentStatuses lists every status an admin may set.
var AppointmentStatuses = []AppointmentStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	for _, known := range AppointmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ServiceType is the consultation category. It determines the default price.
type ServiceType string

const (
	ServiceIndividual ServiceType = "individual"
	ServiceCouple     ServiceType = "couple"
	ServiceOnline     ServiceType = "online"
)

// priceTable holds prices in minor currency units.
var priceTable = map[ServiceType]Money{
	ServiceIndividual: 300000,
	ServiceCouple:     500000,
	ServiceOnline:     250000,
}

// PriceFor returns the fixed price of a service type. Unknown types are
// priced as an individual session.
func PriceFor(t ServiceType) Money {
	if p, ok := priceTable[t]; ok {
		return p
	}
	return priceTable[ServiceIndividual]
}

// Money is an amount in minor currency units (kopecks). It renders as a
// decimal with two fraction digits.
type Money int64

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the amount as a JSON number, e.g. 5000.00.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// Appointment is the core aggregate root.
type Appointment struct {
	ID            string
	UserID        string // empty when not linked to an account
	Name          string
	Email         string
	Phone         string
	Message       string
	PreferredDate string // YYYY-MM-DD, empty when not given
	PreferredTime string // HH:MM, empty when not given
	ServiceType   ServiceType
	Status        AppointmentStatus
	PaymentStatus PaymentStatusName
	Price         *Money
	PaidAt        *time.Time
	IPAddress     string
	UserAgent     string
	CookieConsent bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsPaid reports whether the appointment fee has been collected.
func (a *Appointment) IsPaid() bool {
	return a.PaymentStatus == PaymentPaid
}

// CanBePaidByClient reports whether a client-initiated payment is allowed:
// the appointment must be confirmed and not already paid.
func (a *Appointment) CanBePaidByClient() bool {
	return a.Status == StatusConfirmed && !a.IsPaid()
}

// ConfirmationPrice returns the price to assign when the appointment moves to
// next. It is nil unless next is confirmed and no price has been set yet.
func (a *Appointment) ConfirmationPrice(next AppointmentStatus) *Money {
	if next != StatusConfirmed || a.Price != nil {
		return nil
	}
	p := PriceFor(a.ServiceType)
	return &p
}
