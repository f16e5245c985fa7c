package ports

import (
	"context"
	"time"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

// OwnerScope restricts a query to the appointments a caller owns: linked by
// user id, or submitted with the caller's email.
type OwnerScope struct {
	UserID string
	Email  string
}

// ScopeOf builds the ownership scope for a caller.
func ScopeOf(id domain.Identity) *OwnerScope {
	return &OwnerScope{UserID: id.UserID, Email: domain.NormalizeEmail(id.Email)}
}

// AppointmentFilter carries every query parameter understood by the store.
// Zero values mean "no restriction".
type AppointmentFilter struct {
	Owner         *OwnerScope
	UserID        string // strict link, no email fallback
	Statuses      []domain.AppointmentStatus
	PaymentStatus domain.PaymentStatusName
	DateFrom      string // preferred_date >= DateFrom (YYYY-MM-DD)
	DateTo        string // preferred_date <= DateTo (YYYY-MM-DD)
	Page          int    // 1-based
	Limit         int    // 0 = unpaginated
}

// AppointmentRepository defines persistence operations for appointments.
// Every mutation is a single-document atomic update.
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	FindByID(ctx context.Context, id string) (*domain.Appointment, error)

	// UpdateStatus sets the status and, when price is non-nil, assigns it only
	// if the stored price is still unset. Both happen in one write.
	UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus, price *domain.Money, at time.Time) (*domain.Appointment, error)

	// MarkPaid sets payment status to paid together with paid_at. When
	// requireConfirmed is true the write only applies to a confirmed, unpaid
	// appointment and ErrInvalidPaymentState is returned otherwise.
	MarkPaid(ctx context.Context, id string, paidAt time.Time, requireConfirmed bool) (*domain.Appointment, error)

	// Refund moves a paid appointment to refunded.
	Refund(ctx context.Context, id string, at time.Time) (*domain.Appointment, error)

	// LinkToUser back-fills user_id on unlinked appointments submitted with email.
	LinkToUser(ctx context.Context, email, userID string) (int64, error)

	// List returns one page of appointments ordered by preferred date and time
	// descending, plus the total number of matches.
	List(ctx context.Context, filter AppointmentFilter) ([]*domain.Appointment, int64, error)
	Count(ctx context.Context, filter AppointmentFilter) (int64, error)
	SumPrice(ctx context.Context, filter AppointmentFilter) (domain.Money, error)
}
