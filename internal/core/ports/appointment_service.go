package ports

import (
	"context"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

// SubmitAppointmentInput carries a validated, normalized public submission.
type SubmitAppointmentInput struct {
	Name          string
	Email         string
	Phone         string
	Message       string
	PreferredDate string
	PreferredTime string
	ServiceType   domain.ServiceType
	CookieConsent bool
	IPAddress     string
	UserAgent     string
}

// ListAppointmentsInput carries the admin listing parameters.
type ListAppointmentsInput struct {
	Status        string
	PaymentStatus string
	DateFrom      string
	DateTo        string
	Page          int
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// AppointmentService is the appointment lifecycle engine.
type AppointmentService interface {
	Submit(ctx context.Context, in SubmitAppointmentInput) (*domain.Appointment, error)
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error)
	ListMine(ctx context.Context, actor domain.Identity) ([]*domain.Appointment, error)
	ListAll(ctx context.Context, actor domain.Identity, in ListAppointmentsInput) (*Page[*domain.Appointment], error)
	SetStatus(ctx context.Context, actor domain.Identity, id string, status domain.AppointmentStatus) (*domain.Appointment, error)
	Pay(ctx context.Context, actor domain.Identity, id string, method domain.PaymentMethod) (*domain.Appointment, error)
	MarkPaidByAdmin(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error)
	Refund(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error)
}
