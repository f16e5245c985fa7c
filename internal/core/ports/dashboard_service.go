package ports

import (
	"context"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

// AdminStats is the admin dashboard aggregate.
type AdminStats struct {
	TotalAppointments     int64        `json:"total_appointments"`
	PendingAppointments   int64        `json:"pending_appointments"`
	ConfirmedAppointments int64        `json:"confirmed_appointments"`
	CompletedAppointments int64        `json:"completed_appointments"`
	CancelledAppointments int64        `json:"cancelled_appointments"`
	TotalClients          int64        `json:"total_clients"`
	PendingPayments       int64        `json:"pending_payments"`
	TotalRevenue          domain.Money `json:"total_revenue"`
	TodayAppointments     int64        `json:"today_appointments"`
	ThisWeekAppointments  int64        `json:"this_week_appointments"`
}

// ClientStats is the aggregate over the caller's own appointments.
type ClientStats struct {
	TotalAppointments     int64        `json:"total_appointments"`
	UpcomingAppointments  int64        `json:"upcoming_appointments"`
	CompletedAppointments int64        `json:"completed_appointments"`
	PendingPayments       int64        `json:"pending_payments"`
	TotalPaid             domain.Money `json:"total_paid"`
}

// ClientSummary is a client account with its linked appointment count.
type ClientSummary struct {
	User              *domain.User
	AppointmentsCount int64
}

type DashboardService interface {
	AdminStats(ctx context.Context, actor domain.Identity) (*AdminStats, error)
	ClientStats(ctx context.Context, actor domain.Identity) (*ClientStats, error)
	ListClients(ctx context.Context, actor domain.Identity, page int) (*Page[ClientSummary], error)
}
