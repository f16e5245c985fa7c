package service

import (
	"context"
	"fmt"
	"time"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

// DashboardService computes dashboard aggregates and the client listing.
type DashboardService struct {
	repo  ports.AppointmentRepository
	users ports.UserRepository
	loc   *time.Location
	now   func() time.Time
}

// NewDashboardService returns a DashboardService that evaluates "today" and
// "this week" in loc. A nil loc means UTC.
func NewDashboardService(repo ports.AppointmentRepository, users ports.UserRepository, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{repo: repo, users: users, loc: loc, now: time.Now}
}

// AdminStats aggregates over every appointment.
func (s *DashboardService) AdminStats(ctx context.Context, actor domain.Identity) (*ports.AdminStats, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	today := s.now().In(s.loc)
	todayStr := today.Format(domain.DateLayout)
	weekStart, weekEnd := domain.WeekBounds(today)

	var (
		stats ports.AdminStats
		err   error
	)
	c := counter{ctx: ctx, repo: s.repo}

	stats.TotalAppointments = c.count(ports.AppointmentFilter{})
	stats.PendingAppointments = c.count(byStatus(domain.StatusPending))
	stats.ConfirmedAppointments = c.count(byStatus(domain.StatusConfirmed))
	stats.CompletedAppointments = c.count(byStatus(domain.StatusCompleted))
	stats.CancelledAppointments = c.count(byStatus(domain.StatusCancelled))
	stats.PendingPayments = c.count(ports.AppointmentFilter{
		Statuses:      []domain.AppointmentStatus{domain.StatusConfirmed},
		PaymentStatus: domain.PaymentPending,
	})
	stats.TotalRevenue = c.sum(ports.AppointmentFilter{PaymentStatus: domain.PaymentPaid})
	stats.TodayAppointments = c.count(ports.AppointmentFilter{DateFrom: todayStr, DateTo: todayStr})
	stats.ThisWeekAppointments = c.count(ports.AppointmentFilter{DateFrom: weekStart, DateTo: weekEnd})
	if c.err != nil {
		return nil, fmt.Errorf("admin stats: %w", c.err)
	}

	stats.TotalClients, err = s.users.CountByRole(ctx, domain.RoleClient)
	if err != nil {
		return nil, fmt.Errorf("admin stats: count clients: %w", err)
	}

	return &stats, nil
}

// ClientStats aggregates over the appointments the caller owns.
func (s *DashboardService) ClientStats(ctx context.Context, actor domain.Identity) (*ports.ClientStats, error) {
	owner := ports.ScopeOf(actor)
	today := s.now().In(s.loc).Format(domain.DateLayout)

	c := counter{ctx: ctx, repo: s.repo}
	stats := ports.ClientStats{
		TotalAppointments: c.count(ports.AppointmentFilter{Owner: owner}),
		UpcomingAppointments: c.count(ports.AppointmentFilter{
			Owner:    owner,
			Statuses: []domain.AppointmentStatus{domain.StatusPending, domain.StatusConfirmed},
			DateFrom: today,
		}),
		CompletedAppointments: c.count(ports.AppointmentFilter{
			Owner:    owner,
			Statuses: []domain.AppointmentStatus{domain.StatusCompleted},
		}),
		PendingPayments: c.count(ports.AppointmentFilter{
			Owner:         owner,
			Statuses:      []domain.AppointmentStatus{domain.StatusConfirmed},
			PaymentStatus: domain.PaymentPending,
		}),
		TotalPaid: c.sum(ports.AppointmentFilter{Owner: owner, PaymentStatus: domain.PaymentPaid}),
	}
	if c.err != nil {
		return nil, fmt.Errorf("client stats: %w", c.err)
	}
	return &stats, nil
}

// ListClients returns one page of client accounts, newest first, each with
// the number of appointments linked to it.
func (s *DashboardService) ListClients(ctx context.Context, actor domain.Identity, page int) (*ports.Page[ports.ClientSummary], error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if page < 1 {
		page = 1
	}

	users, total, err := s.users.ListByRole(ctx, domain.RoleClient, page, PageSize)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	items := make([]ports.ClientSummary, 0, len(users))
	for _, u := range users {
		n, err := s.repo.Count(ctx, ports.AppointmentFilter{UserID: u.ID})
		if err != nil {
			return nil, fmt.Errorf("list clients: count appointments: %w", err)
		}
		items = append(items, ports.ClientSummary{User: u, AppointmentsCount: n})
	}

	return newPage(items, total, page), nil
}

func byStatus(status domain.AppointmentStatus) ports.AppointmentFilter {
	return ports.AppointmentFilter{Statuses: []domain.AppointmentStatus{status}}
}

// counter runs a series of aggregate queries and keeps the first error.
type counter struct {
	ctx  context.Context
	repo ports.AppointmentRepository
	err  error
}

func (c *counter) count(f ports.AppointmentFilter) int64 {
	if c.err != nil {
		return 0
	}
	n, err := c.repo.Count(c.ctx, f)
	c.err = err
	return n
}

func (c *counter) sum(f ports.AppointmentFilter) domain.Money {
	if c.err != nil {
		return 0
	}
	m, err := c.repo.SumPrice(c.ctx, f)
	c.err = err
	return m
}
