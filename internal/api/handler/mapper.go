package handler

import (
	"time"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type appointmentResponse struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	Phone              string        `json:"phone,omitempty"`
	Message            string        `json:"message"`
	PreferredDate      *string       `json:"preferred_date"`
	PreferredTime      *string       `json:"preferred_time"`
	ServiceType        string        `json:"service_type"`
	Status             string        `json:"status"`
	PaymentStatus      string        `json:"payment_status"`
	PaymentStatusLabel string        `json:"payment_status_label,omitempty"`
	Price              *domain.Money `json:"price"`
	PaidAt             *string       `json:"paid_at"`
	CreatedAt          string        `json:"created_at"`
}

// adminAppointmentResponse adds submission metadata and the linked account.
type adminAppointmentResponse struct {
	appointmentResponse
	IPAddress     string        `json:"ip_address,omitempty"`
	UserAgent     string        `json:"user_agent,omitempty"`
	CookieConsent bool          `json:"cookie_consent"`
	User          *userResponse `json:"user"`
}

type clientResponse struct {
	userResponse
	AppointmentsCount int64 `json:"appointments_count"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type paginatedResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	LastPage int   `json:"last_page"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toAppointmentResponse(a *domain.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		Phone:         a.Phone,
		Message:       a.Message,
		PreferredDate: nullable(a.PreferredDate),
		PreferredTime: nullable(a.PreferredTime),
		ServiceType:   string(a.ServiceType),
		Status:        string(a.Status),
		PaymentStatus: string(a.PaymentStatus),
		Price:         a.Price,
		CreatedAt:     formatTime(a.CreatedAt),
	}
	if ps, ok := domain.FindPaymentStatus(string(a.PaymentStatus)); ok {
		resp.PaymentStatusLabel = ps.DisplayName
	}
	if a.PaidAt != nil {
		resp.PaidAt = nullable(formatTime(*a.PaidAt))
	}
	return resp
}

func toAppointmentResponses(items []*domain.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

func toAdminAppointmentResponse(a *domain.Appointment, owner *domain.User) adminAppointmentResponse {
	resp := adminAppointmentResponse{
		appointmentResponse: toAppointmentResponse(a),
		IPAddress:           a.IPAddress,
		UserAgent:           a.UserAgent,
		CookieConsent:       a.CookieConsent,
	}
	if owner != nil {
		u := toUserResponse(owner)
		resp.User = &u
	}
	return resp
}

func toPaginated[T, R any](p *ports.Page[T], conv func(T) R) paginatedResponse[R] {
	items := make([]R, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, conv(it))
	}
	return paginatedResponse[R]{
		Items:    items,
		Total:    p.Total,
		Page:     p.Page,
		PerPage:  p.Limit,
		LastPage: p.TotalPages,
	}
}
