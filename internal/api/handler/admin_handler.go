package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
	"github.com/psyconsult/booking-api/pkg/logger"
)

// UserDirectory resolves the account linked to an appointment.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// AdminHandler serves the practitioner's triage endpoints.
type AdminHandler struct {
	appointments ports.AppointmentService
	dashboard    ports.DashboardService
	users        UserDirectory
}

func NewAdminHandler(appointments ports.AppointmentService, dashboard ports.DashboardService, users UserDirectory) *AdminHandler {
	return &AdminHandler{appointments: appointments, dashboard: dashboard, users: users}
}

// Stats handles GET /api/admin/stats.
//
// @Summary      Admin statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=ports.AdminStats}
// @Failure      403  {object}  Envelope
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	stats, err := h.dashboard.AdminStats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, stats)
}

// Appointments handles GET /api/admin/appointments.
//
// @Summary      List appointments
// @Description  Filter by status ("all" or empty for any), payment status name and an inclusive preferred date range. 20 per page.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status          query     string  false  "pending, confirmed, completed, cancelled or all"
// @Param        payment_status  query     string  false  "pending, paid or refunded"
// @Param        date_from       query     string  false  "YYYY-MM-DD"
// @Param        date_to         query     string  false  "YYYY-MM-DD"
// @Param        page            query     int     false  "Page number"
// @Success      200             {object}  Envelope{data=paginatedResponse[adminAppointmentResponse]}
// @Failure      403             {object}  Envelope
// @Failure      422             {object}  Envelope
// @Router       /admin/appointments [get]
func (h *AdminHandler) Appointments(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	in := ports.ListAppointmentsInput{
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
		DateFrom:      c.QueryParam("date_from"),
		DateTo:        c.QueryParam("date_to"),
		Page:          pageParam(c),
	}
	if err := validateDateRange(in.DateFrom, in.DateTo); err != nil {
		return err
	}

	page, err := h.appointments.ListAll(c.Request().Context(), id, in)
	if err != nil {
		return err
	}

	owners := h.owners(c, page.Items)
	return ok(c, toPaginated(page, func(a *domain.Appointment) adminAppointmentResponse {
		return toAdminAppointmentResponse(a, owners[a.UserID])
	}))
}

// SetStatus handles PUT /api/admin/appointments/:id/status.
//
// @Summary      Change appointment status
// @Description  Confirming an unpriced appointment assigns the price of its service type.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Appointment ID"
// @Param        body  body      setStatusRequest  true  "New status"
// @Success      200   {object}  Envelope{data=adminAppointmentResponse}
// @Failure      403   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Failure      422   {object}  Envelope
// @Router       /admin/appointments/{id}/status [put]
func (h *AdminHandler) SetStatus(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	var req setStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	a, err := h.appointments.SetStatus(c.Request().Context(), id, c.Param("id"), domain.AppointmentStatus(req.Status))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Status updated.", toAdminAppointmentResponse(a, h.owner(c, a.UserID)))
}

// MarkPaid handles POST /api/admin/appointments/:id/mark-paid.
//
// @Summary      Mark an appointment as paid
// @Description  Manual reconciliation; no status precondition.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  Envelope{data=adminAppointmentResponse}
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /admin/appointments/{id}/mark-paid [post]
func (h *AdminHandler) MarkPaid(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	a, err := h.appointments.MarkPaidByAdmin(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Appointment marked as paid.", toAdminAppointmentResponse(a, h.owner(c, a.UserID)))
}

// Clients handles GET /api/admin/clients.
//
// @Summary      List clients
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page number"
// @Success      200   {object}  Envelope{data=paginatedResponse[clientResponse]}
// @Failure      403   {object}  Envelope
// @Router       /admin/clients [get]
func (h *AdminHandler) Clients(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	page, err := h.dashboard.ListClients(c.Request().Context(), id, pageParam(c))
	if err != nil {
		return err
	}
	return ok(c, toPaginated(page, func(s ports.ClientSummary) clientResponse {
		return clientResponse{userResponse: toUserResponse(s.User), AppointmentsCount: s.AppointmentsCount}
	}))
}

// owners loads the linked accounts of a page of appointments once per user.
func (h *AdminHandler) owners(c echo.Context, items []*domain.Appointment) map[string]*domain.User {
	out := make(map[string]*domain.User)
	for _, a := range items {
		if a.UserID == "" {
			continue
		}
		if _, seen := out[a.UserID]; seen {
			continue
		}
		out[a.UserID] = h.owner(c, a.UserID)
	}
	return out
}

// owner is best effort: a failed lookup renders the appointment without its user.
func (h *AdminHandler) owner(c echo.Context, userID string) *domain.User {
	if userID == "" || h.users == nil {
		return nil
	}
	u, err := h.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			log := logger.FromEcho(c)
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to load appointment owner")
		}
		return nil
	}
	return u
}

func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func validateDateRange(from, to string) error {
	var ve *domain.ValidationError
	for field, v := range map[string]string{"date_from": from, "date_to": to} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			if ve == nil {
				ve = &domain.ValidationError{}
			}
			ve.Add(field, "The "+strings.ReplaceAll(field, "_", " ")+" is not a valid date.")
		}
	}
	if ve != nil {
		return ve
	}
	return nil
}
