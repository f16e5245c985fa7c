package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

// DashboardHandler serves the client dashboard.
type DashboardHandler struct {
	appointments ports.AppointmentService
	dashboard    ports.DashboardService
}

func NewDashboardHandler(appointments ports.AppointmentService, dashboard ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{appointments: appointments, dashboard: dashboard}
}

// MyAppointments handles GET /api/dashboard/my-appointments.
//
// @Summary      List my appointments
// @Description  Appointments linked to the caller or submitted with the caller's email, newest preferred date first.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=[]appointmentResponse}
// @Failure      401  {object}  Envelope
// @Router       /dashboard/my-appointments [get]
func (h *DashboardHandler) MyAppointments(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	items, err := h.appointments.ListMine(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, toAppointmentResponses(items))
}

// MyStats handles GET /api/dashboard/my-stats.
//
// @Summary      My statistics
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=ports.ClientStats}
// @Failure      401  {object}  Envelope
// @Router       /dashboard/my-stats [get]
func (h *DashboardHandler) MyStats(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	stats, err := h.dashboard.ClientStats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, stats)
}

// Show handles GET /api/dashboard/appointments/:id.
//
// @Summary      Get one appointment
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  Envelope{data=appointmentResponse}
// @Failure      401  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /dashboard/appointments/{id} [get]
func (h *DashboardHandler) Show(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	a, err := h.appointments.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, toAppointmentResponse(a))
}

// Pay handles POST /api/dashboard/appointments/:id/pay. The payment itself
// is simulated; only the recorded state changes.
//
// @Summary      Pay for a confirmed appointment
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string      true  "Appointment ID"
// @Param        body  body      payRequest  true  "Payment method"
// @Success      200   {object}  Envelope{data=appointmentResponse}
// @Failure      401   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Failure      422   {object}  Envelope
// @Router       /dashboard/appointments/{id}/pay [post]
func (h *DashboardHandler) Pay(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	var req payRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	a, err := h.appointments.Pay(c.Request().Context(), id, c.Param("id"), domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Payment received.", toAppointmentResponse(a))
}
