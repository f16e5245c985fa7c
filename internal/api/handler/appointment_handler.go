package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

// AppointmentHandler serves the public submission endpoint.
type AppointmentHandler struct {
	service ports.AppointmentService
}

func NewAppointmentHandler(service ports.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// Submit handles POST /api/appointments.
//
// @Summary      Submit an appointment request
// @Description  Public endpoint. Creates a pending, unpriced appointment.
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        body  body      submitAppointmentRequest  true  "Appointment request"
// @Success      201   {object}  Envelope{data=appointmentResponse}
// @Failure      422   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /appointments [post]
func (h *AppointmentHandler) Submit(c echo.Context) error {
	var req submitAppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	a, err := h.service.Submit(c.Request().Context(), ports.SubmitAppointmentInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Message:       req.Message,
		PreferredDate: req.PreferredDate,
		PreferredTime: req.PreferredTime,
		ServiceType:   domain.ServiceType(req.ServiceType),
		CookieConsent: *req.CookieConsent,
		IPAddress:     c.RealIP(),
		UserAgent:     c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, "Your appointment request has been received.", toAppointmentResponse(a))
}
