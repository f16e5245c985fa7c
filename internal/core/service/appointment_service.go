package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
	"github.com/psyconsult/booking-api/internal/pkg/metrics"
)

// PageSize is the fixed size of paginated admin listings.
const PageSize = 20

// AppointmentService implements the appointment lifecycle: submission, admin
// status changes, client and admin payments.
type AppointmentService struct {
	repo   ports.AppointmentRepository
	users  ports.UserRepository
	audit  ports.AuditRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewAppointmentService(
	repo ports.AppointmentRepository,
	users ports.UserRepository,
	audit ports.AuditRepository,
	logger zerolog.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:   repo,
		users:  users,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a new public request in the pending/pending state. The request
// is linked to an account right away when its email is already registered.
func (s *AppointmentService) Submit(ctx context.Context, in ports.SubmitAppointmentInput) (*domain.Appointment, error) {
	serviceType := in.ServiceType
	if serviceType == "" {
		serviceType = domain.ServiceIndividual
	}

	now := s.now()
	a := &domain.Appointment{
		Name:          in.Name,
		Email:         domain.NormalizeEmail(in.Email),
		Phone:         in.Phone,
		Message:       in.Message,
		PreferredDate: in.PreferredDate,
		PreferredTime: in.PreferredTime,
		ServiceType:   serviceType,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		IPAddress:     in.IPAddress,
		UserAgent:     in.UserAgent,
		CookieConsent: in.CookieConsent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	owner, err := s.users.FindByEmail(ctx, a.Email)
	switch {
	case err == nil:
		a.UserID = owner.ID
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("submit appointment: lookup owner: %w", err)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("email", a.Email).Msg("failed to create appointment")
		return nil, fmt.Errorf("submit appointment: %w", err)
	}

	metrics.AppointmentsSubmittedTotal.WithLabelValues(string(serviceType)).Inc()
	s.logger.Info().
		Str("appointment_id", a.ID).
		Str("email", a.Email).
		Str("service_type", string(serviceType)).
		Bool("linked", a.UserID != "").
		Msg("appointment submitted")

	return a, nil
}

// Get returns a single appointment. Non-admin callers only see appointments
// they own; anything else is reported as not found.
func (s *AppointmentService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error) {
	if actor.IsAdmin() {
		return s.repo.FindByID(ctx, id)
	}
	return s.findOwned(ctx, actor, id)
}

// ListMine returns every appointment owned by the caller, newest preferred date first.
func (s *AppointmentService) ListMine(ctx context.Context, actor domain.Identity) ([]*domain.Appointment, error) {
	items, _, err := s.repo.List(ctx, ports.AppointmentFilter{Owner: ports.ScopeOf(actor)})
	if err != nil {
		return nil, fmt.Errorf("list own appointments: %w", err)
	}
	return items, nil
}

// ListAll returns one page of appointments for the admin listing.
func (s *AppointmentService) ListAll(ctx context.Context, actor domain.Identity, in ports.ListAppointmentsInput) (*ports.Page[*domain.Appointment], error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	page := in.Page
	if page < 1 {
		page = 1
	}

	filter := ports.AppointmentFilter{
		DateFrom: in.DateFrom,
		DateTo:   in.DateTo,
		Page:     page,
		Limit:    PageSize,
	}
	if in.Status != "" && in.Status != "all" {
		filter.Statuses = []domain.AppointmentStatus{domain.AppointmentStatus(in.Status)}
	}
	// Unknown payment status names are ignored rather than matching nothing.
	if in.PaymentStatus != "" && in.PaymentStatus != "all" {
		if ps, ok := domain.FindPaymentStatus(in.PaymentStatus); ok {
			filter.PaymentStatus = ps.Name
		}
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return newPage(items, total, page), nil
}

// SetStatus applies an admin status change. Any status may follow any other;
// confirming an unpriced appointment assigns the price of its service type in
// the same write.
func (s *AppointmentService) SetStatus(ctx context.Context, actor domain.Identity, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "status must be one of: pending confirmed completed cancelled")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, current.ConfirmationPrice(status), s.now())
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(current.Status), string(status)).Inc()
	s.record(ctx, actor, domain.TransitionStatus, id, string(current.Status), string(status))

	return updated, nil
}

// Pay settles a confirmed, unpaid appointment on behalf of its owner. The
// payment itself is simulated.
func (s *AppointmentService) Pay(ctx context.Context, actor domain.Identity, id string, method domain.PaymentMethod) (*domain.Appointment, error) {
	if actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	current, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := domain.PaymentPrecondition(current); err != nil {
		metrics.PaymentRejectionsTotal.Inc()
		return nil, err
	}

	updated, err := s.repo.MarkPaid(ctx, id, s.now(), true)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPaymentState) {
			metrics.PaymentRejectionsTotal.Inc()
			return nil, err
		}
		return nil, fmt.Errorf("pay: %w", err)
	}

	metrics.PaymentsTotal.WithLabelValues("client", string(method)).Inc()
	s.record(ctx, actor, domain.TransitionPayment, id, string(current.PaymentStatus), string(domain.PaymentPaid))

	return updated, nil
}

// MarkPaidByAdmin records a manual payment. No status or payment precondition
// applies.
func (s *AppointmentService) MarkPaidByAdmin(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.MarkPaid(ctx, id, s.now(), false)
	if err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}

	metrics.PaymentsTotal.WithLabelValues("admin", "manual").Inc()
	s.record(ctx, actor, domain.TransitionPayment, id, string(current.PaymentStatus), string(domain.PaymentPaid))

	return updated, nil
}

// Refund moves a paid appointment to refunded. It is not exposed over HTTP.
func (s *AppointmentService) Refund(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.RefundPrecondition(current); err != nil {
		return nil, err
	}

	updated, err := s.repo.Refund(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("refund: %w", err)
	}

	metrics.PaymentsTotal.WithLabelValues("refund", "manual").Inc()
	s.record(ctx, actor, domain.TransitionPayment, id, string(current.PaymentStatus), string(domain.PaymentRefunded))

	return updated, nil
}

func (s *AppointmentService) findOwned(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(a) {
		return nil, domain.ErrAppointmentNotFound
	}
	return a, nil
}

// record logs a transition and appends it to the audit trail. A failed audit
// write does not undo the transition.
func (s *AppointmentService) record(ctx context.Context, actor domain.Identity, kind domain.TransitionKind, id, from, to string) {
	event := &domain.TransitionEvent{
		AppointmentID: id,
		Kind:          kind,
		From:          from,
		To:            to,
		ActorID:       actor.UserID,
		ActorRole:     actor.Role,
		At:            s.now(),
	}

	s.logger.Info().
		Str("appointment_id", id).
		Str("kind", string(kind)).
		Str("from", from).
		Str("to", to).
		Str("actor_id", actor.UserID).
		Str("actor_role", string(actor.Role)).
		Msg("appointment transition")

	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", id).Msg("failed to record audit event")
	}
}

func newPage[T any](items []T, total int64, page int) *ports.Page[T] {
	totalPages := int((total + PageSize - 1) / PageSize)
	return &ports.Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      PageSize,
		TotalPages: totalPages,
	}
}
