package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/psyconsult/booking-api/internal/api/middleware"
	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

type stubAppointmentService struct {
	submitFn    func(ctx context.Context, in ports.SubmitAppointmentInput) (*domain.Appointment, error)
	getFn       func(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error)
	listMineFn  func(ctx context.Context, actor domain.Identity) ([]*domain.Appointment, error)
	listAllFn   func(ctx context.Context, actor domain.Identity, in ports.ListAppointmentsInput) (*ports.Page[*domain.Appointment], error)
	setStatusFn func(ctx context.Context, actor domain.Identity, id string, status domain.AppointmentStatus) (*domain.Appointment, error)
	payFn       func(ctx context.Context, actor domain.Identity, id string, method domain.PaymentMethod) (*domain.Appointment, error)
	markPaidFn  func(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error)
}

func (s *stubAppointmentService) Submit(ctx context.Context, in ports.SubmitAppointmentInput) (*domain.Appointment, error) {
	return s.submitFn(ctx, in)
}

func (s *stubAppointmentService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubAppointmentService) ListMine(ctx context.Context, actor domain.Identity) ([]*domain.Appointment, error) {
	return s.listMineFn(ctx, actor)
}

func (s *stubAppointmentService) ListAll(ctx context.Context, actor domain.Identity, in ports.ListAppointmentsInput) (*ports.Page[*domain.Appointment], error) {
	return s.listAllFn(ctx, actor, in)
}

func (s *stubAppointmentService) SetStatus(ctx context.Context, actor domain.Identity, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	return s.setStatusFn(ctx, actor, id, status)
}

func (s *stubAppointmentService) Pay(ctx context.Context, actor domain.Identity, id string, method domain.PaymentMethod) (*domain.Appointment, error) {
	return s.payFn(ctx, actor, id, method)
}

func (s *stubAppointmentService) MarkPaidByAdmin(ctx context.Context, actor domain.Identity, id string) (*domain.Appointment, error) {
	return s.markPaidFn(ctx, actor, id)
}

func (s *stubAppointmentService) Refund(context.Context, domain.Identity, string) (*domain.Appointment, error) {
	return nil, domain.ErrForbidden
}

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.Session, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.Session, error)
	logoutFn   func(ctx context.Context, token string) error
	updateFn   func(ctx context.Context, actor domain.Identity, in ports.UpdateProfileInput) (*domain.User, error)
	user       *domain.User
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, token)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	if s.user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.user, nil
}

func (s *stubAuthService) Me(context.Context, domain.Identity) (*domain.User, error) {
	if s.user == nil {
		return nil, domain.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, actor domain.Identity, in ports.UpdateProfileInput) (*domain.User, error) {
	return s.updateFn(ctx, actor, in)
}

type stubUserDirectory map[string]*domain.User

func (d stubUserDirectory) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

var (
	anna  = &domain.User{ID: "u-anna", Name: "Anna", Email: "a@x.com", Role: domain.RoleClient}
	admin = &domain.User{ID: "u-admin", Name: "Admin", Email: "admin@x.com", Role: domain.RoleAdmin}
)

// newContext builds an echo context with the validator installed and, when
// user is given, an authenticated session.
func newContext(method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		middleware.SetSession(c, user, "token-"+user.ID)
	}
	return c, rec
}
