package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory appointment repository
// ---------------------------------------------------------------------------

type stubAppointmentRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Appointment
	seq       int
	createErr error // if set, Create returns this error
	updateErr error // if set, every mutation returns this error
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{byID: make(map[string]*domain.Appointment)}
}

func cloneAppointment(a *domain.Appointment) *domain.Appointment {
	clone := *a
	if a.Price != nil {
		p := *a.Price
		clone.Price = &p
	}
	if a.PaidAt != nil {
		t := *a.PaidAt
		clone.PaidAt = &t
	}
	return &clone
}

func (r *stubAppointmentRepo) put(a *domain.Appointment) *domain.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		r.seq++
		a.ID = fmt.Sprintf("a%d", r.seq)
	}
	r.byID[a.ID] = cloneAppointment(a)
	return a
}

func (r *stubAppointmentRepo) Create(_ context.Context, a *domain.Appointment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.put(a)
	return nil
}

func (r *stubAppointmentRepo) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	return cloneAppointment(a), nil
}

func (r *stubAppointmentRepo) mutate(id string, fn func(a *domain.Appointment) error) (*domain.Appointment, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	next := cloneAppointment(a)
	if err := fn(next); err != nil {
		return nil, err
	}
	r.byID[id] = next
	return cloneAppointment(next), nil
}

func (r *stubAppointmentRepo) UpdateStatus(_ context.Context, id string, status domain.AppointmentStatus, price *domain.Money, at time.Time) (*domain.Appointment, error) {
	return r.mutate(id, func(a *domain.Appointment) error {
		a.Status = status
		if price != nil && a.Price == nil {
			p := *price
			a.Price = &p
		}
		a.UpdatedAt = at
		return nil
	})
}

func (r *stubAppointmentRepo) MarkPaid(_ context.Context, id string, paidAt time.Time, requireConfirmed bool) (*domain.Appointment, error) {
	return r.mutate(id, func(a *domain.Appointment) error {
		if requireConfirmed && !a.CanBePaidByClient() {
			return domain.ErrInvalidPaymentState
		}
		a.PaymentStatus = domain.PaymentPaid
		a.PaidAt = &paidAt
		a.UpdatedAt = paidAt
		return nil
	})
}

func (r *stubAppointmentRepo) Refund(_ context.Context, id string, at time.Time) (*domain.Appointment, error) {
	return r.mutate(id, func(a *domain.Appointment) error {
		if a.PaymentStatus != domain.PaymentPaid {
			return domain.ErrInvalidPaymentState
		}
		a.PaymentStatus = domain.PaymentRefunded
		a.UpdatedAt = at
		return nil
	})
}

func (r *stubAppointmentRepo) LinkToUser(_ context.Context, email, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.byID {
		if a.UserID == "" && a.Email == email {
			a.UserID = userID
			n++
		}
	}
	return n, nil
}

// matches applies the same predicates the Mongo repository builds.
func matches(a *domain.Appointment, f ports.AppointmentFilter) bool {
	if f.Owner != nil && !(domain.Identity{UserID: f.Owner.UserID, Email: f.Owner.Email}).Owns(a) {
		return false
	}
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.PaymentStatus != "" && a.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.DateFrom != "" && (a.PreferredDate == "" || a.PreferredDate < f.DateFrom) {
		return false
	}
	if f.DateTo != "" && (a.PreferredDate == "" || a.PreferredDate > f.DateTo) {
		return false
	}
	return true
}

func (r *stubAppointmentRepo) filter(f ports.AppointmentFilter) []*domain.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range r.byID {
		if matches(a, f) {
			out = append(out, cloneAppointment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PreferredDate != out[j].PreferredDate {
			return out[i].PreferredDate > out[j].PreferredDate
		}
		return out[i].PreferredTime > out[j].PreferredTime
	})
	return out
}

func (r *stubAppointmentRepo) List(_ context.Context, f ports.AppointmentFilter) ([]*domain.Appointment, int64, error) {
	matched := r.filter(f)
	total := int64(len(matched))
	if f.Limit <= 0 {
		return matched, total, nil
	}
	skip := (f.Page - 1) * f.Limit
	if skip < 0 {
		skip = 0
	}
	if skip > len(matched) {
		return []*domain.Appointment{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubAppointmentRepo) Count(_ context.Context, f ports.AppointmentFilter) (int64, error) {
	return int64(len(r.filter(f))), nil
}

func (r *stubAppointmentRepo) SumPrice(_ context.Context, f ports.AppointmentFilter) (domain.Money, error) {
	var sum domain.Money
	for _, a := range r.filter(f) {
		if a.Price != nil {
			sum += *a.Price
		}
	}
	return sum, nil
}

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("u%d", r.seq)
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) byRole(role domain.RoleName) []*domain.User {
	var out []*domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubUserRepo) ListByRole(_ context.Context, role domain.RoleName, page, limit int) ([]*domain.User, int64, error) {
	all := r.byRole(role)
	skip := (page - 1) * limit
	if skip > len(all) {
		return nil, int64(len(all)), nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], int64(len(all)), nil
}

func (r *stubUserRepo) CountByRole(_ context.Context, role domain.RoleName) (int64, error) {
	return int64(len(r.byRole(role))), nil
}

// ---------------------------------------------------------------------------
// Audit and session stubs
// ---------------------------------------------------------------------------

type stubAuditRepo struct {
	events []*domain.TransitionEvent
	err    error
}

func (r *stubAuditRepo) Record(_ context.Context, e *domain.TransitionEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

type stubSessionStore struct {
	sessions map[string]string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]string)}
}

func (s *stubSessionStore) Create(_ context.Context, sessionID, userID string, _ time.Duration) error {
	s.sessions[sessionID] = userID
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, sessionID string) (string, error) {
	userID, ok := s.sessions[sessionID]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return userID, nil
}

func (s *stubSessionStore) Delete(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	adminActor  = domain.Identity{UserID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
	clientActor = domain.Identity{UserID: "u-anna", Email: "a@x.com", Role: domain.RoleClient}
	otherClient = domain.Identity{UserID: "u-bob", Email: "bob@example.com", Role: domain.RoleClient}
)

func annaInput() ports.SubmitAppointmentInput {
	return ports.SubmitAppointmentInput{
		Name:          "Anna",
		Email:         "A@X.com",
		Message:       "need help please",
		ServiceType:   domain.ServiceCouple,
		CookieConsent: true,
		IPAddress:     "10.0.0.1",
		UserAgent:     "test-agent",
	}
}
