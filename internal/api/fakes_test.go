package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

// memAppointments is a minimal in-memory ports.AppointmentRepository.
type memAppointments struct {
	mu   sync.Mutex
	byID map[string]domain.Appointment
	seq  int
}

func newMemAppointments() *memAppointments {
	return &memAppointments{byID: make(map[string]domain.Appointment)}
}

func (r *memAppointments) Create(_ context.Context, a *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = fmt.Sprintf("a%d", r.seq)
	r.byID[a.ID] = *a
	return nil
}

func (r *memAppointments) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *memAppointments) update(id string, fn func(a *domain.Appointment) error) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	if err := fn(&a); err != nil {
		return nil, err
	}
	r.byID[id] = a
	return &a, nil
}

func (r *memAppointments) UpdateStatus(_ context.Context, id string, status domain.AppointmentStatus, price *domain.Money, at time.Time) (*domain.Appointment, error) {
	return r.update(id, func(a *domain.Appointment) error {
		a.Status, a.UpdatedAt = status, at
		if price != nil && a.Price == nil {
			p := *price
			a.Price = &p
		}
		return nil
	})
}

func (r *memAppointments) MarkPaid(_ context.Context, id string, paidAt time.Time, requireConfirmed bool) (*domain.Appointment, error) {
	return r.update(id, func(a *domain.Appointment) error {
		if requireConfirmed {
			if err := domain.PaymentPrecondition(a); err != nil {
				return err
			}
		}
		a.PaymentStatus, a.PaidAt, a.UpdatedAt = domain.PaymentPaid, &paidAt, paidAt
		return nil
	})
}

func (r *memAppointments) Refund(_ context.Context, id string, at time.Time) (*domain.Appointment, error) {
	return r.update(id, func(a *domain.Appointment) error {
		if err := domain.RefundPrecondition(a); err != nil {
			return err
		}
		a.PaymentStatus, a.UpdatedAt = domain.PaymentRefunded, at
		return nil
	})
}

func (r *memAppointments) LinkToUser(_ context.Context, email, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.byID {
		if a.UserID == "" && a.Email == email {
			a.UserID = userID
			r.byID[id] = a
			n++
		}
	}
	return n, nil
}

func (r *memAppointments) match(f ports.AppointmentFilter) []*domain.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range r.byID {
		a := a
		if f.Owner != nil && !(domain.Identity{UserID: f.Owner.UserID, Email: f.Owner.Email}).Owns(&a) {
			continue
		}
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
			continue
		}
		if f.PaymentStatus != "" && a.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.DateFrom != "" && (a.PreferredDate == "" || a.PreferredDate < f.DateFrom) {
			continue
		}
		if f.DateTo != "" && (a.PreferredDate == "" || a.PreferredDate > f.DateTo) {
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PreferredDate != out[j].PreferredDate {
			return out[i].PreferredDate > out[j].PreferredDate
		}
		return out[i].PreferredTime > out[j].PreferredTime
	})
	return out
}

func containsStatus(list []domain.AppointmentStatus, s domain.AppointmentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *memAppointments) List(_ context.Context, f ports.AppointmentFilter) ([]*domain.Appointment, int64, error) {
	all := r.match(f)
	if f.Limit <= 0 {
		return all, int64(len(all)), nil
	}
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *memAppointments) Count(_ context.Context, f ports.AppointmentFilter) (int64, error) {
	return int64(len(r.match(f))), nil
}

func (r *memAppointments) SumPrice(_ context.Context, f ports.AppointmentFilter) (domain.Money, error) {
	var sum domain.Money
	for _, a := range r.match(f) {
		if a.Price != nil {
			sum += *a.Price
		}
	}
	return sum, nil
}

// memUsers is a minimal in-memory ports.UserRepository.
type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
	seq   int
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.User)}
}

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("u%d", r.seq)
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUsers) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) ListByRole(ctx context.Context, role domain.RoleName, page, limit int) ([]*domain.User, int64, error) {
	r.mu.Lock()
	var all []*domain.User
	for _, u := range r.users {
		if u.Role == role {
			u := u
			all = append(all, &u)
		}
	}
	r.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *memUsers) CountByRole(ctx context.Context, role domain.RoleName) (int64, error) {
	_, total, err := r.ListByRole(ctx, role, 1, 0)
	return total, err
}

type memAudit struct{}

func (memAudit) Record(context.Context, *domain.TransitionEvent) error { return nil }

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]string
}

func (s *memSessions) Create(_ context.Context, id, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = userID
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[id]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return userID, nil
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
