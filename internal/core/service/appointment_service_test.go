package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

type lifecycleFixture struct {
	repo  *stubAppointmentRepo
	users *stubUserRepo
	audit *stubAuditRepo
	svc   *AppointmentService
}

func newLifecycleFixture() *lifecycleFixture {
	f := &lifecycleFixture{
		repo:  newStubAppointmentRepo(),
		users: newStubUserRepo(),
		audit: &stubAuditRepo{},
	}
	f.svc = NewAppointmentService(f.repo, f.users, f.audit, discardLogger)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC) }
	return f
}

func (f *lifecycleFixture) submit(t *testing.T, in ports.SubmitAppointmentInput) *domain.Appointment {
	t.Helper()
	a, err := f.svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return a
}

func (f *lifecycleFixture) seed(a *domain.Appointment) *domain.Appointment {
	if a.PaymentStatus == "" {
		a.PaymentStatus = domain.PaymentPending
	}
	return f.repo.put(a)
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestAppointmentService_Submit_InitialState(t *testing.T) {
	f := newLifecycleFixture()
	a := f.submit(t, annaInput())

	if a.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if a.Status != domain.StatusPending || a.PaymentStatus != domain.PaymentPending {
		t.Errorf("expected pending/pending, got %s/%s", a.Status, a.PaymentStatus)
	}
	if a.Price != nil {
		t.Errorf("expected no price, got %v", *a.Price)
	}
	if a.Email != "a@x.com" {
		t.Errorf("expected lower-cased email, got %q", a.Email)
	}
	if a.ServiceType != domain.ServiceCouple {
		t.Errorf("expected couple, got %q", a.ServiceType)
	}
	if a.PaidAt != nil {
		t.Error("paid_at must be unset")
	}

	stored := f.repo.byID[a.ID]
	if stored.IPAddress != "10.0.0.1" || stored.UserAgent != "test-agent" || !stored.CookieConsent {
		t.Errorf("submission metadata not persisted: %+v", stored)
	}
}

func TestAppointmentService_Submit_DefaultsServiceType(t *testing.T) {
	f := newLifecycleFixture()
	in := annaInput()
	in.ServiceType = ""

	a := f.submit(t, in)
	if a.ServiceType != domain.ServiceIndividual {
		t.Fatalf("expected individual, got %q", a.ServiceType)
	}
}

func TestAppointmentService_Submit_LinksExistingAccount(t *testing.T) {
	f := newLifecycleFixture()
	user := &domain.User{Email: "a@x.com", Role: domain.RoleClient}
	_ = f.users.Create(context.Background(), user)

	a := f.submit(t, annaInput())
	if a.UserID != user.ID {
		t.Fatalf("expected user_id %q, got %q", user.ID, a.UserID)
	}
}

func TestAppointmentService_Submit_StorageFailure(t *testing.T) {
	f := newLifecycleFixture()
	f.repo.createErr = errors.New("mongo down")

	if _, err := f.svc.Submit(context.Background(), annaInput()); err == nil {
		t.Fatal("expected error")
	}
}

// ---------------------------------------------------------------------------
// SetStatus
// ---------------------------------------------------------------------------

func TestAppointmentService_SetStatus_ConfirmAssignsPrice(t *testing.T) {
	cases := map[domain.ServiceType]domain.Money{
		domain.ServiceIndividual: 300000,
		domain.ServiceCouple:     500000,
		domain.ServiceOnline:     250000,
		"legacy":                 300000,
	}
	for st, want := range cases {
		f := newLifecycleFixture()
		a := f.seed(&domain.Appointment{ServiceType: st, Status: domain.StatusPending})

		got, err := f.svc.SetStatus(context.Background(), adminActor, a.ID, domain.StatusConfirmed)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", st, err)
		}
		if got.Price == nil || *got.Price != want {
			t.Errorf("%s: expected price %s, got %v", st, want, got.Price)
		}
	}
}

func TestAppointmentService_SetStatus_KeepsExistingPrice(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{ServiceType: domain.ServiceOnline, Status: domain.StatusPending})
	ctx := context.Background()

	if _, err := f.svc.SetStatus(ctx, adminActor, a.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	for _, next := range []domain.AppointmentStatus{domain.StatusCompleted, domain.StatusPending, domain.StatusConfirmed, domain.StatusCancelled} {
		got, err := f.svc.SetStatus(ctx, adminActor, a.ID, next)
		if err != nil {
			t.Fatalf("%s: %v", next, err)
		}
		if got.Status != next {
			t.Errorf("expected status %s, got %s", next, got.Status)
		}
		if got.Price == nil || *got.Price != 250000 {
			t.Errorf("%s: price changed to %v", next, got.Price)
		}
	}
}

func TestAppointmentService_SetStatus_PreservesManualPrice(t *testing.T) {
	f := newLifecycleFixture()
	manual := domain.Money(123400)
	a := f.seed(&domain.Appointment{ServiceType: domain.ServiceCouple, Status: domain.StatusPending, Price: &manual})

	got, err := f.svc.SetStatus(context.Background(), adminActor, a.ID, domain.StatusConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got.Price != manual {
		t.Fatalf("expected manual price to survive, got %s", got.Price)
	}
}

func TestAppointmentService_SetStatus_AnyTransitionAllowed(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{Status: domain.StatusCompleted})

	got, err := f.svc.SetStatus(context.Background(), adminActor, a.ID, domain.StatusPending)
	if err != nil {
		t.Fatalf("completed -> pending should be accepted, got %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}
}

func TestAppointmentService_SetStatus_RecordsAudit(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{Status: domain.StatusPending})

	if _, err := f.svc.SetStatus(context.Background(), adminActor, a.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.audit.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(f.audit.events))
	}
	e := f.audit.events[0]
	if e.Kind != domain.TransitionStatus || e.From != "pending" || e.To != "cancelled" || e.ActorID != adminActor.UserID {
		t.Errorf("unexpected audit event: %+v", e)
	}
}

func TestAppointmentService_SetStatus_AuditFailureIsNotFatal(t *testing.T) {
	f := newLifecycleFixture()
	f.audit.err = errors.New("audit down")
	a := f.seed(&domain.Appointment{Status: domain.StatusPending})

	if _, err := f.svc.SetStatus(context.Background(), adminActor, a.ID, domain.StatusConfirmed); err != nil {
		t.Fatalf("audit failure must not fail the transition: %v", err)
	}
}

func TestAppointmentService_SetStatus_Errors(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{Status: domain.StatusPending})
	ctx := context.Background()

	if _, err := f.svc.SetStatus(ctx, clientActor, a.ID, domain.StatusConfirmed); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("client: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.SetStatus(ctx, adminActor, "missing", domain.StatusConfirmed); !errors.Is(err, domain.ErrAppointmentNotFound) {
		t.Errorf("missing: expected ErrAppointmentNotFound, got %v", err)
	}
	var ve *domain.ValidationError
	if _, err := f.svc.SetStatus(ctx, adminActor, a.ID, "archived"); !errors.As(err, &ve) {
		t.Errorf("bogus status: expected ValidationError, got %v", err)
	}
	if f.repo.byID[a.ID].Status != domain.StatusPending {
		t.Error("failed calls must not change state")
	}
}

func TestAppointmentService_SetStatus_StorageFault(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{Status: domain.StatusPending, ServiceType: domain.ServiceCouple})
	f.repo.updateErr = errors.New("write failed")

	_, err := f.svc.SetStatus(context.Background(), adminActor, a.ID, domain.StatusConfirmed)
	if err == nil || errors.Is(err, domain.ErrAppointmentNotFound) || errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected a generic storage error, got %v", err)
	}
	stored := f.repo.byID[a.ID]
	if stored.Status != domain.StatusPending || stored.Price != nil {
		t.Fatalf("status and price must change together or not at all: %+v", stored)
	}
}

// ---------------------------------------------------------------------------
// Pay
// ---------------------------------------------------------------------------

func TestAppointmentService_Pay_Matrix(t *testing.T) {
	for _, status := range domain.AppointmentStatuses {
		for _, pay := range []domain.PaymentStatusName{domain.PaymentPending, domain.PaymentPaid, domain.PaymentRefunded} {
			f := newLifecycleFixture()
			a := f.seed(&domain.Appointment{UserID: clientActor.UserID, Status: status, PaymentStatus: pay})

			got, err := f.svc.Pay(context.Background(), clientActor, a.ID, domain.PaymentMethodCard)
			stored := f.repo.byID[a.ID]

			if status == domain.StatusConfirmed && pay != domain.PaymentPaid {
				if err != nil {
					t.Errorf("%s/%s: unexpected error %v", status, pay, err)
					continue
				}
				if got.PaymentStatus != domain.PaymentPaid || got.PaidAt == nil {
					t.Errorf("%s/%s: expected paid with paid_at, got %+v", status, pay, got)
				}
				continue
			}

			if !errors.Is(err, domain.ErrInvalidPaymentState) {
				t.Errorf("%s/%s: expected ErrInvalidPaymentState, got %v", status, pay, err)
			}
			if stored.PaymentStatus != pay || stored.PaidAt != nil {
				t.Errorf("%s/%s: failed payment changed state: %+v", status, pay, stored)
			}
		}
	}
}

func TestAppointmentService_Pay_OwnershipByEmail(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{Email: "a@x.com", Status: domain.StatusConfirmed})

	if _, err := f.svc.Pay(context.Background(), clientActor, a.ID, domain.PaymentMethodSBP); err != nil {
		t.Fatalf("owner by email should be able to pay: %v", err)
	}
}

func TestAppointmentService_Pay_ForeignAppointmentIsNotFound(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{UserID: clientActor.UserID, Email: "a@x.com", Status: domain.StatusConfirmed})

	_, err := f.svc.Pay(context.Background(), otherClient, a.ID, domain.PaymentMethodCard)
	if !errors.Is(err, domain.ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
	if f.repo.byID[a.ID].PaymentStatus != domain.PaymentPending {
		t.Fatal("foreign payment must not change state")
	}
}

func TestAppointmentService_Pay_AdminRejected(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{Email: adminActor.Email, Status: domain.StatusConfirmed})

	if _, err := f.svc.Pay(context.Background(), adminActor, a.ID, domain.PaymentMethodCard); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// MarkPaidByAdmin / Refund
// ---------------------------------------------------------------------------

func TestAppointmentService_MarkPaidByAdmin_NoPreconditions(t *testing.T) {
	for _, status := range domain.AppointmentStatuses {
		f := newLifecycleFixture()
		a := f.seed(&domain.Appointment{Status: status})

		got, err := f.svc.MarkPaidByAdmin(context.Background(), adminActor, a.ID)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", status, err)
		}
		if got.PaymentStatus != domain.PaymentPaid || got.PaidAt == nil {
			t.Errorf("%s: expected paid with paid_at, got %+v", status, got)
		}
		if got.Status != status {
			t.Errorf("%s: status must not change, got %s", status, got.Status)
		}
	}
}

func TestAppointmentService_MarkPaidByAdmin_Errors(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{UserID: clientActor.UserID, Status: domain.StatusConfirmed})
	ctx := context.Background()

	if _, err := f.svc.MarkPaidByAdmin(ctx, clientActor, a.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.MarkPaidByAdmin(ctx, adminActor, "nope"); !errors.Is(err, domain.ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
	if f.repo.byID[a.ID].PaidAt != nil {
		t.Error("paid_at must stay unset after failures")
	}
}

func TestAppointmentService_Refund(t *testing.T) {
	f := newLifecycleFixture()
	a := f.seed(&domain.Appointment{Status: domain.StatusConfirmed})
	ctx := context.Background()

	if _, err := f.svc.Refund(ctx, adminActor, a.ID); !errors.Is(err, domain.ErrInvalidPaymentState) {
		t.Fatalf("refund of unpaid: expected ErrInvalidPaymentState, got %v", err)
	}
	if _, err := f.svc.MarkPaidByAdmin(ctx, adminActor, a.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	got, err := f.svc.Refund(ctx, adminActor, a.ID)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if got.PaymentStatus != domain.PaymentRefunded {
		t.Fatalf("expected refunded, got %s", got.PaymentStatus)
	}
	if _, err := f.svc.Refund(ctx, clientActor, a.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("client refund: expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestAppointmentService_Get(t *testing.T) {
	f := newLifecycleFixture()
	mine := f.seed(&domain.Appointment{Email: "a@x.com"})
	foreign := f.seed(&domain.Appointment{UserID: "u-bob", Email: "bob@example.com"})
	ctx := context.Background()

	if _, err := f.svc.Get(ctx, clientActor, mine.ID); err != nil {
		t.Errorf("own appointment: %v", err)
	}
	if _, err := f.svc.Get(ctx, clientActor, foreign.ID); !errors.Is(err, domain.ErrAppointmentNotFound) {
		t.Errorf("foreign appointment: expected not found, got %v", err)
	}
	if _, err := f.svc.Get(ctx, adminActor, foreign.ID); err != nil {
		t.Errorf("admin read: %v", err)
	}
}

func TestAppointmentService_ListMine_SortedAndScoped(t *testing.T) {
	f := newLifecycleFixture()
	f.seed(&domain.Appointment{UserID: clientActor.UserID, Email: "old@x.com", PreferredDate: "2026-01-10", PreferredTime: "10:00"})
	f.seed(&domain.Appointment{Email: "a@x.com", PreferredDate: "2026-03-01", PreferredTime: "09:00"})
	f.seed(&domain.Appointment{Email: "a@x.com", PreferredDate: "2026-03-01", PreferredTime: "18:30"})
	f.seed(&domain.Appointment{UserID: "u-bob", Email: "bob@example.com", PreferredDate: "2026-12-01"})

	items, err := f.svc.ListMine(context.Background(), clientActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 own appointments, got %d", len(items))
	}
	want := []string{"2026-03-01 18:30", "2026-03-01 09:00", "2026-01-10 10:00"}
	for i, a := range items {
		if got := a.PreferredDate + " " + a.PreferredTime; got != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got, want[i])
		}
	}
}

func TestAppointmentService_ListAll_FiltersAndPaginates(t *testing.T) {
	f := newLifecycleFixture()
	for i := 0; i < 25; i++ {
		f.seed(&domain.Appointment{Status: domain.StatusPending, PreferredDate: "2026-05-10"})
	}
	f.seed(&domain.Appointment{Status: domain.StatusConfirmed, PaymentStatus: domain.PaymentPaid, PreferredDate: "2026-06-01"})
	f.seed(&domain.Appointment{Status: domain.StatusConfirmed, PreferredDate: "2026-07-01"})
	ctx := context.Background()

	page, err := f.svc.ListAll(ctx, adminActor, ports.ListAppointmentsInput{Page: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 27 || page.TotalPages != 2 || len(page.Items) != 7 || page.Limit != PageSize {
		t.Errorf("unexpected page: total=%d pages=%d items=%d", page.Total, page.TotalPages, len(page.Items))
	}

	page, _ = f.svc.ListAll(ctx, adminActor, ports.ListAppointmentsInput{Status: "confirmed", PaymentStatus: "paid"})
	if page.Total != 1 {
		t.Errorf("status+payment filter: expected 1, got %d", page.Total)
	}

	page, _ = f.svc.ListAll(ctx, adminActor, ports.ListAppointmentsInput{DateFrom: "2026-06-01", DateTo: "2026-07-01", Status: "all"})
	if page.Total != 2 {
		t.Errorf("inclusive date range: expected 2, got %d", page.Total)
	}

	page, _ = f.svc.ListAll(ctx, adminActor, ports.ListAppointmentsInput{PaymentStatus: "bogus"})
	if page.Total != 27 {
		t.Errorf("unknown payment status must be ignored, got %d", page.Total)
	}

	if _, err := f.svc.ListAll(ctx, clientActor, ports.ListAppointmentsInput{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("client: expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// End-to-end lifecycle scenario
// ---------------------------------------------------------------------------

func TestAppointmentService_Scenario_SubmitConfirmPay(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()

	a := f.submit(t, annaInput())

	confirmed, err := f.svc.SetStatus(ctx, adminActor, a.ID, domain.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Price.String() != "5000.00" {
		t.Fatalf("expected 5000.00, got %s", confirmed.Price)
	}

	paid, err := f.svc.Pay(ctx, clientActor, a.ID, domain.PaymentMethodCard)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.PaymentStatus != domain.PaymentPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid with paid_at, got %+v", paid)
	}

	if _, err := f.svc.Pay(ctx, clientActor, a.ID, domain.PaymentMethodCard); !errors.Is(err, domain.ErrInvalidPaymentState) {
		t.Fatalf("second pay: expected ErrInvalidPaymentState, got %v", err)
	}

	if len(f.audit.events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(f.audit.events))
	}
}
