package appointment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/redisclient"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/internal/repository/memory"
	"github.com/jevencare/api/internal/service/consult"
	"github.com/jevencare/api/internal/service/payment"
	"github.com/jevencare/api/pkg/auth"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/metrics"
	"github.com/jevencare/api/pkg/pagination"
)

type recordingNotifier struct {
	mu        sync.Mutex
	booked    int
	cancelled int
}

func (n *recordingNotifier) AppointmentBooked(context.Context, *model.Appointment) {
	n.mu.Lock()
	n.booked++
	n.mu.Unlock()
}

func (n *recordingNotifier) AppointmentCancelled(context.Context, *model.Appointment) {
	n.mu.Lock()
	n.cancelled++
	n.mu.Unlock()
}

type countingPayments struct {
	payment.MockProcessor
	refunds atomic.Int32
}

func (p *countingPayments) Refund(ctx context.Context, ref string) error {
	p.refunds.Add(1)
	return p.MockProcessor.Refund(ctx, ref)
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	users    repository.UserRepository
	doctors  repository.DoctorRepository
	notifier *recordingNotifier
	payments *countingPayments
	metrics  *metrics.Metrics
	now      time.Time

	patient auth.Identity
	doctor  auth.Identity
}

var phoneSeq atomic.Int64

func nextPhone() string {
	return fmt.Sprintf("9%09d", phoneSeq.Add(1))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		users:    memory.NewUserRepository(store),
		doctors:  memory.NewDoctorRepository(store),
		notifier: &recordingNotifier{},
		payments: &countingPayments{},
		metrics:  metrics.New("test"),
		now:      time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(
		memory.NewAppointmentRepository(store),
		f.doctors,
		f.users,
		f.payments,
		redisclient.NewNoopLocker(),
		f.notifier,
		consult.NewStubProvider(),
		f.metrics,
		WithClock(func() time.Time { return f.now }),
	)
	f.patient = f.addUser(t, model.RolePatient)
	f.doctor = f.addUser(t, model.RoleDoctor)
	return f
}

type failingSummaries struct {
	repository.UserRepository
}

func (failingSummaries) GetSummaries(context.Context, []uuid.UUID) (map[uuid.UUID]*model.UserSummary, error) {
	return nil, errors.New("connection reset")
}

func (f *fixture) addUser(t *testing.T, role model.Role) auth.Identity {
	t.Helper()
	u := &model.User{Base: model.NewBase(f.now), Phone: nextPhone(), Name: "User " + string(role), Role: role, IsActive: true}

	var profile model.RoleProfile
	switch role {
	case model.RolePatient:
		profile = &model.PatientProfile{Base: model.NewBase(f.now), UserID: u.ID, Allergies: pq.StringArray{}}
	case model.RoleDoctor:
		profile = &model.DoctorProfile{
			Base:            model.NewBase(f.now),
			UserID:          u.ID,
			Specialization:  model.DefaultSpecialization,
			ConsultationFee: 500,
			IsAvailable:     true,
		}
	}
	require.NoError(t, f.users.CreateWithProfile(context.Background(), u, profile))
	return auth.Identity{UserID: u.ID, Phone: u.Phone, Role: string(role)}
}

func (f *fixture) book(t *testing.T, at time.Time) *model.Appointment {
	t.Helper()
	apt, err := f.svc.Book(context.Background(), f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctor.UserID,
		DateTime: at,
		Type:     model.ConsultationVideo,
		Symptoms: "fever",
	})
	require.NoError(t, err)
	return apt
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected app error, got %v", err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func TestBookSnapshotsFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	apt := f.book(t, f.now.Add(24*time.Hour))

	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, model.PaymentStatusCompleted, apt.PaymentStatus)
	assert.Equal(t, float64(500), apt.ConsultationFee)
	require.NotNil(t, apt.Doctor)
	assert.Equal(t, "User doctor", apt.Doctor.Name)
	assert.Equal(t, 1, f.notifier.booked)

	profile, err := f.doctors.GetByUser(ctx, f.doctor.UserID)
	require.NoError(t, err)
	profile.ConsultationFee = 900
	require.NoError(t, f.doctors.Update(ctx, profile))

	got, err := f.svc.Get(ctx, f.patient, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(500), got.ConsultationFee)
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctor.UserID, DateTime: f.now.Add(-time.Minute), Type: model.ConsultationChat, Symptoms: "cough",
	})
	assertCode(t, err, apperrors.ErrBadRequest)

	_, err = f.svc.Book(ctx, f.patient, &model.BookAppointmentRequest{
		DoctorID: uuid.New(), DateTime: f.now.Add(time.Hour), Type: model.ConsultationChat, Symptoms: "cough",
	})
	assertCode(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Book(ctx, f.doctor, &model.BookAppointmentRequest{
		DoctorID: f.doctor.UserID, DateTime: f.now.Add(time.Hour), Type: model.ConsultationChat, Symptoms: "cough",
	})
	assertCode(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Book(ctx, f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctor.UserID, DateTime: f.now.Add(time.Hour), Type: model.ConsultationChat,
	})
	assertCode(t, err, apperrors.ErrBadRequest)
}

func TestDoubleBookingRejectedUntilCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := f.now.Add(48 * time.Hour)
	first := f.book(t, at)

	other := f.addUser(t, model.RolePatient)
	req := &model.BookAppointmentRequest{DoctorID: f.doctor.UserID, DateTime: at.Add(30 * time.Second), Type: model.ConsultationVideo, Symptoms: "rash"}
	_, err := f.svc.Book(ctx, other, req)
	assertCode(t, err, apperrors.ErrConflict)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.BookingConflicts))

	_, err = f.svc.Cancel(ctx, f.patient, first.ID, "")
	require.NoError(t, err)

	apt, err := f.svc.Book(ctx, other, req)
	require.NoError(t, err)
	assert.Equal(t, at, apt.DateTime)
}

func TestConcurrentBookingsSingleWinner(t *testing.T) {
	f := newFixture(t)
	at := f.now.Add(72 * time.Hour)

	const n = 16
	patients := make([]auth.Identity, n)
	for i := range patients {
		patients[i] = f.addUser(t, model.RolePatient)
	}

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(p auth.Identity) {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), p, &model.BookAppointmentRequest{
				DoctorID: f.doctor.UserID, DateTime: at, Type: model.ConsultationVideo, Symptoms: "fever",
			})
			if err == nil {
				wins.Add(1)
			} else if apperrors.HasCode(err, apperrors.ErrConflict) {
				conflicts.Add(1)
			}
		}(patients[i])
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(n-1), conflicts.Load())
}

func TestListIsScopedToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		f.book(t, f.now.Add(time.Duration(i)*time.Hour))
	}
	otherDoctor := f.addUser(t, model.RoleDoctor)

	apts, meta, err := f.svc.List(ctx, f.patient, "", pagination.New(1, 2, 0))
	require.NoError(t, err)
	assert.Len(t, apts, 2)
	assert.Equal(t, pagination.Meta{Total: 3, Page: 1, Pages: 2}, meta)
	assert.True(t, apts[0].DateTime.After(apts[1].DateTime))

	apts, _, err = f.svc.List(ctx, f.doctor, "scheduled", pagination.New(0, 0, 0))
	require.NoError(t, err)
	assert.Len(t, apts, 3)

	apts, meta, err = f.svc.List(ctx, otherDoctor, "", pagination.New(0, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, apts)
	assert.Equal(t, 0, meta.Total)

	_, _, err = f.svc.List(ctx, f.doctor, "bogus", pagination.New(0, 0, 0))
	assertCode(t, err, apperrors.ErrBadRequest)

	pharmacy := auth.Identity{UserID: uuid.New(), Role: string(model.RolePharmacy)}
	_, _, err = f.svc.List(ctx, pharmacy, "", pagination.New(0, 0, 0))
	assertCode(t, err, apperrors.ErrForbidden)
}

func TestGetOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	apt := f.book(t, f.now.Add(time.Hour))

	_, err := f.svc.Get(ctx, f.doctor, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.addUser(t, model.RolePatient), apt.ID)
	assertCode(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Get(ctx, f.patient, uuid.New())
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	apt := f.book(t, f.now.Add(time.Hour))

	_, err := f.svc.UpdateStatus(ctx, f.patient, apt.ID, model.AppointmentStatusOngoing)
	assertCode(t, err, apperrors.ErrForbidden)

	_, err = f.svc.UpdateStatus(ctx, f.doctor, apt.ID, model.AppointmentStatusCompleted)
	assertCode(t, err, apperrors.ErrConflict)

	_, err = f.svc.UpdateStatus(ctx, f.doctor, apt.ID, "paused")
	assertCode(t, err, apperrors.ErrBadRequest)

	got, err := f.svc.UpdateStatus(ctx, f.doctor, apt.ID, model.AppointmentStatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusOngoing, got.Status)

	got, err = f.svc.UpdateStatus(ctx, f.doctor, apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)

	_, err = f.svc.UpdateStatus(ctx, f.doctor, apt.ID, model.AppointmentStatusScheduled)
	assertCode(t, err, apperrors.ErrConflict)

	events, err := f.svc.Events(ctx, f.patient, apt.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, model.AppointmentStatusCompleted, events[2].ToStatus)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.AppointmentTransitions.WithLabelValues("completed")))
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apt := f.book(t, f.now.Add(time.Hour))
	stranger := f.addUser(t, model.RolePatient)
	_, err := f.svc.Cancel(ctx, stranger, apt.ID, "")
	assertCode(t, err, apperrors.ErrForbidden)

	got, err := f.svc.Cancel(ctx, f.doctor, apt.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, "Cancelled by user", *got.CancelReason)
	assert.Equal(t, model.PaymentStatusRefunded, got.PaymentStatus)
	assert.Equal(t, int32(1), f.payments.refunds.Load())
	assert.Equal(t, 1, f.notifier.cancelled)

	_, err = f.svc.Cancel(ctx, f.patient, apt.ID, "again")
	assertCode(t, err, apperrors.ErrConflict)

	done := f.book(t, f.now.Add(2*time.Hour))
	_, err = f.svc.UpdateStatus(ctx, f.doctor, done.ID, model.AppointmentStatusOngoing)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.doctor, done.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.patient, done.ID, "too late")
	assertCode(t, err, apperrors.ErrConflict)
}

func TestAttachPrescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &model.PrescriptionRequest{
		Medicines: []model.PrescribedMedicine{{Name: "Paracetamol", Dosage: "500mg", Duration: "3 days"}},
		Notes:     "rest",
	}

	scheduled := f.book(t, f.now.Add(time.Hour))
	got, err := f.svc.AttachPrescription(ctx, f.doctor, scheduled.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)
	require.NotNil(t, got.Prescription)
	assert.Equal(t, "rest", got.Prescription.Notes)

	_, err = f.svc.UpdateStatus(ctx, f.doctor, scheduled.ID, model.AppointmentStatusOngoing)
	require.NoError(t, err)

	req.Notes = "rest and fluids"
	got, err = f.svc.AttachPrescription(ctx, f.doctor, scheduled.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)
	assert.Equal(t, "rest and fluids", got.Prescription.Notes)

	_, err = f.svc.AttachPrescription(ctx, f.patient, scheduled.ID, req)
	assertCode(t, err, apperrors.ErrForbidden)

	cancelled := f.book(t, f.now.Add(3*time.Hour))
	_, err = f.svc.Cancel(ctx, f.patient, cancelled.ID, "")
	require.NoError(t, err)
	_, err = f.svc.AttachPrescription(ctx, f.doctor, cancelled.ID, req)
	assertCode(t, err, apperrors.ErrConflict)

	bad := &model.PrescriptionRequest{Medicines: []model.PrescribedMedicine{{Name: "X"}}}
	_, err = f.svc.AttachPrescription(ctx, f.doctor, scheduled.ID, bad)
	assertCode(t, err, apperrors.ErrBadRequest)
}

func TestJoinCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	apt := f.book(t, f.now.Add(time.Hour))

	session, err := f.svc.JoinCall(ctx, f.patient, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, "room_"+apt.ID.String(), session.RoomID)
	assert.Equal(t, model.RolePatient, session.Role)

	_, err = f.svc.JoinCall(ctx, f.addUser(t, model.RolePatient), apt.ID)
	assertCode(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Cancel(ctx, f.patient, apt.ID, "")
	require.NoError(t, err)
	_, err = f.svc.JoinCall(ctx, f.doctor, apt.ID)
	assertCode(t, err, apperrors.ErrConflict)
}

func TestCancelViaStatusRefundsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	apt := f.book(t, f.now.Add(time.Hour))
	require.Equal(t, model.PaymentStatusCompleted, apt.PaymentStatus)

	got, err := f.svc.UpdateStatus(ctx, f.doctor, apt.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)
	assert.Equal(t, model.PaymentStatusRefunded, got.PaymentStatus)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, "Cancelled by doctor", *got.CancelReason)
	assert.Equal(t, int32(1), f.payments.refunds.Load())
	assert.Equal(t, 1, f.notifier.cancelled)

	stored, err := f.svc.Get(ctx, f.patient, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, stored.PaymentStatus)

	_, err = f.svc.UpdateStatus(ctx, f.doctor, apt.ID, model.AppointmentStatusCancelled)
	assertCode(t, err, apperrors.ErrConflict)
	assert.Equal(t, int32(1), f.payments.refunds.Load())
}

func TestWritesSurviveParticipantLookupFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(
		memory.NewAppointmentRepository(f.store),
		f.doctors,
		failingSummaries{f.users},
		f.payments,
		redisclient.NewNoopLocker(),
		f.notifier,
		consult.NewStubProvider(),
		f.metrics,
		WithClock(func() time.Time { return f.now }),
	)

	apt, err := svc.Book(ctx, f.patient, &model.BookAppointmentRequest{
		DoctorID: f.doctor.UserID,
		DateTime: f.now.Add(time.Hour),
		Type:     model.ConsultationChat,
		Symptoms: "cough",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Nil(t, apt.Patient)
	assert.Equal(t, int32(0), f.payments.refunds.Load())

	got, err := svc.UpdateStatus(ctx, f.doctor, apt.ID, model.AppointmentStatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusOngoing, got.Status)
}

func TestListBeyondLastPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, f.now.Add(time.Hour))

	apts, meta, err := f.svc.List(ctx, f.patient, "", pagination.New(math.MaxInt, 10, 10))
	require.NoError(t, err)
	assert.Empty(t, apts)
	assert.Equal(t, 1, meta.Total)

	apts, _, err = f.svc.List(ctx, f.patient, "", pagination.Params{Page: math.MaxInt, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, apts)
}
