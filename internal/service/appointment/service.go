package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/redisclient"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/internal/service/consult"
	"github.com/jevencare/api/internal/service/notification"
	"github.com/jevencare/api/internal/service/payment"
	"github.com/jevencare/api/pkg/auth"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/metrics"
	"github.com/jevencare/api/pkg/pagination"
)

const (
	msgSlotTaken        = "Doctor is not available at this time"
	msgPastDate         = "Appointment time must be in the future"
	msgNotYours         = "Not authorized to access this appointment"
	msgCancelCompleted  = "Cannot cancel completed appointment"
	msgAlreadyCancelled = "Appointment is already cancelled"
	msgChangedMeanwhile = "Appointment was modified by another request, please retry"
)

type Service struct {
	repo     repository.AppointmentRepository
	doctors  repository.DoctorRepository
	users    repository.UserRepository
	payments payment.Processor
	locker   redisclient.Locker
	notifier notification.Notifier
	calls    consult.Provider
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo repository.AppointmentRepository, doctors repository.DoctorRepository,
	users repository.UserRepository, payments payment.Processor, locker redisclient.Locker,
	notifier notification.Notifier, calls consult.Provider, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		doctors:  doctors,
		users:    users,
		payments: payments,
		locker:   locker,
		notifier: notifier,
		calls:    calls,
		metrics:  m,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book creates a scheduled, paid appointment for the calling patient. The
// fee is copied from the doctor's profile at booking time.
func (s *Service) Book(ctx context.Context, caller auth.Identity, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if model.Role(caller.Role) != model.RolePatient {
		return nil, apperrors.Forbidden("Only patients can book appointments")
	}
	if req.DoctorID == uuid.Nil || req.DateTime.IsZero() || req.Type == "" || strings.TrimSpace(req.Symptoms) == "" {
		return nil, apperrors.BadRequest("Please provide all required fields", nil)
	}
	if req.Type != model.ConsultationVideo && req.Type != model.ConsultationChat {
		return nil, apperrors.BadRequest("type must be video or chat", nil)
	}

	doctor, err := s.doctors.GetByUser(ctx, req.DoctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}

	now := s.now().UTC()
	at := model.SlotTime(req.DateTime)
	if !at.After(now) {
		return nil, apperrors.BadRequest(msgPastDate, nil)
	}

	apt := &model.Appointment{
		Base:            model.NewBase(now),
		PatientID:       caller.UserID,
		DoctorID:        req.DoctorID,
		DateTime:        at,
		Status:          model.AppointmentStatusScheduled,
		Type:            req.Type,
		Symptoms:        strings.TrimSpace(req.Symptoms),
		ConsultationFee: doctor.ConsultationFee,
		PaymentStatus:   model.PaymentStatusPending,
	}

	err = s.locker.WithSlotLock(ctx, apt.DoctorID, at, func(ctx context.Context) error {
		return s.create(ctx, apt)
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		err = apperrors.Conflict(msgSlotTaken, err)
	}
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrConflict) {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	s.metrics.AppointmentsBooked.Inc()
	log.Info().
		Str("appointment_id", apt.ID.String()).
		Str("doctor_id", apt.DoctorID.String()).
		Time("date_time", apt.DateTime).
		Msg("appointment booked")

	s.notifier.AppointmentBooked(ctx, apt)
	s.decorate(ctx, apt)
	return apt, nil
}

// create checks the slot, charges the patient and inserts. A lost insert
// race refunds the charge.
func (s *Service) create(ctx context.Context, apt *model.Appointment) error {
	taken, err := s.repo.HasActiveAt(ctx, apt.DoctorID, apt.DateTime)
	if err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		return apperrors.Conflict(msgSlotTaken, nil)
	}

	ref, err := s.payments.Charge(ctx, apt.PatientID, apt.ConsultationFee)
	if err != nil {
		return fmt.Errorf("payment failed: %w", err)
	}
	apt.PaymentRef = &ref
	apt.PaymentStatus = model.PaymentStatusCompleted

	if err := s.repo.Create(ctx, apt); err != nil {
		if rerr := s.payments.Refund(ctx, ref); rerr != nil {
			log.Error().Err(rerr).Str("payment_ref", ref).Msg("failed to refund after booking failure")
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict(msgSlotTaken, err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// List returns the caller's own appointments, newest first.
func (s *Service) List(ctx context.Context, caller auth.Identity, status string, page pagination.Params) ([]*model.Appointment, pagination.Meta, error) {
	filter := &model.AppointmentFilter{Offset: page.Offset(), Limit: page.Limit}

	switch model.Role(caller.Role) {
	case model.RolePatient:
		filter.PatientID = &caller.UserID
	case model.RoleDoctor:
		filter.DoctorID = &caller.UserID
	default:
		return nil, pagination.Meta{}, apperrors.Forbidden("Only patients and doctors have appointments")
	}

	if status != "" {
		st := model.AppointmentStatus(status)
		if !st.Valid() {
			return nil, pagination.Meta{}, apperrors.BadRequest("Invalid status", nil)
		}
		filter.Status = &st
	}

	apts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list appointments: %w", err)
	}
	if err := s.withParticipants(ctx, apts...); err != nil {
		return nil, pagination.Meta{}, err
	}
	return apts, page.Meta(total), nil
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apt.IsParticipant(caller.UserID) {
		return nil, apperrors.Forbidden(msgNotYours)
	}
	if err := s.withParticipants(ctx, apt); err != nil {
		return nil, err
	}
	return apt, nil
}

// UpdateStatus moves the appointment along the lifecycle. Only the owning
// doctor may call it and only legal transitions are accepted.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, apperrors.BadRequest("Invalid status", nil)
	}

	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.DoctorID != caller.UserID {
		return nil, apperrors.Forbidden("Not authorized")
	}
	if !apt.Status.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot change status from %s to %s", apt.Status, status), nil)
	}

	if status == model.AppointmentStatusCancelled {
		return s.cancel(ctx, apt, caller.UserID, "Cancelled by doctor")
	}

	return s.transition(ctx, &model.AppointmentTransition{
		AppointmentID: apt.ID,
		ActorID:       caller.UserID,
		From:          apt.Status,
		To:            status,
		At:            s.now().UTC(),
	})
}

// Cancel is allowed for either participant until the appointment completes.
func (s *Service) Cancel(ctx context.Context, caller auth.Identity, id uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	isPatient := model.Role(caller.Role) == model.RolePatient && apt.PatientID == caller.UserID
	isDoctor := model.Role(caller.Role) == model.RoleDoctor && apt.DoctorID == caller.UserID
	if !isPatient && !isDoctor {
		return nil, apperrors.Forbidden("Not authorized to cancel this appointment")
	}

	switch apt.Status {
	case model.AppointmentStatusCompleted:
		return nil, apperrors.Conflict(msgCancelCompleted, nil)
	case model.AppointmentStatusCancelled:
		return nil, apperrors.Conflict(msgAlreadyCancelled, nil)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = model.DefaultCancelReason
	}

	return s.cancel(ctx, apt, caller.UserID, reason)
}

// cancel refunds a completed payment, records the cancellation and notifies
// the participants. Every cancellation path goes through it.
func (s *Service) cancel(ctx context.Context, apt *model.Appointment, actorID uuid.UUID, reason string) (*model.Appointment, error) {
	t := &model.AppointmentTransition{
		AppointmentID: apt.ID,
		ActorID:       actorID,
		From:          apt.Status,
		To:            model.AppointmentStatusCancelled,
		CancelReason:  &reason,
		At:            s.now().UTC(),
	}

	if apt.PaymentStatus == model.PaymentStatusCompleted && apt.PaymentRef != nil {
		if err := s.payments.Refund(ctx, *apt.PaymentRef); err != nil {
			log.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("refund failed on cancellation")
		} else {
			refunded := model.PaymentStatusRefunded
			t.PaymentStatus = &refunded
		}
	}

	updated, err := s.transition(ctx, t)
	if err != nil {
		return nil, err
	}
	s.notifier.AppointmentCancelled(ctx, updated)
	return updated, nil
}

// AttachPrescription replaces the prescription. An ongoing consultation is
// completed by it; other states are left as they are.
func (s *Service) AttachPrescription(ctx context.Context, caller auth.Identity, id uuid.UUID, req *model.PrescriptionRequest) (*model.Appointment, error) {
	for i, m := range req.Medicines {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Dosage) == "" || strings.TrimSpace(m.Duration) == "" {
			return nil, apperrors.BadRequest(fmt.Sprintf("medicine %d needs name, dosage and duration", i+1), nil)
		}
	}

	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.DoctorID != caller.UserID {
		return nil, apperrors.Forbidden("Not authorized")
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.Conflict("Cannot add a prescription to a cancelled appointment", nil)
	}

	prescription := &model.Prescription{
		Medicines: req.Medicines,
		LabTests:  req.LabTests,
		Notes:     req.Notes,
	}
	if prescription.Medicines == nil {
		prescription.Medicines = []model.PrescribedMedicine{}
	}
	if prescription.LabTests == nil {
		prescription.LabTests = []string{}
	}

	next := apt.Status
	if apt.Status == model.AppointmentStatusOngoing {
		next = model.AppointmentStatusCompleted
	}
	note := "prescription attached"

	return s.transition(ctx, &model.AppointmentTransition{
		AppointmentID: apt.ID,
		ActorID:       caller.UserID,
		From:          apt.Status,
		To:            next,
		Prescription:  prescription,
		Note:          &note,
		At:            s.now().UTC(),
	})
}

// JoinCall returns a consultation session for a participant of an active
// appointment.
func (s *Service) JoinCall(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.CallSession, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apt.IsParticipant(caller.UserID) {
		return nil, apperrors.Forbidden(msgNotYours)
	}
	if apt.Status != model.AppointmentStatusScheduled && apt.Status != model.AppointmentStatusOngoing {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot join a %s appointment", apt.Status), nil)
	}
	return s.calls.Join(ctx, apt, caller.UserID, model.Role(caller.Role))
}

// Events returns the status history of an appointment.
func (s *Service) Events(ctx context.Context, caller auth.Identity, id uuid.UUID) ([]*model.AppointmentEvent, error) {
	apt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apt.IsParticipant(caller.UserID) {
		return nil, apperrors.Forbidden(msgNotYours)
	}
	return s.repo.ListEvents(ctx, apt.ID)
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) transition(ctx context.Context, t *model.AppointmentTransition) (*model.Appointment, error) {
	apt, err := s.repo.Transition(ctx, t)
	switch {
	case errors.Is(err, repository.ErrStale):
		return nil, apperrors.Conflict(msgChangedMeanwhile, err)
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NotFound("appointment", err)
	case err != nil:
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	if t.From != t.To {
		s.metrics.AppointmentTransitions.WithLabelValues(string(t.To)).Inc()
		log.Info().
			Str("appointment_id", apt.ID.String()).
			Str("from", string(t.From)).
			Str("to", string(t.To)).
			Str("actor_id", t.ActorID.String()).
			Msg("appointment status changed")
	}

	s.decorate(ctx, apt)
	return apt, nil
}

// decorate fills the participant summaries after a committed write. A lookup
// failure is logged and the appointment is returned without them.
func (s *Service) decorate(ctx context.Context, apt *model.Appointment) {
	if err := s.withParticipants(ctx, apt); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to load appointment participants")
	}
}

// withParticipants fills the patient and doctor summaries.
func (s *Service) withParticipants(ctx context.Context, apts ...*model.Appointment) error {
	if len(apts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, 2*len(apts))
	for _, a := range apts {
		ids = append(ids, a.PatientID, a.DoctorID)
	}

	users, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	for _, a := range apts {
		a.Patient = users[a.PatientID]
		a.Doctor = users[a.DoctorID]
	}
	return nil
}
