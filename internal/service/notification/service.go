package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jevencare/api/internal/email"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/pkg/metrics"
)

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

// Notifier tells appointment participants about lifecycle changes.
// Delivery is asynchronous and never fails the calling operation.
type Notifier interface {
	AppointmentBooked(ctx context.Context, apt *model.Appointment)
	AppointmentCancelled(ctx context.Context, apt *model.Appointment)
}

type service struct {
	users   repository.UserRepository
	queue   chan<- email.Message
	metrics *metrics.Metrics
}

// NewService enqueues messages on queue; a worker.NotificationWorker drains it.
func NewService(users repository.UserRepository, queue chan<- email.Message, m *metrics.Metrics) Notifier {
	return &service{
		users:   users,
		queue:   queue,
		metrics: m,
	}
}

func (s *service) AppointmentBooked(ctx context.Context, apt *model.Appointment) {
	s.notify(ctx, apt, func(self, other *model.UserSummary) email.Message {
		return email.Message{
			Subject: "Appointment confirmed",
			Body: fmt.Sprintf("Hello %s,\n\nYour %s consultation with %s is scheduled for %s.\n\nJevenCare",
				self.Name, apt.Type, other.Name, apt.DateTime.Format(timeLayout)),
		}
	})
}

func (s *service) AppointmentCancelled(ctx context.Context, apt *model.Appointment) {
	reason := model.DefaultCancelReason
	if apt.CancelReason != nil {
		reason = *apt.CancelReason
	}
	s.notify(ctx, apt, func(self, other *model.UserSummary) email.Message {
		return email.Message{
			Subject: "Appointment cancelled",
			Body: fmt.Sprintf("Hello %s,\n\nYour consultation with %s on %s was cancelled.\nReason: %s\n\nJevenCare",
				self.Name, other.Name, apt.DateTime.Format(timeLayout), reason),
		}
	})
}

func (s *service) notify(ctx context.Context, apt *model.Appointment, build func(self, other *model.UserSummary) email.Message) {
	users, err := s.users.GetSummaries(ctx, []uuid.UUID{apt.PatientID, apt.DoctorID})
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to load participants for notification")
		return
	}

	patient, doctor := users[apt.PatientID], users[apt.DoctorID]
	if patient == nil || doctor == nil {
		return
	}
	s.enqueue(patient, doctor, build)
	s.enqueue(doctor, patient, build)
}

func (s *service) enqueue(self, other *model.UserSummary, build func(self, other *model.UserSummary) email.Message) {
	if self.Email == nil || *self.Email == "" {
		return
	}
	msg := build(self, other)
	msg.To = *self.Email

	select {
	case s.queue <- msg:
	default:
		s.metrics.NotificationsSent.WithLabelValues("dropped").Inc()
		log.Warn().Str("to", msg.To).Msg("notification queue full, message dropped")
	}
}
