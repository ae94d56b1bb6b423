package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jevencare/api/internal/email"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository/memory"
	"github.com/jevencare/api/pkg/metrics"
)

func addUser(t *testing.T, users interface {
	CreateWithProfile(context.Context, *model.User, model.RoleProfile) error
}, phone, name string, role model.Role, mail *string) *model.User {
	t.Helper()
	u := &model.User{Base: model.NewBase(time.Now()), Phone: phone, Name: name, Role: role, Email: mail}
	require.NoError(t, users.CreateWithProfile(context.Background(), u, nil))
	return u
}

func TestBookedNotifiesParticipantsWithEmail(t *testing.T) {
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	mail := "patient@example.com"
	patient := addUser(t, users, "9000000001", "Asha", model.RolePatient, &mail)
	doctor := addUser(t, users, "9000000002", "Dr. Rao", model.RoleDoctor, nil)

	queue := make(chan email.Message, 4)
	n := NewService(users, queue, metrics.New("test"))

	apt := &model.Appointment{
		Base:      model.NewBase(time.Now()),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		DateTime:  time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC),
		Type:      model.ConsultationVideo,
	}
	n.AppointmentBooked(context.Background(), apt)

	require.Len(t, queue, 1)
	msg := <-queue
	assert.Equal(t, "patient@example.com", msg.To)
	assert.Equal(t, "Appointment confirmed", msg.Subject)
	assert.Contains(t, msg.Body, "Dr. Rao")
}

func TestFullQueueDropsMessage(t *testing.T) {
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	a, b := "a@example.com", "b@example.com"
	patient := addUser(t, users, "9000000001", "A", model.RolePatient, &a)
	doctor := addUser(t, users, "9000000002", "B", model.RoleDoctor, &b)

	queue := make(chan email.Message, 1)
	n := NewService(users, queue, metrics.New("test"))

	reason := "clash"
	n.AppointmentCancelled(context.Background(), &model.Appointment{
		PatientID:    patient.ID,
		DoctorID:     doctor.ID,
		CancelReason: &reason,
	})

	require.Len(t, queue, 1)
	assert.Contains(t, (<-queue).Body, "Reason: clash")
}
