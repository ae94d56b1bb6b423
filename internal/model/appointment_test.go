package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentTransitions(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusOngoing, true},
		{AppointmentStatusScheduled, AppointmentStatusCancelled, true},
		{AppointmentStatusScheduled, AppointmentStatusCompleted, false},
		{AppointmentStatusOngoing, AppointmentStatusCompleted, true},
		{AppointmentStatusOngoing, AppointmentStatusCancelled, true},
		{AppointmentStatusOngoing, AppointmentStatusScheduled, false},
		{AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{AppointmentStatusCompleted, AppointmentStatusScheduled, false},
		{AppointmentStatusCancelled, AppointmentStatusScheduled, false},
		{AppointmentStatusScheduled, AppointmentStatusScheduled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestAppointmentStatusValid(t *testing.T) {
	assert.True(t, AppointmentStatusOngoing.Valid())
	assert.False(t, AppointmentStatus("rescheduled").Valid())
	assert.True(t, AppointmentStatusCompleted.Terminal())
	assert.True(t, AppointmentStatusCancelled.Terminal())
	assert.False(t, AppointmentStatusScheduled.Terminal())
	assert.False(t, AppointmentStatus("bogus").Terminal())
}

func TestSlotTime(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2030, 6, 1, 14, 30, 45, 999, ist)

	got := SlotTime(in)
	assert.Equal(t, time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestPrescriptionScan(t *testing.T) {
	var p Prescription
	err := p.Scan([]byte(`{"medicines":[{"name":"Paracetamol","dosage":"500mg","duration":"5 days"}],"notes":"rest"}`))
	assert.NoError(t, err)
	assert.Len(t, p.Medicines, 1)
	assert.Equal(t, "rest", p.Notes)

	assert.Error(t, p.Scan(42))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("9000000001"))
	assert.False(t, ValidPhone("+919000000001"))
	assert.False(t, ValidPhone("90000"))
	assert.False(t, ValidPhone("90000000ab"))
}
