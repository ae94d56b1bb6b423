package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusOngoing   AppointmentStatus = "ongoing"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// appointmentTransitions is the only source of legal status moves.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {AppointmentStatusOngoing, AppointmentStatusCancelled},
	AppointmentStatusOngoing:   {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusCompleted: nil,
	AppointmentStatusCancelled: nil,
}

func (s AppointmentStatus) Valid() bool {
	_, ok := appointmentTransitions[s]
	return ok
}

func (s AppointmentStatus) Terminal() bool {
	return s.Valid() && len(appointmentTransitions[s]) == 0
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ConsultationType string

const (
	ConsultationVideo ConsultationType = "video"
	ConsultationChat  ConsultationType = "chat"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

const DefaultCancelReason = "Cancelled by user"

type PrescribedMedicine struct {
	MedicineID   *string `json:"medicineId,omitempty"`
	Name         string  `json:"name" binding:"required,max=200"`
	Dosage       string  `json:"dosage" binding:"required,max=200"`
	Duration     string  `json:"duration" binding:"required,max=100"`
	Instructions string  `json:"instructions,omitempty" binding:"max=1000"`
}

type Prescription struct {
	Medicines []PrescribedMedicine `json:"medicines"`
	LabTests  []string             `json:"labTests,omitempty"`
	Notes     string               `json:"notes"`
}

func (p Prescription) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *Prescription) Scan(src interface{}) error {
	return scanJSON(src, p)
}

type Appointment struct {
	Base
	PatientID       uuid.UUID         `json:"patientId" db:"patient_id"`
	DoctorID        uuid.UUID         `json:"doctorId" db:"doctor_id"`
	DateTime        time.Time         `json:"dateTime" db:"date_time"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Type            ConsultationType  `json:"type" db:"type"`
	Symptoms        string            `json:"symptoms" db:"symptoms"`
	ConsultationFee float64           `json:"consultationFee" db:"consultation_fee"`
	PaymentStatus   PaymentStatus     `json:"paymentStatus" db:"payment_status"`
	PaymentRef      *string           `json:"-" db:"payment_ref"`
	Prescription    *Prescription     `json:"prescription,omitempty" db:"prescription"`
	CancelReason    *string           `json:"cancelReason,omitempty" db:"cancel_reason"`

	Patient *UserSummary `json:"patient,omitempty" db:"-"`
	Doctor  *UserSummary `json:"doctor,omitempty" db:"-"`
}

// IsParticipant reports whether userID is the patient or the doctor.
func (a *Appointment) IsParticipant(userID uuid.UUID) bool {
	return a.PatientID == userID || a.DoctorID == userID
}

// SlotTime normalizes a booking time to the minute in UTC.
func SlotTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// AppointmentEvent records one status change.
type AppointmentEvent struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	AppointmentID uuid.UUID          `json:"appointmentId" db:"appointment_id"`
	ActorID       uuid.UUID          `json:"actorId" db:"actor_id"`
	FromStatus    *AppointmentStatus `json:"fromStatus,omitempty" db:"from_status"`
	ToStatus      AppointmentStatus  `json:"toStatus" db:"to_status"`
	Note          *string            `json:"note,omitempty" db:"note"`
	CreatedAt     time.Time          `json:"createdAt" db:"created_at"`
}

type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	Offset    int
	Limit     int
}

type BookAppointmentRequest struct {
	DoctorID uuid.UUID        `json:"doctorId" binding:"required"`
	DateTime time.Time        `json:"dateTime" binding:"required"`
	Type     ConsultationType `json:"type" binding:"required,oneof=video chat"`
	Symptoms string           `json:"symptoms" binding:"required,min=1,max=2000"`
}

type UpdateStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
}

type CancelAppointmentRequest struct {
	CancelReason string `json:"cancelReason" binding:"max=500"`
}

type PrescriptionRequest struct {
	Medicines []PrescribedMedicine `json:"medicines" binding:"dive"`
	LabTests  []string             `json:"labTests" binding:"omitempty,dive,min=1,max=200"`
	Notes     string               `json:"notes" binding:"max=4000"`
}

// CallSession is the handle returned when a participant joins a consultation.
type CallSession struct {
	RoomID        string           `json:"roomId"`
	AppointmentID uuid.UUID        `json:"appointmentId"`
	Type          ConsultationType `json:"type"`
	Role          Role             `json:"role"`
	Token         string           `json:"token"`
	JoinedAt      time.Time        `json:"joinedAt"`
}

// AppointmentTransition is a compare-and-swap status change. It only applies
// while the stored status still equals From.
type AppointmentTransition struct {
	AppointmentID uuid.UUID
	ActorID       uuid.UUID
	From          AppointmentStatus
	To            AppointmentStatus
	CancelReason  *string
	Prescription  *Prescription
	PaymentStatus *PaymentStatus
	Note          *string
	At            time.Time
}
