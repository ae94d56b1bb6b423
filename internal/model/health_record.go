package model

import (
	"time"

	"github.com/google/uuid"
)

type RecordType string

const (
	RecordTypePrescription RecordType = "prescription"
	RecordTypeLabReport    RecordType = "lab_report"
	RecordTypeVisitSummary RecordType = "visit_summary"
	RecordTypeScan         RecordType = "scan"
	RecordTypeOther        RecordType = "other"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordTypePrescription, RecordTypeLabReport, RecordTypeVisitSummary, RecordTypeScan, RecordTypeOther:
		return true
	}
	return false
}

type HealthRecord struct {
	Base
	PatientID     uuid.UUID  `json:"patientId" db:"patient_id"`
	DoctorID      *uuid.UUID `json:"doctorId,omitempty" db:"doctor_id"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty" db:"appointment_id"`
	Type          RecordType `json:"type" db:"type"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	FileURL       *string    `json:"fileUrl,omitempty" db:"file_url"`
	FileKey       *string    `json:"-" db:"file_key"`
	FileType      *string    `json:"fileType,omitempty" db:"file_type"`
	FileSize      *int64     `json:"fileSize,omitempty" db:"file_size"`
	Date          time.Time  `json:"date" db:"date"`

	Doctor *UserSummary `json:"doctor,omitempty" db:"-"`
}

type RecordFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Type      *RecordType
	Offset    int
	Limit     int
}

// CreateRecordRequest is bound from a multipart form.
type CreateRecordRequest struct {
	Type          RecordType `form:"type" binding:"required,oneof=prescription lab_report visit_summary scan other"`
	Title         string     `form:"title" binding:"required,min=1,max=200"`
	Description   string     `form:"description" binding:"required,min=1,max=4000"`
	DoctorID      string     `form:"doctorId" binding:"omitempty,uuid"`
	AppointmentID string     `form:"appointmentId" binding:"omitempty,uuid"`
	Date          string     `form:"date"`
}

// UploadedFile is a file attached to a new record.
type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}
