package model

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RoleProfile is the role specific companion record of a User. It is one of
// *PatientProfile, *DoctorProfile or *PharmacyProfile.
type RoleProfile interface {
	ProfileRole() Role
	OwnerID() uuid.UUID
}

type PatientProfile struct {
	Base
	UserID           uuid.UUID      `json:"userId" db:"user_id"`
	BloodGroup       *string        `json:"bloodGroup,omitempty" db:"blood_group"`
	EmergencyContact *string        `json:"emergencyContact,omitempty" db:"emergency_contact"`
	MedicalHistory   *string        `json:"medicalHistory,omitempty" db:"medical_history"`
	Allergies        pq.StringArray `json:"allergies" db:"allergies"`
}

func (p *PatientProfile) ProfileRole() Role   { return RolePatient }
func (p *PatientProfile) OwnerID() uuid.UUID { return p.UserID }

// Slot is a weekly availability window, e.g. {Monday 09:00 17:00}.
type Slot struct {
	Day       string `json:"day" binding:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	StartTime string `json:"startTime" binding:"required,len=5"`
	EndTime   string `json:"endTime" binding:"required,len=5"`
}

type Slots []Slot

func (s Slots) Value() (driver.Value, error) {
	if s == nil {
		s = Slots{}
	}
	return jsonValue(s)
}

func (s *Slots) Scan(src interface{}) error {
	return scanJSON(src, s)
}

type DoctorProfile struct {
	Base
	UserID          uuid.UUID      `json:"userId" db:"user_id"`
	Specialization  string         `json:"specialization" db:"specialization"`
	Experience      int            `json:"experience" db:"experience"`
	Qualifications  pq.StringArray `json:"qualifications" db:"qualifications"`
	Languages       pq.StringArray `json:"languages" db:"languages"`
	ConsultationFee float64        `json:"consultationFee" db:"consultation_fee"`
	AvailableSlots  Slots          `json:"availableSlots" db:"available_slots"`
	IsAvailable     bool           `json:"isAvailable" db:"is_available"`
	Rating          float64        `json:"rating" db:"rating"`
	TotalRatings    int            `json:"totalRatings" db:"total_ratings"`

	User *UserSummary `json:"user,omitempty" db:"-"`
}

func (p *DoctorProfile) ProfileRole() Role   { return RoleDoctor }
func (p *DoctorProfile) OwnerID() uuid.UUID { return p.UserID }

// Registration defaults for a new doctor.
const (
	DefaultSpecialization  = "General Physician"
	DefaultConsultationFee = 300
)

var DefaultDoctorLanguages = []string{"English", "Hindi"}

type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

type PharmacyProfile struct {
	Base
	UserID       uuid.UUID `json:"userId" db:"user_id"`
	PharmacyName string    `json:"pharmacyName" db:"pharmacy_name"`
	Address      string    `json:"address" db:"address"`
	Location     Location  `json:"location" db:"location"`
	IsOpen       bool      `json:"isOpen" db:"is_open"`

	User          *UserSummary `json:"user,omitempty" db:"-"`
	MedicineCount *int         `json:"medicineCount,omitempty" db:"-"`
	Medicines     []*Medicine  `json:"medicines,omitempty" db:"-"`
}

func (p *PharmacyProfile) ProfileRole() Role   { return RolePharmacy }
func (p *PharmacyProfile) OwnerID() uuid.UUID { return p.UserID }

type DoctorFilter struct {
	Specialization string
	Language       string
	Search         string
	MinFee         *float64
	MaxFee         *float64
	Offset         int
	Limit          int
}

type PharmacyFilter struct {
	Search string
	IsOpen *bool
	Offset int
	Limit  int
}

type UpdateDoctorProfileRequest struct {
	Specialization  *string  `json:"specialization" binding:"omitempty,min=1,max=100"`
	Experience      *int     `json:"experience" binding:"omitempty,gte=0,lte=80"`
	Qualifications  []string `json:"qualifications" binding:"omitempty,dive,min=1"`
	Languages       []string `json:"languages" binding:"omitempty,dive,min=1"`
	ConsultationFee *float64 `json:"consultationFee" binding:"omitempty,gte=0"`
	AvailableSlots  *[]Slot  `json:"availableSlots" binding:"omitempty,dive"`
	IsAvailable     *bool    `json:"isAvailable"`
}

func (r *UpdateDoctorProfileRequest) Apply(p *DoctorProfile) {
	if r.Specialization != nil {
		p.Specialization = *r.Specialization
	}
	if r.Experience != nil {
		p.Experience = *r.Experience
	}
	if r.Qualifications != nil {
		p.Qualifications = r.Qualifications
	}
	if r.Languages != nil {
		p.Languages = uniqueStrings(r.Languages)
	}
	if r.ConsultationFee != nil {
		p.ConsultationFee = *r.ConsultationFee
	}
	if r.AvailableSlots != nil {
		p.AvailableSlots = Slots(*r.AvailableSlots)
	}
	if r.IsAvailable != nil {
		p.IsAvailable = *r.IsAvailable
	}
}

type UpdatePharmacyProfileRequest struct {
	PharmacyName *string   `json:"pharmacyName" binding:"omitempty,min=1,max=200"`
	Address      *string   `json:"address" binding:"omitempty,max=500"`
	Location     *Location `json:"location"`
	IsOpen       *bool     `json:"isOpen"`
}

func (r *UpdatePharmacyProfileRequest) Apply(p *PharmacyProfile) {
	if r.PharmacyName != nil {
		p.PharmacyName = *r.PharmacyName
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.Location != nil {
		p.Location = *r.Location
	}
	if r.IsOpen != nil {
		p.IsOpen = *r.IsOpen
	}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
